package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_v1_202610/internal/controller"
	"storefront_v1_202610/internal/middleware"
)

// Controllers 控制器集合
type Controllers struct {
	Category  *controller.CategoryController
	Attribute *controller.AttributeController
	Variant   *controller.VariantController
	Currency  *controller.CurrencyController
	Order     *controller.OrderController
}

// Options 路由级配置
type Options struct {
	Logger *zap.Logger
	// Cooldown 手动批处理操作的冷却时间，0 表示不限制
	Cooldown time.Duration
}

// SetupRouter 创建 gin 引擎并注册所有路由
func SetupRouter(ctls *Controllers, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(logger), middleware.Recovery(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	InitRoutes(r, ctls, middleware.NewCooldownLimiter(), opts.Cooldown)
	return r
}

// InitRoutes 注册所有 API 路由
func InitRoutes(r *gin.Engine, ctls *Controllers, limiter *middleware.CooldownLimiter, cooldown time.Duration) {
	api := r.Group("/api")
	{
		// 分类
		categories := api.Group("/categories")
		{
			// GET /api/categories/:id/lineage
			categories.GET("/:id/lineage", ctls.Category.GetLineage)
			// POST /api/categories/:id/attributes
			categories.POST("/:id/attributes", ctls.Attribute.EnsureCategoryAttribute)
			// POST /api/categories/:id/consolidate?prefer=<slug>
			categories.POST("/:id/consolidate",
				middleware.Cooldown(limiter, middleware.OperationConsolidate, cooldown),
				ctls.Attribute.ConsolidateCategory,
			)
		}

		// 属性
		attributes := api.Group("/attributes")
		{
			attributes.POST("/:id/options", ctls.Attribute.EnsureAttributeOption)
		}

		// 商品属性与变体组
		products := api.Group("/products")
		{
			products.GET("/:id/attributes", ctls.Attribute.GetProductAttributes)
			products.PUT("/:id/attributes", ctls.Attribute.UpsertProductAttributes)
			products.POST("/:id/attributes/import", ctls.Attribute.ImportProductAttributes)
			products.GET("/:id/variants", ctls.Variant.GetGroupLabels)
		}

		variants := api.Group("/variants")
		{
			variants.POST("/merge", ctls.Variant.MergeVariants)
			variants.POST("/auto-merge",
				middleware.Cooldown(limiter, middleware.OperationAutoMerge, cooldown),
				ctls.Variant.AutoMerge,
			)
		}

		// 系统设置与汇率
		api.GET("/settings", ctls.Currency.GetSettings)
		api.PUT("/settings", ctls.Currency.UpdateSettings)
		api.GET("/prices", ctls.Currency.Price)

		currency := api.Group("/currency")
		{
			currency.GET("/rates", ctls.Currency.GetRates)
			currency.POST("/refresh",
				middleware.Cooldown(limiter, middleware.OperationRateRefresh, cooldown),
				ctls.Currency.RefreshRates,
			)
		}

		// 订单
		orders := api.Group("/orders")
		{
			orders.POST("", ctls.Order.CreateOrder)
			orders.GET("/:id", ctls.Order.GetOrder)
			orders.POST("/:id/payment", ctls.Order.RecordPayment)
		}
	}
}
