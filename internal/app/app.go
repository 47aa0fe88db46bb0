package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront_v1_202610/internal/config"
	"storefront_v1_202610/internal/controller"
	"storefront_v1_202610/internal/model"
	"storefront_v1_202610/internal/repository"
	"storefront_v1_202610/internal/router"
	"storefront_v1_202610/internal/service"
	"storefront_v1_202610/internal/task"
	"storefront_v1_202610/pkg/database"
	pkgnet "storefront_v1_202610/pkg/net"
)

// ==================== 依赖容器 ====================

// Dependencies HTTP 服务与命令行工具共用的依赖容器
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *gorm.DB
	Redis    *redis.Client
	Repos    *Repositories
	Services *Services

	closers []func()
}

// Repositories 仓库集合
type Repositories struct {
	UoW             *repository.UnitOfWork
	Categories      repository.CategoryRepository
	TranslationLogs repository.TranslationLogRepository
}

// Services 服务集合
type Services struct {
	Category  *service.CategoryService
	Attribute *service.AttributeService
	Variant   *service.VariantService
	Currency  *service.CurrencyService
	Order     *service.OrderService
	Audit     *service.TranslationAudit
}

// New 连接数据库并组装全部依赖
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	db, err := database.InitDB(&database.Config{
		DSN:             cfg.Database.DSN,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
		AutoMigrate:     cfg.Database.AutoMigrate,
	}, logger, model.All()...)
	if err != nil {
		return nil, err
	}
	return NewWithDB(ctx, cfg, logger, db)
}

// NewWithDB 使用已有连接组装依赖
func NewWithDB(ctx context.Context, cfg *config.Config, logger *zap.Logger, db *gorm.DB) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg, Logger: logger, DB: db}

	// 1. 仓库
	deps.Repos = &Repositories{
		UoW:             repository.NewUnitOfWork(db),
		Categories:      repository.NewCategoryRepository(db),
		TranslationLogs: repository.NewTranslationLogRepository(db),
	}

	// 2. 翻译
	audit := service.NewTranslationAudit(deps.Repos.TranslationLogs, 256, logger)
	deps.closers = append(deps.closers, audit.Close)

	translator, err := deps.buildTranslator(ctx, audit)
	if err != nil {
		deps.Close()
		return nil, err
	}

	// 3. 汇率缓存与来源
	cache := deps.buildRateCache(ctx)
	source := service.NewHTTPRateSource(cfg.Currency.RateSourceURL, 20*time.Second)

	// 4. 服务
	uow := deps.Repos.UoW
	currency := service.NewCurrencyService(uow, source, cache, logger.Named("currency"))
	attribute := service.NewAttributeService(uow, translator, logger.Named("attribute"))
	attribute.CanonicalSlug = cfg.Catalog.CanonicalSlug

	deps.Services = &Services{
		Category:  service.NewCategoryService(deps.Repos.Categories),
		Attribute: attribute,
		Variant:   service.NewVariantService(uow, translator, logger.Named("variant")),
		Currency:  currency,
		Order:     service.NewOrderService(uow, currency, logger.Named("order")),
		Audit:     audit,
	}
	return deps, nil
}

// buildTranslator provider: http | gemini | none
func (d *Dependencies) buildTranslator(ctx context.Context, recorder service.CallRecorder) (service.Translator, error) {
	cfg := d.Config.Translator
	switch cfg.Provider {
	case "", "none":
		return service.NopTranslator{}, nil

	case "http":
		rotator, err := pkgnet.NewProxyRotator(cfg.Proxies)
		if err != nil {
			return nil, fmt.Errorf("translator proxies: %w", err)
		}
		dispatcher := pkgnet.NewDispatcher(rotator, cfg.MaxRetries, cfg.Timeout)
		tr := service.NewHTTPTranslator(cfg.Endpoint, dispatcher, cfg.Timeout, d.Logger.Named("translator"))
		tr.SetRecorder(recorder)
		return tr, nil

	case "gemini":
		var proxyURL string
		if len(cfg.Proxies) > 0 {
			proxyURL = cfg.Proxies[0]
		}
		tr, err := service.NewGeminiTranslator(ctx, service.GeminiConfig{
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.GeminiModel,
			ProxyURL: proxyURL,
			Timeout:  cfg.Timeout,
		}, d.Logger.Named("translator"))
		if err != nil {
			return nil, err
		}
		tr.SetRecorder(recorder)
		d.closers = append(d.closers, func() { _ = tr.Close() })
		return tr, nil
	}
	return nil, fmt.Errorf("unknown translator provider %q", cfg.Provider)
}

// buildRateCache Redis 不可用时退回进程内缓存
func (d *Dependencies) buildRateCache(ctx context.Context) service.RateCache {
	cfg := d.Config
	if cfg.Currency.CacheBackend != "redis" {
		return service.NewMemoryRateCache(cfg.Currency.CacheTTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		d.Logger.Warn("redis unavailable, using in-memory rate cache",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err),
		)
		_ = client.Close()
		return service.NewMemoryRateCache(cfg.Currency.CacheTTL)
	}

	d.Redis = client
	d.closers = append(d.closers, func() { _ = client.Close() })
	return service.NewRedisRateCache(client, cfg.Currency.CacheTTL, d.Logger.Named("rate_cache"))
}

// ==================== 组装 ====================

// Controllers 创建 HTTP 控制器
func (d *Dependencies) Controllers() *router.Controllers {
	return &router.Controllers{
		Category:  controller.NewCategoryController(d.Services.Category),
		Attribute: controller.NewAttributeController(d.Services.Attribute),
		Variant:   controller.NewVariantController(d.Services.Variant),
		Currency:  controller.NewCurrencyController(d.Services.Currency),
		Order:     controller.NewOrderController(d.Services.Order),
	}
}

// TaskManager 创建后台任务管理器
func (d *Dependencies) TaskManager() *task.TaskManager {
	return task.NewTaskManager(&task.TaskManagerDeps{
		Rates:  d.Services.Currency,
		Merger: d.Services.Variant,
		Logs:   d.Repos.TranslationLogs,
	}, &task.TaskManagerConfig{
		RateRefreshCron: d.Config.Currency.RefreshCron,
		AutoMergeCron:   d.Config.Catalog.AutoMergeCron,
		LogRetention:    d.Config.Translator.LogRetention,
	}, d.Logger)
}

// Close 逆序释放资源
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil

	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
