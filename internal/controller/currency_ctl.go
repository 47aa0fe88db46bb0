package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront_v1_202610/internal/service"
)

// CurrencyController 系统设置、汇率与价格换算
type CurrencyController struct {
	currencyService *service.CurrencyService
}

func NewCurrencyController(currencyService *service.CurrencyService) *CurrencyController {
	return &CurrencyController{currencyService: currencyService}
}

// GetSettings 当前系统设置
// @Summary 系统设置
// @Tags Currency
// @Router /api/settings [get]
func (ctrl *CurrencyController) GetSettings(c *gin.Context) {
	setting, err := ctrl.currencyService.Settings(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, setting)
}

// UpdateSettings 修改系统设置，为空的字段不修改
// @Summary 修改系统设置
// @Tags Currency
// @Param body body service.SettingsUpdate true "设置"
// @Router /api/settings [put]
func (ctrl *CurrencyController) UpdateSettings(c *gin.Context) {
	var req service.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	setting, err := ctrl.currencyService.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, setting)
}

// GetRates 基础货币与汇率表
// @Summary 汇率表
// @Tags Currency
// @Router /api/currency/rates [get]
func (ctrl *CurrencyController) GetRates(c *gin.Context) {
	base, rates, err := ctrl.currencyService.Rates(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"base":  base,
		"rates": rates,
	})
}

// RefreshRates 立即从汇率源刷新
// @Summary 刷新汇率
// @Tags Currency
// @Router /api/currency/refresh [post]
func (ctrl *CurrencyController) RefreshRates(c *gin.Context) {
	count, err := ctrl.currencyService.RefreshRates(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"count": count})
}

// Price 基础货币净价 -> 展示价；传 bound 时把展示货币的筛选边界换回基础货币净价
// @Summary 价格换算
// @Tags Currency
// @Param amount query string false "基础货币净价"
// @Param bound query string false "展示货币的价格筛选边界"
// @Param currency query string false "展示货币，默认基础货币"
// @Router /api/prices [get]
func (ctrl *CurrencyController) Price(c *gin.Context) {
	pc, err := ctrl.currencyService.PriceContext(c.Request.Context(), c.Query("currency"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := gin.H{
		"base_currency":    pc.BaseCurrency,
		"display_currency": pc.DisplayCurrency,
		"show_incl_vat":    pc.ShowInclVat,
	}
	if raw := c.Query("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的 amount")
			return
		}
		out["display"] = pc.Display(amount).Round(2)
	}
	if raw := c.Query("bound"); raw != "" {
		bound, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的 bound")
			return
		}
		out["net_bound"] = pc.NetBound(bound).Round(4)
	}
	respondOK(c, http.StatusOK, out)
}
