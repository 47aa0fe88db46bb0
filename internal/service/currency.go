package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"storefront_v1_202610/internal/model"
)

// ==================== 汇率表 ====================

// RateTable 币种 -> 1 基础货币可兑换的数量
type RateTable map[string]decimal.Decimal

// NewRateTable 由汇率行构建
func NewRateTable(rows []model.ExchangeRate) RateTable {
	t := make(RateTable, len(rows))
	for _, r := range rows {
		t[strings.ToUpper(r.Code)] = r.Rate
	}
	return t
}

// Rate 缺失或为 0 的汇率按 1 处理，不做换算而不是报错
func (t RateTable) Rate(code string) decimal.Decimal {
	if r, ok := t[strings.ToUpper(code)]; ok && r.IsPositive() {
		return r
	}
	return decimal.NewFromInt(1)
}

// Convert amount * rate(to) / rate(from)
func Convert(amount decimal.Decimal, from, to string, rates RateTable) decimal.Decimal {
	if strings.EqualFold(from, to) {
		return amount
	}
	return amount.Mul(rates.Rate(to)).Div(rates.Rate(from))
}

// ServiceFee 分期总额换算为基础货币后减去订单总额，负数按 0 处理
func ServiceFee(installmentTotal decimal.Decimal, installmentCurrency string, orderTotalBase decimal.Decimal, baseCurrency string, rates RateTable) decimal.Decimal {
	installmentBase := Convert(installmentTotal, installmentCurrency, baseCurrency, rates)
	fee := installmentBase.Sub(orderTotalBase)
	if fee.IsNegative() {
		return decimal.Zero
	}
	return fee
}

// ==================== PriceContext ====================

// PriceContext 单次请求的价格换算上下文
type PriceContext struct {
	BaseCurrency    string          `json:"base_currency"`
	DisplayCurrency string          `json:"display_currency"`
	VatRate         decimal.Decimal `json:"vat_rate"`
	ShowInclVat     bool            `json:"show_incl_vat"`
	Rates           RateTable       `json:"-"`
}

// DisplayRate displayRate / baseRate
func (p PriceContext) DisplayRate() decimal.Decimal {
	return p.Rates.Rate(p.DisplayCurrency).Div(p.Rates.Rate(p.BaseCurrency))
}

// VatFactor 含税展示时为 1 + vatRate
func (p PriceContext) VatFactor() decimal.Decimal {
	one := decimal.NewFromInt(1)
	if p.ShowInclVat {
		return one.Add(p.VatRate)
	}
	return one
}

// Display 基础货币净价 -> 展示价。先在基础货币上加税再换算
func (p PriceContext) Display(net decimal.Decimal) decimal.Decimal {
	return net.Mul(p.VatFactor()).Mul(p.DisplayRate())
}

// NetBound 展示货币的价格筛选边界 -> 基础货币净价边界
func (p PriceContext) NetBound(display decimal.Decimal) decimal.Decimal {
	divisor := p.DisplayRate().Mul(p.VatFactor())
	if divisor.IsZero() {
		return display
	}
	return display.Div(divisor)
}

// Convert 使用上下文中的汇率表换算
func (p PriceContext) Convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	return Convert(amount, from, to, p.Rates)
}
