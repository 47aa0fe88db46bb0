package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SystemSetting 系统设置，只使用第一行
type SystemSetting struct {
	BaseModel
	BaseCurrency        string          `gorm:"size:8;not null;default:TRY" json:"base_currency"`
	CurrencyRefreshDays int             `gorm:"default:1" json:"currency_refresh_days"`
	LastRatesUpdateAt   *time.Time      `json:"last_rates_update_at"`
	VatRate             decimal.Decimal `gorm:"type:decimal(6,4);default:0" json:"vat_rate"` // 小数，如 0.20
	ShippingFlatFee     decimal.Decimal `gorm:"type:decimal(14,4);default:0" json:"shipping_flat_fee"`
	ShowPricesInclVat   bool            `json:"show_prices_incl_vat"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}

// ExchangeRate 1 基础货币 = Rate 单位的 Code 货币
type ExchangeRate struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	Code      string          `gorm:"size:8;uniqueIndex;not null" json:"code"`
	Rate      decimal.Decimal `gorm:"type:decimal(20,10);not null" json:"rate"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (ExchangeRate) TableName() string {
	return "exchange_rates"
}
