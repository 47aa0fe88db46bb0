package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ==================== 订单状态常量 ====================

const (
	OrderStatusPending  = "PENDING"  // 待支付
	OrderStatusPaid     = "PAID"     // 已支付
	OrderStatusCanceled = "CANCELED" // 已取消
)

// ==================== Order 订单主表 ====================

// Order 金额字段均为下单时的基础货币
// 支付时写入货币快照，历史订单只按快照回显，不再读取实时汇率
type Order struct {
	BaseModel
	Status    string `gorm:"size:16;index;default:PENDING" json:"status"`
	Reference string `gorm:"size:64;uniqueIndex" json:"reference"`

	// 金额 (基础货币)
	Currency    string          `gorm:"size:8" json:"currency"` // 下单时的基础货币
	Subtotal    decimal.Decimal `gorm:"type:decimal(14,4)" json:"subtotal"`
	VatAmount   decimal.Decimal `gorm:"type:decimal(14,4)" json:"vat_amount"`
	ShippingFee decimal.Decimal `gorm:"type:decimal(14,4)" json:"shipping_fee"`
	Total       decimal.Decimal `gorm:"type:decimal(14,4)" json:"total"`

	// 支付快照
	PaymentCurrency       string           `gorm:"size:8" json:"payment_currency"`
	// ConversionRate 1 基础货币 = N 支付货币
	ConversionRate        *decimal.Decimal `gorm:"type:decimal(20,10)" json:"conversion_rate"`
	RateTimestamp         *time.Time       `json:"rate_timestamp"`
	BaseCurrencyAtPayment string           `gorm:"size:8" json:"base_currency_at_payment"`
	PaidAmount            *decimal.Decimal `gorm:"type:decimal(14,4)" json:"paid_amount"`           // 支付货币
	ServiceFee            decimal.Decimal  `gorm:"type:decimal(14,4);default:0" json:"service_fee"` // 基础货币
	PaidAt                *time.Time       `json:"paid_at"`

	ShippingAddress datatypes.JSONMap `gorm:"type:jsonb" json:"shipping_address"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

func (*Order) TableName() string {
	return "orders"
}

// IsPaid 是否已写入支付快照
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid && o.ConversionRate != nil
}

// ==================== OrderItem 订单项 ====================

type OrderItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"index;not null" json:"order_id"`
	ProductID int64           `gorm:"index;not null" json:"product_id"`
	Name      string          `gorm:"size:255" json:"name"`
	Quantity  int             `gorm:"default:1" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(14,4)" json:"unit_price"` // 基础货币，不含税

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (*OrderItem) TableName() string {
	return "order_items"
}

// LineTotal 行小计
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
