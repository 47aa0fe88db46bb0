package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront_v1_202610/internal/model"
	"storefront_v1_202610/internal/repository"
)

// ==================== OrderService ====================

type OrderService struct {
	uow      *repository.UnitOfWork
	currency *CurrencyService
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrderService(uow *repository.UnitOfWork, currency *CurrencyService, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		uow:      uow,
		currency: currency,
		logger:   logger,
		now:      time.Now,
	}
}

// OrderItemInput 下单商品
type OrderItemInput struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

// CreateOrderInput 下单参数
type CreateOrderInput struct {
	Items           []OrderItemInput       `json:"items" binding:"required"`
	ShippingAddress map[string]interface{} `json:"shipping_address"`
}

// CreateOrder 以基础货币计算小计、税额、运费与总额；不扣库存
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidValue)
	}

	setting, err := s.uow.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		Status:          model.OrderStatusPending,
		Reference:       "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12]),
		Currency:        setting.BaseCurrency,
		ShippingFee:     setting.ShippingFlatFee,
		ShippingAddress: in.ShippingAddress,
	}

	subtotal := decimal.Zero
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidValue)
		}
		product, err := s.uow.Products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %d", ErrProductNotFound, item.ProductID)
			}
			return nil, err
		}
		if product.Status != model.ProductStatusActive {
			return nil, fmt.Errorf("%w: product %d is inactive", ErrInvalidValue, product.ID)
		}

		line := model.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		}
		subtotal = subtotal.Add(line.LineTotal())
		order.Items = append(order.Items, line)
	}

	order.Subtotal = subtotal
	order.VatAmount = subtotal.Mul(setting.VatRate).Round(2)
	order.Total = order.Subtotal.Add(order.VatAmount).Add(order.ShippingFee)

	if err := s.uow.Orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// PaymentInput 支付结果
type PaymentInput struct {
	Currency string `json:"currency" binding:"required"`
	// InstallmentTotal 支付方报价的分期总额 (支付货币)，为空表示一次性付款
	InstallmentTotal *decimal.Decimal `json:"installment_total"`
}

// RecordPayment 写入货币快照、服务费并扣减库存，整体一个事务
func (s *OrderService) RecordPayment(ctx context.Context, orderID int64, in PaymentInput) (*model.Order, error) {
	payCurrency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if payCurrency == "" {
		return nil, fmt.Errorf("%w: payment currency required", ErrInvalidValue)
	}

	base, rates, err := s.currency.Rates(ctx)
	if err != nil {
		return nil, err
	}

	var paid *model.Order
	err = s.uow.Transaction(ctx, func(uow *repository.UnitOfWork) error {
		order, err := uow.Orders.GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
			}
			return err
		}
		if order.Status != model.OrderStatusPending {
			return fmt.Errorf("%w: %s", ErrOrderAlreadyPaid, order.Reference)
		}

		// 1. 快照：1 订单货币 = rate 支付货币
		now := s.now()
		rate := Convert(decimal.NewFromInt(1), order.Currency, payCurrency, rates)
		order.PaymentCurrency = payCurrency
		order.ConversionRate = &rate
		order.RateTimestamp = &now
		order.BaseCurrencyAtPayment = base

		// 2. 实付金额与服务费
		paidAmount := order.Total.Mul(rate).Round(2)
		order.ServiceFee = decimal.Zero
		if in.InstallmentTotal != nil {
			paidAmount = *in.InstallmentTotal
			order.ServiceFee = ServiceFee(*in.InstallmentTotal, payCurrency, order.Total, order.Currency, rates).Round(2)
		}
		order.PaidAmount = &paidAmount

		order.Status = model.OrderStatusPaid
		order.PaidAt = &now

		if err := uow.Orders.Save(ctx, order); err != nil {
			return err
		}

		// 3. 扣库存
		for _, item := range order.Items {
			if err := uow.Products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, repository.ErrStockNotEnough) {
					return fmt.Errorf("%w: product %d", ErrInsufficientStock, item.ProductID)
				}
				return err
			}
		}
		paid = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order paid",
		zap.Int64("order_id", paid.ID),
		zap.String("reference", paid.Reference),
		zap.String("currency", payCurrency),
		zap.String("service_fee", paid.ServiceFee.String()),
	)
	return paid, nil
}

// GetOrder 获取订单
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	order, err := s.uow.Orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// ==================== 历史订单回显 ====================

// OrderTotals 订单金额展示
type OrderTotals struct {
	Currency    string           `json:"currency"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	VatAmount   decimal.Decimal  `json:"vat_amount"`
	ShippingFee decimal.Decimal  `json:"shipping_fee"`
	ServiceFee  decimal.Decimal  `json:"service_fee"`
	Total       decimal.Decimal  `json:"total"`
	PaidAmount  *decimal.Decimal `json:"paid_amount,omitempty"`
}

// DisplayOrderTotals 只使用订单自身的快照，不读取实时汇率
func DisplayOrderTotals(order *model.Order) OrderTotals {
	rate := decimal.NewFromInt(1)
	currency := order.Currency
	if order.IsPaid() {
		rate = *order.ConversionRate
		currency = order.PaymentCurrency
	}

	conv := func(d decimal.Decimal) decimal.Decimal { return d.Mul(rate).Round(2) }
	totals := OrderTotals{
		Currency:    currency,
		Subtotal:    conv(order.Subtotal),
		VatAmount:   conv(order.VatAmount),
		ShippingFee: conv(order.ShippingFee),
		ServiceFee:  conv(order.ServiceFee),
		Total:       conv(order.Total.Add(order.ServiceFee)),
		PaidAmount:  order.PaidAmount,
	}
	return totals
}
