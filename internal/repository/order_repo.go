package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront_v1_202610/internal/model"
)

// ==================== OrderRepository 订单仓库 ====================

// OrderRepository 订单仓库接口
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	Save(ctx context.Context, order *model.Order) error
}

// ==================== 实现 ====================

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create 同时写入订单项
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Save 只更新订单主表，订单项创建后不再修改
func (r *orderRepository) Save(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Save(order).Error
}
