package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"storefront_v1_202610/internal/model"
)

// ErrStockNotEnough 库存扣减时库存不足
var ErrStockNotEnough = errors.New("stock not enough")

// ==================== 接口定义 ====================

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	RemapVariantAttribute(ctx context.Context, fromAttributeID, toAttributeID int64) error

	// 列表查询
	ListActive(ctx context.Context) ([]model.Product, error)
	ListByGroup(ctx context.Context, groupID int64) ([]model.Product, error)

	// 多语言
	UpsertTranslation(ctx context.Context, tr *model.ProductTranslation) error

	// 库存
	DecrementStock(ctx context.Context, id int64, qty int) error
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Translations").
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Translations").
		Where("id IN ?", ids).
		Order("created_at ASC, id ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// RemapVariantAttribute 旧版单维度字段改指向另一个属性
func (r *productRepo) RemapVariantAttribute(ctx context.Context, fromAttributeID, toAttributeID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("variant_attribute_id = ?", fromAttributeID).
		Update("variant_attribute_id", toAttributeID).Error
}

// ListActive 按创建时间升序，自动合并依赖该顺序选主商品
func (r *productRepo) ListActive(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Translations").
		Where("status = ?", model.ProductStatusActive).
		Order("created_at ASC, id ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) ListByGroup(ctx context.Context, groupID int64) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Translations").
		Where("variant_group_id = ?", groupID).
		Order("created_at ASC, id ASC").
		Find(&products).Error
	return products, err
}

// ==================== 多语言 ====================

func (r *productRepo) UpsertTranslation(ctx context.Context, tr *model.ProductTranslation) error {
	return r.db.WithContext(ctx).Clauses(onConflictUpdate(
		[]string{"product_id", "locale"},
		[]string{"name", "description", "slug", "base_name"},
	)).Create(tr).Error
}

// ==================== 库存 ====================

// DecrementStock 条件更新，库存不足时不修改并返回 ErrStockNotEnough
func (r *productRepo) DecrementStock(ctx context.Context, id int64, qty int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStockNotEnough
	}
	return nil
}
