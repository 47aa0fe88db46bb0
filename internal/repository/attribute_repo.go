package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"storefront_v1_202610/internal/model"
)

// ==================== 接口定义 ====================

// AttributeRepository EAV 属性仓储接口
type AttributeRepository interface {
	// 属性定义
	Create(ctx context.Context, attr *model.Attribute) error
	GetByID(ctx context.Context, id int64) (*model.Attribute, error)
	GetByIDs(ctx context.Context, ids []int64) ([]model.Attribute, error)
	FindByKey(ctx context.Context, categoryID int64, key string) (*model.Attribute, error)
	KeyExists(ctx context.Context, categoryID int64, key string) (bool, error)
	FindByTranslatedName(ctx context.Context, categoryIDs []int64, name string) ([]model.Attribute, error)
	ListActiveByCategories(ctx context.Context, categoryIDs []int64) ([]model.Attribute, error)
	UpsertTranslation(ctx context.Context, tr *model.AttributeTranslation) error
	UpdateCategory(ctx context.Context, id, categoryID int64) error
	Deactivate(ctx context.Context, id int64) error

	// 选项
	CreateOption(ctx context.Context, opt *model.AttributeOption) error
	GetOption(ctx context.Context, id int64) (*model.AttributeOption, error)
	GetOptionsByIDs(ctx context.Context, ids []int64) ([]model.AttributeOption, error)
	FindOptionByName(ctx context.Context, attributeID int64, name string) (*model.AttributeOption, error)
	ListOptions(ctx context.Context, attributeID int64) ([]model.AttributeOption, error)
	ListActiveOptions(ctx context.Context, attributeIDs []int64) ([]model.AttributeOption, error)

	// 取值
	UpsertValue(ctx context.Context, value *model.ProductAttributeValue) error
	DeleteValue(ctx context.Context, productID, attributeID int64) error
	ListValues(ctx context.Context, productID int64) ([]model.ProductAttributeValue, error)
	ListValuesByProducts(ctx context.Context, productIDs []int64) ([]model.ProductAttributeValue, error)
	ListValuesByAttribute(ctx context.Context, attributeID int64) ([]model.ProductAttributeValue, error)

	// 变体维度
	ReplaceVariantDimensions(ctx context.Context, primaryID int64, attributeIDs []int64) error
	ListVariantDimensions(ctx context.Context, primaryID int64) ([]model.ProductVariantAttribute, error)
	RemapVariantDimensions(ctx context.Context, fromAttributeID, toAttributeID int64) error
}

// ==================== 仓储实现 ====================

type attributeRepo struct {
	db *gorm.DB
}

// NewAttributeRepository 创建属性仓储
func NewAttributeRepository(db *gorm.DB) AttributeRepository {
	return &attributeRepo{db: db}
}

func (r *attributeRepo) Create(ctx context.Context, attr *model.Attribute) error {
	return r.db.WithContext(ctx).Create(attr).Error
}

func (r *attributeRepo) GetByID(ctx context.Context, id int64) (*model.Attribute, error) {
	var attr model.Attribute
	err := r.db.WithContext(ctx).
		Preload("Translations").
		First(&attr, id).Error
	if err != nil {
		return nil, err
	}
	return &attr, nil
}

func (r *attributeRepo) GetByIDs(ctx context.Context, ids []int64) ([]model.Attribute, error) {
	var attrs []model.Attribute
	if len(ids) == 0 {
		return attrs, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Translations").
		Where("id IN ?", ids).
		Find(&attrs).Error
	return attrs, err
}

func (r *attributeRepo) FindByKey(ctx context.Context, categoryID int64, key string) (*model.Attribute, error) {
	var attr model.Attribute
	err := r.db.WithContext(ctx).
		Preload("Translations").
		Where("category_id = ? AND key = ?", categoryID, key).
		First(&attr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attr, nil
}

func (r *attributeRepo) KeyExists(ctx context.Context, categoryID int64, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Attribute{}).
		Where("category_id = ? AND key = ?", categoryID, key).
		Count(&count).Error
	return count > 0, err
}

// FindByTranslatedName 译名精确匹配 (区分大小写)
func (r *attributeRepo) FindByTranslatedName(ctx context.Context, categoryIDs []int64, name string) ([]model.Attribute, error) {
	var attrs []model.Attribute
	if len(categoryIDs) == 0 {
		return attrs, nil
	}
	sub := r.db.Model(&model.AttributeTranslation{}).
		Select("attribute_id").
		Where("name = ?", name)
	err := r.db.WithContext(ctx).
		Preload("Translations").
		Where("category_id IN ? AND id IN (?)", categoryIDs, sub).
		Order("id ASC").
		Find(&attrs).Error
	return attrs, err
}

func (r *attributeRepo) ListActiveByCategories(ctx context.Context, categoryIDs []int64) ([]model.Attribute, error) {
	var attrs []model.Attribute
	if len(categoryIDs) == 0 {
		return attrs, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Translations").
		Where("category_id IN ? AND active = ?", categoryIDs, true).
		Order("sort_order ASC, id ASC").
		Find(&attrs).Error
	return attrs, err
}

func (r *attributeRepo) UpsertTranslation(ctx context.Context, tr *model.AttributeTranslation) error {
	return r.db.WithContext(ctx).Clauses(onConflictUpdate(
		[]string{"attribute_id", "locale"},
		[]string{"name"},
	)).Create(tr).Error
}

func (r *attributeRepo) UpdateCategory(ctx context.Context, id, categoryID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Attribute{}).
		Where("id = ?", id).
		Update("category_id", categoryID).Error
}

func (r *attributeRepo) Deactivate(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Attribute{}).
		Where("id = ?", id).
		Update("active", false).Error
}

// ==================== 选项 ====================

func (r *attributeRepo) CreateOption(ctx context.Context, opt *model.AttributeOption) error {
	return r.db.WithContext(ctx).Create(opt).Error
}

func (r *attributeRepo) GetOption(ctx context.Context, id int64) (*model.AttributeOption, error) {
	var opt model.AttributeOption
	err := r.db.WithContext(ctx).
		Preload("Translations").
		First(&opt, id).Error
	if err != nil {
		return nil, err
	}
	return &opt, nil
}

func (r *attributeRepo) GetOptionsByIDs(ctx context.Context, ids []int64) ([]model.AttributeOption, error) {
	var opts []model.AttributeOption
	if len(ids) == 0 {
		return opts, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Translations").
		Where("id IN ?", ids).
		Find(&opts).Error
	return opts, err
}

func (r *attributeRepo) FindOptionByName(ctx context.Context, attributeID int64, name string) (*model.AttributeOption, error) {
	sub := r.db.Model(&model.AttributeOptionTranslation{}).
		Select("option_id").
		Where("name = ?", name)

	var opt model.AttributeOption
	err := r.db.WithContext(ctx).
		Preload("Translations").
		Where("attribute_id = ? AND id IN (?)", attributeID, sub).
		Order("id ASC").
		First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &opt, nil
}

func (r *attributeRepo) ListOptions(ctx context.Context, attributeID int64) ([]model.AttributeOption, error) {
	var opts []model.AttributeOption
	err := r.db.WithContext(ctx).
		Preload("Translations").
		Where("attribute_id = ?", attributeID).
		Order("sort_order ASC, id ASC").
		Find(&opts).Error
	return opts, err
}

func (r *attributeRepo) ListActiveOptions(ctx context.Context, attributeIDs []int64) ([]model.AttributeOption, error) {
	var opts []model.AttributeOption
	if len(attributeIDs) == 0 {
		return opts, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Translations").
		Where("attribute_id IN ? AND active = ?", attributeIDs, true).
		Order("sort_order ASC, id ASC").
		Find(&opts).Error
	return opts, err
}

// ==================== 取值 ====================

// UpsertValue 以 (product_id, attribute_id) 唯一约束 upsert，四个取值列整体覆盖
func (r *attributeRepo) UpsertValue(ctx context.Context, value *model.ProductAttributeValue) error {
	return r.db.WithContext(ctx).Clauses(onConflictUpdate(
		[]string{"product_id", "attribute_id"},
		[]string{"value_text", "value_number", "value_boolean", "attribute_option_id", "updated_at"},
	)).Create(value).Error
}

func (r *attributeRepo) DeleteValue(ctx context.Context, productID, attributeID int64) error {
	return r.db.WithContext(ctx).
		Where("product_id = ? AND attribute_id = ?", productID, attributeID).
		Delete(&model.ProductAttributeValue{}).Error
}

func (r *attributeRepo) ListValues(ctx context.Context, productID int64) ([]model.ProductAttributeValue, error) {
	var values []model.ProductAttributeValue
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("attribute_id ASC").
		Find(&values).Error
	return values, err
}

func (r *attributeRepo) ListValuesByProducts(ctx context.Context, productIDs []int64) ([]model.ProductAttributeValue, error) {
	var values []model.ProductAttributeValue
	if len(productIDs) == 0 {
		return values, nil
	}
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("product_id ASC, attribute_id ASC").
		Find(&values).Error
	return values, err
}

func (r *attributeRepo) ListValuesByAttribute(ctx context.Context, attributeID int64) ([]model.ProductAttributeValue, error) {
	var values []model.ProductAttributeValue
	err := r.db.WithContext(ctx).
		Where("attribute_id = ?", attributeID).
		Order("product_id ASC").
		Find(&values).Error
	return values, err
}

// ==================== 变体维度 ====================

// ReplaceVariantDimensions 先删后建，sort_order 即列表下标
func (r *attributeRepo) ReplaceVariantDimensions(ctx context.Context, primaryID int64, attributeIDs []int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", primaryID).Delete(&model.ProductVariantAttribute{}).Error; err != nil {
		return err
	}
	if len(attributeIDs) == 0 {
		return nil
	}
	rows := make([]model.ProductVariantAttribute, 0, len(attributeIDs))
	for i, id := range attributeIDs {
		rows = append(rows, model.ProductVariantAttribute{
			ProductID:   primaryID,
			AttributeID: id,
			SortOrder:   i,
		})
	}
	return db.Create(&rows).Error
}

func (r *attributeRepo) ListVariantDimensions(ctx context.Context, primaryID int64) ([]model.ProductVariantAttribute, error) {
	var rows []model.ProductVariantAttribute
	err := r.db.WithContext(ctx).
		Where("product_id = ?", primaryID).
		Order("sort_order ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// RemapVariantDimensions 维度行改指向另一个属性，主商品已有目标维度时删除旧行
func (r *attributeRepo) RemapVariantDimensions(ctx context.Context, fromAttributeID, toAttributeID int64) error {
	db := r.db.WithContext(ctx)
	sub := r.db.Model(&model.ProductVariantAttribute{}).
		Select("product_id").
		Where("attribute_id = ?", toAttributeID)
	if err := db.Where("attribute_id = ? AND product_id IN (?)", fromAttributeID, sub).
		Delete(&model.ProductVariantAttribute{}).Error; err != nil {
		return err
	}
	return db.Model(&model.ProductVariantAttribute{}).
		Where("attribute_id = ?", fromAttributeID).
		Update("attribute_id", toAttributeID).Error
}
