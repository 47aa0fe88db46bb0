package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront_v1_202610/internal/model"
)

// CategoryRepository 分类仓储接口
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	// ListAll 一次性加载整张分类表，用于内存中构建分类树
	ListAll(ctx context.Context) ([]model.Category, error)
}

type categoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Preload("Translations").
		First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) ListAll(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Select("id", "parent_id", "slug", "name", "created_at", "updated_at").
		Order("id ASC").
		Find(&categories).Error
	return categories, err
}
