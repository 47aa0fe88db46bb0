package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront_v1_202610/internal/model"
	"storefront_v1_202610/internal/repository"
)

// ==================== 测试辅助 ====================

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	// :memory: 每个连接是独立的库，固定单连接
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return db
}

func setupUoW(t *testing.T) (*gorm.DB, *repository.UnitOfWork) {
	db := setupTestDB(t)
	return db, repository.NewUnitOfWork(db)
}

func createCategory(t *testing.T, db *gorm.DB, slug string, parentID *int64) *model.Category {
	t.Helper()
	c := &model.Category{Slug: slug, Name: slug, ParentID: parentID}
	if err := repository.NewCategoryRepository(db).Create(context.Background(), c); err != nil {
		t.Fatalf("创建分类失败: %v", err)
	}
	return c
}

func createProduct(t *testing.T, db *gorm.DB, categoryID int64, name string, createdAt time.Time) *model.Product {
	t.Helper()
	p := &model.Product{
		CategoryID: categoryID,
		Name:       name,
		Price:      decimal.NewFromInt(100),
		Stock:      10,
		Status:     model.ProductStatusActive,
	}
	p.CreatedAt = createdAt
	if err := repository.NewProductRepository(db).Create(context.Background(), p); err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	return p
}

func createAttribute(t *testing.T, db *gorm.DB, categoryID int64, key string, typ model.AttributeType, names map[string]string) *model.Attribute {
	t.Helper()
	a := &model.Attribute{CategoryID: categoryID, Key: key, Type: typ, Active: true}
	for loc, name := range names {
		a.Translations = append(a.Translations, model.AttributeTranslation{Locale: loc, Name: name})
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("创建属性失败: %v", err)
	}
	return a
}

func createOption(t *testing.T, db *gorm.DB, attributeID int64, names map[string]string) *model.AttributeOption {
	t.Helper()
	o := &model.AttributeOption{AttributeID: attributeID, Active: true}
	for loc, name := range names {
		o.Translations = append(o.Translations, model.AttributeOptionTranslation{Locale: loc, Name: name})
	}
	if err := db.Create(o).Error; err != nil {
		t.Fatalf("创建选项失败: %v", err)
	}
	return o
}

func setValue(t *testing.T, db *gorm.DB, productID, attributeID int64, val model.AttributeValue) {
	t.Helper()
	row := &model.ProductAttributeValue{ProductID: productID, AttributeID: attributeID}
	row.SetValue(val)
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("写入取值失败: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }

// fakeTranslator 记录调用次数，按字典返回译文
type fakeTranslator struct {
	mu    sync.Mutex
	dict  map[string]string
	calls int
}

func (f *fakeTranslator) Translate(_ context.Context, text, _, _ string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if out, ok := f.dict[text]; ok {
		return out
	}
	return text
}
