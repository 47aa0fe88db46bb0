package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnitOfWork 跨仓储事务
// 属性写入、变体合并、订单支付等多步写操作都通过 Transaction 保证原子性
type UnitOfWork struct {
	db         *gorm.DB
	Categories CategoryRepository
	Attributes AttributeRepository
	Products   ProductRepository
	Settings   SettingRepository
	Orders     OrderRepository
}

// NewUnitOfWork 创建工作单元
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{
		db:         db,
		Categories: NewCategoryRepository(db),
		Attributes: NewAttributeRepository(db),
		Products:   NewProductRepository(db),
		Settings:   NewSettingRepository(db),
		Orders:     NewOrderRepository(db),
	}
}

// Transaction 执行事务，fn 返回错误时整体回滚
func (u *UnitOfWork) Transaction(ctx context.Context, fn func(uow *UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewUnitOfWork(tx))
	})
}

// onConflictUpdate 按唯一约束 upsert
func onConflictUpdate(keys []string, updates []string) clause.OnConflict {
	cols := make([]clause.Column, 0, len(keys))
	for _, k := range keys {
		cols = append(cols, clause.Column{Name: k})
	}
	return clause.OnConflict{
		Columns:   cols,
		DoUpdates: clause.AssignmentColumns(updates),
	}
}
