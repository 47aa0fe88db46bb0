package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront_v1_202610/internal/model"
)

// SettingRepository 系统设置与汇率仓储
type SettingRepository interface {
	// Get 返回第一行设置，表为空时返回未持久化的默认值
	Get(ctx context.Context) (*model.SystemSetting, error)
	Save(ctx context.Context, setting *model.SystemSetting) error

	ListRates(ctx context.Context) ([]model.ExchangeRate, error)
	// ReplaceRates 按 code upsert 汇率，并清理本次未返回的币种
	ReplaceRates(ctx context.Context, rates map[string]decimal.Decimal, at time.Time) error
}

type settingRepo struct {
	db *gorm.DB
}

// NewSettingRepository 创建设置仓储
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepo{db: db}
}

func (r *settingRepo) Get(ctx context.Context) (*model.SystemSetting, error) {
	var setting model.SystemSetting
	err := r.db.WithContext(ctx).Order("id ASC").First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.SystemSetting{
			BaseCurrency:        "TRY",
			CurrencyRefreshDays: 1,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingRepo) Save(ctx context.Context, setting *model.SystemSetting) error {
	return r.db.WithContext(ctx).Save(setting).Error
}

func (r *settingRepo) ListRates(ctx context.Context) ([]model.ExchangeRate, error) {
	var rates []model.ExchangeRate
	err := r.db.WithContext(ctx).Order("code ASC").Find(&rates).Error
	return rates, err
}

func (r *settingRepo) ReplaceRates(ctx context.Context, rates map[string]decimal.Decimal, at time.Time) error {
	db := r.db.WithContext(ctx)
	if len(rates) == 0 {
		return nil
	}

	codes := make([]string, 0, len(rates))
	rows := make([]model.ExchangeRate, 0, len(rates))
	for code, rate := range rates {
		codes = append(codes, code)
		rows = append(rows, model.ExchangeRate{Code: code, Rate: rate, UpdatedAt: at})
	}

	if err := db.Clauses(onConflictUpdate(
		[]string{"code"},
		[]string{"rate", "updated_at"},
	)).CreateInBatches(&rows, 100).Error; err != nil {
		return err
	}
	return db.Where("code NOT IN ?", codes).Delete(&model.ExchangeRate{}).Error
}
