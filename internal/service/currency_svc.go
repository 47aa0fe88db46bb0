package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront_v1_202610/internal/model"
	"storefront_v1_202610/internal/repository"
)

// RateSource 外部汇率源：给定基础货币返回各币种汇率
type RateSource interface {
	FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

// ==================== CurrencyService ====================

type CurrencyService struct {
	uow    *repository.UnitOfWork
	source RateSource
	cache  RateCache
	logger *zap.Logger
	now    func() time.Time
}

func NewCurrencyService(uow *repository.UnitOfWork, source RateSource, cache RateCache, logger *zap.Logger) *CurrencyService {
	if cache == nil {
		cache = NewMemoryRateCache(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurrencyService{
		uow:    uow,
		source: source,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// Settings 当前系统设置
func (s *CurrencyService) Settings(ctx context.Context) (*model.SystemSetting, error) {
	return s.uow.Settings.Get(ctx)
}

// Rates 基础货币与汇率表，优先读缓存
func (s *CurrencyService) Rates(ctx context.Context) (string, RateTable, error) {
	if cached, ok := s.cache.Get(ctx); ok {
		return cached.Base, cached.Rates, nil
	}

	setting, err := s.uow.Settings.Get(ctx)
	if err != nil {
		return "", nil, err
	}
	rows, err := s.uow.Settings.ListRates(ctx)
	if err != nil {
		return "", nil, err
	}
	rates := NewRateTable(rows)
	s.cache.Set(ctx, &CachedRates{Base: setting.BaseCurrency, Rates: rates})
	return setting.BaseCurrency, rates, nil
}

// PriceContext 构建展示货币的价格上下文，displayCurrency 为空时使用基础货币
func (s *CurrencyService) PriceContext(ctx context.Context, displayCurrency string) (*PriceContext, error) {
	setting, err := s.uow.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	_, rates, err := s.Rates(ctx)
	if err != nil {
		return nil, err
	}
	if displayCurrency == "" {
		displayCurrency = setting.BaseCurrency
	}
	return &PriceContext{
		BaseCurrency:    setting.BaseCurrency,
		DisplayCurrency: strings.ToUpper(displayCurrency),
		VatRate:         setting.VatRate,
		ShowInclVat:     setting.ShowPricesInclVat,
		Rates:           rates,
	}, nil
}

// RefreshRates 从汇率源拉取并整体替换；拉取失败时已有汇率保持不变
func (s *CurrencyService) RefreshRates(ctx context.Context) (int, error) {
	setting, err := s.uow.Settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	if s.source == nil {
		return 0, fmt.Errorf("%w: no rate source configured", ErrRateSourceUnavailable)
	}

	fetched, err := s.source.FetchRates(ctx, setting.BaseCurrency)
	if err != nil || len(fetched) == 0 {
		s.logger.Warn("exchange rate refresh failed, keeping current rates",
			zap.String("base", setting.BaseCurrency),
			zap.Error(err),
		)
		if err == nil {
			err = fmt.Errorf("empty rate table")
		}
		return 0, fmt.Errorf("%w: %v", ErrRateSourceUnavailable, err)
	}

	rates := make(map[string]decimal.Decimal, len(fetched)+1)
	for code, rate := range fetched {
		if rate.IsPositive() {
			rates[strings.ToUpper(code)] = rate
		}
	}
	rates[strings.ToUpper(setting.BaseCurrency)] = decimal.NewFromInt(1)

	now := s.now()
	err = s.uow.Transaction(ctx, func(uow *repository.UnitOfWork) error {
		if err := uow.Settings.ReplaceRates(ctx, rates, now); err != nil {
			return err
		}
		setting.LastRatesUpdateAt = &now
		return uow.Settings.Save(ctx, setting)
	})
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(ctx)

	s.logger.Info("exchange rates refreshed",
		zap.String("base", setting.BaseCurrency),
		zap.Int("count", len(rates)),
	)
	return len(rates), nil
}

// RatesStale 距上次刷新超过 currencyRefreshDays 天
func (s *CurrencyService) RatesStale(ctx context.Context, now time.Time) (bool, error) {
	setting, err := s.uow.Settings.Get(ctx)
	if err != nil {
		return false, err
	}
	if setting.LastRatesUpdateAt == nil {
		return true, nil
	}
	days := setting.CurrencyRefreshDays
	if days <= 0 {
		days = 1
	}
	return now.Sub(*setting.LastRatesUpdateAt) > time.Duration(days)*24*time.Hour, nil
}

// SettingsUpdate 为 nil 的字段不修改
type SettingsUpdate struct {
	BaseCurrency        *string          `json:"base_currency"`
	CurrencyRefreshDays *int             `json:"currency_refresh_days"`
	VatRate             *decimal.Decimal `json:"vat_rate"`
	ShippingFlatFee     *decimal.Decimal `json:"shipping_flat_fee"`
	ShowPricesInclVat   *bool            `json:"show_prices_incl_vat"`
}

// UpdateSettings 修改基础货币后清空上次刷新时间，让汇率被视为过期
func (s *CurrencyService) UpdateSettings(ctx context.Context, upd SettingsUpdate) (*model.SystemSetting, error) {
	setting, err := s.uow.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	if upd.BaseCurrency != nil {
		code := strings.ToUpper(strings.TrimSpace(*upd.BaseCurrency))
		if code == "" {
			return nil, fmt.Errorf("%w: empty base currency", ErrInvalidValue)
		}
		if code != setting.BaseCurrency {
			setting.BaseCurrency = code
			setting.LastRatesUpdateAt = nil
		}
	}
	if upd.CurrencyRefreshDays != nil {
		if *upd.CurrencyRefreshDays <= 0 {
			return nil, fmt.Errorf("%w: refresh days must be positive", ErrInvalidValue)
		}
		setting.CurrencyRefreshDays = *upd.CurrencyRefreshDays
	}
	if upd.VatRate != nil {
		if upd.VatRate.IsNegative() {
			return nil, fmt.Errorf("%w: negative vat rate", ErrInvalidValue)
		}
		setting.VatRate = *upd.VatRate
	}
	if upd.ShippingFlatFee != nil {
		setting.ShippingFlatFee = *upd.ShippingFlatFee
	}
	if upd.ShowPricesInclVat != nil {
		setting.ShowPricesInclVat = *upd.ShowPricesInclVat
	}

	if err := s.uow.Settings.Save(ctx, setting); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return setting, nil
}
