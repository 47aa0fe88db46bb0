package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRateSource 按基础货币返回固定汇率，err 非空时模拟拉取失败
type fakeRateSource struct {
	rates map[string]map[string]decimal.Decimal
	err   error
	calls int
}

func (f *fakeRateSource) FetchRates(_ context.Context, base string) (map[string]decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rates[base], nil
}

func newFakeRateSource() *fakeRateSource {
	return &fakeRateSource{rates: map[string]map[string]decimal.Decimal{
		"TRY": {
			"USD": decimal.RequireFromString("0.031"),
			"EUR": decimal.RequireFromString("0.028"),
		},
		"USD": {
			"TRY": decimal.RequireFromString("32"),
			"EUR": decimal.RequireFromString("0.9"),
		},
	}}
}

func TestCurrencyService_RefreshRates(t *testing.T) {
	_, uow := setupUoW(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	src := newFakeRateSource()
	svc := NewCurrencyService(uow, src, nil, zap.NewNop())
	svc.now = func() time.Time { return now }

	stale, err := svc.RatesStale(ctx, now)
	require.NoError(t, err)
	assert.True(t, stale, "never refreshed")

	n, err := svc.RefreshRates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	base, rates, err := svc.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, "TRY", base)
	assert.True(t, rates.Rate("TRY").Equal(decimal.NewFromInt(1)))
	assert.True(t, rates.Rate("USD").Equal(decimal.RequireFromString("0.031")))

	setting, err := svc.Settings(ctx)
	require.NoError(t, err)
	require.NotNil(t, setting.LastRatesUpdateAt)
	assert.True(t, now.Equal(*setting.LastRatesUpdateAt))

	stale, err = svc.RatesStale(ctx, now.Add(12*time.Hour))
	require.NoError(t, err)
	assert.False(t, stale)
	stale, err = svc.RatesStale(ctx, now.Add(25*time.Hour))
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestCurrencyService_RefreshFailureKeepsRates(t *testing.T) {
	_, uow := setupUoW(t)
	ctx := context.Background()

	src := newFakeRateSource()
	svc := NewCurrencyService(uow, src, nil, zap.NewNop())
	_, err := svc.RefreshRates(ctx)
	require.NoError(t, err)

	src.err = errors.New("connection refused")
	_, err = svc.RefreshRates(ctx)
	assert.True(t, errors.Is(err, ErrRateSourceUnavailable))

	rows, err := uow.Settings.ListRates(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestCurrencyService_ChangeBaseMarksStale(t *testing.T) {
	_, uow := setupUoW(t)
	ctx := context.Background()

	src := newFakeRateSource()
	svc := NewCurrencyService(uow, src, nil, zap.NewNop())
	_, err := svc.RefreshRates(ctx)
	require.NoError(t, err)

	usd := "usd"
	setting, err := svc.UpdateSettings(ctx, SettingsUpdate{BaseCurrency: &usd})
	require.NoError(t, err)
	assert.Equal(t, "USD", setting.BaseCurrency)
	assert.Nil(t, setting.LastRatesUpdateAt)

	stale, err := svc.RatesStale(ctx, time.Now())
	require.NoError(t, err)
	assert.True(t, stale)

	_, err = svc.RefreshRates(ctx)
	require.NoError(t, err)
	base, rates, err := svc.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", base)
	assert.True(t, rates.Rate("TRY").Equal(decimal.NewFromInt(32)))

	// 旧基础货币下的 EUR 被新值覆盖
	assert.True(t, rates.Rate("EUR").Equal(decimal.RequireFromString("0.9")))
}

func TestCurrencyService_UpdateSettingsValidation(t *testing.T) {
	_, uow := setupUoW(t)
	svc := NewCurrencyService(uow, nil, nil, zap.NewNop())

	zero := 0
	_, err := svc.UpdateSettings(context.Background(), SettingsUpdate{CurrencyRefreshDays: &zero})
	assert.True(t, errors.Is(err, ErrInvalidValue))

	neg := decimal.RequireFromString("-0.1")
	_, err = svc.UpdateSettings(context.Background(), SettingsUpdate{VatRate: &neg})
	assert.True(t, errors.Is(err, ErrInvalidValue))

	_, err = svc.RefreshRates(context.Background())
	assert.True(t, errors.Is(err, ErrRateSourceUnavailable))
}

func TestCurrencyService_PriceContext(t *testing.T) {
	_, uow := setupUoW(t)
	ctx := context.Background()
	svc := NewCurrencyService(uow, newFakeRateSource(), nil, zap.NewNop())
	_, err := svc.RefreshRates(ctx)
	require.NoError(t, err)

	vat := decimal.RequireFromString("0.20")
	incl := true
	_, err = svc.UpdateSettings(ctx, SettingsUpdate{VatRate: &vat, ShowPricesInclVat: &incl})
	require.NoError(t, err)

	pc, err := svc.PriceContext(ctx, "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", pc.DisplayCurrency)
	f, _ := pc.Display(decimal.NewFromInt(100)).Float64()
	assert.InDelta(t, 3.72, f, 1e-9)

	pc, err = svc.PriceContext(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "TRY", pc.DisplayCurrency)
}

func TestMemoryRateCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryRateCache(time.Minute)

	_, ok := cache.Get(ctx)
	assert.False(t, ok)

	cache.Set(ctx, &CachedRates{Base: "TRY", Rates: RateTable{"USD": decimal.RequireFromString("0.031")}})
	got, ok := cache.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, "TRY", got.Base)
	assert.True(t, got.Rates.Rate("USD").Equal(decimal.RequireFromString("0.031")))

	cache.Invalidate(ctx)
	_, ok = cache.Get(ctx)
	assert.False(t, ok)
}

func TestHTTPRateSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/TRY" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"success","base_code":"TRY","rates":{"TRY":1,"USD":0.031}}`))
	}))
	defer srv.Close()

	src := NewHTTPRateSource(srv.URL+"/", time.Second)
	rates, err := src.FetchRates(context.Background(), "try")
	require.NoError(t, err)
	assert.True(t, rates["USD"].Equal(decimal.RequireFromString("0.031")))

	_, err = src.FetchRates(context.Background(), "GBP")
	assert.Error(t, err)
}
