package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront_v1_202610/internal/model"
)

func testRates() RateTable {
	return NewRateTable([]model.ExchangeRate{
		{Code: "TRY", Rate: decimal.NewFromInt(1)},
		{Code: "usd", Rate: decimal.RequireFromString("0.031")},
		{Code: "EUR", Rate: decimal.RequireFromString("0.028")},
		{Code: "XXX", Rate: decimal.Zero},
	})
}

func TestRateTable_MissingOrZeroIsOne(t *testing.T) {
	rates := testRates()
	assert.True(t, rates.Rate("USD").Equal(decimal.RequireFromString("0.031")))
	assert.True(t, rates.Rate("XXX").Equal(decimal.NewFromInt(1)))
	assert.True(t, rates.Rate("GBP").Equal(decimal.NewFromInt(1)))
}

func TestConvert_RoundTrip(t *testing.T) {
	rates := testRates()
	amount := decimal.RequireFromString("1234.56")

	usd := Convert(amount, "TRY", "USD", rates)
	eur := Convert(usd, "USD", "EUR", rates)
	back := Convert(eur, "EUR", "TRY", rates)

	f, _ := back.Float64()
	assert.InDelta(t, 1234.56, f, 1e-6)
	assert.True(t, Convert(amount, "usd", "USD", rates).Equal(amount))
}

func TestServiceFee(t *testing.T) {
	rates := testRates()

	// 分期总额 3.72 USD = 120 TRY，订单 100 TRY -> 手续费 20 TRY
	fee := ServiceFee(decimal.RequireFromString("3.72"), "USD", decimal.NewFromInt(100), "TRY", rates)
	f, _ := fee.Float64()
	assert.InDelta(t, 20.0, f, 1e-9)

	// 低于订单总额时为 0
	fee = ServiceFee(decimal.RequireFromString("2"), "USD", decimal.NewFromInt(100), "TRY", rates)
	assert.True(t, fee.IsZero())
}

func TestPriceContext_DisplayAndNetBound(t *testing.T) {
	pc := PriceContext{
		BaseCurrency:    "TRY",
		DisplayCurrency: "TRY",
		VatRate:         decimal.RequireFromString("0.20"),
		ShowInclVat:     true,
		Rates:           testRates(),
	}

	// 含税展示价 120 对应净价 100
	assert.True(t, pc.NetBound(decimal.NewFromInt(120)).Equal(decimal.NewFromInt(100)))
	assert.True(t, pc.Display(decimal.NewFromInt(100)).Equal(decimal.NewFromInt(120)))

	pc.ShowInclVat = false
	assert.True(t, pc.NetBound(decimal.NewFromInt(120)).Equal(decimal.NewFromInt(120)))

	pc.ShowInclVat = true
	pc.DisplayCurrency = "USD"
	display := pc.Display(decimal.NewFromInt(100))
	f, _ := display.Float64()
	assert.InDelta(t, 3.72, f, 1e-9)

	net, _ := pc.NetBound(display).Float64()
	assert.InDelta(t, 100.0, net, 1e-9)
}
