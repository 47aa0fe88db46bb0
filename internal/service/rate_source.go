package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"storefront_v1_202610/pkg/utils"
)

// HTTPRateSource GET <baseURL>/<BASE> -> {"rates": {"USD": 0.031, ...}}
type HTTPRateSource struct {
	client *resty.Client
}

func NewHTTPRateSource(baseURL string, timeout time.Duration) *HTTPRateSource {
	return &HTTPRateSource{client: utils.NewRestClient(strings.TrimRight(baseURL, "/"), timeout, "")}
}

type rateSourceResponse struct {
	Result string                     `json:"result"`
	Base   string                     `json:"base_code"`
	Rates  map[string]decimal.Decimal `json:"rates"`
}

func (s *HTTPRateSource) FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	var body rateSourceResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("base", strings.ToUpper(base)).
		SetResult(&body).
		Get("/{base}")
	if err != nil {
		return nil, fmt.Errorf("rate source request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("rate source status %d", resp.StatusCode())
	}
	if body.Result != "" && body.Result != "success" {
		return nil, fmt.Errorf("rate source result %q", body.Result)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rate source returned no rates")
	}
	return body.Rates, nil
}
