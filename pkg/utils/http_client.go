package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// NewRestClient 创建一个配置好超时与可选代理的 Resty 客户端
// 汇率源等外部 JSON 接口统一从这里创建客户端
func NewRestClient(baseURL string, timeout time.Duration, proxyURL string) *resty.Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "storefront/1.0")

	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return client
}
