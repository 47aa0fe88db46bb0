package net

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// ProxyProvider 定义“提供代理”的行为标准
type ProxyProvider interface {
	// GetProxy 根据业务键获取一个代理地址，返回 nil 表示直连
	GetProxy(ctx context.Context, key string) (*url.URL, error)

	// ReportError 上报该业务键当前使用的代理已失效
	ReportError(ctx context.Context, key string)
}

// Dispatcher 网络调度器 (通用组件)
type Dispatcher interface {
	// Send 发送 HTTP 请求
	// key: 发起方标识，用于代理选择 (如 "translator")
	Send(ctx context.Context, key string, req *http.Request) (*http.Response, error)
}

// httpDispatcher 是 Dispatcher 接口的具体实现
// 注意：它是私有的，外部只能通过 NewDispatcher 获取接口
type httpDispatcher struct {
	provider       ProxyProvider
	transportCache sync.Map
	maxRetries     int
	timeout        time.Duration
}

var _ Dispatcher = (*httpDispatcher)(nil)

// NewDispatcher 创建调度器，maxRetries 为失败后切换代理重试的次数
func NewDispatcher(provider ProxyProvider, maxRetries int, timeout time.Duration) Dispatcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpDispatcher{
		provider:   provider,
		maxRetries: maxRetries,
		timeout:    timeout,
	}
}

// Send 发送 HTTP 请求 (自动处理重试与代理切换)
// 只适合无 body 或 body 可重放的请求
func (d *httpDispatcher) Send(ctx context.Context, key string, req *http.Request) (*http.Response, error) {
	var lastErr error

	for i := 0; i <= d.maxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// 1. 通过接口回调获取代理
		proxyURL, err := d.provider.GetProxy(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("proxy provider error: %w", err)
		}

		// 2. 获取/复用 Transport
		client := d.getClient(proxyURL)

		// 3. 发送请求
		resp, err := client.Do(req.WithContext(ctx))
		if err == nil {
			return resp, nil
		}

		lastErr = err

		// 还有重试机会时，报错并触发切换
		if i < d.maxRetries {
			d.provider.ReportError(ctx, key)
			d.transportCache.Delete(cacheKey(proxyURL))
		}
	}

	return nil, fmt.Errorf("request failed after retries: %w", lastErr)
}

// getClient 内部复用逻辑
func (d *httpDispatcher) getClient(proxyURL *url.URL) *http.Client {
	key := cacheKey(proxyURL)

	if val, ok := d.transportCache.Load(key); ok {
		return &http.Client{
			Transport: val.(*http.Transport),
			Timeout:   d.timeout,
		}
	}

	// 缓存未命中，创建新 Transport
	tr := &http.Transport{
		Proxy:           http.ProxyURL(proxyURL),
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}

	// LoadOrStore 防止并发重复创建
	actual, _ := d.transportCache.LoadOrStore(key, tr)

	return &http.Client{
		Transport: actual.(*http.Transport),
		Timeout:   d.timeout,
	}
}

func cacheKey(proxyURL *url.URL) string {
	if proxyURL == nil {
		return "direct"
	}
	return proxyURL.String()
}
