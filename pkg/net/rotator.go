package net

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// ProxyRotator 轮询代理列表的 ProxyProvider
// 游标随实例存在，进程内每个客户端各自持有一份
type ProxyRotator struct {
	mu      sync.Mutex
	proxies []*url.URL
	cursor  int
}

var _ ProxyProvider = (*ProxyRotator)(nil)

// NewProxyRotator 解析代理地址列表，空列表表示始终直连
func NewProxyRotator(raw []string) (*ProxyRotator, error) {
	r := &ProxyRotator{}
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy url %q", s)
		}
		r.proxies = append(r.proxies, u)
	}
	return r, nil
}

// GetProxy 返回当前游标指向的代理
func (r *ProxyRotator) GetProxy(_ context.Context, _ string) (*url.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.proxies) == 0 {
		return nil, nil
	}
	return r.proxies[r.cursor%len(r.proxies)], nil
}

// ReportError 游标前移到下一个代理
func (r *ProxyRotator) ReportError(_ context.Context, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.proxies) == 0 {
		return
	}
	r.cursor = (r.cursor + 1) % len(r.proxies)
}

// Len 代理数量
func (r *ProxyRotator) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.proxies)
}
