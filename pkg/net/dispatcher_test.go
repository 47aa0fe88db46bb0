package net

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyRotator_RoundRobin(t *testing.T) {
	r, err := NewProxyRotator([]string{"http://10.0.0.1:3128", " ", "http://10.0.0.2:3128"})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	ctx := context.Background()
	p, _ := r.GetProxy(ctx, "x")
	assert.Equal(t, "10.0.0.1:3128", p.Host)

	r.ReportError(ctx, "x")
	p, _ = r.GetProxy(ctx, "x")
	assert.Equal(t, "10.0.0.2:3128", p.Host)

	r.ReportError(ctx, "x")
	p, _ = r.GetProxy(ctx, "x")
	assert.Equal(t, "10.0.0.1:3128", p.Host)
}

func TestProxyRotator_EmptyMeansDirect(t *testing.T) {
	r, err := NewProxyRotator(nil)
	require.NoError(t, err)

	p, err := r.GetProxy(context.Background(), "x")
	assert.NoError(t, err)
	assert.Nil(t, p)
	r.ReportError(context.Background(), "x")
}

func TestProxyRotator_InvalidURL(t *testing.T) {
	_, err := NewProxyRotator([]string{"not a url"})
	assert.Error(t, err)
}

func TestDispatcher_SendDirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "hello", r.URL.Query().Get("q"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rotator, _ := NewProxyRotator(nil)
	d := NewDispatcher(rotator, 1, time.Second)

	req, err := BuildGetRequest(context.Background(), srv.URL, map[string][]string{"q": {"hello"}})
	require.NoError(t, err)

	resp, err := d.Send(context.Background(), "test", req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDispatcher_RetriesThroughNextProxy(t *testing.T) {
	// 第一个代理不可达，第二个代理直接指向测试服务器 (作为 HTTP 代理转发)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rotator, err := NewProxyRotator([]string{"http://127.0.0.1:1", srv.URL})
	require.NoError(t, err)
	d := NewDispatcher(rotator, 2, 2*time.Second)

	req, _ := BuildGetRequest(context.Background(), "http://example.invalid/ping", nil)
	resp, err := d.Send(context.Background(), "test", req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
