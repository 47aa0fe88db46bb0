package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	pkgnet "storefront_v1_202610/pkg/net"
)

// Translator 翻译协作者
// Translate 不会失败：出错或超时时返回原文
type Translator interface {
	Translate(ctx context.Context, text, from, to string) string
}

// NopTranslator 原样返回
type NopTranslator struct{}

func (NopTranslator) Translate(_ context.Context, text, _, _ string) string {
	return text
}

// ==================== HTTPTranslator ====================

// HTTPTranslator 通过 Dispatcher (轮询代理 + 重试) 调用 translate_a/single 风格的接口
type HTTPTranslator struct {
	endpoint   string
	dispatcher pkgnet.Dispatcher
	timeout    time.Duration
	logger     *zap.Logger
	recorder   CallRecorder
}

func NewHTTPTranslator(endpoint string, dispatcher pkgnet.Dispatcher, timeout time.Duration, logger *zap.Logger) *HTTPTranslator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPTranslator{
		endpoint:   endpoint,
		dispatcher: dispatcher,
		timeout:    timeout,
		logger:     logger,
	}
}

// SetRecorder 记录每次外部调用，nil 表示不记录
func (t *HTTPTranslator) SetRecorder(r CallRecorder) {
	t.recorder = r
}

func (t *HTTPTranslator) Translate(ctx context.Context, text, from, to string) string {
	if skipTranslation(text, from, to) {
		return text
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	out, err := t.translate(ctx, text, from, to)
	if err == nil && out == "" {
		err = fmt.Errorf("empty translation")
	}
	if t.recorder != nil {
		t.recorder.RecordCall(TranslationCall{
			Provider: "http", From: from, To: to, Text: text,
			Duration: time.Since(start), Err: err,
		})
	}
	if err != nil {
		t.logger.Warn("translation fallback to source text",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		return text
	}
	return out
}

func (t *HTTPTranslator) translate(ctx context.Context, text, from, to string) (string, error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", from)
	query.Set("tl", to)
	query.Set("dt", "t")
	query.Set("q", text)

	req, err := pkgnet.BuildGetRequest(ctx, t.endpoint, query)
	if err != nil {
		return "", err
	}

	resp, err := t.dispatcher.Send(ctx, "translator", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate endpoint status %d", resp.StatusCode)
	}
	return parseTranslateResponse(body)
}

// parseTranslateResponse 解析 [[["译文","原文",...],...],...] 结构，拼接所有分段
func parseTranslateResponse(body []byte) (string, error) {
	var raw []interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("decode translate response: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty translate response")
	}
	segments, ok := raw[0].([]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected translate response shape")
	}

	var sb strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]interface{})
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			sb.WriteString(s)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func skipTranslation(text, from, to string) bool {
	return strings.TrimSpace(text) == "" || baseLanguage(from) == baseLanguage(to)
}
