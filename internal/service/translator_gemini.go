package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiConfig Gemini 翻译配置
type GeminiConfig struct {
	APIKey   string
	Model    string
	ProxyURL string // 为空则直连
	Timeout  time.Duration
}

// GeminiTranslator 使用 Gemini 做短文本翻译 (属性名、选项名、变体标签)
type GeminiTranslator struct {
	client   *genai.Client
	model    string
	timeout  time.Duration
	logger   *zap.Logger
	recorder CallRecorder
}

// NewGeminiTranslator 创建客户端，进程退出前调用 Close
func NewGeminiTranslator(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiTranslator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(&http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &GeminiTranslator{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

func (t *GeminiTranslator) Translate(ctx context.Context, text, from, to string) string {
	if skipTranslation(text, from, to) {
		return text
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	out, usage, err := t.generate(ctx, text, from, to)
	if err == nil && out == "" {
		err = fmt.Errorf("empty translation")
	}
	if t.recorder != nil {
		t.recorder.RecordCall(TranslationCall{
			Provider: "gemini", From: from, To: to, Text: text,
			InputTokens: usage.input, OutputTokens: usage.output,
			Duration: time.Since(start), Err: err,
		})
	}
	if err != nil {
		t.logger.Warn("translation fallback to source text",
			zap.String("provider", "gemini"),
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		return text
	}
	return out
}

type tokenUsage struct {
	input  int
	output int
}

func (t *GeminiTranslator) generate(ctx context.Context, text, from, to string) (string, tokenUsage, error) {
	var usage tokenUsage
	m := t.client.GenerativeModel(t.model)
	m.SetTemperature(0)

	prompt := fmt.Sprintf(
		"Translate the following e-commerce product attribute text from %q to %q. "+
			"Reply with the translation only, no quotes, no explanation.\n\n%s",
		from, to, text)

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", usage, err
	}
	if resp.UsageMetadata != nil {
		usage.input = int(resp.UsageMetadata.PromptTokenCount)
		usage.output = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", usage, fmt.Errorf("empty gemini response")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return strings.Trim(strings.TrimSpace(string(txt)), `"`), usage, nil
		}
	}
	return "", usage, fmt.Errorf("no text part in gemini response")
}

// SetRecorder 记录每次外部调用，nil 表示不记录
func (t *GeminiTranslator) SetRecorder(r CallRecorder) {
	t.recorder = r
}

// Close 释放底层连接
func (t *GeminiTranslator) Close() error {
	return t.client.Close()
}
