package service

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"storefront_v1_202610/internal/model"
	"storefront_v1_202610/internal/repository"
)

// TranslationCall 一次外部翻译调用
type TranslationCall struct {
	Provider     string
	From         string
	To           string
	Text         string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
	Err          error
}

// CallRecorder 翻译调用记录器，实现方不得阻塞调用方
type CallRecorder interface {
	RecordCall(call TranslationCall)
}

// ==================== TranslationAudit ====================

// TranslationAudit 异步批量写入翻译调用日志
// 翻译常发生在事务内部，写日志不能占用同一个连接，所以走独立协程
type TranslationAudit struct {
	repo   repository.TranslationLogRepository
	logger *zap.Logger

	ch   chan model.TranslationLog
	done chan struct{}
}

// NewTranslationAudit 创建并启动后台写入协程；进程退出前调用 Close
func NewTranslationAudit(repo repository.TranslationLogRepository, buffer int, logger *zap.Logger) *TranslationAudit {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &TranslationAudit{
		repo:   repo,
		logger: logger,
		ch:     make(chan model.TranslationLog, buffer),
		done:   make(chan struct{}),
	}
	go a.loop()
	return a
}

// RecordCall 缓冲区满时丢弃该条日志
func (a *TranslationAudit) RecordCall(call TranslationCall) {
	entry := model.TranslationLog{
		Provider:     call.Provider,
		FromLocale:   call.From,
		ToLocale:     call.To,
		SourceChars:  utf8.RuneCountInString(call.Text),
		InputTokens:  call.InputTokens,
		OutputTokens: call.OutputTokens,
		DurationMs:   call.Duration.Milliseconds(),
		Status:       model.TranslationStatusSuccess,
	}
	if call.Err != nil {
		entry.Status = model.TranslationStatusFailed
		entry.ErrorMsg = truncate(call.Err.Error(), 1024)
	}

	select {
	case a.ch <- entry:
	default:
		a.logger.Warn("translation log buffer full, dropping entry", zap.String("provider", call.Provider))
	}
}

// Close 停止接收并把缓冲中的日志全部落库
func (a *TranslationAudit) Close() {
	close(a.ch)
	<-a.done
}

// Usage 按提供方汇总用量
func (a *TranslationAudit) Usage(ctx context.Context, since time.Time) ([]repository.TranslationUsageStats, error) {
	return a.repo.GetUsageByProvider(ctx, since, time.Time{})
}

func (a *TranslationAudit) loop() {
	defer close(a.done)

	const batchSize = 50
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	batch := make([]model.TranslationLog, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.repo.CreateBatch(ctx, batch); err != nil {
			a.logger.Warn("write translation logs failed", zap.Int("count", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-a.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
