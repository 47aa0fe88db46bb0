package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"storefront_v1_202610/internal/service"
)

// VariantMerger 自动合并所需的 service 能力
type VariantMerger interface {
	AutoMergeVariants(ctx context.Context) (*service.AutoMergeReport, error)
}

// AutoMergeTask 定时按同分类同名合并变体组
// 同一时刻只允许一轮在跑，手动触发与定时触发共用一把锁
type AutoMergeTask struct {
	merger VariantMerger
	spec   string
	logger *zap.Logger
	Cron   *cron.Cron

	running sync.Mutex
}

func NewAutoMergeTask(merger VariantMerger, spec string, logger *zap.Logger) *AutoMergeTask {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoMergeTask{
		merger: merger,
		spec:   spec,
		logger: logger.Named("automerge_task"),
		Cron:   cron.New(cron.WithSeconds()),
	}
}

// Start 启动定时任务 (不做首次执行，合并会改写商品名称)
func (t *AutoMergeTask) Start() error {
	if _, err := t.Cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := t.RunOnce(ctx); err != nil {
			t.logger.Warn("自动合并失败", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid automerge cron %q: %w", t.spec, err)
	}

	t.Cron.Start()
	t.logger.Info("变体自动合并任务已启动", zap.String("cron", t.spec))
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (t *AutoMergeTask) Stop() {
	<-t.Cron.Stop().Done()
}

// RunOnce 执行一轮自动合并；上一轮未结束时返回 ErrTaskBusy
func (t *AutoMergeTask) RunOnce(ctx context.Context) (*service.AutoMergeReport, error) {
	if !t.running.TryLock() {
		return nil, ErrTaskBusy
	}
	defer t.running.Unlock()

	start := time.Now()
	report, err := t.merger.AutoMergeVariants(ctx)
	if err != nil {
		return nil, err
	}
	t.logger.Info("本轮自动合并完成",
		zap.Int("candidates", report.Candidates),
		zap.Int("merged", len(report.Merged)),
		zap.Int("writes", report.Writes),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}
