package task

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RateRefresher 汇率刷新所需的 service 能力
type RateRefresher interface {
	RatesStale(ctx context.Context, now time.Time) (bool, error)
	RefreshRates(ctx context.Context) (int, error)
}

// RateRefreshTask 定时检查汇率是否过期，过期才去外部汇率源拉取
type RateRefreshTask struct {
	refresher RateRefresher
	spec      string
	logger    *zap.Logger
	now       func() time.Time
	Cron      *cron.Cron
}

func NewRateRefreshTask(refresher RateRefresher, spec string, logger *zap.Logger) *RateRefreshTask {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateRefreshTask{
		refresher: refresher,
		spec:      spec,
		logger:    logger.Named("rate_task"),
		now:       time.Now,
		Cron:      cron.New(cron.WithSeconds()), // 支持秒级控制
	}
}

// Start 启动定时任务，首次检查异步执行
func (t *RateRefreshTask) Start() error {
	if _, err := t.Cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		t.runLogged(ctx)
	}); err != nil {
		return fmt.Errorf("invalid rate refresh cron %q: %w", t.spec, err)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		t.logger.Info("服务启动，正在执行首次汇率检查")
		t.runLogged(ctx)
	}()

	t.Cron.Start()
	t.logger.Info("汇率刷新任务已启动", zap.String("cron", t.spec))
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (t *RateRefreshTask) Stop() {
	<-t.Cron.Stop().Done()
}

// RunOnce 汇率过期时刷新一次，返回是否实际刷新
func (t *RateRefreshTask) RunOnce(ctx context.Context) (bool, error) {
	stale, err := t.refresher.RatesStale(ctx, t.now())
	if err != nil {
		return false, err
	}
	if !stale {
		return false, nil
	}

	count, err := t.refresher.RefreshRates(ctx)
	if err != nil {
		return false, err
	}
	t.logger.Info("汇率已刷新", zap.Int("count", count))
	return true, nil
}

func (t *RateRefreshTask) runLogged(ctx context.Context) {
	// 失败只记录，下一轮继续检查，已有汇率保持不变
	if _, err := t.RunOnce(ctx); err != nil {
		t.logger.Warn("汇率刷新失败", zap.Error(err))
	}
}
