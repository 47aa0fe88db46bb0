package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LogPurger 按时间清理日志
type LogPurger interface {
	PurgeBefore(ctx context.Context, before time.Time) (int64, error)
}

// LogCleanupTask 定期删除超过保留期的翻译调用日志
type LogCleanupTask struct {
	purger    LogPurger
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// LogCleanupOption 任务选项
type LogCleanupOption func(*LogCleanupTask)

// WithCleanupInterval 设置执行间隔
func WithCleanupInterval(d time.Duration) LogCleanupOption {
	return func(t *LogCleanupTask) {
		t.interval = d
	}
}

func NewLogCleanupTask(purger LogPurger, retention time.Duration, logger *zap.Logger, opts ...LogCleanupOption) *LogCleanupTask {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &LogCleanupTask{
		purger:    purger,
		retention: retention,
		interval:  24 * time.Hour,
		logger:    logger.Named("log_cleanup"),
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start 启动任务，重复调用无效
func (t *LogCleanupTask) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.mu.Unlock()

	t.wg.Add(1)
	go t.run()

	t.logger.Info("日志清理任务已启动",
		zap.Duration("interval", t.interval),
		zap.Duration("retention", t.retention),
	)
}

// Stop 停止任务
func (t *LogCleanupTask) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.mu.Unlock()

	close(t.stopCh)
	t.wg.Wait()
}

func (t *LogCleanupTask) run() {
	defer t.wg.Done()

	// 启动时立即执行
	t.RunOnce()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.RunOnce()
		case <-t.stopCh:
			return
		}
	}
}

// RunOnce 手动执行一次，返回删除条数
func (t *LogCleanupTask) RunOnce() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := t.purger.PurgeBefore(ctx, t.now().Add(-t.retention))
	if err != nil {
		t.logger.Warn("清理翻译日志失败", zap.Error(err))
		return 0
	}
	if deleted > 0 {
		t.logger.Info("已清理过期翻译日志", zap.Int64("deleted", deleted))
	}
	return deleted
}
