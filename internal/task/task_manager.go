package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront_v1_202610/internal/service"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台定时任务
// 管理范围：汇率过期刷新、变体自动合并、翻译日志清理
type TaskManager struct {
	rateTask      *RateRefreshTask
	autoMergeTask *AutoMergeTask
	cleanupTask   *LogCleanupTask
	logger        *zap.Logger
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	Rates  RateRefresher
	Merger VariantMerger
	Logs   LogPurger
}

// TaskManagerConfig 任务管理器配置，cron 为空表示不启动对应任务
type TaskManagerConfig struct {
	RateRefreshCron string
	AutoMergeCron   string
	LogRetention    time.Duration // <= 0 表示不清理
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		RateRefreshCron: "0 0 * * * *", // 每小时检查一次是否过期
		LogRetention:    30 * 24 * time.Hour,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig, logger *zap.Logger) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tm := &TaskManager{logger: logger}

	if cfg.RateRefreshCron != "" && deps.Rates != nil {
		tm.rateTask = NewRateRefreshTask(deps.Rates, cfg.RateRefreshCron, logger)
	}
	if cfg.AutoMergeCron != "" && deps.Merger != nil {
		tm.autoMergeTask = NewAutoMergeTask(deps.Merger, cfg.AutoMergeCron, logger)
	}
	if cfg.LogRetention > 0 && deps.Logs != nil {
		tm.cleanupTask = NewLogCleanupTask(deps.Logs, cfg.LogRetention, logger)
	}
	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务，cron 表达式非法时返回错误
func (tm *TaskManager) Start() error {
	tm.logger.Info("正在启动后台任务")

	if tm.rateTask != nil {
		if err := tm.rateTask.Start(); err != nil {
			return err
		}
	}
	if tm.autoMergeTask != nil {
		if err := tm.autoMergeTask.Start(); err != nil {
			return err
		}
	}

	if tm.cleanupTask != nil {
		tm.cleanupTask.Start()
	}

	tm.logger.Info("后台任务已全部启动", zap.Any("status", tm.Status()))
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	if tm.rateTask != nil {
		tm.rateTask.Stop()
	}
	if tm.autoMergeTask != nil {
		tm.autoMergeTask.Stop()
	}
	if tm.cleanupTask != nil {
		tm.cleanupTask.Stop()
	}
	tm.logger.Info("后台任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerRateRefresh 汇率过期时立即刷新
func (tm *TaskManager) TriggerRateRefresh(ctx context.Context) (bool, error) {
	if tm.rateTask == nil {
		return false, ErrTaskDisabled
	}
	return tm.rateTask.RunOnce(ctx)
}

// TriggerAutoMerge 立即执行一轮自动合并
func (tm *TaskManager) TriggerAutoMerge(ctx context.Context) (*service.AutoMergeReport, error) {
	if tm.autoMergeTask == nil {
		return nil, ErrTaskDisabled
	}
	return tm.autoMergeTask.RunOnce(ctx)
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"rates":     tm.rateTask != nil,
		"automerge": tm.autoMergeTask != nil,
		"cleanup":   tm.cleanupTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
	ErrTaskBusy     TaskError = "task is already running"
)
