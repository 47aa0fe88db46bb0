package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"storefront_v1_202610/internal/model"
)

// ==================== 仓储接口 ====================

// TranslationLogRepository 翻译调用日志仓储接口
type TranslationLogRepository interface {
	Create(ctx context.Context, log *model.TranslationLog) error
	CreateBatch(ctx context.Context, logs []model.TranslationLog) error
	GetByID(ctx context.Context, id int64) (*model.TranslationLog, error)

	// 统计查询
	GetUsageByProvider(ctx context.Context, startTime, endTime time.Time) ([]TranslationUsageStats, error)
	GetDailyUsage(ctx context.Context, startDate, endDate time.Time) ([]DailyTranslationStats, error)
	PurgeBefore(ctx context.Context, before time.Time) (int64, error)
}

// ==================== 统计结构 ====================

// TranslationUsageStats 按提供方汇总的用量
type TranslationUsageStats struct {
	Provider          string  `json:"provider"`
	TotalCalls        int64   `json:"total_calls"`
	TotalChars        int64   `json:"total_chars"`
	TotalInputTokens  int64   `json:"total_input_tokens"`
	TotalOutputTokens int64   `json:"total_output_tokens"`
	AvgDurationMs     float64 `json:"avg_duration_ms"`
	SuccessCount      int64   `json:"success_count"`
	FailedCount       int64   `json:"failed_count"`
}

// DailyTranslationStats 每日用量
type DailyTranslationStats struct {
	Date        string `json:"date"`
	TotalCalls  int64  `json:"total_calls"`
	TotalChars  int64  `json:"total_chars"`
	FailedCount int64  `json:"failed_count"`
}

// ==================== 仓储实现 ====================

type translationLogRepo struct {
	db *gorm.DB
}

// NewTranslationLogRepository 创建翻译调用日志仓储
func NewTranslationLogRepository(db *gorm.DB) TranslationLogRepository {
	return &translationLogRepo{db: db}
}

func (r *translationLogRepo) Create(ctx context.Context, log *model.TranslationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *translationLogRepo) CreateBatch(ctx context.Context, logs []model.TranslationLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(logs, 100).Error
}

func (r *translationLogRepo) GetByID(ctx context.Context, id int64) (*model.TranslationLog, error) {
	var log model.TranslationLog
	if err := r.db.WithContext(ctx).First(&log, id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *translationLogRepo) GetUsageByProvider(ctx context.Context, startTime, endTime time.Time) ([]TranslationUsageStats, error) {
	var stats []TranslationUsageStats

	query := r.db.WithContext(ctx).Model(&model.TranslationLog{})
	if !startTime.IsZero() {
		query = query.Where("created_at >= ?", startTime)
	}
	if !endTime.IsZero() {
		query = query.Where("created_at <= ?", endTime)
	}

	err := query.Select(`
		provider,
		COUNT(*) as total_calls,
		COALESCE(SUM(source_chars), 0) as total_chars,
		COALESCE(SUM(input_tokens), 0) as total_input_tokens,
		COALESCE(SUM(output_tokens), 0) as total_output_tokens,
		COALESCE(AVG(duration_ms), 0) as avg_duration_ms,
		SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END) as success_count,
		SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) as failed_count
	`).
		Group("provider").
		Order("provider ASC").
		Scan(&stats).Error

	return stats, err
}

func (r *translationLogRepo) GetDailyUsage(ctx context.Context, startDate, endDate time.Time) ([]DailyTranslationStats, error) {
	var stats []DailyTranslationStats

	err := r.db.WithContext(ctx).Model(&model.TranslationLog{}).
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Select(`
			DATE(created_at) as date,
			COUNT(*) as total_calls,
			COALESCE(SUM(source_chars), 0) as total_chars,
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) as failed_count
		`).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&stats).Error

	return stats, err
}

// PurgeBefore 清理过期日志
func (r *translationLogRepo) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", before).Delete(&model.TranslationLog{})
	return result.RowsAffected, result.Error
}
