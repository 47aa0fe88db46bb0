package model

// TranslationLog 翻译调用日志 (外部翻译接口 / Gemini)
type TranslationLog struct {
	BaseModel

	// 调用信息
	Provider   string `gorm:"size:32;index;comment:翻译提供方(http/gemini)"`
	FromLocale string `gorm:"size:10;comment:源语言"`
	ToLocale   string `gorm:"size:10;index;comment:目标语言"`

	// 用量统计
	SourceChars  int `gorm:"default:0;comment:原文字符数"`
	InputTokens  int `gorm:"default:0;comment:输入token数(仅 gemini)"`
	OutputTokens int `gorm:"default:0;comment:输出token数(仅 gemini)"`

	DurationMs int64 `gorm:"comment:耗时(毫秒)"`

	// 状态
	Status   string `gorm:"size:32;index;default:success;comment:状态(success/failed)"`
	ErrorMsg string `gorm:"size:1024;comment:错误信息"`
}

func (TranslationLog) TableName() string {
	return "translation_logs"
}

// ==================== 状态常量 ====================

const (
	TranslationStatusSuccess = "success"
	TranslationStatusFailed  = "failed"
)
