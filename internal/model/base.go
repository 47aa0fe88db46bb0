package model

import (
	"time"
)

type BaseModel struct {
	ID        int64     `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Locale 常量，翻译表统一使用
const (
	LocaleTR = "tr"
	LocaleEN = "en"
)

// FallbackLocale 商品/分类主表上 name 字段对应的语言
const FallbackLocale = LocaleTR
