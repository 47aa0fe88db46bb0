package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProductStatus 商品状态，商品不做物理删除，下架即 INACTIVE
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
)

type Product struct {
	BaseModel
	CategoryID  int64  `gorm:"index;not null" json:"category_id"`
	Name        string `gorm:"size:255" json:"name"` // FallbackLocale 下的名称
	Description string `gorm:"type:text" json:"description"`
	Slug        string `gorm:"size:191;index" json:"slug"`

	// --- 价格与库存 ---
	// Price 以基础货币存储，不含税
	Price  decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"price"`
	Stock  int             `gorm:"default:0" json:"stock"`
	Status ProductStatus   `gorm:"size:16;index;default:ACTIVE" json:"status"`
	Images datatypes.JSON  `gorm:"type:jsonb" json:"images"` // 有序图片 URL 列表

	// --- 变体组 ---
	// VariantGroupID 等于组内主商品 ID (可以是自身)
	VariantGroupID *int64 `gorm:"index" json:"variant_group_id"`
	// VariantAttributeID 旧版单维度字段，只有一个维度时会同步写入
	VariantAttributeID *int64 `json:"variant_attribute_id"`

	Translations []ProductTranslation `gorm:"foreignKey:ProductID" json:"translations,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// GroupID 商品所在变体组的 ID，未分组返回 0
func (p *Product) GroupID() int64 {
	if p.VariantGroupID == nil {
		return 0
	}
	return *p.VariantGroupID
}

type ProductTranslation struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	ProductID   int64  `gorm:"uniqueIndex:idx_product_locale;not null" json:"product_id"`
	Locale      string `gorm:"size:10;uniqueIndex:idx_product_locale;not null" json:"locale"`
	Name        string `gorm:"size:255" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Slug        string `gorm:"size:255" json:"slug"`
	// BaseName 自动合并改名前的原始名称，第一次改名时写入，之后只读
	BaseName *string `gorm:"size:255" json:"base_name"`
}

func (ProductTranslation) TableName() string {
	return "product_translations"
}

// ProductVariantAttribute 变体组的区分维度 (ProductID = 主商品 ID)
type ProductVariantAttribute struct {
	ID          int64 `gorm:"primaryKey" json:"id"`
	ProductID   int64 `gorm:"uniqueIndex:idx_variant_dimension;not null" json:"product_id"`
	AttributeID int64 `gorm:"uniqueIndex:idx_variant_dimension;not null" json:"attribute_id"`
	SortOrder   int   `gorm:"default:0" json:"sort_order"`
}

func (ProductVariantAttribute) TableName() string {
	return "product_variant_attributes"
}
