package model

// ==================== 属性类型 ====================

type AttributeType string

const (
	AttributeTypeText    AttributeType = "TEXT"
	AttributeTypeNumber  AttributeType = "NUMBER"
	AttributeTypeBoolean AttributeType = "BOOLEAN"
	AttributeTypeSelect  AttributeType = "SELECT"
)

// Valid 判断是否为合法类型
func (t AttributeType) Valid() bool {
	switch t {
	case AttributeTypeText, AttributeTypeNumber, AttributeTypeBoolean, AttributeTypeSelect:
		return true
	}
	return false
}

// 约定的属性 key
const (
	AttributeKeyVariantOption = "variant_option"
	AttributeKeyColor         = "color"
	AttributeKeyColorTR       = "renk"
)

// ==================== Attribute 属性定义 ====================

// Attribute 分类级别的属性定义，对子分类的商品同样生效
type Attribute struct {
	BaseModel
	CategoryID int64         `gorm:"uniqueIndex:idx_attribute_category_key;not null" json:"category_id"`
	Key        string        `gorm:"size:191;uniqueIndex:idx_attribute_category_key;not null" json:"key"`
	Type       AttributeType `gorm:"size:16;not null" json:"type"` // 已有取值后不可修改
	Unit       *string       `gorm:"size:32" json:"unit"`
	IsRequired bool          `gorm:"default:false" json:"is_required"`
	Active     bool          `gorm:"index" json:"active"`
	SortOrder  int           `gorm:"default:0" json:"sort_order"`

	Translations []AttributeTranslation `gorm:"foreignKey:AttributeID" json:"translations,omitempty"`
	Options      []AttributeOption      `gorm:"foreignKey:AttributeID" json:"options,omitempty"`
}

func (Attribute) TableName() string {
	return "attributes"
}

type AttributeTranslation struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	AttributeID int64  `gorm:"uniqueIndex:idx_attribute_locale;not null" json:"attribute_id"`
	Locale      string `gorm:"size:10;uniqueIndex:idx_attribute_locale;not null" json:"locale"`
	Name        string `gorm:"size:255;index" json:"name"`
}

func (AttributeTranslation) TableName() string {
	return "attribute_translations"
}

// AttributeOption SELECT 类型属性的可选值
type AttributeOption struct {
	BaseModel
	AttributeID int64   `gorm:"index;not null" json:"attribute_id"`
	Key         *string `gorm:"size:191" json:"key"`
	Active      bool    `json:"active"`
	SortOrder   int     `gorm:"default:0" json:"sort_order"`

	Translations []AttributeOptionTranslation `gorm:"foreignKey:OptionID" json:"translations,omitempty"`
}

func (AttributeOption) TableName() string {
	return "attribute_options"
}

type AttributeOptionTranslation struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	OptionID int64  `gorm:"uniqueIndex:idx_option_locale;not null" json:"option_id"`
	Locale   string `gorm:"size:10;uniqueIndex:idx_option_locale;not null" json:"locale"`
	Name     string `gorm:"size:255;index" json:"name"`
}

func (AttributeOptionTranslation) TableName() string {
	return "attribute_option_translations"
}

// ==================== ProductAttributeValue 取值 ====================

// ProductAttributeValue 四个取值列中有且仅有一个非空，且与属性类型一致
// 写入只能经过 SetValue
type ProductAttributeValue struct {
	BaseModel
	ProductID         int64    `gorm:"uniqueIndex:idx_product_attribute;not null" json:"product_id"`
	AttributeID       int64    `gorm:"uniqueIndex:idx_product_attribute;index;not null" json:"attribute_id"`
	ValueText         *string  `gorm:"type:text" json:"value_text"`
	ValueNumber       *float64 `json:"value_number"`
	ValueBoolean      *bool    `json:"value_boolean"`
	AttributeOptionID *int64   `gorm:"index" json:"attribute_option_id"`
}

func (ProductAttributeValue) TableName() string {
	return "product_attribute_values"
}

// Value 把存储列解码为 AttributeValue，全部为空时返回 nil
func (v *ProductAttributeValue) Value() AttributeValue {
	switch {
	case v.AttributeOptionID != nil:
		return OptionValue(*v.AttributeOptionID)
	case v.ValueText != nil:
		return TextValue(*v.ValueText)
	case v.ValueNumber != nil:
		return NumberValue(*v.ValueNumber)
	case v.ValueBoolean != nil:
		return BoolValue(*v.ValueBoolean)
	}
	return nil
}

// SetValue 写入一个取值，其余三列强制置空
func (v *ProductAttributeValue) SetValue(val AttributeValue) {
	v.ValueText = nil
	v.ValueNumber = nil
	v.ValueBoolean = nil
	v.AttributeOptionID = nil

	switch x := val.(type) {
	case TextValue:
		s := string(x)
		v.ValueText = &s
	case NumberValue:
		f := float64(x)
		v.ValueNumber = &f
	case BoolValue:
		b := bool(x)
		v.ValueBoolean = &b
	case OptionValue:
		id := int64(x)
		v.AttributeOptionID = &id
	}
}

// ==================== AttributeValue 取值联合类型 ====================

// AttributeValue 属性取值 (TextValue | NumberValue | BoolValue | OptionValue)
type AttributeValue interface {
	Type() AttributeType
	isAttributeValue()
}

type TextValue string

type NumberValue float64

type BoolValue bool

// OptionValue 指向 AttributeOption.ID
type OptionValue int64

func (TextValue) Type() AttributeType   { return AttributeTypeText }
func (NumberValue) Type() AttributeType { return AttributeTypeNumber }
func (BoolValue) Type() AttributeType   { return AttributeTypeBoolean }
func (OptionValue) Type() AttributeType { return AttributeTypeSelect }

func (TextValue) isAttributeValue()   {}
func (NumberValue) isAttributeValue() {}
func (BoolValue) isAttributeValue()   {}
func (OptionValue) isAttributeValue() {}
