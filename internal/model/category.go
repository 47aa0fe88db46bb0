package model

// Category 商品分类 (parent 指针构成的树)
type Category struct {
	BaseModel
	ParentID *int64 `gorm:"index" json:"parent_id"` // 为空即根节点
	Slug     string `gorm:"size:191;uniqueIndex" json:"slug"`
	Name     string `gorm:"size:255" json:"name"`

	Translations []CategoryTranslation `gorm:"foreignKey:CategoryID" json:"translations,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}

type CategoryTranslation struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	CategoryID  int64  `gorm:"uniqueIndex:idx_category_locale;not null" json:"category_id"`
	Locale      string `gorm:"size:10;uniqueIndex:idx_category_locale;not null" json:"locale"`
	Name        string `gorm:"size:255" json:"name"`
	Slug        string `gorm:"size:255" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
}

func (CategoryTranslation) TableName() string {
	return "category_translations"
}
