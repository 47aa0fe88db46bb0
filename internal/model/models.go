package model

// All 需要 AutoMigrate 的全部模型
func All() []interface{} {
	return []interface{}{
		// Catalog
		&Category{}, &CategoryTranslation{},
		// EAV
		&Attribute{}, &AttributeTranslation{},
		&AttributeOption{}, &AttributeOptionTranslation{},
		&ProductAttributeValue{},
		// Product
		&Product{}, &ProductTranslation{}, &ProductVariantAttribute{},
		// Currency
		&SystemSetting{}, &ExchangeRate{},
		// Order
		&Order{}, &OrderItem{},
		// Audit
		&TranslationLog{},
	}
}
