package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"storefront_v1_202610/internal/model"
	"storefront_v1_202610/internal/repository"
)

// ==================== 类型推断 ====================

var booleanTokens = map[string]bool{
	"true":  true,
	"false": false,
	"evet":  true,
	"hayır": false,
	"hayir": false,
}

// parseBoolToken 识别 true/false/evet/hayır/hayir，大小写无关
func parseBoolToken(raw string) (bool, bool) {
	s := strings.TrimSpace(raw)
	if b, ok := booleanTokens[strings.ToLower(s)]; ok {
		return b, true
	}
	b, ok := booleanTokens[cases.Lower(language.Turkish).String(s)]
	return b, ok
}

// parseLocaleNumber 逗号视为小数点，出现逗号时点号视为千分位
func parseLocaleNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// InferAttributeType 布尔 > 数字 > defaultType
func InferAttributeType(sample string, defaultType model.AttributeType) model.AttributeType {
	if _, ok := parseBoolToken(sample); ok {
		return model.AttributeTypeBoolean
	}
	if _, ok := parseLocaleNumber(sample); ok {
		return model.AttributeTypeNumber
	}
	return defaultType
}

// ==================== 属性 / 选项 查找或创建 ====================

// EnsureCanonicalAttribute 导入路径：未识别的文本默认 SELECT
func (s *AttributeService) EnsureCanonicalAttribute(ctx context.Context, categoryID int64, rawName, sampleValue string) (*model.Attribute, error) {
	var attr *model.Attribute
	err := s.uow.Transaction(ctx, func(uow *repository.UnitOfWork) error {
		var err error
		attr, err = s.ensureAttribute(ctx, uow, categoryID, rawName, sampleValue, model.AttributeTypeSelect)
		return err
	})
	return attr, err
}

// EnsureEditableAttribute 后台手工编辑路径：未识别的文本默认 TEXT
func (s *AttributeService) EnsureEditableAttribute(ctx context.Context, categoryID int64, rawName, sampleValue string) (*model.Attribute, error) {
	var attr *model.Attribute
	err := s.uow.Transaction(ctx, func(uow *repository.UnitOfWork) error {
		var err error
		attr, err = s.ensureAttribute(ctx, uow, categoryID, rawName, sampleValue, model.AttributeTypeText)
		return err
	})
	return attr, err
}

// EnsureOption 在属性内按译名查找选项，没有则创建
func (s *AttributeService) EnsureOption(ctx context.Context, attributeID int64, rawValue string) (*model.AttributeOption, error) {
	var opt *model.AttributeOption
	err := s.uow.Transaction(ctx, func(uow *repository.UnitOfWork) error {
		attr, err := uow.Attributes.GetByID(ctx, attributeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrAttributeNotFound, attributeID)
			}
			return err
		}
		opt, err = s.ensureOption(ctx, uow, attr, rawValue)
		return err
	})
	return opt, err
}

// ensureAttribute 先在祖先链上按译名复用，否则在规范分类下创建
func (s *AttributeService) ensureAttribute(ctx context.Context, uow *repository.UnitOfWork, categoryID int64, rawName, sample string, defaultType model.AttributeType) (*model.Attribute, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return nil, fmt.Errorf("%w: empty attribute name", ErrInvalidValue)
	}

	tree, err := loadCategoryTree(ctx, uow.Categories)
	if err != nil {
		return nil, err
	}
	if !tree.Has(categoryID) {
		return nil, fmt.Errorf("%w: %d", ErrCategoryNotFound, categoryID)
	}

	// 1. 祖先链上按译名精确匹配，离商品分类最近的优先
	chain := tree.AncestorChain(categoryID)
	matches, err := uow.Attributes.FindByTranslatedName(ctx, chain, name)
	if err != nil {
		return nil, err
	}
	if found := nearestInChain(matches, chain); found != nil {
		return found, nil
	}

	// 2. 类型推断
	attrType := InferAttributeType(sample, defaultType)

	// 3. 挂载到规范分类并分配 key
	owner := tree.CanonicalAncestor(categoryID, s.CanonicalSlug)
	key, err := allocateAttributeKey(ctx, uow, owner, name)
	if err != nil {
		return nil, err
	}

	// 4. 创建，英文名走翻译
	attr := &model.Attribute{
		CategoryID: owner,
		Key:        key,
		Type:       attrType,
		Active:     true,
		Translations: []model.AttributeTranslation{
			{Locale: model.LocaleTR, Name: name},
			{Locale: model.LocaleEN, Name: s.translator.Translate(ctx, name, model.LocaleTR, model.LocaleEN)},
		},
	}
	if err := uow.Attributes.Create(ctx, attr); err != nil {
		return nil, err
	}

	s.logger.Info("attribute created",
		zap.Int64("attribute_id", attr.ID),
		zap.Int64("category_id", owner),
		zap.String("key", key),
		zap.String("type", string(attrType)),
	)
	return attr, nil
}

func nearestInChain(matches []model.Attribute, chain []int64) *model.Attribute {
	for _, cid := range chain {
		for i := range matches {
			if matches[i].CategoryID == cid {
				return &matches[i]
			}
		}
	}
	return nil
}

// allocateAttributeKey slug 化名称，分类内冲突时追加 -2, -3 ...
func allocateAttributeKey(ctx context.Context, uow *repository.UnitOfWork, categoryID int64, name string) (string, error) {
	base := slug.MakeLang(name, "tr")
	if base == "" {
		base = "attribute"
	}
	key := base
	for n := 2; ; n++ {
		exists, err := uow.Attributes.KeyExists(ctx, categoryID, key)
		if err != nil {
			return "", err
		}
		if !exists {
			return key, nil
		}
		key = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *AttributeService) ensureOption(ctx context.Context, uow *repository.UnitOfWork, attr *model.Attribute, rawValue string) (*model.AttributeOption, error) {
	value := strings.TrimSpace(rawValue)
	if value == "" {
		return nil, fmt.Errorf("%w: empty option value", ErrInvalidValue)
	}

	return findOrCreateOption(ctx, uow, s.translator, attr.ID, value)
}

// findOrCreateOption 按译名精确匹配复用选项，否则新建：key 取 slug，冲突时追加 -2, -3 ...
func findOrCreateOption(ctx context.Context, uow *repository.UnitOfWork, translator Translator, attributeID int64, value string) (*model.AttributeOption, error) {
	existing, err := uow.Attributes.FindOptionByName(ctx, attributeID, value)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	options, err := uow.Attributes.ListOptions(ctx, attributeID)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(options))
	for _, o := range options {
		if o.Key != nil {
			taken[*o.Key] = true
		}
	}
	base := slug.MakeLang(value, "tr")
	if base == "" {
		base = "option"
	}
	key := base
	for n := 2; taken[key]; n++ {
		key = fmt.Sprintf("%s-%d", base, n)
	}

	opt := &model.AttributeOption{
		AttributeID: attributeID,
		Key:         &key,
		Active:      true,
		SortOrder:   len(options),
		Translations: []model.AttributeOptionTranslation{
			{Locale: model.LocaleTR, Name: value},
			{Locale: model.LocaleEN, Name: translator.Translate(ctx, value, model.LocaleTR, model.LocaleEN)},
		},
	}
	if err := uow.Attributes.CreateOption(ctx, opt); err != nil {
		return nil, err
	}
	return opt, nil
}

// ==================== 批量导入 ====================

// RawAttribute 外部来源的原始属性 (名称/取值均为文本)
type RawAttribute struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// ImportSkip 未导入的条目及原因
type ImportSkip struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportReport 导入结果
type ImportReport struct {
	ProductID int64        `json:"product_id"`
	Imported  int          `json:"imported"`
	Skipped   []ImportSkip `json:"skipped"`
}

// ImportRawAttributes 逐条导入，单条失败只记录跳过原因，不影响其它条目
func (s *AttributeService) ImportRawAttributes(ctx context.Context, productID int64, pairs []RawAttribute) (*ImportReport, error) {
	product, err := s.uow.Products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	report := &ImportReport{ProductID: productID}
	for _, p := range pairs {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Value) == "" {
			report.Skipped = append(report.Skipped, ImportSkip{Name: p.Name, Reason: "empty name or value"})
			continue
		}

		err := s.uow.Transaction(ctx, func(uow *repository.UnitOfWork) error {
			attr, err := s.ensureAttribute(ctx, uow, product.CategoryID, p.Name, p.Value, model.AttributeTypeSelect)
			if err != nil {
				return err
			}
			val, err := s.coerceRawValue(ctx, uow, attr, p.Value)
			if err != nil {
				return err
			}
			return writeValue(ctx, uow, productID, attr.ID, val)
		})
		if err != nil {
			s.logger.Warn("attribute import skipped",
				zap.Int64("product_id", productID),
				zap.String("name", p.Name),
				zap.Error(err),
			)
			report.Skipped = append(report.Skipped, ImportSkip{Name: p.Name, Reason: err.Error()})
			continue
		}
		report.Imported++
	}
	return report, nil
}

// coerceRawValue 按已存在属性的类型解析原始文本
func (s *AttributeService) coerceRawValue(ctx context.Context, uow *repository.UnitOfWork, attr *model.Attribute, raw string) (model.AttributeValue, error) {
	switch attr.Type {
	case model.AttributeTypeBoolean:
		b, ok := parseBoolToken(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, raw)
		}
		return model.BoolValue(b), nil
	case model.AttributeTypeNumber:
		f, ok := parseLocaleNumber(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, raw)
		}
		return model.NumberValue(f), nil
	case model.AttributeTypeSelect:
		opt, err := s.ensureOption(ctx, uow, attr, raw)
		if err != nil {
			return nil, err
		}
		return model.OptionValue(opt.ID), nil
	default:
		return model.TextValue(strings.TrimSpace(raw)), nil
	}
}
