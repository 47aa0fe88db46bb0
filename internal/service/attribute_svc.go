package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront_v1_202610/internal/model"
	"storefront_v1_202610/internal/repository"
)

// ==================== 服务 ====================

// AttributeService EAV 属性解析与写入
type AttributeService struct {
	uow        *repository.UnitOfWork
	translator Translator
	logger     *zap.Logger

	// CanonicalSlug 导入时新属性挂载的分类 slug，为空则挂到根分类
	CanonicalSlug string
}

func NewAttributeService(uow *repository.UnitOfWork, translator Translator, logger *zap.Logger) *AttributeService {
	if translator == nil {
		translator = NopTranslator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttributeService{
		uow:        uow,
		translator: translator,
		logger:     logger,
	}
}

// ==================== 读路径 ====================

// ResolvedOption 已翻译的选项
type ResolvedOption struct {
	ID        int64   `json:"id"`
	Key       *string `json:"key"`
	Name      string  `json:"name"`
	SortOrder int     `json:"sort_order"`
}

// ResolvedAttribute 已翻译的属性定义
type ResolvedAttribute struct {
	ID         int64               `json:"id"`
	CategoryID int64               `json:"category_id"`
	Key        string              `json:"key"`
	Type       model.AttributeType `json:"type"`
	Unit       *string             `json:"unit"`
	IsRequired bool                `json:"is_required"`
	SortOrder  int                 `json:"sort_order"`
	Name       string              `json:"name"`
	Options    []ResolvedOption    `json:"options,omitempty"`
}

// ResolvedAttributes 商品的有效属性集合与当前取值，调用方按 AttributeID 配对
type ResolvedAttributes struct {
	ProductID  int64                         `json:"product_id"`
	Locale     string                        `json:"locale"`
	Attributes []ResolvedAttribute           `json:"attributes"`
	Values     []model.ProductAttributeValue `json:"values"`

	// 取值引用的选项，包含已停用的，用于渲染历史取值
	valueOptions map[int64]*model.AttributeOption
}

// ResolveAttributes 返回商品分类链上继承的属性 + 子孙分类的属性，以及商品当前取值
func (s *AttributeService) ResolveAttributes(ctx context.Context, productID int64, locale string) (*ResolvedAttributes, error) {
	if locale == "" {
		locale = model.FallbackLocale
	}

	product, err := s.uow.Products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	// 1. 分类树
	tree, err := loadCategoryTree(ctx, s.uow.Categories)
	if err != nil {
		return nil, err
	}
	chain := tree.AncestorChain(product.CategoryID)
	descendants := tree.Descendants(product.CategoryID)

	// 2. 祖先链属性优先，子孙分类属性其次
	inherited, err := s.uow.Attributes.ListActiveByCategories(ctx, chain)
	if err != nil {
		return nil, err
	}
	deeper, err := s.uow.Attributes.ListActiveByCategories(ctx, descendants)
	if err != nil {
		return nil, err
	}
	attrs := mergeAttributeSets(inherited, deeper)

	// 3. SELECT 属性的有效选项
	var selectIDs []int64
	for _, a := range attrs {
		if a.Type == model.AttributeTypeSelect {
			selectIDs = append(selectIDs, a.ID)
		}
	}
	options, err := s.uow.Attributes.ListActiveOptions(ctx, selectIDs)
	if err != nil {
		return nil, err
	}
	optionsByAttr := make(map[int64][]model.AttributeOption)
	for _, o := range options {
		optionsByAttr[o.AttributeID] = append(optionsByAttr[o.AttributeID], o)
	}

	// 4. 翻译
	resolved := make([]ResolvedAttribute, 0, len(attrs))
	for i := range attrs {
		a := &attrs[i]
		ra := ResolvedAttribute{
			ID:         a.ID,
			CategoryID: a.CategoryID,
			Key:        a.Key,
			Type:       a.Type,
			Unit:       a.Unit,
			IsRequired: a.IsRequired,
			SortOrder:  a.SortOrder,
			Name:       attributeName(a, locale),
		}
		for j := range optionsByAttr[a.ID] {
			o := &optionsByAttr[a.ID][j]
			ra.Options = append(ra.Options, ResolvedOption{
				ID:        o.ID,
				Key:       o.Key,
				Name:      optionName(o, locale),
				SortOrder: o.SortOrder,
			})
		}
		resolved = append(resolved, ra)
	}

	// 5. 当前取值，以及取值引用的选项 (不论是否停用)
	values, err := s.uow.Attributes.ListValues(ctx, productID)
	if err != nil {
		return nil, err
	}
	var optionIDs []int64
	for _, v := range values {
		if v.AttributeOptionID != nil {
			optionIDs = append(optionIDs, *v.AttributeOptionID)
		}
	}
	referenced, err := s.uow.Attributes.GetOptionsByIDs(ctx, optionIDs)
	if err != nil {
		return nil, err
	}
	valueOptions := make(map[int64]*model.AttributeOption, len(referenced))
	for i := range referenced {
		valueOptions[referenced[i].ID] = &referenced[i]
	}

	return &ResolvedAttributes{
		ProductID:    productID,
		Locale:       locale,
		Attributes:   resolved,
		Values:       values,
		valueOptions: valueOptions,
	}, nil
}

// mergeAttributeSets 按属性 ID 去重，先出现者保留
func mergeAttributeSets(sets ...[]model.Attribute) []model.Attribute {
	seen := make(map[int64]bool)
	var out []model.Attribute
	for _, set := range sets {
		for _, a := range set {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			out = append(out, a)
		}
	}
	return out
}

// ==================== 属性表 ====================

// AttributeRow 商品详情页属性表的一行
type AttributeRow struct {
	AttributeID int64   `json:"attribute_id"`
	Name        string  `json:"name"`
	Value       string  `json:"value"`
	Unit        *string `json:"unit,omitempty"`
}

// BuildAttributeTable 把属性定义与取值配对成展示行，没有取值的属性不输出
func BuildAttributeTable(resolved *ResolvedAttributes) []AttributeRow {
	valueByAttr := make(map[int64]model.AttributeValue, len(resolved.Values))
	for i := range resolved.Values {
		if v := resolved.Values[i].Value(); v != nil {
			valueByAttr[resolved.Values[i].AttributeID] = v
		}
	}

	var rows []AttributeRow
	for _, a := range resolved.Attributes {
		val, ok := valueByAttr[a.ID]
		if !ok {
			continue
		}
		text := renderValue(val, resolved.valueOptions, resolved.Locale)
		if text == "" {
			continue
		}
		rows = append(rows, AttributeRow{
			AttributeID: a.ID,
			Name:        a.Name,
			Value:       text,
			Unit:        a.Unit,
		})
	}
	return rows
}

// ==================== 写路径 ====================

// AttributeValueInput 单个属性取值写入，只有与属性类型对应的字段会被使用
type AttributeValueInput struct {
	AttributeID       int64    `json:"attribute_id" binding:"required"`
	ValueText         *string  `json:"value_text"`
	ValueNumber       *float64 `json:"value_number"`
	ValueBoolean      *bool    `json:"value_boolean"`
	AttributeOptionID *int64   `json:"attribute_option_id"`
}

// UpsertAttributeValues 事务内批量写入；按 (product_id, attribute_id) upsert，可重复执行
// 对应列为空表示清除该取值
func (s *AttributeService) UpsertAttributeValues(ctx context.Context, productID int64, inputs []AttributeValueInput) error {
	return s.uow.Transaction(ctx, func(uow *repository.UnitOfWork) error {
		if _, err := uow.Products.GetByID(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		for _, in := range inputs {
			attr, err := uow.Attributes.GetByID(ctx, in.AttributeID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", ErrAttributeNotFound, in.AttributeID)
				}
				return err
			}

			val, err := routeValue(ctx, uow, attr, in)
			if err != nil {
				return err
			}
			if err := writeValue(ctx, uow, productID, attr.ID, val); err != nil {
				return err
			}
		}
		return nil
	})
}

// routeValue 只取与属性类型对应的字段，其余字段忽略
func routeValue(ctx context.Context, uow *repository.UnitOfWork, attr *model.Attribute, in AttributeValueInput) (model.AttributeValue, error) {
	switch attr.Type {
	case model.AttributeTypeText:
		if in.ValueText == nil {
			return nil, nil
		}
		return model.TextValue(*in.ValueText), nil

	case model.AttributeTypeNumber:
		if in.ValueNumber == nil {
			return nil, nil
		}
		if math.IsNaN(*in.ValueNumber) || math.IsInf(*in.ValueNumber, 0) {
			return nil, fmt.Errorf("%w: attribute %d expects a finite number", ErrInvalidValue, attr.ID)
		}
		return model.NumberValue(*in.ValueNumber), nil

	case model.AttributeTypeBoolean:
		if in.ValueBoolean == nil {
			return nil, nil
		}
		return model.BoolValue(*in.ValueBoolean), nil

	case model.AttributeTypeSelect:
		if in.AttributeOptionID == nil {
			return nil, nil
		}
		opt, err := uow.Attributes.GetOption(ctx, *in.AttributeOptionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %d", ErrOptionNotFound, *in.AttributeOptionID)
			}
			return nil, err
		}
		if opt.AttributeID != attr.ID {
			return nil, fmt.Errorf("%w: option %d, attribute %d", ErrInvalidOption, opt.ID, attr.ID)
		}
		return model.OptionValue(opt.ID), nil
	}
	return nil, fmt.Errorf("%w: unknown attribute type %q", ErrInvalidValue, attr.Type)
}

// writeValue nil 删除取值行，否则 upsert
func writeValue(ctx context.Context, uow *repository.UnitOfWork, productID, attributeID int64, val model.AttributeValue) error {
	if val == nil {
		return uow.Attributes.DeleteValue(ctx, productID, attributeID)
	}
	row := &model.ProductAttributeValue{
		ProductID:   productID,
		AttributeID: attributeID,
	}
	row.SetValue(val)
	return uow.Attributes.UpsertValue(ctx, row)
}
