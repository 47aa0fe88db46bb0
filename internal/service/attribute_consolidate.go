package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront_v1_202610/internal/model"
	"storefront_v1_202610/internal/repository"
)

// ConsolidatedKey 一组同 key 属性的合并结果
type ConsolidatedKey struct {
	Key         string  `json:"key"`
	CanonicalID int64   `json:"canonical_id"`
	Deactivated []int64 `json:"deactivated"`
	MovedValues int     `json:"moved_values"`
}

// ConsolidationReport 合并报告
type ConsolidationReport struct {
	TargetCategoryID int64             `json:"target_category_id"`
	Keys             []ConsolidatedKey `json:"keys"`
	Conflicts        []string          `json:"conflicts,omitempty"`
}

// ConsolidateAttributes 把分类及其子孙分类下同 key 的属性合并到规范分类的一个属性上
// 取值迁移到规范属性 (商品已有规范取值时保留规范取值)，重复属性停用。整体一个事务
func (s *AttributeService) ConsolidateAttributes(ctx context.Context, categoryID int64, preferredSlug string) (*ConsolidationReport, error) {
	var report *ConsolidationReport
	err := s.uow.Transaction(ctx, func(uow *repository.UnitOfWork) error {
		tree, err := loadCategoryTree(ctx, uow.Categories)
		if err != nil {
			return err
		}
		if !tree.Has(categoryID) {
			return fmt.Errorf("%w: %d", ErrCategoryNotFound, categoryID)
		}

		target := tree.CanonicalAncestor(categoryID, preferredSlug)
		report = &ConsolidationReport{TargetCategoryID: target}

		// 1. 收集范围内的有效属性，按 key 分组
		scope := append([]int64{target, categoryID}, tree.Descendants(categoryID)...)
		attrs, err := uow.Attributes.ListActiveByCategories(ctx, scope)
		if err != nil {
			return err
		}
		groups := make(map[string][]model.Attribute)
		var keys []string
		for _, a := range attrs {
			if _, ok := groups[a.Key]; !ok {
				keys = append(keys, a.Key)
			}
			groups[a.Key] = append(groups[a.Key], a)
		}
		sort.Strings(keys)

		// 2. 逐组合并
		for _, key := range keys {
			group := groups[key]
			if len(group) < 2 {
				continue
			}
			result, conflicts, err := s.consolidateGroup(ctx, uow, target, group)
			if err != nil {
				return err
			}
			report.Conflicts = append(report.Conflicts, conflicts...)
			if result != nil {
				report.Keys = append(report.Keys, *result)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("attributes consolidated",
		zap.Int64("category_id", categoryID),
		zap.Int64("target_category_id", report.TargetCategoryID),
		zap.Int("keys", len(report.Keys)),
		zap.Int("conflicts", len(report.Conflicts)),
	)
	return report, nil
}

func (s *AttributeService) consolidateGroup(ctx context.Context, uow *repository.UnitOfWork, target int64, group []model.Attribute) (*ConsolidatedKey, []string, error) {
	sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })

	// 规范属性：目标分类上已有的，否则最早创建的那个迁到目标分类
	canonical := &group[0]
	for i := range group {
		if group[i].CategoryID == target {
			canonical = &group[i]
			break
		}
	}
	if canonical.CategoryID != target {
		if err := uow.Attributes.UpdateCategory(ctx, canonical.ID, target); err != nil {
			return nil, nil, err
		}
		canonical.CategoryID = target
	}

	result := &ConsolidatedKey{Key: canonical.Key, CanonicalID: canonical.ID}
	var conflicts []string

	existing, err := uow.Attributes.ListValuesByAttribute(ctx, canonical.ID)
	if err != nil {
		return nil, nil, err
	}
	hasValue := make(map[int64]bool, len(existing))
	for _, v := range existing {
		hasValue[v.ProductID] = true
	}

	for i := range group {
		dup := &group[i]
		if dup.ID == canonical.ID {
			continue
		}
		if dup.Type != canonical.Type {
			conflicts = append(conflicts, fmt.Sprintf("attribute %d (%s) type %s differs from canonical %d type %s",
				dup.ID, dup.Key, dup.Type, canonical.ID, canonical.Type))
			continue
		}

		moved, err := s.moveValues(ctx, uow, dup, canonical, hasValue)
		if err != nil {
			return nil, nil, err
		}
		result.MovedValues += moved

		if err := uow.Attributes.RemapVariantDimensions(ctx, dup.ID, canonical.ID); err != nil {
			return nil, nil, err
		}
		if err := uow.Products.RemapVariantAttribute(ctx, dup.ID, canonical.ID); err != nil {
			return nil, nil, err
		}
		if err := uow.Attributes.Deactivate(ctx, dup.ID); err != nil {
			return nil, nil, err
		}
		result.Deactivated = append(result.Deactivated, dup.ID)
	}

	if len(result.Deactivated) == 0 {
		return nil, conflicts, nil
	}
	return result, conflicts, nil
}

// moveValues 把重复属性的取值迁到规范属性，SELECT 按选项名映射到规范属性的选项
func (s *AttributeService) moveValues(ctx context.Context, uow *repository.UnitOfWork, from, to *model.Attribute, hasValue map[int64]bool) (int, error) {
	values, err := uow.Attributes.ListValuesByAttribute(ctx, from.ID)
	if err != nil {
		return 0, err
	}

	moved := 0
	for i := range values {
		v := &values[i]
		val := v.Value()

		if val != nil && !hasValue[v.ProductID] {
			if opt, ok := val.(model.OptionValue); ok {
				mapped, err := s.remapOption(ctx, uow, int64(opt), to)
				if err != nil {
					return 0, err
				}
				val = mapped
			}
			if val != nil {
				if err := writeValue(ctx, uow, v.ProductID, to.ID, val); err != nil {
					return 0, err
				}
				hasValue[v.ProductID] = true
				moved++
			}
		}

		if err := uow.Attributes.DeleteValue(ctx, v.ProductID, from.ID); err != nil {
			return 0, err
		}
	}
	return moved, nil
}

func (s *AttributeService) remapOption(ctx context.Context, uow *repository.UnitOfWork, optionID int64, to *model.Attribute) (model.AttributeValue, error) {
	opt, err := uow.Attributes.GetOption(ctx, optionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("dangling option skipped", zap.Int64("option_id", optionID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	target, err := s.ensureOption(ctx, uow, to, optionName(opt, model.FallbackLocale))
	if err != nil {
		return nil, err
	}
	return model.OptionValue(target.ID), nil
}
