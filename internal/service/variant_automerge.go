package service

import (
	"context"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"storefront_v1_202610/internal/model"
	"storefront_v1_202610/internal/repository"
)

// AutoMergeGroup 一个被合并的组
type AutoMergeGroup struct {
	GroupID   int64   `json:"group_id"`
	PrimaryID int64   `json:"primary_id"`
	MemberIDs []int64 `json:"member_ids"`
}

// AutoMergeReport 自动合并结果
type AutoMergeReport struct {
	Candidates int              `json:"candidates"`
	Merged     []AutoMergeGroup `json:"merged"`
	Skipped    int              `json:"skipped"` // 不同标签少于 2 个的候选组
	Writes     int              `json:"writes"`  // 实际发生变化的写入次数
}

type bucketKey struct {
	categoryID int64
	name       string
}

// memberLabels 成员的双语标签
type memberLabels struct {
	product *model.Product
	tr      string
	en      string
}

// AutoMergeVariants 同分类同名 (忽略大小写与首尾空格) 的在售商品按标签自动成组
// 不同标签少于 2 个的候选组整体跳过。每组一个事务，重复执行不产生新写入
func (s *VariantService) AutoMergeVariants(ctx context.Context) (*AutoMergeReport, error) {
	products, err := s.uow.Products.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	// 1. 分桶，保持创建时间顺序
	buckets := make(map[bucketKey][]*model.Product)
	var order []bucketKey
	for i := range products {
		p := &products[i]
		key := bucketKey{categoryID: p.CategoryID, name: foldKey(p.Name)}
		if key.name == "" {
			continue
		}
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], p)
	}

	var candidateIDs []int64
	for _, key := range order {
		if len(buckets[key]) >= 2 {
			for _, p := range buckets[key] {
				candidateIDs = append(candidateIDs, p.ID)
			}
		}
	}

	report := &AutoMergeReport{}
	if len(candidateIDs) == 0 {
		return report, nil
	}

	// 2. 候选商品的取值一次加载
	values, err := s.uow.Attributes.ListValuesByProducts(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}
	lookup, err := loadValueLookup(ctx, s.uow, values, nil)
	if err != nil {
		return nil, err
	}

	// 3. 逐组处理
	for _, key := range order {
		bucket := buckets[key]
		if len(bucket) < 2 {
			continue
		}
		report.Candidates++

		members := s.labelBucket(ctx, lookup, bucket)
		if countDistinct(members) < 2 {
			report.Skipped++
			s.logger.Warn("auto-merge skipped ambiguous group",
				zap.Int64("category_id", key.categoryID),
				zap.String("name", key.name),
				zap.Int("members", len(bucket)),
				zap.Int("labeled", countLabeled(members)),
			)
			continue
		}

		group, writes, err := s.writeGroup(ctx, members)
		if err != nil {
			return nil, err
		}
		report.Writes += writes
		report.Merged = append(report.Merged, *group)
	}

	s.logger.Info("auto-merge finished",
		zap.Int("candidates", report.Candidates),
		zap.Int("merged", len(report.Merged)),
		zap.Int("skipped", report.Skipped),
		zap.Int("writes", report.Writes),
	)
	return report, nil
}

// labelBucket 标签优先级：variant_option 文本 > color/renk > 第一个有效 SELECT
// 返回全部成员，顺序与 bucket 相同；没有标签的成员 tr 为空
func (s *VariantService) labelBucket(ctx context.Context, lookup *valueLookup, bucket []*model.Product) []memberLabels {
	out := make([]memberLabels, 0, len(bucket))
	for _, p := range bucket {
		attrID := pickLabelAttribute(lookup, p.ID)
		if attrID == 0 {
			out = append(out, memberLabels{product: p})
			continue
		}
		tr := lookup.render(p.ID, attrID, model.LocaleTR)
		if tr == "" {
			out = append(out, memberLabels{product: p})
			continue
		}
		out = append(out, memberLabels{
			product: p,
			tr:      tr,
			en:      s.englishLabel(ctx, lookup, p.ID, attrID, tr),
		})
	}
	return out
}

func pickLabelAttribute(lookup *valueLookup, productID int64) int64 {
	byAttr := lookup.values[productID]
	if len(byAttr) == 0 {
		return 0
	}
	attrs := lookup.sortedAttributes()

	for _, a := range attrs {
		if _, ok := byAttr[a.ID]; ok && a.Key == model.AttributeKeyVariantOption && a.Type == model.AttributeTypeText {
			return a.ID
		}
	}
	for _, a := range attrs {
		if _, ok := byAttr[a.ID]; ok && (a.Key == model.AttributeKeyColor || a.Key == model.AttributeKeyColorTR) {
			return a.ID
		}
	}
	for _, a := range attrs {
		if _, ok := byAttr[a.ID]; ok && a.Type == model.AttributeTypeSelect && a.Active {
			return a.ID
		}
	}
	return 0
}

// englishLabel 选项已有英文译名时直接使用，否则走翻译
// variant_option 文本与某个选项的土耳其语名相同时，也使用该选项的英文名
func (s *VariantService) englishLabel(ctx context.Context, lookup *valueLookup, productID, attrID int64, tr string) string {
	switch lookup.values[productID][attrID].(type) {
	case model.BoolValue, model.NumberValue:
		return lookup.render(productID, attrID, model.LocaleEN)
	}

	ids := []int64{attrID}
	for _, a := range lookup.sortedAttributes() {
		ids = append(ids, a.ID)
	}
	for _, id := range ids {
		v, ok := lookup.values[productID][id].(model.OptionValue)
		if !ok {
			continue
		}
		opt, ok := lookup.options[int64(v)]
		if ok && optionName(opt, model.LocaleTR) == tr && hasTranslation(opt, model.LocaleEN) {
			return optionName(opt, model.LocaleEN)
		}
	}
	return s.translator.Translate(ctx, tr, model.LocaleTR, model.LocaleEN)
}

// countDistinct 不同的非空标签数 (忽略大小写)
func countDistinct(members []memberLabels) int {
	seen := make(map[string]bool)
	for _, m := range members {
		if m.tr != "" {
			seen[foldKey(m.tr)] = true
		}
	}
	return len(seen)
}

func countLabeled(members []memberLabels) int {
	n := 0
	for _, m := range members {
		if m.tr != "" {
			n++
		}
	}
	return n
}

// writeGroup 主商品为最早创建的成员，已有组 ID 时沿用
// 没有标签的成员只加入组，不写标签也不改名
func (s *VariantService) writeGroup(ctx context.Context, members []memberLabels) (*AutoMergeGroup, int, error) {
	primary := members[0].product
	groupID := primary.GroupID()
	if groupID == 0 {
		groupID = primary.ID
	}

	group := &AutoMergeGroup{GroupID: groupID, PrimaryID: primary.ID}
	writes := 0

	err := s.uow.Transaction(ctx, func(uow *repository.UnitOfWork) error {
		variantAttrs := make(map[int64]*model.Attribute)

		for _, m := range members {
			p := m.product
			group.MemberIDs = append(group.MemberIDs, p.ID)

			// 1. 组 ID
			if p.GroupID() != groupID {
				if err := uow.Products.UpdateFields(ctx, p.ID, map[string]interface{}{"variant_group_id": groupID}); err != nil {
					return err
				}
				writes++
			}
			if m.tr == "" {
				continue
			}

			// 2. variant_option 属性与取值
			attr, ok := variantAttrs[p.CategoryID]
			if !ok {
				var created bool
				var err error
				attr, created, err = ensureVariantOptionAttribute(ctx, uow, p.CategoryID)
				if err != nil {
					return err
				}
				if created {
					writes++
				}
				variantAttrs[p.CategoryID] = attr
			}
			changed, err := writeTextIfChanged(ctx, uow, p.ID, attr.ID, m.tr)
			if err != nil {
				return err
			}
			if changed {
				writes++
			}

			// 3. 双语名称
			n, err := renameMember(ctx, uow, p, m)
			if err != nil {
				return err
			}
			writes += n
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return group, writes, nil
}

func writeTextIfChanged(ctx context.Context, uow *repository.UnitOfWork, productID, attributeID int64, text string) (bool, error) {
	values, err := uow.Attributes.ListValues(ctx, productID)
	if err != nil {
		return false, err
	}
	for i := range values {
		if values[i].AttributeID != attributeID {
			continue
		}
		if cur, ok := values[i].Value().(model.TextValue); ok && string(cur) == text {
			return false, nil
		}
	}
	return true, writeValue(ctx, uow, productID, attributeID, model.TextValue(text))
}

// renameMember 名称改为 "<基础名> - <标签>"
// 基础名第一次改名时记入 BaseName，之后始终从 BaseName 派生，重复执行不会叠加后缀
func renameMember(ctx context.Context, uow *repository.UnitOfWork, p *model.Product, m memberLabels) (int, error) {
	existing := make(map[string]model.ProductTranslation, len(p.Translations))
	for _, tr := range p.Translations {
		existing[tr.Locale] = tr
	}

	writes := 0
	for _, locale := range []string{model.LocaleTR, model.LocaleEN} {
		label := m.tr
		if locale == model.LocaleEN {
			label = m.en
		}

		tr, ok := existing[locale]
		base := strings.TrimSpace(p.Name)
		switch {
		case ok && tr.BaseName != nil:
			base = *tr.BaseName
		case ok && strings.TrimSpace(tr.Name) != "":
			base = strings.TrimSpace(tr.Name)
		}
		name := base + " - " + label

		if ok && tr.Name == name && tr.BaseName != nil && *tr.BaseName == base {
			continue
		}
		if !ok {
			tr = model.ProductTranslation{
				ProductID: p.ID,
				Locale:    locale,
				Slug:      slug.MakeLang(name, locale),
			}
		}
		tr.Name = name
		tr.BaseName = &base
		if err := uow.Products.UpsertTranslation(ctx, &tr); err != nil {
			return 0, err
		}
		writes++
	}
	return writes, nil
}
