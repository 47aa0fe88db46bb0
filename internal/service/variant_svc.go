package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront_v1_202610/internal/model"
	"storefront_v1_202610/internal/repository"
)

// ==================== DimensionSet ====================

// DimensionSet 变体组的区分维度：旧版单属性 或 有序多属性
type DimensionSet interface {
	isDimensionSet()
}

// SingleDimension 旧版 Product.VariantAttributeID
type SingleDimension int64

// MultiDimension ProductVariantAttribute 按 sort_order 排列
type MultiDimension []int64

func (SingleDimension) isDimensionSet() {}
func (MultiDimension) isDimensionSet()  {}

// NormalizeDimensions 统一转成有序列表，标签计算只走这一条路径
func NormalizeDimensions(set DimensionSet) []int64 {
	switch d := set.(type) {
	case SingleDimension:
		return []int64{int64(d)}
	case MultiDimension:
		return append([]int64(nil), d...)
	}
	return nil
}

// dimensionSetOf 多维度列表优先，其次旧版单属性，都没有返回 nil
func dimensionSetOf(primary *model.Product, rows []model.ProductVariantAttribute) DimensionSet {
	if len(rows) > 0 {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].SortOrder < rows[j].SortOrder })
		ids := make(MultiDimension, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.AttributeID)
		}
		return ids
	}
	if primary.VariantAttributeID != nil {
		return SingleDimension(*primary.VariantAttributeID)
	}
	return nil
}

// ==================== 服务 ====================

// VariantService 变体组合并与标签
type VariantService struct {
	uow        *repository.UnitOfWork
	translator Translator
	logger     *zap.Logger
}

func NewVariantService(uow *repository.UnitOfWork, translator Translator, logger *zap.Logger) *VariantService {
	if translator == nil {
		translator = NopTranslator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VariantService{
		uow:        uow,
		translator: translator,
		logger:     logger,
	}
}

// ==================== 手动合并 ====================

// MergeRequest 手动合并参数
type MergeRequest struct {
	PrimaryID int64            `json:"primary_id" binding:"required"`
	MemberIDs []int64          `json:"member_ids"`
	Labels    map[int64]string `json:"labels"`
	// VariantAttributeID 旧版单维度，非空时写到主商品
	VariantAttributeID *int64 `json:"variant_attribute_id"`
	// DimensionIDs 为 nil 表示不修改维度；非 nil 时整体替换
	DimensionIDs []int64 `json:"dimension_ids"`
}

// MergeResult 合并结果
type MergeResult struct {
	GroupID   int64   `json:"group_id"`
	MemberIDs []int64 `json:"member_ids"`
}

// MergeVariants 把成员并入以 primary 为主商品的变体组并写入标签，整体一个事务
// 重复执行会用新标签覆盖旧值
func (s *VariantService) MergeVariants(ctx context.Context, req MergeRequest) (*MergeResult, error) {
	ids := uniqueIDs(append([]int64{req.PrimaryID}, req.MemberIDs...))
	result := &MergeResult{GroupID: req.PrimaryID, MemberIDs: ids}

	err := s.uow.Transaction(ctx, func(uow *repository.UnitOfWork) error {
		// 1. 校验商品
		members, err := uow.Products.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(members) != len(ids) {
			return fmt.Errorf("%w: some of %v", ErrProductNotFound, ids)
		}
		byID := make(map[int64]*model.Product, len(members))
		for i := range members {
			byID[members[i].ID] = &members[i]
		}
		primary := byID[req.PrimaryID]

		// 2. 校验维度属性
		dimIDs := append([]int64(nil), req.DimensionIDs...)
		if req.VariantAttributeID != nil {
			dimIDs = append(dimIDs, *req.VariantAttributeID)
		}
		if err := ensureAttributesExist(ctx, uow, uniqueIDs(dimIDs)); err != nil {
			return err
		}

		// 3. 组 ID
		for _, id := range ids {
			if byID[id].GroupID() == primary.ID {
				continue
			}
			if err := uow.Products.UpdateFields(ctx, id, map[string]interface{}{"variant_group_id": primary.ID}); err != nil {
				return err
			}
		}

		// 4. 每个成员分类的 variant_option 属性
		variantAttrs := make(map[int64]*model.Attribute)
		for _, id := range ids {
			catID := byID[id].CategoryID
			if _, ok := variantAttrs[catID]; ok {
				continue
			}
			attr, _, err := ensureVariantOptionAttribute(ctx, uow, catID)
			if err != nil {
				return err
			}
			variantAttrs[catID] = attr
		}

		// 5. 旧版单维度
		if req.VariantAttributeID != nil {
			if err := uow.Products.UpdateFields(ctx, primary.ID, map[string]interface{}{"variant_attribute_id": *req.VariantAttributeID}); err != nil {
				return err
			}
			primary.VariantAttributeID = req.VariantAttributeID
		}

		// 6. 多维度整体替换，只有一个维度时同步旧字段
		if req.DimensionIDs != nil {
			if err := uow.Attributes.ReplaceVariantDimensions(ctx, primary.ID, req.DimensionIDs); err != nil {
				return err
			}
			switch {
			case len(req.DimensionIDs) == 1:
				single := req.DimensionIDs[0]
				if err := uow.Products.UpdateFields(ctx, primary.ID, map[string]interface{}{"variant_attribute_id": single}); err != nil {
					return err
				}
				primary.VariantAttributeID = &single
			case req.VariantAttributeID == nil && primary.VariantAttributeID != nil:
				// 不再是单维度，清掉旧字段的镜像
				if err := uow.Products.UpdateFields(ctx, primary.ID, map[string]interface{}{"variant_attribute_id": nil}); err != nil {
					return err
				}
				primary.VariantAttributeID = nil
			}
		}

		// 7. 写标签
		labelAttrID := int64(0)
		if primary.VariantAttributeID != nil {
			labelAttrID = *primary.VariantAttributeID
		} else if len(req.DimensionIDs) == 1 {
			labelAttrID = req.DimensionIDs[0]
		}

		for _, id := range ids {
			label, ok := req.Labels[id]
			if !ok || strings.TrimSpace(label) == "" {
				continue
			}
			var attr *model.Attribute
			if labelAttrID != 0 {
				if attr, err = uow.Attributes.GetByID(ctx, labelAttrID); err != nil {
					return err
				}
			} else {
				attr = variantAttrs[byID[id].CategoryID]
			}
			if err := s.writeLabel(ctx, uow, id, attr, label); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	s.logger.Info("variants merged",
		zap.Int64("group_id", result.GroupID),
		zap.Int("members", len(result.MemberIDs)),
	)
	return result, nil
}

// writeLabel SELECT 先按译名查找/创建选项；NUMBER/BOOLEAN 解析；TEXT 直接写
func (s *VariantService) writeLabel(ctx context.Context, uow *repository.UnitOfWork, productID int64, attr *model.Attribute, label string) error {
	label = strings.TrimSpace(label)

	var val model.AttributeValue
	switch attr.Type {
	case model.AttributeTypeSelect:
		opt, err := findOrCreateOption(ctx, uow, s.translator, attr.ID, label)
		if err != nil {
			return err
		}
		val = model.OptionValue(opt.ID)
	case model.AttributeTypeNumber:
		f, ok := parseLocaleNumber(label)
		if !ok {
			return fmt.Errorf("%w: label %q for numeric attribute %d", ErrInvalidValue, label, attr.ID)
		}
		val = model.NumberValue(f)
	case model.AttributeTypeBoolean:
		b, ok := parseBoolToken(label)
		if !ok {
			return fmt.Errorf("%w: label %q for boolean attribute %d", ErrInvalidValue, label, attr.ID)
		}
		val = model.BoolValue(b)
	default:
		val = model.TextValue(label)
	}
	return writeValue(ctx, uow, productID, attr.ID, val)
}

// ensureVariantOptionAttribute 在商品自身分类下查找/创建 TEXT 类型的 variant_option 属性
func ensureVariantOptionAttribute(ctx context.Context, uow *repository.UnitOfWork, categoryID int64) (*model.Attribute, bool, error) {
	attr, err := uow.Attributes.FindByKey(ctx, categoryID, model.AttributeKeyVariantOption)
	if err != nil {
		return nil, false, err
	}
	if attr != nil {
		return attr, false, nil
	}
	attr = &model.Attribute{
		CategoryID: categoryID,
		Key:        model.AttributeKeyVariantOption,
		Type:       model.AttributeTypeText,
		Active:     true,
		SortOrder:  999,
		Translations: []model.AttributeTranslation{
			{Locale: model.LocaleTR, Name: "Seçenek"},
			{Locale: model.LocaleEN, Name: "Option"},
		},
	}
	if err := uow.Attributes.Create(ctx, attr); err != nil {
		return nil, false, err
	}
	return attr, true, nil
}

func ensureAttributesExist(ctx context.Context, uow *repository.UnitOfWork, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	attrs, err := uow.Attributes.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(attrs) != len(ids) {
		return fmt.Errorf("%w: some of %v", ErrAttributeNotFound, ids)
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ==================== 标签计算 ====================

// MemberLabel 组内单个商品的标签
type MemberLabel struct {
	ProductID int64  `json:"product_id"`
	Label     string `json:"label"`
	IsPrimary bool   `json:"is_primary"`
}

// GroupLabels 变体组标签
type GroupLabels struct {
	GroupID      int64         `json:"group_id"`
	GroupLabel   string        `json:"group_label"`
	DimensionIDs []int64       `json:"dimension_ids"`
	Members      []MemberLabel `json:"members"`
}

// ResolveGroupLabels 计算组标题与每个成员的标签
func (s *VariantService) ResolveGroupLabels(ctx context.Context, primaryID int64, locale string) (*GroupLabels, error) {
	if locale == "" {
		locale = model.FallbackLocale
	}

	primary, err := s.uow.Products.GetByID(ctx, primaryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	// 1. 组成员，维度挂在组的主商品上
	groupID := primary.GroupID()
	if groupID == 0 {
		groupID = primary.ID
	}
	if groupID != primary.ID {
		if primary, err = s.uow.Products.GetByID(ctx, groupID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, err
		}
	}
	members, err := s.uow.Products.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		members = []model.Product{*primary}
	}
	memberIDs := make([]int64, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
	}

	// 2. 取值、属性、选项一次加载
	dimRows, err := s.uow.Attributes.ListVariantDimensions(ctx, primary.ID)
	if err != nil {
		return nil, err
	}
	dims := NormalizeDimensions(dimensionSetOf(primary, dimRows))

	values, err := s.uow.Attributes.ListValuesByProducts(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	lookup, err := loadValueLookup(ctx, s.uow, values, dims)
	if err != nil {
		return nil, err
	}

	// 3. 没有配置维度时按取值推断
	if len(dims) == 0 {
		if id := lookup.fallbackDimension(); id != 0 {
			dims = []int64{id}
		}
	}

	// 4. 标签
	out := &GroupLabels{GroupID: groupID, DimensionIDs: dims}
	out.GroupLabel = lookup.groupLabel(dims, locale)
	for _, m := range members {
		out.Members = append(out.Members, MemberLabel{
			ProductID: m.ID,
			Label:     lookup.memberLabel(m.ID, dims, locale),
			IsPrimary: m.ID == groupID,
		})
	}
	return out, nil
}

// ==================== valueLookup ====================

// valueLookup 组内取值的内存索引
type valueLookup struct {
	values     map[int64]map[int64]model.AttributeValue // productID -> attributeID -> value
	attributes map[int64]*model.Attribute
	options    map[int64]*model.AttributeOption
}

func loadValueLookup(ctx context.Context, uow *repository.UnitOfWork, rows []model.ProductAttributeValue, extraAttrIDs []int64) (*valueLookup, error) {
	l := &valueLookup{
		values:     make(map[int64]map[int64]model.AttributeValue),
		attributes: make(map[int64]*model.Attribute),
		options:    make(map[int64]*model.AttributeOption),
	}

	attrIDs := append([]int64(nil), extraAttrIDs...)
	var optionIDs []int64
	for i := range rows {
		val := rows[i].Value()
		if val == nil {
			continue
		}
		if l.values[rows[i].ProductID] == nil {
			l.values[rows[i].ProductID] = make(map[int64]model.AttributeValue)
		}
		l.values[rows[i].ProductID][rows[i].AttributeID] = val
		attrIDs = append(attrIDs, rows[i].AttributeID)
		if opt, ok := val.(model.OptionValue); ok {
			optionIDs = append(optionIDs, int64(opt))
		}
	}

	attrs, err := uow.Attributes.GetByIDs(ctx, uniqueIDs(attrIDs))
	if err != nil {
		return nil, err
	}
	for i := range attrs {
		l.attributes[attrs[i].ID] = &attrs[i]
	}
	opts, err := uow.Attributes.GetOptionsByIDs(ctx, uniqueIDs(optionIDs))
	if err != nil {
		return nil, err
	}
	for i := range opts {
		l.options[opts[i].ID] = &opts[i]
	}
	return l, nil
}

// render 商品在某属性上的展示值，无取值返回空串
func (l *valueLookup) render(productID, attributeID int64, locale string) string {
	val, ok := l.values[productID][attributeID]
	if !ok {
		return ""
	}
	return renderValue(val, l.options, locale)
}

// sortedAttributes 出现过取值的属性，按 sort_order, id 排序
func (l *valueLookup) sortedAttributes() []*model.Attribute {
	used := make(map[int64]bool)
	for _, byAttr := range l.values {
		for id := range byAttr {
			used[id] = true
		}
	}
	var out []*model.Attribute
	for id := range used {
		if a, ok := l.attributes[id]; ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// fallbackDimension color/renk > 第一个有取值的 SELECT > variant_option
func (l *valueLookup) fallbackDimension() int64 {
	attrs := l.sortedAttributes()
	for _, a := range attrs {
		if a.Key == model.AttributeKeyColor || a.Key == model.AttributeKeyColorTR {
			return a.ID
		}
	}
	for _, a := range attrs {
		if a.Type == model.AttributeTypeSelect && a.Active {
			return a.ID
		}
	}
	for _, a := range attrs {
		if a.Key == model.AttributeKeyVariantOption {
			return a.ID
		}
	}
	return 0
}

// memberLabel 单维度只输出取值；多维度输出 "名称: 值 | ..."，缺值的维度省略
func (l *valueLookup) memberLabel(productID int64, dims []int64, locale string) string {
	if len(dims) == 1 {
		return l.render(productID, dims[0], locale)
	}
	var segments []string
	for _, id := range dims {
		attr, ok := l.attributes[id]
		if !ok {
			continue
		}
		name := attributeName(attr, locale)
		value := l.render(productID, id, locale)
		if name == "" || value == "" {
			continue
		}
		segments = append(segments, name+": "+value)
	}
	return strings.Join(segments, " | ")
}

func (l *valueLookup) groupLabel(dims []int64, locale string) string {
	if len(dims) == 1 {
		if attr, ok := l.attributes[dims[0]]; ok {
			return attributeName(attr, locale)
		}
	}
	if isTurkish(locale) {
		return "Varyantlar"
	}
	return "Variants"
}
