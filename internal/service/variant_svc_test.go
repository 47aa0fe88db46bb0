package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront_v1_202610/internal/model"
)

func TestNormalizeDimensions(t *testing.T) {
	assert.Equal(t, []int64{7}, NormalizeDimensions(SingleDimension(7)))
	assert.Equal(t, []int64{3, 1}, NormalizeDimensions(MultiDimension{3, 1}))
	assert.Nil(t, NormalizeDimensions(nil))
}

func TestDimensionSetOf_MultiWins(t *testing.T) {
	legacy := int64(9)
	primary := &model.Product{VariantAttributeID: &legacy}

	set := dimensionSetOf(primary, []model.ProductVariantAttribute{
		{AttributeID: 5, SortOrder: 1},
		{AttributeID: 4, SortOrder: 0},
	})
	assert.Equal(t, MultiDimension{4, 5}, set)

	assert.Equal(t, SingleDimension(9), dimensionSetOf(primary, nil))
	assert.Nil(t, dimensionSetOf(&model.Product{}, nil))
}

func TestMergeVariants_SelectLabels(t *testing.T) {
	db, uow := setupUoW(t)
	ctx := context.Background()
	cat := createCategory(t, db, "root", nil)
	color := createAttribute(t, db, cat.ID, "renk", model.AttributeTypeSelect, map[string]string{"tr": "Renk", "en": "Color"})
	red := createOption(t, db, color.ID, map[string]string{"tr": "Kırmızı", "en": "Red"})

	p1 := createProduct(t, db, cat.ID, "Elbise", time.Now())
	p2 := createProduct(t, db, cat.ID, "Elbise", time.Now())

	tr := &fakeTranslator{dict: map[string]string{"Mavi": "Blue"}}
	svc := NewVariantService(uow, tr, zap.NewNop())
	res, err := svc.MergeVariants(ctx, MergeRequest{
		PrimaryID:          p1.ID,
		MemberIDs:          []int64{p2.ID, p1.ID},
		Labels:             map[int64]string{p1.ID: "Kırmızı", p2.ID: "Mavi"},
		VariantAttributeID: &color.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, p1.ID, res.GroupID)
	assert.Equal(t, []int64{p1.ID, p2.ID}, res.MemberIDs)

	members, err := uow.Products.ListByGroup(ctx, p1.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	// 已有选项复用，新选项带英文译名
	v1, _ := uow.Attributes.ListValues(ctx, p1.ID)
	require.Len(t, v1, 1)
	assert.Equal(t, model.OptionValue(red.ID), v1[0].Value())

	blue, err := uow.Attributes.FindOptionByName(ctx, color.ID, "Mavi")
	require.NoError(t, err)
	require.NotNil(t, blue)
	assert.Equal(t, "Blue", optionName(blue, "en"))
	require.NotNil(t, blue.Key)
	assert.Equal(t, "mavi", *blue.Key)

	// variant_option 属性在商品分类下被创建
	vo, err := uow.Attributes.FindByKey(ctx, cat.ID, model.AttributeKeyVariantOption)
	require.NoError(t, err)
	require.NotNil(t, vo)
	assert.Equal(t, model.AttributeTypeText, vo.Type)

	labels, err := svc.ResolveGroupLabels(ctx, p2.ID, "en")
	require.NoError(t, err)
	assert.Equal(t, "Color", labels.GroupLabel)
	require.Len(t, labels.Members, 2)
	assert.Equal(t, "Red", labels.Members[0].Label)
	assert.True(t, labels.Members[0].IsPrimary)
	assert.Equal(t, "Blue", labels.Members[1].Label)
}

func TestMergeVariants_DimensionsReplaceAndMirror(t *testing.T) {
	db, uow := setupUoW(t)
	ctx := context.Background()
	cat := createCategory(t, db, "root", nil)
	color := createAttribute(t, db, cat.ID, "renk", model.AttributeTypeSelect, map[string]string{"tr": "Renk"})
	size := createAttribute(t, db, cat.ID, "beden", model.AttributeTypeSelect, map[string]string{"tr": "Beden"})
	p1 := createProduct(t, db, cat.ID, "Tişört", time.Now())

	svc := NewVariantService(uow, nil, zap.NewNop())
	_, err := svc.MergeVariants(ctx, MergeRequest{PrimaryID: p1.ID, DimensionIDs: []int64{size.ID, color.ID}})
	require.NoError(t, err)

	rows, err := uow.Attributes.ListVariantDimensions(ctx, p1.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, size.ID, rows[0].AttributeID)
	assert.Equal(t, color.ID, rows[1].AttributeID)

	// 整体替换为单维度，同步旧字段
	_, err = svc.MergeVariants(ctx, MergeRequest{PrimaryID: p1.ID, DimensionIDs: []int64{color.ID}})
	require.NoError(t, err)

	rows, err = uow.Attributes.ListVariantDimensions(ctx, p1.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	primary, err := uow.Products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	require.NotNil(t, primary.VariantAttributeID)
	assert.Equal(t, color.ID, *primary.VariantAttributeID)

	// 再改回多维度：旧字段清空，标签写到 variant_option
	_, err = svc.MergeVariants(ctx, MergeRequest{
		PrimaryID:    p1.ID,
		DimensionIDs: []int64{size.ID, color.ID},
		Labels:       map[int64]string{p1.ID: "Büyük Kırmızı"},
	})
	require.NoError(t, err)

	primary, err = uow.Products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Nil(t, primary.VariantAttributeID)

	vo, err := uow.Attributes.FindByKey(ctx, cat.ID, model.AttributeKeyVariantOption)
	require.NoError(t, err)
	require.NotNil(t, vo)
	values, err := uow.Attributes.ListValues(ctx, p1.ID)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, vo.ID, values[0].AttributeID)
	assert.Equal(t, model.TextValue("Büyük Kırmızı"), values[0].Value())
}

func TestMergeVariants_Errors(t *testing.T) {
	db, uow := setupUoW(t)
	ctx := context.Background()
	cat := createCategory(t, db, "root", nil)
	p1 := createProduct(t, db, cat.ID, "Elbise", time.Now())

	svc := NewVariantService(uow, nil, zap.NewNop())
	_, err := svc.MergeVariants(ctx, MergeRequest{PrimaryID: p1.ID, MemberIDs: []int64{404}})
	assert.True(t, errors.Is(err, ErrProductNotFound))

	_, err = svc.MergeVariants(ctx, MergeRequest{PrimaryID: p1.ID, DimensionIDs: []int64{404}})
	assert.True(t, errors.Is(err, ErrAttributeNotFound))

	// 失败的事务不留下组 ID
	p, err := uow.Products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Nil(t, p.VariantGroupID)
}

func TestResolveGroupLabels_MultiDimension(t *testing.T) {
	db, uow := setupUoW(t)
	ctx := context.Background()
	cat := createCategory(t, db, "root", nil)
	color := createAttribute(t, db, cat.ID, "renk", model.AttributeTypeSelect, map[string]string{"tr": "Renk", "en": "Color"})
	size := createAttribute(t, db, cat.ID, "beden", model.AttributeTypeSelect, map[string]string{"tr": "Beden", "en": "Size"})
	red := createOption(t, db, color.ID, map[string]string{"tr": "Kırmızı", "en": "Red"})
	small := createOption(t, db, size.ID, map[string]string{"tr": "Küçük", "en": "Small"})

	p1 := createProduct(t, db, cat.ID, "Tişört", time.Now())
	p2 := createProduct(t, db, cat.ID, "Tişört", time.Now().Add(time.Second))
	setValue(t, db, p1.ID, color.ID, model.OptionValue(red.ID))
	setValue(t, db, p1.ID, size.ID, model.OptionValue(small.ID))
	setValue(t, db, p2.ID, size.ID, model.OptionValue(small.ID))

	svc := NewVariantService(uow, nil, zap.NewNop())
	_, err := svc.MergeVariants(ctx, MergeRequest{
		PrimaryID:    p1.ID,
		MemberIDs:    []int64{p2.ID},
		DimensionIDs: []int64{color.ID, size.ID},
	})
	require.NoError(t, err)

	tr, err := svc.ResolveGroupLabels(ctx, p1.ID, "tr")
	require.NoError(t, err)
	assert.Equal(t, "Varyantlar", tr.GroupLabel)
	assert.Equal(t, "Renk: Kırmızı | Beden: Küçük", tr.Members[0].Label)
	assert.Equal(t, "Beden: Küçük", tr.Members[1].Label) // 缺值的维度省略

	en, err := svc.ResolveGroupLabels(ctx, p1.ID, "en-GB")
	require.NoError(t, err)
	assert.Equal(t, "Variants", en.GroupLabel)
	assert.Equal(t, "Color: Red | Size: Small", en.Members[0].Label)
}

func TestResolveGroupLabels_FallbackDimension(t *testing.T) {
	db, uow := setupUoW(t)
	ctx := context.Background()
	cat := createCategory(t, db, "root", nil)
	flag := createAttribute(t, db, cat.ID, "stokta", model.AttributeTypeBoolean, nil)
	color := createAttribute(t, db, cat.ID, "renk", model.AttributeTypeSelect, map[string]string{"tr": "Renk"})
	blue := createOption(t, db, color.ID, map[string]string{"tr": "Mavi"})

	p1 := createProduct(t, db, cat.ID, "Çanta", time.Now())
	setValue(t, db, p1.ID, flag.ID, model.BoolValue(true))
	setValue(t, db, p1.ID, color.ID, model.OptionValue(blue.ID))

	svc := NewVariantService(uow, nil, zap.NewNop())
	labels, err := svc.ResolveGroupLabels(ctx, p1.ID, "tr")
	require.NoError(t, err)
	assert.Equal(t, []int64{color.ID}, labels.DimensionIDs)
	assert.Equal(t, "Renk", labels.GroupLabel)
	require.Len(t, labels.Members, 1)
	assert.Equal(t, "Mavi", labels.Members[0].Label)
}

func TestResolveGroupLabels_NotFound(t *testing.T) {
	_, uow := setupUoW(t)
	svc := NewVariantService(uow, nil, zap.NewNop())

	_, err := svc.ResolveGroupLabels(context.Background(), 404, "tr")
	assert.True(t, errors.Is(err, ErrProductNotFound))
}
