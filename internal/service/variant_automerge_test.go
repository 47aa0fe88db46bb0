package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront_v1_202610/internal/model"
)

func translationsByLocale(t *testing.T, trs []model.ProductTranslation) map[string]model.ProductTranslation {
	t.Helper()
	out := make(map[string]model.ProductTranslation, len(trs))
	for _, tr := range trs {
		out[tr.Locale] = tr
	}
	return out
}

func TestAutoMergeVariants(t *testing.T) {
	db, uow := setupUoW(t)
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	cat := createCategory(t, db, "root", nil)
	color := createAttribute(t, db, cat.ID, "renk", model.AttributeTypeSelect, map[string]string{"tr": "Renk", "en": "Color"})
	red := createOption(t, db, color.ID, map[string]string{"tr": "Kırmızı", "en": "Red"})
	blue := createOption(t, db, color.ID, map[string]string{"tr": "Mavi", "en": "Blue"})

	// 同名 (忽略大小写与空格)，颜色不同 -> 合并
	p1 := createProduct(t, db, cat.ID, "Elbise", t0)
	p2 := createProduct(t, db, cat.ID, " elbise ", t0.Add(time.Minute))
	setValue(t, db, p1.ID, color.ID, model.OptionValue(red.ID))
	setValue(t, db, p2.ID, color.ID, model.OptionValue(blue.ID))

	// 同名但标签相同 -> 跳过
	c1 := createProduct(t, db, cat.ID, "Çanta", t0)
	c2 := createProduct(t, db, cat.ID, "Çanta", t0.Add(time.Minute))
	setValue(t, db, c1.ID, color.ID, model.OptionValue(blue.ID))
	setValue(t, db, c2.ID, color.ID, model.OptionValue(blue.ID))

	// 单个商品不是候选
	createProduct(t, db, cat.ID, "Şapka", t0)

	tr := &fakeTranslator{dict: map[string]string{}}
	svc := NewVariantService(uow, tr, zap.NewNop())

	report, err := svc.AutoMergeVariants(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Merged, 1)
	assert.Equal(t, p1.ID, report.Merged[0].PrimaryID)
	assert.Equal(t, p1.ID, report.Merged[0].GroupID)
	assert.Equal(t, []int64{p1.ID, p2.ID}, report.Merged[0].MemberIDs)
	assert.Positive(t, report.Writes)
	assert.Zero(t, tr.calls, "options with english names need no translation")

	got1, err := uow.Products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	got2, err := uow.Products.GetByID(ctx, p2.ID)
	require.NoError(t, err)
	require.NotNil(t, got2.VariantGroupID)
	assert.Equal(t, p1.ID, *got2.VariantGroupID)

	n1 := translationsByLocale(t, got1.Translations)
	assert.Equal(t, "Elbise - Kırmızı", n1["tr"].Name)
	assert.Equal(t, "Elbise - Red", n1["en"].Name)
	require.NotNil(t, n1["tr"].BaseName)
	assert.Equal(t, "Elbise", *n1["tr"].BaseName)

	n2 := translationsByLocale(t, got2.Translations)
	assert.Equal(t, "elbise - Mavi", n2["tr"].Name)
	assert.Equal(t, "elbise - Blue", n2["en"].Name)

	// 主表名称保持不变，分桶键稳定
	assert.Equal(t, "Elbise", got1.Name)

	// variant_option 文本写入
	vo, err := uow.Attributes.FindByKey(ctx, cat.ID, model.AttributeKeyVariantOption)
	require.NoError(t, err)
	require.NotNil(t, vo)
	values, err := uow.Attributes.ListValuesByAttribute(ctx, vo.ID)
	require.NoError(t, err)
	assert.Len(t, values, 2)

	// 跳过的组保持原状
	skipped, err := uow.Products.GetByID(ctx, c1.ID)
	require.NoError(t, err)
	assert.Nil(t, skipped.VariantGroupID)
	assert.Empty(t, skipped.Translations)

	// 再次执行不产生写入
	again, err := svc.AutoMergeVariants(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Writes)
	require.Len(t, again.Merged, 1)

	got1, err = uow.Products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Elbise - Kırmızı", translationsByLocale(t, got1.Translations)["tr"].Name)
}

func TestAutoMergeVariants_TranslatesVariantOptionText(t *testing.T) {
	db, uow := setupUoW(t)
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	cat := createCategory(t, db, "root", nil)
	p1 := createProduct(t, db, cat.ID, "Kupa", t0)
	p2 := createProduct(t, db, cat.ID, "Kupa", t0.Add(time.Minute))

	svc := NewVariantService(uow, &fakeTranslator{dict: map[string]string{"Büyük": "Large", "Küçük": "Small"}}, zap.NewNop())
	_, err := svc.MergeVariants(ctx, MergeRequest{
		PrimaryID: p1.ID,
		MemberIDs: []int64{p2.ID},
		Labels:    map[int64]string{p1.ID: "Büyük", p2.ID: "Küçük"},
	})
	require.NoError(t, err)

	report, err := svc.AutoMergeVariants(ctx)
	require.NoError(t, err)
	require.Len(t, report.Merged, 1)

	got2, err := uow.Products.GetByID(ctx, p2.ID)
	require.NoError(t, err)
	names := translationsByLocale(t, got2.Translations)
	assert.Equal(t, "Kupa - Küçük", names["tr"].Name)
	assert.Equal(t, "Kupa - Small", names["en"].Name)
}

func TestAutoMergeVariants_UnlabeledMemberJoinsGroup(t *testing.T) {
	db, uow := setupUoW(t)
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	cat := createCategory(t, db, "root", nil)
	color := createAttribute(t, db, cat.ID, "renk", model.AttributeTypeSelect, map[string]string{"tr": "Renk", "en": "Color"})
	red := createOption(t, db, color.ID, map[string]string{"tr": "Kırmızı", "en": "Red"})
	blue := createOption(t, db, color.ID, map[string]string{"tr": "Mavi", "en": "Blue"})

	// 最早创建的成员没有标签
	a := createProduct(t, db, cat.ID, "Elbise", t0)
	b := createProduct(t, db, cat.ID, "Elbise", t0.Add(time.Minute))
	c := createProduct(t, db, cat.ID, "Elbise", t0.Add(2*time.Minute))
	setValue(t, db, b.ID, color.ID, model.OptionValue(red.ID))
	setValue(t, db, c.ID, color.ID, model.OptionValue(blue.ID))

	svc := NewVariantService(uow, &fakeTranslator{dict: map[string]string{}}, zap.NewNop())
	report, err := svc.AutoMergeVariants(ctx)
	require.NoError(t, err)
	require.Len(t, report.Merged, 1)
	assert.Equal(t, a.ID, report.Merged[0].PrimaryID)
	assert.Equal(t, a.ID, report.Merged[0].GroupID)
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, report.Merged[0].MemberIDs)

	for _, id := range []int64{a.ID, b.ID, c.ID} {
		p, err := uow.Products.GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, p.VariantGroupID)
		assert.Equal(t, a.ID, *p.VariantGroupID)
	}

	// 无标签成员不改名
	gotA, err := uow.Products.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, gotA.Translations)

	gotB, err := uow.Products.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Elbise - Kırmızı", translationsByLocale(t, gotB.Translations)["tr"].Name)

	again, err := svc.AutoMergeVariants(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Writes)
}
