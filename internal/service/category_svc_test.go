package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_v1_202610/internal/model"
	"storefront_v1_202610/internal/repository"
)

func buildTree() *CategoryTree {
	//      1 (root)
	//     / \
	//    2   3 (giyim)
	//        |
	//        4
	//        |
	//        5
	return NewCategoryTree([]model.Category{
		{BaseModel: model.BaseModel{ID: 1}, Slug: "root"},
		{BaseModel: model.BaseModel{ID: 2}, Slug: "ev", ParentID: ptr(int64(1))},
		{BaseModel: model.BaseModel{ID: 3}, Slug: "giyim", ParentID: ptr(int64(1))},
		{BaseModel: model.BaseModel{ID: 4}, Slug: "elbise", ParentID: ptr(int64(3))},
		{BaseModel: model.BaseModel{ID: 5}, Slug: "mini", ParentID: ptr(int64(4))},
	})
}

func TestCategoryTree_AncestorChain(t *testing.T) {
	tree := buildTree()

	assert.Equal(t, []int64{5, 4, 3, 1}, tree.AncestorChain(5))
	assert.Equal(t, []int64{1}, tree.AncestorChain(1))
	assert.Empty(t, tree.AncestorChain(99))
}

func TestCategoryTree_AncestorChain_BrokenLink(t *testing.T) {
	tree := NewCategoryTree([]model.Category{
		{BaseModel: model.BaseModel{ID: 10}, ParentID: ptr(int64(11))},
		{BaseModel: model.BaseModel{ID: 11}, ParentID: ptr(int64(404))},
	})
	assert.Equal(t, []int64{10, 11}, tree.AncestorChain(10))
}

func TestCategoryTree_AncestorChain_Cycle(t *testing.T) {
	tree := NewCategoryTree([]model.Category{
		{BaseModel: model.BaseModel{ID: 1}, ParentID: ptr(int64(2))},
		{BaseModel: model.BaseModel{ID: 2}, ParentID: ptr(int64(1))},
	})
	assert.Equal(t, []int64{1, 2}, tree.AncestorChain(1))
}

func TestCategoryTree_Descendants(t *testing.T) {
	tree := buildTree()

	assert.ElementsMatch(t, []int64{2, 3, 4, 5}, tree.Descendants(1))
	assert.Equal(t, []int64{4, 5}, tree.Descendants(3))
	assert.Empty(t, tree.Descendants(5))
}

func TestCategoryTree_CanonicalAncestor(t *testing.T) {
	tree := buildTree()

	assert.Equal(t, int64(3), tree.CanonicalAncestor(5, "giyim"))
	assert.Equal(t, int64(1), tree.CanonicalAncestor(5, "missing"))
	assert.Equal(t, int64(1), tree.CanonicalAncestor(5, ""))
	assert.Equal(t, int64(99), tree.CanonicalAncestor(99, "giyim"))
}

func TestCategoryService_TreeFromDB(t *testing.T) {
	db := setupTestDB(t)
	root := createCategory(t, db, "root", nil)
	child := createCategory(t, db, "child", &root.ID)

	tree, err := loadCategoryTree(context.Background(), repository.NewCategoryRepository(db))
	require.NoError(t, err)

	assert.Equal(t, []int64{child.ID, root.ID}, tree.AncestorChain(child.ID))
}

func TestCategoryService_Lineage(t *testing.T) {
	db := setupTestDB(t)
	root := createCategory(t, db, "root", nil)
	mid := createCategory(t, db, "mid", &root.ID)
	leaf := createCategory(t, db, "leaf", &mid.ID)

	svc := NewCategoryService(repository.NewCategoryRepository(db))
	lineage, err := svc.Lineage(context.Background(), mid.ID)
	require.NoError(t, err)
	assert.Equal(t, "mid", lineage.Category.Slug)
	assert.Equal(t, []int64{mid.ID, root.ID}, lineage.Ancestors)
	assert.Equal(t, []int64{leaf.ID}, lineage.Descendants)

	_, err = svc.Lineage(context.Background(), 404)
	assert.True(t, errors.Is(err, ErrCategoryNotFound))
}
