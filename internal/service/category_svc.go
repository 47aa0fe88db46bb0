package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"storefront_v1_202610/internal/model"
	"storefront_v1_202610/internal/repository"
)

// ==================== CategoryTree 内存分类树 ====================

// CategoryTree 一次性加载整张分类表后在内存中遍历，避免逐层查询
type CategoryTree struct {
	nodes    map[int64]model.Category
	children map[int64][]int64
}

// NewCategoryTree 由分类列表构建树
func NewCategoryTree(categories []model.Category) *CategoryTree {
	t := &CategoryTree{
		nodes:    make(map[int64]model.Category, len(categories)),
		children: make(map[int64][]int64),
	}
	for _, c := range categories {
		t.nodes[c.ID] = c
	}
	for _, c := range categories {
		if c.ParentID != nil {
			t.children[*c.ParentID] = append(t.children[*c.ParentID], c.ID)
		}
	}
	return t
}

// Has 分类是否存在
func (t *CategoryTree) Has(id int64) bool {
	_, ok := t.nodes[id]
	return ok
}

// Get 获取分类
func (t *CategoryTree) Get(id int64) (model.Category, bool) {
	c, ok := t.nodes[id]
	return c, ok
}

// AncestorChain 从自身开始沿 parent 向上，子在前
// 遇到缺失的分类或环时停止，返回已收集的部分
func (t *CategoryTree) AncestorChain(id int64) []int64 {
	var chain []int64
	seen := make(map[int64]bool)

	cur := id
	for {
		c, ok := t.nodes[cur]
		if !ok || seen[cur] {
			return chain
		}
		seen[cur] = true
		chain = append(chain, cur)

		if c.ParentID == nil {
			return chain
		}
		cur = *c.ParentID
	}
}

// Descendants 广度优先收集全部子孙分类，不含自身
func (t *CategoryTree) Descendants(id int64) []int64 {
	var out []int64
	seen := map[int64]bool{id: true}

	queue := append([]int64(nil), t.children[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		queue = append(queue, t.children[cur]...)
	}
	return out
}

// CanonicalAncestor 祖先链中 slug 匹配 preferredSlug 的分类，没有则取根
func (t *CategoryTree) CanonicalAncestor(id int64, preferredSlug string) int64 {
	chain := t.AncestorChain(id)
	if len(chain) == 0 {
		return id
	}
	if preferredSlug != "" {
		for _, cid := range chain {
			if t.nodes[cid].Slug == preferredSlug {
				return cid
			}
		}
	}
	return chain[len(chain)-1]
}

// ==================== CategoryService ====================

type CategoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// Lineage 分类本身 + 祖先链 (自身在前) + 全部子孙
type Lineage struct {
	Category    *model.Category `json:"category"`
	Ancestors   []int64         `json:"ancestors"`
	Descendants []int64         `json:"descendants"`
}

// Lineage 分类不存在时返回 ErrCategoryNotFound
func (s *CategoryService) Lineage(ctx context.Context, categoryID int64) (*Lineage, error) {
	category, err := s.repo.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	tree, err := loadCategoryTree(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	return &Lineage{
		Category:    category,
		Ancestors:   tree.AncestorChain(categoryID),
		Descendants: tree.Descendants(categoryID),
	}, nil
}

// loadCategoryTree 每次调用重新加载，保证同一次操作内视图一致
func loadCategoryTree(ctx context.Context, repo repository.CategoryRepository) (*CategoryTree, error) {
	categories, err := repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return NewCategoryTree(categories), nil
}
