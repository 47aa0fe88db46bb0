package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_v1_202610/internal/service"
)

// CategoryController 分类树
type CategoryController struct {
	categoryService *service.CategoryService
}

func NewCategoryController(categoryService *service.CategoryService) *CategoryController {
	return &CategoryController{categoryService: categoryService}
}

// GetLineage 分类的祖先链 (自身在前) 与全部子孙
// @Summary 分类祖先与子孙
// @Tags Category
// @Param id path int true "分类ID"
// @Router /api/categories/{id}/lineage [get]
func (ctrl *CategoryController) GetLineage(c *gin.Context) {
	categoryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	lineage, err := ctrl.categoryService.Lineage(c.Request.Context(), categoryID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, lineage)
}
