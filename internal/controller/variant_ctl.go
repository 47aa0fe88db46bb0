package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_v1_202610/internal/service"
)

// VariantController 变体组
type VariantController struct {
	variantService *service.VariantService
}

func NewVariantController(variantService *service.VariantService) *VariantController {
	return &VariantController{variantService: variantService}
}

// MergeVariants 手动合并变体组
// @Summary 合并变体
// @Tags Variant
// @Accept json
// @Param body body service.MergeRequest true "合并参数"
// @Router /api/variants/merge [post]
func (ctrl *VariantController) MergeVariants(c *gin.Context) {
	var req service.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	result, err := ctrl.variantService.MergeVariants(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// AutoMerge 按同分类同名自动合并
// @Summary 自动合并变体
// @Tags Variant
// @Router /api/variants/auto-merge [post]
func (ctrl *VariantController) AutoMerge(c *gin.Context) {
	report, err := ctrl.variantService.AutoMergeVariants(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, report)
}

// GetGroupLabels 变体组标题与成员标签
// @Summary 变体组标签
// @Tags Variant
// @Param id path int true "商品ID (组内任意成员)"
// @Param locale query string false "语言"
// @Router /api/products/{id}/variants [get]
func (ctrl *VariantController) GetGroupLabels(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	labels, err := ctrl.variantService.ResolveGroupLabels(c.Request.Context(), productID, localeOf(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, labels)
}
