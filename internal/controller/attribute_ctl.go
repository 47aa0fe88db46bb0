package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_v1_202610/internal/service"
)

// ==================== 控制器 ====================

// AttributeController 商品属性
type AttributeController struct {
	attributeService *service.AttributeService
}

func NewAttributeController(attributeService *service.AttributeService) *AttributeController {
	return &AttributeController{attributeService: attributeService}
}

// ==================== 请求体 ====================

type upsertValuesRequest struct {
	Values []service.AttributeValueInput `json:"values" binding:"required"`
}

type importRequest struct {
	Attributes []service.RawAttribute `json:"attributes" binding:"required"`
}

type ensureAttributeRequest struct {
	Name   string `json:"name" binding:"required"`
	Sample string `json:"sample"`
}

type ensureOptionRequest struct {
	Value string `json:"value" binding:"required"`
}

// ==================== API 方法 ====================

// GetProductAttributes 商品可用属性与展示表
// @Summary 解析商品属性 (祖先 + 子孙分类)
// @Tags Attribute
// @Param id path int true "商品ID"
// @Param locale query string false "语言，如 tr / en-US"
// @Router /api/products/{id}/attributes [get]
func (ctrl *AttributeController) GetProductAttributes(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	resolved, err := ctrl.attributeService.ResolveAttributes(c.Request.Context(), productID, localeOf(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"attributes": resolved.Attributes,
		"values":     resolved.Values,
		"table":      service.BuildAttributeTable(resolved),
	})
}

// UpsertProductAttributes 批量写入属性取值，整体一个事务
// @Summary 写入商品属性取值
// @Tags Attribute
// @Param id path int true "商品ID"
// @Router /api/products/{id}/attributes [put]
func (ctrl *AttributeController) UpsertProductAttributes(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req upsertValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	if err := ctrl.attributeService.UpsertAttributeValues(c.Request.Context(), productID, req.Values); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, nil)
}

// ImportProductAttributes 导入外部原始属性
// @Summary 导入原始 名称/取值 对
// @Tags Attribute
// @Param id path int true "商品ID"
// @Router /api/products/{id}/attributes/import [post]
func (ctrl *AttributeController) ImportProductAttributes(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	report, err := ctrl.attributeService.ImportRawAttributes(c.Request.Context(), productID, req.Attributes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, report)
}

// EnsureCategoryAttribute 后台手工新增属性 (按名称复用)
// @Summary 查找或创建属性
// @Tags Attribute
// @Param id path int true "分类ID"
// @Router /api/categories/{id}/attributes [post]
func (ctrl *AttributeController) EnsureCategoryAttribute(c *gin.Context) {
	categoryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ensureAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	attr, err := ctrl.attributeService.EnsureEditableAttribute(c.Request.Context(), categoryID, req.Name, req.Sample)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, attr)
}

// EnsureAttributeOption 查找或创建 SELECT 选项
// @Summary 查找或创建选项
// @Tags Attribute
// @Param id path int true "属性ID"
// @Router /api/attributes/{id}/options [post]
func (ctrl *AttributeController) EnsureAttributeOption(c *gin.Context) {
	attributeID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ensureOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	opt, err := ctrl.attributeService.EnsureOption(c.Request.Context(), attributeID, req.Value)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, opt)
}

// ConsolidateCategory 合并分类树中同 key 的属性
// @Summary 属性去重合并
// @Tags Attribute
// @Param id path int true "分类ID"
// @Param prefer query string false "规范分类 slug"
// @Router /api/categories/{id}/consolidate [post]
func (ctrl *AttributeController) ConsolidateCategory(c *gin.Context) {
	categoryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	prefer := c.Query("prefer")
	if prefer == "" {
		prefer = ctrl.attributeService.CanonicalSlug
	}

	report, err := ctrl.attributeService.ConsolidateAttributes(c.Request.Context(), categoryID, prefer)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, report)
}
