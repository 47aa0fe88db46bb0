package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront_v1_202610/internal/service"
)

// ==================== 统一响应 ====================

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"code":    status,
		"message": message,
	})
}

// respondServiceError 把 service 层哨兵错误映射为 HTTP 状态码
func respondServiceError(c *gin.Context, err error) {
	respondError(c, statusOf(err), err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrAttributeNotFound),
		errors.Is(err, service.ErrOptionNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidOption),
		errors.Is(err, service.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrOrderAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, service.ErrRateSourceUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ==================== 参数解析 ====================

// pathID 解析路径中的正整数 ID，失败时已写入 400 响应
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "无效的 "+name)
		return 0, false
	}
	return id, true
}

// localeOf ?locale= 优先，其次 Accept-Language 的第一项
func localeOf(c *gin.Context) string {
	if loc := c.Query("locale"); loc != "" {
		return loc
	}
	header := c.GetHeader("Accept-Language")
	for i, ch := range header {
		if ch == ',' || ch == ';' {
			return header[:i]
		}
	}
	return header
}
