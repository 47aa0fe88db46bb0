package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 冷却中间件 ====================

// Cooldown 冷却中间件
// 路径带 :id 时按资源单独冷却，否则全局冷却；handler 返回 5xx 时释放冷却窗口
//
// 使用示例:
//
//	router.POST("/api/variants/auto-merge",
//	    middleware.Cooldown(limiter, middleware.OperationAutoMerge, time.Minute),
//	    ctl.AutoMerge,
//	)
func Cooldown(limiter *CooldownLimiter, op Operation, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if interval <= 0 {
			c.Next()
			return
		}

		key := GlobalKey(op)
		if id := c.Param("id"); id != "" {
			key = ScopedKey(op, id)
		}

		result := limiter.Check(key, interval)
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": int(result.RetryAfter.Seconds()),
					"operation":   op,
				},
			})
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			limiter.Release(key)
		}
	}
}

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())

	if seconds < 60 {
		return fmt.Sprintf("操作冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("操作冷却中，请 %d 分钟后重试", minutes)
	}

	return fmt.Sprintf("操作冷却中，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
