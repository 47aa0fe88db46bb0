package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== CooldownLimiter 冷却限流器 ====================

// CooldownLimiter 手动触发的批处理操作 (自动合并、刷新汇率、属性合并) 的冷却控制
// 防止后台频繁触发全表扫描或打满外部汇率源
type CooldownLimiter struct {
	locks sync.Map // key -> *lockEntry
	now   func() time.Time
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

func NewCooldownLimiter() *CooldownLimiter {
	return &CooldownLimiter{now: time.Now}
}

// ==================== 限流检查 ====================

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查并占用冷却窗口
// key: 限流键，如 "global:automerge"
func (r *CooldownLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	elapsed := now.Sub(entry.lastTime)

	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Release 操作失败时释放冷却窗口，允许立即重试
func (r *CooldownLimiter) Release(key string) {
	r.locks.Delete(key)
}

// ==================== Key 生成工具 ====================

// Operation 受冷却控制的操作
type Operation string

const (
	OperationAutoMerge   Operation = "automerge"
	OperationRateRefresh Operation = "rates_refresh"
	OperationConsolidate Operation = "consolidate"
)

// GlobalKey 全局操作的 Key
func GlobalKey(op Operation) string {
	return fmt.Sprintf("global:%s", op)
}

// ScopedKey 按资源 ID 区分的 Key，如某个分类的属性合并
func ScopedKey(op Operation, id string) string {
	return fmt.Sprintf("%s:%s", op, id)
}
