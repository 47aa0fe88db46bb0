package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront_v1_202610/pkg/utils"
)

const rateCacheKey = "storefront:rates"

// CachedRates 缓存内容：基础货币 + 汇率表
type CachedRates struct {
	Base  string    `json:"base"`
	Rates RateTable `json:"rates"`
}

// RateCache 汇率表缓存，刷新汇率或修改设置后失效
type RateCache interface {
	Get(ctx context.Context) (*CachedRates, bool)
	Set(ctx context.Context, rates *CachedRates)
	Invalidate(ctx context.Context)
}

// ==================== 内存实现 ====================

type memoryRateCache struct {
	cache *utils.TTLCache
}

// NewMemoryRateCache 进程内缓存，单实例部署使用
func NewMemoryRateCache(ttl time.Duration) RateCache {
	return &memoryRateCache{cache: utils.NewTTLCache(ttl)}
}

func (c *memoryRateCache) Get(_ context.Context) (*CachedRates, bool) {
	raw, ok := c.cache.Get(rateCacheKey)
	if !ok {
		return nil, false
	}
	var out CachedRates
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}

func (c *memoryRateCache) Set(_ context.Context, rates *CachedRates) {
	raw, err := json.Marshal(rates)
	if err != nil {
		return
	}
	c.cache.Set(rateCacheKey, raw)
}

func (c *memoryRateCache) Invalidate(_ context.Context) {
	c.cache.Delete(rateCacheKey)
}

// ==================== Redis 实现 ====================

type redisRateCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRateCache 多实例共享的缓存；Redis 不可用时退化为每次读库
func NewRedisRateCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) RateCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisRateCache{client: client, ttl: ttl, logger: logger}
}

func (c *redisRateCache) Get(ctx context.Context) (*CachedRates, bool) {
	raw, err := c.client.Get(ctx, rateCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("rate cache get failed", zap.Error(err))
		}
		return nil, false
	}
	var out CachedRates
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}

func (c *redisRateCache) Set(ctx context.Context, rates *CachedRates) {
	raw, err := json.Marshal(rates)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, rateCacheKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("rate cache set failed", zap.Error(err))
	}
}

func (c *redisRateCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, rateCacheKey).Err(); err != nil {
		c.logger.Warn("rate cache invalidate failed", zap.Error(err))
	}
}
