package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Currency.CacheBackend)
	assert.Equal(t, 10*time.Minute, cfg.Currency.CacheTTL)
	assert.Equal(t, "none", cfg.Translator.Provider)
	assert.Empty(t, cfg.Translator.Proxies)
	assert.Equal(t, 2, cfg.Translator.MaxRetries)
	assert.Equal(t, 30*24*time.Hour, cfg.Translator.LogRetention)
	assert.Empty(t, cfg.Catalog.CanonicalSlug)
	assert.Equal(t, time.Minute, cfg.Catalog.ManualCooldown)
	assert.Empty(t, cfg.Catalog.AutoMergeCron)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("APP_ENV", "development")
	t.Setenv("TRANSLATOR_PROXIES", "http://10.0.0.1:3128, http://10.0.0.2:3128,")
	t.Setenv("CURRENCY_CACHE_TTL", "30s")
	t.Setenv("CATALOG_CANONICAL_SLUG", "giyim")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"http://10.0.0.1:3128", "http://10.0.0.2:3128"}, cfg.Translator.Proxies)
	assert.Equal(t, 30*time.Second, cfg.Currency.CacheTTL)
	assert.Equal(t, "giyim", cfg.Catalog.CanonicalSlug)
}
