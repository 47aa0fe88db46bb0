package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront_v1_202610/internal/config"
	"storefront_v1_202610/internal/model"
	"storefront_v1_202610/internal/service"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Currency: config.CurrencyConfig{
			RateSourceURL: "http://127.0.0.1:0",
			RefreshCron:   "0 0 * * * *",
			CacheBackend:  "memory",
			CacheTTL:      time.Minute,
		},
		Translator: config.TranslatorConfig{
			Provider:     "none",
			Timeout:      time.Second,
			LogRetention: time.Hour,
		},
		Catalog: config.CatalogConfig{CanonicalSlug: "giyim"},
	}
}

func TestNewWithDB(t *testing.T) {
	deps, err := NewWithDB(context.Background(), testConfig(), zap.NewNop(), setupDB(t))
	require.NoError(t, err)
	defer deps.Close()

	assert.Equal(t, "giyim", deps.Services.Attribute.CanonicalSlug)
	assert.Nil(t, deps.Redis)

	ctls := deps.Controllers()
	assert.NotNil(t, ctls.Attribute)
	assert.NotNil(t, ctls.Order)

	tm := deps.TaskManager()
	assert.Equal(t, map[string]bool{"rates": true, "automerge": false, "cleanup": true}, tm.Status())
}

func TestBuildTranslator(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		proxies  []string
		wantErr  bool
		wantType interface{}
	}{
		{"默认不翻译", "", nil, false, service.NopTranslator{}},
		{"none", "none", nil, false, service.NopTranslator{}},
		{"http", "http", []string{"http://127.0.0.1:3128"}, false, &service.HTTPTranslator{}},
		{"http 代理地址非法", "http", []string{"://bad"}, true, nil},
		{"gemini 缺少 key", "gemini", nil, true, nil},
		{"未知提供方", "deepl", nil, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Translator.Provider = tt.provider
			cfg.Translator.Proxies = tt.proxies
			deps := &Dependencies{Config: cfg, Logger: zap.NewNop()}

			tr, err := deps.buildTranslator(context.Background(), nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, tr)
		})
	}
}

func TestBuildRateCache_RedisFallback(t *testing.T) {
	cfg := testConfig()
	cfg.Currency.CacheBackend = "redis"
	cfg.Redis.Addr = "127.0.0.1:1" // 无服务监听
	deps := &Dependencies{Config: cfg, Logger: zap.NewNop()}

	cache := deps.buildRateCache(context.Background())
	assert.NotNil(t, cache)
	assert.Nil(t, deps.Redis)
}
