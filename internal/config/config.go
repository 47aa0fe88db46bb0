package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Currency   CurrencyConfig
	Translator TranslatorConfig
	Catalog    CatalogConfig
}

type ServerConfig struct {
	AppEnv string
	Port   string
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
	AutoMigrate     bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CurrencyConfig struct {
	RateSourceURL string
	RefreshCron   string // 为空则不启动定时刷新
	CacheBackend  string // memory | redis
	CacheTTL      time.Duration
}

type TranslatorConfig struct {
	Provider     string // http | gemini | none
	Endpoint     string
	Proxies      []string
	Timeout      time.Duration
	GeminiAPIKey string
	GeminiModel  string
	MaxRetries   int
	LogRetention time.Duration // 翻译调用日志保留时长，0 表示不清理
}

type CatalogConfig struct {
	CanonicalSlug  string        // 新建属性挂载的分类 slug，找不到时挂到根分类
	ManualCooldown time.Duration // 手动触发自动合并 / 刷新汇率的冷却时间
	AutoMergeCron  string        // 定时自动合并变体，为空则不启动
}

// IsDevelopment 是否开发环境
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.AppEnv == "dev"
}

// Load 读取配置：.env (可选) -> 环境变量 -> 默认值
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		Server: ServerConfig{
			AppEnv: v.GetString("app.env"),
			Port:   v.GetString("server.port"),
		},
		Logger: LoggerConfig{
			Level:    v.GetString("logger.level"),
			Encoding: v.GetString("logger.encoding"),
		},
		Database: DatabaseConfig{
			DSN:             v.GetString("database.dsn"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			LogLevel:        v.GetString("database.log_level"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Currency: CurrencyConfig{
			RateSourceURL: v.GetString("currency.rate_source_url"),
			RefreshCron:   v.GetString("currency.refresh_cron"),
			CacheBackend:  v.GetString("currency.cache_backend"),
			CacheTTL:      v.GetDuration("currency.cache_ttl"),
		},
		Translator: TranslatorConfig{
			Provider:     v.GetString("translator.provider"),
			Endpoint:     v.GetString("translator.endpoint"),
			Proxies:      splitList(v.GetString("translator.proxies")),
			Timeout:      v.GetDuration("translator.timeout"),
			GeminiAPIKey: v.GetString("translator.gemini_api_key"),
			GeminiModel:  v.GetString("translator.gemini_model"),
			MaxRetries:   v.GetInt("translator.max_retries"),
			LogRetention: v.GetDuration("translator.log_retention"),
		},
		Catalog: CatalogConfig{
			CanonicalSlug:  v.GetString("catalog.canonical_slug"),
			ManualCooldown: v.GetDuration("catalog.manual_cooldown"),
			AutoMergeCron:  v.GetString("catalog.automerge_cron"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")
	v.SetDefault("server.port", "8080")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("database.dsn", "host=localhost user=storefront password=storefront dbname=storefront port=5432 sslmode=disable")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("currency.rate_source_url", "https://open.er-api.com/v6/latest")
	v.SetDefault("currency.refresh_cron", "0 0 * * * *")
	v.SetDefault("currency.cache_backend", "memory")
	v.SetDefault("currency.cache_ttl", 10*time.Minute)

	v.SetDefault("translator.provider", "none")
	v.SetDefault("translator.endpoint", "https://translate.googleapis.com/translate_a/single")
	v.SetDefault("translator.timeout", 5*time.Second)
	v.SetDefault("translator.gemini_model", "gemini-1.5-flash")
	v.SetDefault("translator.max_retries", 2)
	v.SetDefault("translator.log_retention", 30*24*time.Hour)

	v.SetDefault("catalog.canonical_slug", "")
	v.SetDefault("catalog.manual_cooldown", time.Minute)
	v.SetDefault("catalog.automerge_cron", "")
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
