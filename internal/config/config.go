package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server    ServerConfig             `mapstructure:"server"`    // 服务器配置
	Postgres  PostgresConfig           `mapstructure:"postgres"`  // PostgreSQL配置
	Ingestion IngestionConfig          `mapstructure:"ingestion"` // 入库配置
	Features  FeatureConfig            `mapstructure:"features"`  // 功能开关
	Auth      AuthConfig               `mapstructure:"auth"`      // 触发入库的鉴权
	Adapters  map[string]AdapterConfig `mapstructure:"adapters"`  // 各厂商适配器配置（key 为适配器类型）
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// PostgresConfig 数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN（URL 形式）
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	LogLevel        string        `mapstructure:"log_level"`         // gorm 日志级别：silent/error/warn/info
}

// IngestionConfig 入库配置
type IngestionConfig struct {
	VariantSetCacheTTL time.Duration `mapstructure:"variant_set_cache_ttl"` // 含旧版变体的套系ID缓存时长
	SerializePerSet    bool          `mapstructure:"serialize_per_set"`     // 同一套系的入库串行执行
}

// FeatureConfig 功能开关（静态实现，外部开关服务不可用时使用）
type FeatureConfig struct {
	IngestionV2    bool `mapstructure:"ingestion_v2"`
	MatchingV2     bool `mapstructure:"matching_v2"`
	LegacyFallback bool `mapstructure:"legacy_fallback"`
}

// AuthConfig 静态 token → 角色
type AuthConfig struct {
	Tokens      map[string]string `mapstructure:"tokens"`
	IngestRoles []string          `mapstructure:"ingest_roles"` // 允许触发入库/回填的角色
}

// AdapterConfig 单个厂商适配器的补充配置，与内置默认值合并
type AdapterConfig struct {
	Enabled           *bool    `mapstructure:"enabled"`
	SetTokens         []string `mapstructure:"set_tokens"`         // 套系名匹配词
	OfficialDomains   []string `mapstructure:"official_domains"`   // 官方域名
	OfficialProviders []string `mapstructure:"official_providers"` // 官方 provider 标识
}

// IsEnabled 未配置时默认启用
func (a *AdapterConfig) IsEnabled() bool {
	return a == nil || a.Enabled == nil || *a.Enabled
}

// Default 无配置文件时的默认值
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, Mode: "release"},
		Postgres: PostgresConfig{MaxOpenConns: 20, MaxIdleConns: 5, ConnMaxLifetime: time.Hour, LogLevel: "warn"},
		Ingestion: IngestionConfig{
			VariantSetCacheTTL: 60 * time.Second,
			SerializePerSet:    true,
		},
		Features: FeatureConfig{IngestionV2: true, MatchingV2: true, LegacyFallback: true},
		Auth:     AuthConfig{Tokens: map[string]string{}, IngestRoles: []string{"admin", "taxonomy_editor"}},
		Adapters: map[string]AdapterConfig{},
	}
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(cfg)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("postgres.max_open_conns", d.Postgres.MaxOpenConns)
	v.SetDefault("postgres.max_idle_conns", d.Postgres.MaxIdleConns)
	v.SetDefault("postgres.conn_max_lifetime", d.Postgres.ConnMaxLifetime)
	v.SetDefault("postgres.log_level", d.Postgres.LogLevel)
	v.SetDefault("ingestion.variant_set_cache_ttl", d.Ingestion.VariantSetCacheTTL)
	v.SetDefault("ingestion.serialize_per_set", d.Ingestion.SerializePerSet)
	v.SetDefault("features.ingestion_v2", d.Features.IngestionV2)
	v.SetDefault("features.matching_v2", d.Features.MatchingV2)
	v.SetDefault("features.legacy_fallback", d.Features.LegacyFallback)
	v.SetDefault("auth.ingest_roles", d.Auth.IngestRoles)
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	// TAXONOMY_AUTH_TOKENS=token1:admin,token2:taxonomy_editor
	if v := os.Getenv("TAXONOMY_AUTH_TOKENS"); v != "" {
		if cfg.Auth.Tokens == nil {
			cfg.Auth.Tokens = map[string]string{}
		}
		for _, pair := range strings.Split(v, ",") {
			token, role, ok := strings.Cut(strings.TrimSpace(pair), ":")
			if !ok || token == "" || role == "" {
				continue
			}
			cfg.Auth.Tokens[token] = role
		}
	}
}

// GetGORMConfig 获取GORM配置
func (p *PostgresConfig) GetGORMConfig() *gorm.Config {
	level := logger.Warn
	switch strings.ToLower(p.LogLevel) {
	case "silent":
		level = logger.Silent
	case "error":
		level = logger.Error
	case "info":
		level = logger.Info
	}
	return &gorm.Config{Logger: logger.Default.LogMode(level)}
}
