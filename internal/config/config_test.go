package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 60*time.Second, cfg.Ingestion.VariantSetCacheTTL)
	assert.True(t, cfg.Ingestion.SerializePerSet)
	assert.True(t, cfg.Features.LegacyFallback)
	assert.Contains(t, cfg.Auth.IngestRoles, "admin")
}

func TestAdapterConfigIsEnabled(t *testing.T) {
	var nilCfg *AdapterConfig
	assert.True(t, nilCfg.IsEnabled())
	assert.True(t, (&AdapterConfig{}).IsEnabled())

	off := false
	assert.False(t, (&AdapterConfig{Enabled: &off}).IsEnabled())
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://u:p@db:5432/x")
	t.Setenv("TAXONOMY_AUTH_TOKENS", "abc:admin, bad ,def:viewer")

	cfg := Default()
	overrideFromEnv(cfg)

	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.Postgres.DSN)
	assert.Equal(t, "admin", cfg.Auth.Tokens["abc"])
	assert.Equal(t, "viewer", cfg.Auth.Tokens["def"])
	assert.Len(t, cfg.Auth.Tokens, 2)
}

func TestGetGORMConfigLevel(t *testing.T) {
	for _, level := range []string{"silent", "error", "warn", "info", ""} {
		p := &PostgresConfig{LogLevel: level}
		assert.NotNil(t, p.GetGORMConfig().Logger, level)
	}
}
