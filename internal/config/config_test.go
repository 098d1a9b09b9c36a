package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644))
	return dir
}

func TestLoadConfig(t *testing.T) {
	uploads := filepath.Join(t.TempDir(), "uploads")
	dir := writeConfig(t, `
server:
  port: "8080"
  mode: debug
database:
  driver: sqlite
  path: test.db
jwt:
  secret: file-secret
  expire_hours: 2
auth:
  verifiers: [supabase, local]
storage:
  type: local
  local_path: `+uploads+`
resources:
  max_batch_ids: 20
`)
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, []string{"supabase", "local"}, cfg.Auth.Verifiers)
	assert.Equal(t, 20, cfg.Resources.MaxBatchIDs)
	// 未配置的项取默认值
	assert.Equal(t, 10, cfg.Resources.DefaultLimit)
	assert.Equal(t, 50, cfg.Resources.AdminDefaultLimit)
	assert.Equal(t, 3, cfg.Resources.MinTextSearchLen)
	assert.True(t, cfg.IsDebug())

	_, err = os.Stat(uploads)
	assert.NoError(t, err)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: sqlite
jwt:
  secret: file-secret
storage:
  type: minio
`)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 168*time.Hour, cfg.JWT.ExpireTime)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Mode: "debug"},
			Database:  DatabaseConfig{Driver: "postgres"},
			JWT:       JWTConfig{Secret: "secret"},
			Auth:      AuthConfig{Verifiers: []string{"local"}},
			Resources: ResourcesConfig{DefaultLimit: 10, AdminDefaultLimit: 50, MaxLimit: 100, MaxBatchIDs: 50},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }},
		{"short secret in release", func(c *Config) { c.Server.Mode = "release" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"no verifiers", func(c *Config) { c.Auth.Verifiers = nil }},
		{"unknown verifier", func(c *Config) { c.Auth.Verifiers = []string{"oauth"} }},
		{"default over max", func(c *Config) { c.Resources.AdminDefaultLimit = 500 }},
		{"zero batch", func(c *Config) { c.Resources.MaxBatchIDs = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
