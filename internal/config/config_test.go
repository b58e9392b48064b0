package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "data/tasktracker.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "task-exports", cfg.Storage.KeyPrefix)
	assert.Equal(t, 3, cfg.Export.MaxConcurrent)
	assert.Equal(t, 15*time.Minute, cfg.URLExpiry())
	assert.False(t, cfg.StorageEnabled())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TASKTRACKER_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("TASKTRACKER_AUTH_JWTSECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("TASKTRACKER_AUTH_TOKENTTLMINUTES", "30")
	t.Setenv("TASKTRACKER_STORAGE_BUCKET", "exports")
	t.Setenv("TASKTRACKER_EXPORT_MAXCONCURRENT", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL())
	assert.True(t, cfg.StorageEnabled())
	assert.Equal(t, 5, cfg.Export.MaxConcurrent)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		var cfg Config
		cfg.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
		cfg.Auth.TokenTTLMinutes = 60
		cfg.Database.Path = "data/test.db"
		cfg.Export.MaxConcurrent = 1
		return cfg
	}

	tests := []struct {
		name        string
		mutate      func(cfg *Config)
		errContains string
	}{
		{name: "valid", mutate: func(cfg *Config) {}},
		{name: "missing secret", mutate: func(cfg *Config) { cfg.Auth.JWTSecret = "" }, errContains: "auth.jwtsecret is required"},
		{name: "short secret", mutate: func(cfg *Config) { cfg.Auth.JWTSecret = "short" }, errContains: "at least 32 bytes"},
		{name: "zero ttl", mutate: func(cfg *Config) { cfg.Auth.TokenTTLMinutes = 0 }, errContains: "tokenttlminutes"},
		{name: "no database", mutate: func(cfg *Config) { cfg.Database.Path = " " }, errContains: "database.path"},
		{name: "no workers", mutate: func(cfg *Config) { cfg.Export.MaxConcurrent = 0 }, errContains: "maxconcurrent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	var cfg Config
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwtsecret")
	assert.Contains(t, err.Error(), "database.path")
	assert.Contains(t, err.Error(), "export.maxconcurrent")
}
