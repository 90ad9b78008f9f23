package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", StoreDriverMemory)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "9090", cfg.PrometheusPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 4, cfg.PushWorkers)
	assert.Equal(t, 256, cfg.PushBuffer)
	assert.Equal(t, "listshare:notifications", cfg.RedisChannel)
	assert.False(t, cfg.TelegramEnabled())
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", StoreDriverPostgres)
	t.Setenv("DATABASE_URL", "postgres://localhost/listshare")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("PUSH_WORKERS", "8")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 8, cfg.PushWorkers)
	assert.True(t, cfg.RedisEnabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "postgres without url",
			cfg:     Config{StoreDriver: StoreDriverPostgres, JWTSecret: "s", TokenTTL: time.Minute, PushWorkers: 1, PushBuffer: 1},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "missing secret",
			cfg:     Config{StoreDriver: StoreDriverMemory, TokenTTL: time.Minute, PushWorkers: 1, PushBuffer: 1},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "unknown driver",
			cfg:     Config{StoreDriver: "sqlite", JWTSecret: "s", TokenTTL: time.Minute, PushWorkers: 1, PushBuffer: 1},
			wantErr: "STORE_DRIVER",
		},
		{
			name:    "no workers",
			cfg:     Config{StoreDriver: StoreDriverMemory, JWTSecret: "s", TokenTTL: time.Minute, PushBuffer: 1},
			wantErr: "PUSH_WORKERS",
		},
		{
			name: "valid",
			cfg:  Config{StoreDriver: StoreDriverMemory, JWTSecret: "s", TokenTTL: time.Minute, PushWorkers: 1, PushBuffer: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
