package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 5*time.Second, cfg.DB.TxTimeout)
	assert.Equal(t, 3, cfg.OrderNumberAttempts)
	assert.False(t, cfg.Redis.Enabled())
	assert.Empty(t, cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("DB_DSN", "host=localhost user=app dbname=shop")
	t.Setenv("DB_TX_TIMEOUT", "750ms")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("ORDER_NUMBER_ATTEMPTS", "5")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FILE", "/var/log/storefront.log")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "host=localhost user=app dbname=shop", cfg.DB.DSN)
	assert.Equal(t, 750*time.Millisecond, cfg.DB.TxTimeout)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 5, cfg.OrderNumberAttempts)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/var/log/storefront.log", cfg.Log.File)
}

func TestLoad_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:9191\nJWT_TTL=30m\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("HTTP_ADDR")
		_ = os.Unsetenv("JWT_TTL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9191", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Minute, cfg.JWT.TTL)
}

func TestLoad_Validation(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Run("unsupported driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "oracle")
		_, err := Load(missing)
		assert.ErrorContains(t, err, "unsupported DB_DRIVER")
	})

	t.Run("dev secret outside dev", func(t *testing.T) {
		t.Setenv("ENV", "prod")
		_, err := Load(missing)
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("zero attempts", func(t *testing.T) {
		t.Setenv("ORDER_NUMBER_ATTEMPTS", "0")
		_, err := Load(missing)
		assert.ErrorContains(t, err, "ORDER_NUMBER_ATTEMPTS")
	})
}
