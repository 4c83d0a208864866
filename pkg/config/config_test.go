package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, StorageDriverFile, cfg.Storage.Driver)
	assert.Equal(t, DefaultStorageKey, cfg.Storage.Key)
	assert.Equal(t, int64(5*1024*1024), cfg.Storage.MaxBytes)
	assert.Equal(t, 30*time.Minute, cfg.Exports.SignedURLTTL)
	assert.True(t, cfg.Exports.BackupsEnabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORAGE_DRIVER", "Redis")
	v.Set("STORAGE_KEY", "")
	v.Set("STORAGE_MAX_BYTES", -1)
	v.Set("EXPORTS_SIGNED_URL_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", "http://localhost:3000, ,http://127.0.0.1:3000")

	cfg := fromViper(v)
	assert.Equal(t, StorageDriverRedis, cfg.Storage.Driver)
	assert.Equal(t, DefaultStorageKey, cfg.Storage.Key)
	assert.Equal(t, int64(5*1024*1024), cfg.Storage.MaxBytes)
	assert.Equal(t, 30*time.Minute, cfg.Exports.SignedURLTTL)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoadWithoutEnvFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
}
