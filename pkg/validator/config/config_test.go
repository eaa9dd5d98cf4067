package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"katydid-common-validation/pkg/validator/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, config.BackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 10000, cfg.Cache.MaxEntries)
	assert.Equal(t, "validation:", cfg.Cache.Redis.Prefix)
	assert.Equal(t, 5*time.Second, cfg.Cache.Redis.DialTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validator.yaml")
	content := `
log:
  level: debug
  format: console
cache:
  backend: redis
  redis:
    addr: redis.internal:6380
    db: 2
    ttl: 10m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, config.BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis.internal:6380", cfg.Cache.Redis.Addr)
	assert.Equal(t, 2, cfg.Cache.Redis.DB)
	assert.Equal(t, 10*time.Minute, cfg.Cache.Redis.TTL)
	assert.Equal(t, "validation:", cfg.Cache.Redis.Prefix, "未配置的键使用默认值")
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("VALIDATOR_CACHE_BACKEND", "lru")
	t.Setenv("VALIDATOR_CACHE_MAX_ENTRIES", "25")
	t.Setenv("VALIDATOR_LOG_LEVEL", "warn")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.BackendLRU, cfg.Cache.Backend)
	assert.Equal(t, 25, cfg.Cache.MaxEntries)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		valid  bool
	}{
		{name: "默认配置", mutate: func(*config.Config) {}, valid: true},
		{name: "未知日志格式", mutate: func(c *config.Config) { c.Log.Format = "xml" }, valid: false},
		{name: "未知缓存后端", mutate: func(c *config.Config) { c.Cache.Backend = "memcached" }, valid: false},
		{name: "禁用缓存时不检查后端", mutate: func(c *config.Config) { c.Cache.Enabled = false; c.Cache.Backend = "memcached" }, valid: true},
		{name: "LRU 容量为0", mutate: func(c *config.Config) { c.Cache.Backend = config.BackendLRU; c.Cache.MaxEntries = 0 }, valid: false},
		{name: "Redis 缺少地址", mutate: func(c *config.Config) { c.Cache.Backend = config.BackendRedis; c.Cache.Redis.Addr = "" }, valid: false},
		{name: "Redis 前缀为空", mutate: func(c *config.Config) { c.Cache.Backend = config.BackendRedis; c.Cache.Redis.Addr = "localhost:6379"; c.Cache.Redis.Prefix = "" }, valid: false},
		{name: "Redis 默认前缀", mutate: func(c *config.Config) { c.Cache.Backend = config.BackendRedis; c.Cache.Redis.Addr = "localhost:6379" }, valid: true},
		{name: "数据库未知驱动", mutate: func(c *config.Config) { c.Cache.Backend = config.BackendDatabase; c.Cache.Database.Driver = "oracle" }, valid: false},
		{name: "数据库缺少DSN", mutate: func(c *config.Config) { c.Cache.Backend = config.BackendDatabase; c.Cache.Database.DSN = "" }, valid: false},
		{name: "数据库 sqlite", mutate: func(c *config.Config) { c.Cache.Backend = config.BackendDatabase }, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, config.ErrInvalidConfig)
			}
		})
	}
}
