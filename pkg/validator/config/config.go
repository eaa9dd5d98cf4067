package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 缓存后端
const (
	BackendMemory   = "memory"   // 无上限内存缓存
	BackendLRU      = "lru"      // 有上限的 LRU 内存缓存
	BackendRedis    = "redis"    // Redis
	BackendDatabase = "database" // 关系数据库（gorm）
)

// 数据库驱动
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// envPrefix 环境变量前缀，例如 VALIDATOR_CACHE_BACKEND
const envPrefix = "VALIDATOR"

var (
	// ErrInvalidConfig 配置不合法
	ErrInvalidConfig = errors.New("invalid validator config")
)

// Config 验证引擎配置
type Config struct {
	Log   LogConfig   `mapstructure:"log"`
	Cache CacheConfig `mapstructure:"cache"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别：debug/info/warn/error
	Level string `mapstructure:"level"`
	// Format 输出格式：json/console
	Format string `mapstructure:"format"`
	// File 日志文件路径，为空时输出到标准错误
	File string `mapstructure:"file"`
	// MaxSizeMB 单个日志文件最大尺寸（MB）
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups 保留的旧日志文件数量
	MaxBackups int `mapstructure:"max_backups"`
	// MaxAgeDays 旧日志文件保留天数
	MaxAgeDays int `mapstructure:"max_age_days"`
	// Compress 是否压缩旧日志文件
	Compress bool `mapstructure:"compress"`
}

// CacheConfig 验证结果缓存配置
type CacheConfig struct {
	// Enabled 是否启用缓存
	Enabled bool `mapstructure:"enabled"`
	// Backend 缓存后端：memory/lru/redis/database
	Backend string `mapstructure:"backend"`
	// MaxEntries LRU 后端的容量
	MaxEntries int            `mapstructure:"max_entries"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Database   DatabaseConfig `mapstructure:"database"`
}

// RedisConfig Redis 后端配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Prefix 键前缀，清空缓存时只删除该前缀下的键
	Prefix string `mapstructure:"prefix"`
	// TTL 条目过期时间，0 表示不过期
	TTL         time.Duration `mapstructure:"ttl"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// DatabaseConfig 数据库后端配置
type DatabaseConfig struct {
	// Driver sqlite/mysql/postgres
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Default 默认配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// 默认值都是合法的基础类型，不会解码失败
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load 加载配置
// 优先级：环境变量 > 配置文件 > 默认值；path 为空时只使用环境变量和默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}

	if !c.Cache.Enabled {
		return nil
	}

	switch c.Cache.Backend {
	case BackendMemory:
	case BackendLRU:
		if c.Cache.MaxEntries <= 0 {
			return fmt.Errorf("%w: cache.max_entries must be positive", ErrInvalidConfig)
		}
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("%w: cache.redis.addr is required", ErrInvalidConfig)
		}
		if c.Cache.Redis.Prefix == "" {
			return fmt.Errorf("%w: cache.redis.prefix is required", ErrInvalidConfig)
		}
	case BackendDatabase:
		switch c.Cache.Database.Driver {
		case DriverSQLite, DriverMySQL, DriverPostgres:
		default:
			return fmt.Errorf("%w: cache.database.driver %q", ErrInvalidConfig, c.Cache.Database.Driver)
		}
		if c.Cache.Database.DSN == "" {
			return fmt.Errorf("%w: cache.database.dsn is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: cache.backend %q", ErrInvalidConfig, c.Cache.Backend)
	}
	return nil
}

// setDefaults 注册所有键的默认值
// AutomaticEnv 只会覆盖 viper 已知的键，所以每个键都要有默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "validation:")
	v.SetDefault("cache.redis.ttl", "0s")
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.database.driver", DriverSQLite)
	v.SetDefault("cache.database.dsn", "file::memory:?cache=shared")
}
