package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"katydid-common-validation/pkg/validator/config"
	"katydid-common-validation/pkg/validator/core"
)

// NewStore 根据配置创建存储后端
// redis 后端在返回前会 Ping 一次，数据库后端会迁移缓存表
func NewStore(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return NewMemoryStore(), nil
	case config.BackendLRU:
		return NewLRUStore(cfg.MaxEntries), nil
	case config.BackendRedis:
		return openRedisStore(ctx, cfg.Redis)
	case config.BackendDatabase:
		return openGormStore(cfg.Database)
	default:
		return nil, fmt.Errorf("%w: cache backend %q", core.ErrUnsupportedBackend, cfg.Backend)
	}
}

func openRedisStore(ctx context.Context, cfg config.RedisConfig) (Store, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       []string{cfg.Addr},
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	store, err := NewRedisStore(client, cfg.Prefix, cfg.TTL)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}

func openGormStore(cfg config.DatabaseConfig) (Store, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	store, err := NewGormStore(db)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	store.owned = true
	return store, nil
}

// dialectorFor 根据驱动名选择 gorm 方言
func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN), nil
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("%w: database driver %q", core.ErrUnsupportedBackend, cfg.Driver)
	}
}
