package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"katydid-common-validation/pkg/validator/config"
	"katydid-common-validation/pkg/validator/core"
)

// ============================================================================
// 所有存储后端共用的行为测试
// ============================================================================

func newRedisTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store, err := NewRedisStore(client, "validation:", 0)
	require.NoError(t, err)
	return store, mr
}

func newGormTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cache.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	store, err := NewGormStore(db)
	require.NoError(t, err)
	store.owned = true
	return store
}

func storeBackends() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"lru":    func(*testing.T) Store { return NewLRUStore(16) },
		"redis": func(t *testing.T) Store {
			store, _ := newRedisTestStore(t)
			return store
		},
		"gorm": func(t *testing.T) Store { return newGormTestStore(t) },
	}
}

func TestStore_Contract(t *testing.T) {
	for name, newStore := range storeBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)
			defer func() { assert.NoError(t, store.Close()) }()

			_, err := store.Get(ctx, "/content/page#resource.Resource")
			assert.ErrorIs(t, err, core.ErrCacheMiss)

			cachedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			require.NoError(t, store.Set(ctx, &Entry{
				Key:        "/content/page#resource.Resource",
				Errors:     []string{},
				Warnings:   []string{"The jcr:description property must be configured."},
				Generation: 3,
				CachedAt:   cachedAt,
			}))

			entry, err := store.Get(ctx, "/content/page#resource.Resource")
			require.NoError(t, err)
			assert.NotNil(t, entry.Errors)
			assert.Empty(t, entry.Errors)
			assert.Equal(t, []string{"The jcr:description property must be configured."}, entry.Warnings)
			assert.Equal(t, uint64(3), entry.Generation)
			assert.True(t, cachedAt.Equal(entry.CachedAt))

			// 覆盖写入
			require.NoError(t, store.Set(ctx, &Entry{
				Key:      "/content/page#resource.Resource",
				Errors:   []string{"The jcr:title property must be configured."},
				Warnings: []string{},
			}))
			entry, err = store.Get(ctx, "/content/page#resource.Resource")
			require.NoError(t, err)
			assert.Equal(t, []string{"The jcr:title property must be configured."}, entry.Errors)
			assert.Empty(t, entry.Warnings)

			require.NoError(t, store.Set(ctx, &Entry{Key: "/content/other#resource.Resource"}))
			size, err := store.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, size)

			entries, err := store.Entries(ctx)
			require.NoError(t, err)
			keys := make([]string, 0, len(entries))
			for _, e := range entries {
				keys = append(keys, e.Key)
			}
			assert.ElementsMatch(t, []string{"/content/page#resource.Resource", "/content/other#resource.Resource"}, keys)

			require.NoError(t, store.Delete(ctx, "/content/other#resource.Resource"))
			require.NoError(t, store.Delete(ctx, "/content/missing#resource.Resource"))
			_, err = store.Get(ctx, "/content/other#resource.Resource")
			assert.ErrorIs(t, err, core.ErrCacheMiss)

			require.NoError(t, store.Clear(ctx))
			size, err = store.Len(ctx)
			require.NoError(t, err)
			assert.Zero(t, size)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	errs := []string{"a"}
	require.NoError(t, store.Set(ctx, &Entry{Key: "k", Errors: errs}))
	errs[0] = "mutated"

	entry, err := store.Get(ctx, "k")
	require.NoError(t, err)
	entry.Errors[0] = "changed"

	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Errors)
}

func TestLRUStore_Eviction(t *testing.T) {
	ctx := context.Background()
	store := NewLRUStore(2)

	require.NoError(t, store.Set(ctx, &Entry{Key: "a"}))
	require.NoError(t, store.Set(ctx, &Entry{Key: "b"}))

	// 访问 a，b 成为最久未访问
	_, err := store.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, &Entry{Key: "c"}))

	_, err = store.Get(ctx, "b")
	assert.ErrorIs(t, err, core.ErrCacheMiss)
	_, err = store.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "c")
	assert.NoError(t, err)

	entries, err := store.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].Key)
	assert.Equal(t, "a", entries[1].Key)
}

func TestLRUStore_DefaultSize(t *testing.T) {
	store := NewLRUStore(0).(*lruStore)
	assert.Equal(t, defaultLRUSize, store.maxSize)
}

func TestRedisStore_PrefixAndTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store, err := NewRedisStore(client, "validation:", time.Minute)
	require.NoError(t, err)

	require.NoError(t, mr.Set("unrelated", "keep"))
	require.NoError(t, store.Set(ctx, &Entry{Key: "/content/page#resource.Resource"}))

	assert.True(t, mr.Exists("validation:/content/page#resource.Resource"))
	assert.Equal(t, time.Minute, mr.TTL("validation:/content/page#resource.Resource"))

	size, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists("validation:/content/page#resource.Resource"))
	assert.True(t, mr.Exists("unrelated"))

	// 过期后视为未命中
	require.NoError(t, store.Set(ctx, &Entry{Key: "expiring"}))
	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "expiring")
	assert.ErrorIs(t, err, core.ErrCacheMiss)
}

func TestRedisStore_ConnectionError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	store, err := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "validation:", 0)
	require.NoError(t, err)
	mr.Close()

	_, err = store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrCacheMiss)
}

func TestRedisStore_EmptyPrefixRejected(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client, "", 0)
	assert.ErrorIs(t, err, core.ErrEmptyKeyPrefix)
	assert.Nil(t, store)
}

func TestRedisStore_ClearKeepsForeignKeys(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		foreign []string
	}{
		{name: "普通前缀", prefix: "validation:", foreign: []string{"session:abc", "validation"}},
		{name: "星号按字面匹配", prefix: "val*:", foreign: []string{"session:abc", "valX:page", "val:page"}},
		{name: "问号按字面匹配", prefix: "v?:", foreign: []string{"vX:page"}},
		{name: "方括号按字面匹配", prefix: "v[12]:", foreign: []string{"v1:page", "v2:page"}},
		{name: "反斜杠按字面匹配", prefix: `v\:`, foreign: []string{"v:page"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			store, err := NewRedisStore(client, tt.prefix, 0)
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })

			for _, key := range tt.foreign {
				require.NoError(t, mr.Set(key, "keep"))
			}
			require.NoError(t, store.Set(ctx, &Entry{Key: "/content/page#page"}))

			size, err := store.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, size)

			require.NoError(t, store.Clear(ctx))
			assert.False(t, mr.Exists(tt.prefix+"/content/page#page"))
			for _, key := range tt.foreign {
				assert.True(t, mr.Exists(key), key)
			}
		})
	}
}

func TestGormStore_ExternalConnectionNotClosed(t *testing.T) {
	store := newGormTestStore(t)
	store.owned = false
	require.NoError(t, store.Close())

	// 连接仍可用
	_, err := store.Len(context.Background())
	assert.NoError(t, err)

	sqlDB, err := store.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

// ============================================================================
// 工厂
// ============================================================================

func TestNewStore_Backends(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default().Cache
	store, err := NewStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &memoryStore{}, store)

	cfg.Backend = config.BackendLRU
	cfg.MaxEntries = 5
	store, err = NewStore(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 5, store.(*lruStore).maxSize)

	mr := miniredis.RunT(t)
	cfg.Backend = config.BackendRedis
	cfg.Redis.Addr = mr.Addr()
	store, err = NewStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)
	assert.NoError(t, store.Close())

	cfg.Backend = config.BackendDatabase
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.DSN = filepath.Join(t.TempDir(), "factory.db")
	store, err = NewStore(ctx, cfg)
	require.NoError(t, err)
	require.IsType(t, &GormStore{}, store)
	assert.True(t, store.(*GormStore).owned)
	assert.NoError(t, store.Close())
}

func TestNewStore_Errors(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default().Cache
	cfg.Backend = "etcd"
	_, err := NewStore(ctx, cfg)
	assert.ErrorIs(t, err, core.ErrUnsupportedBackend)

	cfg.Backend = config.BackendDatabase
	cfg.Database.Driver = "oracle"
	_, err = NewStore(ctx, cfg)
	assert.ErrorIs(t, err, core.ErrUnsupportedBackend)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()
	cfg.Backend = config.BackendRedis
	cfg.Redis.Addr = addr
	cfg.Redis.DialTimeout = 200 * time.Millisecond
	_, err = NewStore(ctx, cfg)
	assert.Error(t, err)

	// 空前缀会让清空操作波及整个库
	cfg.Redis.Addr = miniredis.RunT(t).Addr()
	cfg.Redis.Prefix = ""
	_, err = NewStore(ctx, cfg)
	assert.ErrorIs(t, err, core.ErrEmptyKeyPrefix)
}
