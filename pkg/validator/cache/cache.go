package cache

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"katydid-common-validation/pkg/validator/core"
)

// ============================================================================
// 验证结果缓存
// ============================================================================

// Stats 缓存统计
type Stats struct {
	Hits        int64
	Misses      int64
	Size        int
	Generation  uint64
	LastCleared time.Time
}

// ResultCache 按模型缓存最近一次验证的 ERROR/WARNING 消息
// 职责：键的生成、代数管理、命中统计；实际读写委托给 Store
//
// 写入、失效和清空由同一把锁串行化，清空时代数加一。
// 评估开始前记录代数，写回时通过 CacheIfCurrent 比较，
// 保证清空之前开始的评估不会把旧结果写回缓存。
type ResultCache struct {
	store  Store
	logger *zap.Logger

	mu          sync.Mutex
	generation  atomic.Uint64
	lastCleared time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// Option 缓存选项
type Option func(*ResultCache)

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(c *ResultCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New 创建结果缓存，store 为 nil 时使用内存存储
func New(store Store, opts ...Option) *ResultCache {
	if store == nil {
		store = NewMemoryStore()
	}
	c := &ResultCache{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key 缓存键：模型路径#类型名
// typ 为 nil 时使用模型的运行时类型
func Key(model core.Model, typ reflect.Type) string {
	if typ == nil {
		typ = core.TypeOf(model)
	}
	typ = core.Indirect(typ)
	name := ""
	if typ != nil {
		name = typ.String()
	}
	return model.Path() + "#" + name
}

// Lookup 读取模型的缓存条目，不存在时返回 core.ErrCacheMiss
func (c *ResultCache) Lookup(ctx context.Context, model core.Model, typ reflect.Type) (*Entry, error) {
	if model == nil {
		return nil, core.ErrNilModel
	}
	entry, err := c.store.Get(ctx, Key(model, typ))
	if err != nil {
		if errors.Is(err, core.ErrCacheMiss) {
			c.misses.Add(1)
		}
		return nil, err
	}
	c.hits.Add(1)
	return entry, nil
}

// GetCachedErrorMessages 缓存的 ERROR 消息
func (c *ResultCache) GetCachedErrorMessages(ctx context.Context, model core.Model, typ reflect.Type) ([]string, error) {
	entry, err := c.Lookup(ctx, model, typ)
	if err != nil {
		return nil, err
	}
	return entry.Errors, nil
}

// GetCachedWarningMessages 缓存的 WARNING 消息
func (c *ResultCache) GetCachedWarningMessages(ctx context.Context, model core.Model, typ reflect.Type) ([]string, error) {
	entry, err := c.Lookup(ctx, model, typ)
	if err != nil {
		return nil, err
	}
	return entry.Warnings, nil
}

// CacheValidationResults 覆盖写入模型的验证消息
func (c *ResultCache) CacheValidationResults(ctx context.Context, model core.Model, errs, warnings []string) error {
	if model == nil {
		return core.ErrNilModel
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(ctx, model, c.generation.Load(), errs, warnings)
}

// CacheIfCurrent 仅当缓存代数仍等于 generation 时写入
// 返回是否实际写入；期间发生过清空时丢弃这次写入
func (c *ResultCache) CacheIfCurrent(ctx context.Context, model core.Model, generation uint64, errs, warnings []string) (bool, error) {
	if model == nil {
		return false, core.ErrNilModel
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if current := c.generation.Load(); current != generation {
		c.logger.Debug("stale validation result dropped",
			zap.String("path", model.Path()),
			zap.Uint64("generation", generation),
			zap.Uint64("current", current),
		)
		return false, nil
	}
	if err := c.write(ctx, model, generation, errs, warnings); err != nil {
		return false, err
	}
	return true, nil
}

// write 写入条目，调用方持有 mu
func (c *ResultCache) write(ctx context.Context, model core.Model, generation uint64, errs, warnings []string) error {
	entry := &Entry{
		Key:        Key(model, nil),
		Errors:     append(make([]string, 0, len(errs)), errs...),
		Warnings:   append(make([]string, 0, len(warnings)), warnings...),
		Generation: generation,
		CachedAt:   time.Now(),
	}
	if err := c.store.Set(ctx, entry); err != nil {
		return fmt.Errorf("cache validation results for %s: %w", model.Path(), err)
	}
	c.logger.Debug("validation results cached",
		zap.String("key", entry.Key),
		zap.Int("errors", len(entry.Errors)),
		zap.Int("warnings", len(entry.Warnings)),
	)
	return nil
}

// Generation 当前缓存代数
func (c *ResultCache) Generation() uint64 {
	return c.generation.Load()
}

// Invalidate 删除单个模型的缓存
func (c *ResultCache) Invalidate(ctx context.Context, model core.Model, typ reflect.Type) error {
	if model == nil {
		return core.ErrNilModel
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(model, typ)
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	return nil
}

// ClearAll 清空全部缓存并推进代数
func (c *ResultCache) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 先推进代数，存储清空失败时进行中的评估也不会写回
	generation := c.generation.Add(1)
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear validation cache: %w", err)
	}
	c.lastCleared = time.Now()
	c.logger.Info("validation cache cleared", zap.Uint64("generation", generation))
	return nil
}

// CachedValidationMap 全部缓存条目，按缓存键索引
func (c *ResultCache) CachedValidationMap(ctx context.Context) (map[string]*Entry, error) {
	entries, err := c.store.Entries(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string]*Entry, len(entries))
	for _, entry := range entries {
		result[entry.Key] = entry
	}
	return result, nil
}

// Stats 统计信息
func (c *ResultCache) Stats(ctx context.Context) (Stats, error) {
	size, err := c.store.Len(ctx)
	if err != nil {
		return Stats{}, err
	}

	c.mu.Lock()
	lastCleared := c.lastCleared
	c.mu.Unlock()

	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Size:        size,
		Generation:  c.generation.Load(),
		LastCleared: lastCleared,
	}, nil
}

// Close 关闭存储
func (c *ResultCache) Close() error {
	return c.store.Close()
}
