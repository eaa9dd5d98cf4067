package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"katydid-common-validation/pkg/validator/core"
	"katydid-common-validation/pkg/validator/resource"
)

// page 测试用的模型类型
type page struct {
	*resource.Resource
}

func TestKey(t *testing.T) {
	res := resource.New("/content/page")
	assert.Equal(t, "/content/page#resource.Resource", Key(res, nil))
	assert.Equal(t, "/content/page#resource.Resource", Key(res, core.TypeOf(res)))

	p := &page{Resource: res}
	assert.Equal(t, "/content/page#cache.page", Key(p, nil))
	assert.NotEqual(t, Key(res, nil), Key(p, nil))
}

func TestResultCache_MissAndHit(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	model := resource.New("/content/page")

	_, err := c.GetCachedErrorMessages(ctx, model, nil)
	assert.ErrorIs(t, err, core.ErrCacheMiss)
	_, err = c.GetCachedWarningMessages(ctx, model, nil)
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	require.NoError(t, c.CacheValidationResults(ctx, model, nil, []string{"warn"}))

	errs, err := c.GetCachedErrorMessages(ctx, model, nil)
	require.NoError(t, err)
	assert.NotNil(t, errs)
	assert.Empty(t, errs)

	warnings, err := c.GetCachedWarningMessages(ctx, model, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"warn"}, warnings)

	// 返回副本
	warnings[0] = "mutated"
	warnings, err = c.GetCachedWarningMessages(ctx, model, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"warn"}, warnings)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestResultCache_CopiesInput(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore())
	model := resource.New("/content/page")

	errs := []string{"a"}
	require.NoError(t, c.CacheValidationResults(ctx, model, errs, nil))
	errs[0] = "b"

	cached, err := c.GetCachedErrorMessages(ctx, model, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, cached)
}

func TestResultCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := New(NewLRUStore(10))
	first := resource.New("/content/first")
	second := resource.New("/content/second")

	require.NoError(t, c.CacheValidationResults(ctx, first, []string{"e"}, nil))
	require.NoError(t, c.CacheValidationResults(ctx, second, nil, nil))

	require.NoError(t, c.Invalidate(ctx, first, nil))
	_, err := c.GetCachedErrorMessages(ctx, first, nil)
	assert.ErrorIs(t, err, core.ErrCacheMiss)
	_, err = c.GetCachedErrorMessages(ctx, second, nil)
	assert.NoError(t, err)

	assert.ErrorIs(t, c.Invalidate(ctx, nil, nil), core.ErrNilModel)
}

func TestResultCache_ClearAll(t *testing.T) {
	ctx := context.Background()
	observed, logs := observer.New(zap.InfoLevel)
	c := New(NewMemoryStore(), WithLogger(zap.New(observed)))
	model := resource.New("/content/page")

	require.NoError(t, c.CacheValidationResults(ctx, model, []string{"e"}, nil))
	assert.Zero(t, c.Generation())

	require.NoError(t, c.ClearAll(ctx))
	assert.Equal(t, uint64(1), c.Generation())

	m, err := c.CachedValidationMap(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, stats.LastCleared.IsZero())
	assert.Equal(t, uint64(1), stats.Generation)

	assert.Equal(t, 1, logs.FilterMessage("validation cache cleared").Len())
}

func TestResultCache_CacheIfCurrent(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	model := resource.New("/content/page")

	// 评估开始时记录代数，期间发生清空
	generation := c.Generation()
	require.NoError(t, c.ClearAll(ctx))

	written, err := c.CacheIfCurrent(ctx, model, generation, []string{"stale"}, nil)
	require.NoError(t, err)
	assert.False(t, written)
	_, err = c.GetCachedErrorMessages(ctx, model, nil)
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	written, err = c.CacheIfCurrent(ctx, model, c.Generation(), []string{"fresh"}, nil)
	require.NoError(t, err)
	assert.True(t, written)

	entry, err := c.Lookup(ctx, model, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, entry.Errors)
	assert.Equal(t, c.Generation(), entry.Generation)
}

func TestResultCache_CachedValidationMap(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	first := resource.New("/content/first")
	second := &page{Resource: resource.New("/content/second")}

	require.NoError(t, c.CacheValidationResults(ctx, first, []string{"e"}, nil))
	require.NoError(t, c.CacheValidationResults(ctx, second, nil, []string{"w"}))

	m, err := c.CachedValidationMap(ctx)
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.Equal(t, []string{"e"}, m["/content/first#resource.Resource"].Errors)
	assert.Equal(t, []string{"w"}, m["/content/second#cache.page"].Warnings)
}

func TestResultCache_NilModel(t *testing.T) {
	ctx := context.Background()
	c := New(nil)

	_, err := c.GetCachedErrorMessages(ctx, nil, nil)
	assert.ErrorIs(t, err, core.ErrNilModel)
	assert.ErrorIs(t, c.CacheValidationResults(ctx, nil, nil, nil), core.ErrNilModel)
	_, err = c.CacheIfCurrent(ctx, nil, 0, nil, nil)
	assert.ErrorIs(t, err, core.ErrNilModel)
}

func TestResultCache_ConcurrentClear(t *testing.T) {
	ctx := context.Background()
	c := New(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			model := resource.New("/content/page")
			generation := c.Generation()
			_, err := c.CacheIfCurrent(ctx, model, generation, []string{"e"}, nil)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, c.ClearAll(ctx))
		}()
	}
	wg.Wait()

	// 最后一次清空之后不会有旧代数的条目
	m, err := c.CachedValidationMap(ctx)
	require.NoError(t, err)
	for _, entry := range m {
		assert.Equal(t, c.Generation(), entry.Generation)
	}
}
