package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"katydid-common-validation/pkg/validator/cache"
	"katydid-common-validation/pkg/validator/core"
	"katydid-common-validation/pkg/validator/registry"
)

// Service 模型验证服务
// 职责：按模型类型查找验证器、递归评估组合验证器、汇总消息并写回缓存
//
// 评估在调用方的 goroutine 上同步完成；不同模型可以并发评估。
// 验证器的 panic 不会被捕获。
type Service struct {
	registry  *registry.Registry
	cache     *cache.ResultCache
	logger    *zap.Logger
	listeners []Listener

	// fresh 合并同一缓存键上并发的读穿透评估
	fresh singleflight.Group
}

var _ core.ModelValidator = (*Service)(nil)

// Option 服务选项
type Option func(*Service)

// WithCache 设置结果缓存，未设置时不缓存
func WithCache(resultCache *cache.ResultCache) Option {
	return func(s *Service) {
		s.cache = resultCache
	}
}

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithListeners 追加监听器
func WithListeners(listeners ...Listener) Option {
	return func(s *Service) {
		for _, l := range listeners {
			if l != nil {
				s.listeners = append(s.listeners, l)
			}
		}
	}
}

// New 创建验证服务，reg 为 nil 时使用空注册表
func New(reg *registry.Registry, opts ...Option) *Service {
	if reg == nil {
		reg = registry.New()
	}
	s := &Service{
		registry: reg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry 验证器注册表
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Cache 结果缓存，未启用时为 nil
func (s *Service) Cache() *cache.ResultCache {
	return s.cache
}

// Validate 验证模型
func (s *Service) Validate(model core.Model) *core.ValidationResult {
	return s.ValidateContext(context.Background(), model)
}

// ValidateContext 验证模型
// 未注册的类型没有验证器，结果有效且没有消息。
// ctx 只用于缓存写入和监听器，评估本身不可取消。
func (s *Service) ValidateContext(ctx context.Context, model core.Model) *core.ValidationResult {
	if model == nil {
		return core.NewValidationResult(nil, nil, nil)
	}

	for _, l := range s.listeners {
		l.BeforeValidate(ctx, model)
	}

	// 评估前记录代数，评估期间发生的清空会让这次写入失效
	var generation uint64
	if s.cache != nil {
		generation = s.cache.Generation()
	}

	start := time.Now()
	validators := s.registry.ValidatorsFor(model)
	results := make([]*core.ValidatorResult, 0, len(validators))
	for _, v := range validators {
		results = append(results, s.evaluate(v, model))
	}
	result := core.NewValidationResult(model, validators, results)
	elapsed := time.Since(start)

	if s.cache != nil {
		if _, err := s.cache.CacheIfCurrent(ctx, model, generation, result.ErrorMessages(), result.WarningMessages()); err != nil {
			s.logger.Warn("cache validation results failed",
				zap.String("path", model.Path()),
				zap.Error(err),
			)
		}
	}

	for _, l := range s.listeners {
		l.AfterValidate(ctx, model, result, elapsed)
	}
	return result
}

// evaluate 评估单个验证器；组合验证器按其 AND/OR 语义递归评估子验证器，
// 短路后未执行的子验证器没有结果
func (s *Service) evaluate(v core.Validator, model core.Model) *core.ValidatorResult {
	composite, ok := v.(core.Composite)
	if !ok {
		return core.NewValidatorResult(v, model, v.IsValid(model), nil)
	}

	children := composite.Validators()
	bundled := make([]*core.ValidatorResult, 0, len(children))
	valid := core.Combine(composite.AllMustBeTrue(), children, func(child core.Validator) bool {
		r := s.evaluate(child, model)
		bundled = append(bundled, r)
		return r.Valid
	})
	return core.NewValidatorResult(v, model, valid, bundled)
}

// CachedMessages 读取模型缓存的 ERROR/WARNING 消息
// 未命中时执行一次评估并写回缓存；同一模型的并发未命中只评估一次。
// 缓存后端故障时记录日志并退化为直接评估。
func (s *Service) CachedMessages(ctx context.Context, model core.Model) (errs, warnings []string, err error) {
	if model == nil {
		return nil, nil, core.ErrNilModel
	}
	if s.cache == nil {
		result := s.ValidateContext(ctx, model)
		return result.ErrorMessages(), result.WarningMessages(), nil
	}

	entry, err := s.cache.Lookup(ctx, model, nil)
	if err == nil {
		return entry.Errors, entry.Warnings, nil
	}
	if !errors.Is(err, core.ErrCacheMiss) {
		s.logger.Warn("read validation cache failed", zap.String("path", model.Path()), zap.Error(err))
	}

	key := cache.Key(model, nil)
	value, _, _ := s.fresh.Do(key, func() (any, error) {
		// 等待期间其他调用可能已经写回
		if entry, err := s.cache.Lookup(ctx, model, nil); err == nil {
			return entry, nil
		}
		result := s.ValidateContext(ctx, model)
		return &cache.Entry{
			Key:      key,
			Errors:   result.ErrorMessages(),
			Warnings: result.WarningMessages(),
		}, nil
	})

	// singleflight 的所有调用方共享同一个值，各自返回副本
	shared := value.(*cache.Entry)
	return append(make([]string, 0, len(shared.Errors)), shared.Errors...),
		append(make([]string, 0, len(shared.Warnings)), shared.Warnings...),
		nil
}
