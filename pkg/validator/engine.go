package validator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"katydid-common-validation/pkg/logger"
	"katydid-common-validation/pkg/validator/cache"
	"katydid-common-validation/pkg/validator/config"
	"katydid-common-validation/pkg/validator/core"
	"katydid-common-validation/pkg/validator/registry"
	"katydid-common-validation/pkg/validator/service"
)

// Engine 验证引擎
// 职责：按配置组装日志、注册表、结果缓存和验证服务，并管理它们的生命周期
//
// 使用示例：
//
//	engine, err := validator.New(ctx, cfg)
//	engine.Activate(registry.ProviderFor[*Page](common.HasTitle()))
//	result := engine.Validate(page)
//	defer engine.Shutdown(ctx)
type Engine struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *registry.Registry
	cache    *cache.ResultCache
	service  *service.Service
}

// Option 引擎选项
type Option func(*options)

type options struct {
	logger    *zap.Logger
	listeners []service.Listener
}

// WithLogger 使用外部日志器，忽略日志配置
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithListeners 追加验证监听器
func WithListeners(listeners ...service.Listener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, listeners...)
	}
}

// New 创建验证引擎，cfg 为 nil 时使用默认配置
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	log := o.logger
	if log == nil {
		var err error
		if log, err = logger.New(cfg.Log); err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}

	e := &Engine{
		cfg:      cfg,
		logger:   log,
		registry: registry.New(registry.WithLogger(log.Named("registry"))),
	}

	serviceOpts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithListeners(service.NewLoggingListener(log.Named("service"))),
		service.WithListeners(o.listeners...),
	}

	if cfg.Cache.Enabled {
		store, err := cache.NewStore(ctx, cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("create %s cache store: %w", cfg.Cache.Backend, err)
		}
		e.cache = cache.New(store, cache.WithLogger(log.Named("cache")))
		serviceOpts = append(serviceOpts, service.WithCache(e.cache))
	}

	e.service = service.New(e.registry, serviceOpts...)

	log.Info("validation engine started",
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.String("backend", cfg.Cache.Backend),
	)
	return e, nil
}

// Config 引擎配置
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Logger 引擎日志器
func (e *Engine) Logger() *zap.Logger {
	return e.logger
}

// Registry 验证器注册表
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Cache 结果缓存，未启用时为 nil
func (e *Engine) Cache() *cache.ResultCache {
	return e.cache
}

// Service 验证服务
func (e *Engine) Service() *service.Service {
	return e.service
}

// Activate 激活提供者，把它们的验证器注册到引擎
func (e *Engine) Activate(providers ...registry.Provider) {
	for _, p := range providers {
		registry.NewActivator(e.registry, p).Activate()
	}
}

// Deactivate 停用提供者，只移除它们自己贡献的验证器
func (e *Engine) Deactivate(providers ...registry.Provider) {
	for _, p := range providers {
		registry.NewActivator(e.registry, p).Deactivate()
	}
}

// Validate 验证模型
func (e *Engine) Validate(model core.Model) *core.ValidationResult {
	return e.service.Validate(model)
}

// ValidateContext 验证模型
func (e *Engine) ValidateContext(ctx context.Context, model core.Model) *core.ValidationResult {
	return e.service.ValidateContext(ctx, model)
}

// CachedMessages 读取（必要时计算）模型的 ERROR/WARNING 消息
func (e *Engine) CachedMessages(ctx context.Context, model core.Model) (errs, warnings []string, err error) {
	return e.service.CachedMessages(ctx, model)
}

// Shutdown 关闭引擎：清空注册表和缓存、关闭缓存存储、刷新日志
func (e *Engine) Shutdown(ctx context.Context) error {
	e.registry.Clear()

	var errs []error
	if e.cache != nil {
		if err := e.cache.ClearAll(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := e.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache store: %w", err))
		}
	}

	e.logger.Info("validation engine stopped")
	// 标准错误不支持 Sync，忽略该错误
	_ = e.logger.Sync()
	return errors.Join(errs...)
}
