package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"katydid-common-validation/pkg/validator/core"
)

// Listener 验证生命周期监听器
// 监听器只观察，不能修改结果；同一个监听器可能被多个 goroutine 并发调用
type Listener interface {
	// BeforeValidate 开始评估前调用
	BeforeValidate(ctx context.Context, model core.Model)

	// AfterValidate 评估完成、结果写入缓存后调用
	AfterValidate(ctx context.Context, model core.Model, result *core.ValidationResult, elapsed time.Duration)
}

// ============================================================================
// 日志监听器
// ============================================================================

// LoggingListener 记录验证过程
type LoggingListener struct {
	enabled bool
	logger  *zap.Logger
}

// NewLoggingListener 创建日志监听器，logger 为 nil 时不输出
func NewLoggingListener(logger *zap.Logger) *LoggingListener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingListener{
		enabled: true,
		logger:  logger,
	}
}

// SetEnabled 开关日志
func (l *LoggingListener) SetEnabled(enabled bool) *LoggingListener {
	l.enabled = enabled
	return l
}

// Enabled 是否启用
func (l *LoggingListener) Enabled() bool {
	return l.enabled
}

// BeforeValidate 验证前钩子
func (l *LoggingListener) BeforeValidate(_ context.Context, model core.Model) {
	if !l.enabled {
		return
	}
	l.logger.Debug("validation started",
		zap.String("path", model.Path()),
		zap.String("type", core.TypeName(core.TypeOf(model))),
	)
}

// AfterValidate 验证后钩子
func (l *LoggingListener) AfterValidate(_ context.Context, model core.Model, result *core.ValidationResult, elapsed time.Duration) {
	if !l.enabled {
		return
	}

	fields := []zap.Field{
		zap.String("path", model.Path()),
		zap.Int("validators", len(result.Results())),
		zap.Duration("elapsed", elapsed),
	}
	if result.IsValid() {
		l.logger.Debug("validation passed", fields...)
		return
	}

	fields = append(fields,
		zap.Strings("errors", result.ErrorMessages()),
		zap.Strings("warnings", result.WarningMessages()),
	)
	l.logger.Info("validation failed", fields...)
}
