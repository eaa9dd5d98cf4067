package bundle

import (
	"sync"
	"sync/atomic"

	"katydid-common-validation/pkg/validator/core"
)

const (
	// allMustBeTrueMessage AND 组合的详细消息
	allMustBeTrueMessage = "All of the following are true:"
	// anyMayBeTrueMessage OR 组合的详细消息
	anyMayBeTrueMessage = "One of the following is true:"
)

// Registrar 填充子验证器的函数
type Registrar func(b *Bundle)

// Bundle 组合验证器
// 职责：按 AND/OR 语义组合有序的子验证器，本身也是一个 core.Validator
// 说明：
//   - 子验证器按插入顺序执行，短路依赖这一顺序
//   - 空的 AND 组合为 true，空的 OR 组合为 false
//   - 级别由子验证器推导，每次调用重新计算
//   - 评估不会修改子验证器
type Bundle struct {
	name          string
	message       string
	allMustBeTrue bool
	registrar     Registrar
	lazy          bool

	registerMu sync.Mutex
	registered atomic.Bool

	mu         sync.RWMutex
	validators []core.Validator
}

// Option Bundle 选项
type Option func(*Bundle)

// WithValidators 初始子验证器
func WithValidators(validators ...core.Validator) Option {
	return func(b *Bundle) {
		b.appendLocked(validators)
	}
}

// WithRegistrar 设置子验证器注册函数
// 默认在构造时立即执行一次
func WithRegistrar(registrar Registrar) Option {
	return func(b *Bundle) {
		b.registrar = registrar
	}
}

// WithLazyRegistration 推迟到第一次评估（或第一次读取子验证器）时才执行注册函数
func WithLazyRegistration() Option {
	return func(b *Bundle) {
		b.lazy = true
	}
}

// New 创建组合验证器
func New(name, message string, allMustBeTrue bool, opts ...Option) *Bundle {
	b := &Bundle{
		name:          name,
		message:       message,
		allMustBeTrue: allMustBeTrue,
		validators:    make([]core.Validator, 0),
	}
	for _, opt := range opts {
		opt(b)
	}
	if !b.lazy {
		b.RegisterValidators()
	}
	return b
}

// All 创建 AND 组合
func All(name, message string, validators ...core.Validator) *Bundle {
	return New(name, message, true, WithValidators(validators...))
}

// Any 创建 OR 组合
func Any(name, message string, validators ...core.Validator) *Bundle {
	return New(name, message, false, WithValidators(validators...))
}

// RegisterValidators 执行注册函数填充子验证器
// 幂等：无论急加载还是懒加载，注册函数至多执行一次
// 用独立的标志位记录是否已注册，合法的空组合不会在每次评估时重复注册；
// 并发评估会等待注册完成，不会观察到注册到一半的列表
// 注册函数内只能调用 AddValidator/AddAllValidators
func (b *Bundle) RegisterValidators() {
	if b.registered.Load() {
		return
	}

	b.registerMu.Lock()
	defer b.registerMu.Unlock()
	if b.registered.Load() {
		return
	}
	if b.registrar != nil {
		b.registrar(b)
	}
	b.registered.Store(true)
}

// Name 实现 core.Named
func (b *Bundle) Name() string {
	return b.name
}

// IsValid 实现 core.Validator
func (b *Bundle) IsValid(model core.Model) bool {
	return core.Combine(b.allMustBeTrue, b.Validators(), func(child core.Validator) bool {
		return child.IsValid(model)
	})
}

// Message 实现 core.Validator
func (b *Bundle) Message() string {
	return b.message
}

// DetailedMessage 只描述组合语义，不展开子验证器
// 完整的嵌套说明由评估器通过嵌套结果给出
func (b *Bundle) DetailedMessage(core.Model) string {
	if b.allMustBeTrue {
		return allMustBeTrueMessage
	}
	return anyMayBeTrueMessage
}

// Severity 由子验证器推导：任一 ERROR 则为 ERROR，否则任一 WARNING 则为 WARNING，否则为 INFO
func (b *Bundle) Severity() core.Severity {
	severity := core.SeverityInfo
	for _, child := range b.Validators() {
		severity = core.MaxSeverity(severity, child.Severity())
		if severity == core.SeverityError {
			break
		}
	}
	return severity
}

// AllMustBeTrue 实现 core.Composite
func (b *Bundle) AllMustBeTrue() bool {
	return b.allMustBeTrue
}

// Validators 子验证器快照
func (b *Bundle) Validators() []core.Validator {
	b.RegisterValidators()

	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Validator(nil), b.validators...)
}

// Len 子验证器数量
func (b *Bundle) Len() int {
	return len(b.Validators())
}

// AddValidator 追加子验证器，nil 被忽略
func (b *Bundle) AddValidator(validator core.Validator) {
	b.AddAllValidators([]core.Validator{validator})
}

// AddAllValidators 按顺序追加子验证器
func (b *Bundle) AddAllValidators(validators []core.Validator) {
	if len(validators) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appendLocked(validators)
}

// appendLocked 追加子验证器（调用方持有锁或处于构造阶段）
func (b *Bundle) appendLocked(validators []core.Validator) {
	for _, v := range validators {
		if v != nil {
			b.validators = append(b.validators, v)
		}
	}
}
