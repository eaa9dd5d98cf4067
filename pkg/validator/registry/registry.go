package registry

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	"katydid-common-validation/pkg/validator/core"
)

// Provider 验证器提供者
// 由外部模块实现，声明模型类型以及要注册到该类型上的验证器
type Provider interface {
	// ModelType 验证器适用的模型类型
	ModelType() reflect.Type

	// Validators 要注册的验证器
	Validators() []core.Validator
}

// Registry 模型类型到验证器列表的注册表
// 职责：按注册顺序维护每个类型的验证器，支持按提供者增量注册和移除
// 设计原则：
//   - 显式构造并由评估器持有，不使用全局单例
//   - 读写锁串行化修改，读取方总是拿到副本，不会观察到修改到一半的列表
type Registry struct {
	mu         sync.RWMutex
	validators map[reflect.Type][]core.Validator
	logger     *zap.Logger
}

// Option 注册表选项
type Option func(*Registry)

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New 创建空注册表
func New(opts ...Option) *Registry {
	r := &Registry{
		validators: make(map[reflect.Type][]core.Validator),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterValidators 把验证器追加到类型的列表末尾，类型不存在时创建
func (r *Registry) RegisterValidators(validators []core.Validator, typ reflect.Type) {
	typ = core.Indirect(typ)
	if typ == nil || len(validators) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.validators[typ]
	added := 0
	for _, v := range validators {
		if v == nil {
			continue
		}
		if !reflect.TypeOf(v).Comparable() {
			r.logger.Warn("validator is not comparable and cannot be removed",
				zap.String("type", typ.String()),
				zap.String("validator", core.NameOf(v)),
				zap.String("dynamicType", reflect.TypeOf(v).String()),
			)
		}
		list = append(list, v)
		added++
	}
	if added == 0 {
		return
	}
	r.validators[typ] = list

	r.logger.Debug("validators registered",
		zap.String("type", typ.String()),
		zap.Int("added", added),
		zap.Int("total", len(list)),
	)
}

// RemoveValidators 从类型的列表中移除给定的验证器实例（按身份比较）
// 每个给定的验证器只移除一次出现（最后注册的那一次），
// 同一实例被多个提供者注册时，其他提供者的条目保持不变
// 不存在的验证器直接忽略；列表清空后删除该类型
func (r *Registry) RemoveValidators(validators []core.Validator, typ reflect.Type) {
	typ = core.Indirect(typ)
	if typ == nil || len(validators) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.validators[typ]
	if !ok {
		return
	}

	drop := make([]bool, len(current))
	for _, target := range validators {
		if i := lastIndexOf(current, drop, target); i >= 0 {
			drop[i] = true
		}
	}

	// 写时复制：正在迭代旧快照的读取方不受影响
	kept := make([]core.Validator, 0, len(current))
	for i, v := range current {
		if !drop[i] {
			kept = append(kept, v)
		}
	}

	removed := len(current) - len(kept)
	if len(kept) == 0 {
		delete(r.validators, typ)
	} else {
		r.validators[typ] = kept
	}

	if removed > 0 {
		r.logger.Debug("validators removed",
			zap.String("type", typ.String()),
			zap.Int("removed", removed),
			zap.Int("total", len(kept)),
		)
	}
}

// RegisterAllFromProvider 注册提供者声明的全部验证器（提供者激活时调用）
func (r *Registry) RegisterAllFromProvider(provider Provider) {
	if provider == nil {
		return
	}
	r.RegisterValidators(provider.Validators(), provider.ModelType())
}

// UnregisterAllFromProvider 移除提供者声明的全部验证器（提供者停用时调用）
// 同一类型上其他提供者的验证器不受影响
func (r *Registry) UnregisterAllFromProvider(provider Provider) {
	if provider == nil {
		return
	}
	r.RemoveValidators(provider.Validators(), provider.ModelType())
}

// RegisterAllFromProviders 按顺序注册多个提供者
func (r *Registry) RegisterAllFromProviders(providers ...Provider) {
	for _, provider := range providers {
		r.RegisterAllFromProvider(provider)
	}
}

// Validators 类型对应的验证器快照，未注册的类型返回空列表
func (r *Registry) Validators(typ reflect.Type) []core.Validator {
	typ = core.Indirect(typ)

	r.mu.RLock()
	defer r.mu.RUnlock()
	return append(make([]core.Validator, 0, len(r.validators[typ])), r.validators[typ]...)
}

// ValidatorsFor 模型运行时类型对应的验证器快照
func (r *Registry) ValidatorsFor(model core.Model) []core.Validator {
	return r.Validators(core.TypeOf(model))
}

// RegisteredMap 类型到验证器列表的只读快照
func (r *Registry) RegisteredMap() map[reflect.Type][]core.Validator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[reflect.Type][]core.Validator, len(r.validators))
	for typ, list := range r.validators {
		snapshot[typ] = append([]core.Validator(nil), list...)
	}
	return snapshot
}

// Len 已注册的类型数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.validators)
}

// Clear 移除全部注册（引擎关闭时调用）
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators = make(map[reflect.Type][]core.Validator)
	r.logger.Debug("registry cleared")
}

// lastIndexOf 从后向前查找同一个验证器实例，跳过已标记移除的位置，找不到返回 -1
func lastIndexOf(list []core.Validator, drop []bool, target core.Validator) int {
	for i := len(list) - 1; i >= 0; i-- {
		if !drop[i] && core.SameValidator(list[i], target) {
			return i
		}
	}
	return -1
}
