package registry

import (
	"reflect"

	"katydid-common-validation/pkg/validator/core"
)

// StaticProvider 固定类型和验证器列表的提供者
type StaticProvider struct {
	modelType  reflect.Type
	validators []core.Validator
}

// NewProvider 创建提供者，modelType 可以是指针类型
func NewProvider(modelType reflect.Type, validators ...core.Validator) *StaticProvider {
	return &StaticProvider{
		modelType:  core.Indirect(modelType),
		validators: validators,
	}
}

// ProviderFor 为类型参数 T 创建提供者
func ProviderFor[T core.Model](validators ...core.Validator) *StaticProvider {
	return NewProvider(core.TypeFor[T](), validators...)
}

// ModelType 实现 Provider
func (p *StaticProvider) ModelType() reflect.Type {
	return p.modelType
}

// Validators 实现 Provider
// 返回同一批实例，停用时才能按身份移除
func (p *StaticProvider) Validators() []core.Validator {
	return append([]core.Validator(nil), p.validators...)
}

// Activator 提供者生命周期辅助
// 激活时注册、停用时移除；注册表为 nil 时什么也不做
type Activator struct {
	registry *Registry
	provider Provider
}

// NewActivator 创建生命周期辅助
func NewActivator(registry *Registry, provider Provider) *Activator {
	return &Activator{registry: registry, provider: provider}
}

// Activate 激活提供者
func (a *Activator) Activate() {
	if a.registry == nil {
		return
	}
	a.registry.RegisterAllFromProvider(a.provider)
}

// Deactivate 停用提供者
func (a *Activator) Deactivate() {
	if a.registry == nil {
		return
	}
	a.registry.UnregisterAllFromProvider(a.provider)
}
