package core

import (
	"fmt"
	"reflect"
)

// ============================================================================
// 模型接口 - 由被验证的资源模型实现
// ============================================================================

// Model 被验证的模型
// 职责：只暴露验证引擎和通用验证器需要的访问器，资源树本身对引擎不透明
type Model interface {
	// Path 稳定标识（资源路径），用作缓存键，不能是内存地址
	Path() string

	// Name 资源名称
	Name() string

	// Title 标题属性
	Title() string

	// Description 描述属性
	Description() string

	// Child 按名称查找子资源
	// 不存在时返回 ErrChildNotFound
	Child(name string) (Model, error)
}

// ============================================================================
// 验证器接口
// ============================================================================

// Validator 原子验证器
// 约定：
//   - IsValid 必须是模型当前状态的纯函数，不能有其他验证器可见的副作用
//   - 无法判断时返回 false，不能返回错误；panic 属于编程错误，引擎不会捕获
//   - 构造后只读，允许多个 goroutine 并发调用
//   - 动态类型必须可比较（通常是指针）：注册表按身份移除验证器，
//     不可比较的值类型（例如含切片或函数字段的结构体）注册后无法被移除
type Validator interface {
	// IsValid 执行验证
	IsValid(model Model) bool

	// Message 简短消息，与验证结果无关
	Message() string

	// DetailedMessage 失败时的详细说明，可以引用模型中的值
	DetailedMessage(model Model) string

	// Severity 消息级别
	Severity() Severity
}

// Named 带稳定名称的验证器
// 未实现时使用动态类型名作为标识
type Named interface {
	Name() string
}

// Documented 带文档资源的验证器
type Documented interface {
	// DocumentationResourceType 提供该验证消息说明文档的资源类型
	DocumentationResourceType() string
}

// Composite 组合验证器（Bundle）
// 评估器通过该接口递归生成嵌套结果，不调用组合验证器自身的 IsValid，
// 因此 IsValid 必须等价于 Combine(AllMustBeTrue(), Validators(), 子验证器.IsValid)
type Composite interface {
	Validator

	// Validators 子验证器快照（必要时先完成懒注册）
	Validators() []Validator

	// AllMustBeTrue true 为 AND 语义，false 为 OR 语义
	AllMustBeTrue() bool
}

// ModelValidator 模型验证服务
// 通用验证器需要对列表成员逐个委托验证时依赖该接口
type ModelValidator interface {
	Validate(model Model) *ValidationResult
}

// ============================================================================
// 类型工具
// ============================================================================

// TypeOf 返回模型的运行时类型（去掉指针），作为注册表的键
func TypeOf(model any) reflect.Type {
	if model == nil {
		return nil
	}
	return Indirect(reflect.TypeOf(model))
}

// Indirect 去掉所有指针层级
func Indirect(typ reflect.Type) reflect.Type {
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ
}

// TypeName 类型的简短名称，nil 返回空串
func TypeName(typ reflect.Type) string {
	typ = Indirect(typ)
	if typ == nil {
		return ""
	}
	if typ.Name() != "" {
		return typ.Name()
	}
	return typ.String()
}

// TypeFor 返回类型参数对应的运行时类型（去掉指针）
func TypeFor[T any]() reflect.Type {
	return Indirect(reflect.TypeOf((*T)(nil)).Elem())
}

// NameOf 返回验证器的稳定标识
func NameOf(v Validator) string {
	if v == nil {
		return ""
	}
	if named, ok := v.(Named); ok && named.Name() != "" {
		return named.Name()
	}
	return fmt.Sprintf("%T", v)
}

// DocumentationOf 返回验证器的文档资源类型，未实现时为空串
func DocumentationOf(v Validator) string {
	if documented, ok := v.(Documented); ok {
		return documented.DocumentationResourceType()
	}
	return ""
}

// SameValidator 按身份比较两个验证器
// 不可比较的动态类型（例如含切片的值类型）永远不相等，避免 == 触发 panic
func SameValidator(a, b Validator) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// AdaptChild 查找子资源并适配为类型 S
// 子资源不存在返回 ErrChildNotFound，类型不匹配返回 ErrInvalidModelType
func AdaptChild[S Model](model Model, name string) (S, error) {
	var zero S
	child, err := model.Child(name)
	if err != nil {
		return zero, err
	}
	if child == nil {
		return zero, fmt.Errorf("%w: %s", ErrChildNotFound, name)
	}
	adapted, ok := child.(S)
	if !ok {
		return zero, fmt.Errorf("%w: child %q is %s, expected %s",
			ErrInvalidModelType, name, TypeName(TypeOf(child)), TypeName(TypeFor[S]()))
	}
	return adapted, nil
}
