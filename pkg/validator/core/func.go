package core

// Func 基于闭包的验证器
// 通用验证库中的构建函数都返回该类型，参数由闭包捕获
type Func struct {
	name          string
	message       string
	severity      Severity
	check         func(Model) bool
	detailed      func(Model) string
	documentation string
}

// FuncOption Func 选项
type FuncOption func(*Func)

// WithDocumentation 设置文档资源类型
func WithDocumentation(resourceType string) FuncOption {
	return func(f *Func) {
		f.documentation = resourceType
	}
}

// WithDetailed 设置详细消息生成函数
// 未设置时详细消息与 Message 相同
func WithDetailed(detailed func(Model) string) FuncOption {
	return func(f *Func) {
		f.detailed = detailed
	}
}

// NewFunc 创建闭包验证器
// check 为 nil 时验证永远失败（保守选择）
func NewFunc(name, message string, severity Severity, check func(Model) bool, opts ...FuncOption) *Func {
	f := &Func{
		name:     name,
		message:  message,
		severity: severity,
		check:    check,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name 实现 Named 接口
func (f *Func) Name() string {
	return f.name
}

// IsValid 实现 Validator 接口
func (f *Func) IsValid(model Model) bool {
	if f.check == nil {
		return false
	}
	return f.check(model)
}

// Message 实现 Validator 接口
func (f *Func) Message() string {
	return f.message
}

// DetailedMessage 实现 Validator 接口
func (f *Func) DetailedMessage(model Model) string {
	if f.detailed == nil {
		return f.message
	}
	return f.detailed(model)
}

// Severity 实现 Validator 接口
func (f *Func) Severity() Severity {
	return f.severity
}

// DocumentationResourceType 实现 Documented 接口
func (f *Func) DocumentationResourceType() string {
	return f.documentation
}
