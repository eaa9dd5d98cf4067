package common

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"katydid-common-validation/pkg/validator/core"
)

// ============================================================================
// Playground 规则适配器
// ============================================================================

// RuleEngine 基于 go-playground/validator 的规则引擎
// 注册完自定义规则后可以被多个验证器并发使用
type RuleEngine struct {
	validate *validator.Validate
}

// NewRuleEngine 创建规则引擎
func NewRuleEngine() *RuleEngine {
	v := validator.New()

	// 注册 JSON tag 作为字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &RuleEngine{validate: v}
}

// defaultRuleEngine 未指定引擎时使用
var defaultRuleEngine = NewRuleEngine()

// DefaultRuleEngine 包级默认规则引擎
func DefaultRuleEngine() *RuleEngine {
	return defaultRuleEngine
}

// ValidateField 按规则验证单个值
func (e *RuleEngine) ValidateField(value any, rule string) error {
	return e.validate.Var(value, rule)
}

// ValidateStruct 按 validate 标签验证结构体
func (e *RuleEngine) ValidateStruct(target any) error {
	return e.validate.Struct(target)
}

// RegisterAlias 注册规则别名，必须在使用前调用
func (e *RuleEngine) RegisterAlias(alias, tags string) {
	e.validate.RegisterAlias(alias, tags)
}

// RegisterRule 注册自定义规则，必须在使用前调用
func (e *RuleEngine) RegisterRule(tag string, fn func(value any, param string) bool) error {
	return e.validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().Interface(), fl.Param())
	})
}

// ============================================================================
// 规则验证器
// ============================================================================

// RuleOption 规则验证器选项
type RuleOption func(*ruleOptions)

type ruleOptions struct {
	engine *RuleEngine
}

// WithRuleEngine 指定规则引擎
func WithRuleEngine(engine *RuleEngine) RuleOption {
	return func(o *ruleOptions) {
		if engine != nil {
			o.engine = engine
		}
	}
}

func applyRuleOptions(opts []RuleOption) *ruleOptions {
	o := &ruleOptions{engine: defaultRuleEngine}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SatisfiesRule 模型的某个属性满足 playground 规则（例如 "required,max=64"）
// value 从模型中取出被检查的值
func SatisfiesRule(property string, value func(core.Model) any, rule string, severity core.Severity, opts ...RuleOption) core.Validator {
	engine := applyRuleOptions(opts).engine
	return core.NewFunc("satisfiesRule",
		fmt.Sprintf("Property '%s' satisfies '%s'.", property, rule), severity,
		func(model core.Model) bool {
			if value == nil {
				return false
			}
			return engine.ValidateField(value(model), rule) == nil
		},
		core.WithDetailed(func(model core.Model) string {
			if value != nil {
				var fieldErrs validator.ValidationErrors
				if errors.As(engine.ValidateField(value(model), rule), &fieldErrs) && len(fieldErrs) > 0 {
					return fmt.Sprintf("Property '%s' failed the '%s' rule of '%s'.", property, fieldErrs[0].Tag(), rule)
				}
			}
			return fmt.Sprintf("Property '%s' must satisfy '%s'.", property, rule)
		}),
	)
}

// StructRules 模型自身的 validate 结构体标签全部满足
// 模型不是结构体（或结构体指针）时视为失败
func StructRules(severity core.Severity, opts ...RuleOption) core.Validator {
	engine := applyRuleOptions(opts).engine
	return core.NewFunc("structRules", "Model properties satisfy their rules.", severity,
		func(model core.Model) bool {
			return engine.ValidateStruct(model) == nil
		},
		core.WithDetailed(func(model core.Model) string {
			err := engine.ValidateStruct(model)
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				if err != nil {
					return fmt.Sprintf("Model %s cannot be checked: %v.", model.Path(), err)
				}
				return "Model properties satisfy their rules."
			}
			parts := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				parts = append(parts, fmt.Sprintf("Property '%s' failed the '%s' rule.", fe.Field(), fe.Tag()))
			}
			return strings.Join(parts, " ")
		}),
	)
}
