package common

import (
	"reflect"

	"katydid-common-validation/pkg/validator/core"
)

// ListContainsNoNils 列表中没有 nil 成员
// 列表在构建时捕获；nil 的指针、接口、map、切片、函数和通道都视为缺失
func ListContainsNoNils[T any](list []T, message string, severity core.Severity) core.Validator {
	return core.NewFunc("listContainsNoNils", message, severity,
		func(core.Model) bool {
			for _, item := range list {
				if isNil(item) {
					return false
				}
			}
			return true
		},
	)
}

// isNil 判断值是否为 nil，包括装在接口里的 nil 指针
func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// ModelListHasNoErrors 列表中每个模型的验证结果都没有 ERROR 消息
// 逐个委托给 validator 验证，遇到第一个有错误的成员立即失败；WARNING 不影响结果
func ModelListHasNoErrors[M core.Model](models []M, message, detailedMessage string, validator core.ModelValidator) core.Validator {
	return modelListHasNoMessagesOf(models, message, detailedMessage, core.SeverityError, validator)
}

// ModelListHasNoWarnings 列表中每个模型的验证结果都没有 WARNING 消息
func ModelListHasNoWarnings[M core.Model](models []M, message, detailedMessage string, validator core.ModelValidator) core.Validator {
	return modelListHasNoMessagesOf(models, message, detailedMessage, core.SeverityWarning, validator)
}

func modelListHasNoMessagesOf[M core.Model](models []M, message, detailedMessage string,
	severity core.Severity, validator core.ModelValidator) core.Validator {
	name := "modelListHasNoErrors"
	if severity == core.SeverityWarning {
		name = "modelListHasNoWarnings"
	}
	return core.NewFunc(name, message, severity,
		func(core.Model) bool {
			for _, member := range models {
				if isNil(member) {
					continue
				}
				if validator.Validate(member).HasMessages(severity) {
					return false
				}
			}
			return true
		},
		core.WithDetailed(func(core.Model) string {
			return detailedMessage
		}),
	)
}
