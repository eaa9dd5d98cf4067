package common

import (
	"katydid-common-validation/pkg/validator/core"
)

// FailedErrorValidators 把验证结果中的每条 ERROR 消息包装成一个永远失败的验证器
// 用于把子模型的失败汇总到父模型的验证结果中
func FailedErrorValidators(model core.Model, result *core.ValidationResult) []core.Validator {
	return failedValidators(model, result, core.SeverityError, "Error validator failed for ")
}

// FailedWarningValidators 把每条 WARNING 消息包装成一个永远失败的验证器
func FailedWarningValidators(model core.Model, result *core.ValidationResult) []core.Validator {
	return failedValidators(model, result, core.SeverityWarning, "Warning validator failed for ")
}

func failedValidators(model core.Model, result *core.ValidationResult, severity core.Severity, prefix string) []core.Validator {
	if model == nil || result == nil {
		return []core.Validator{}
	}
	messages := result.MessagesOf(severity)
	validators := make([]core.Validator, 0, len(messages))
	for _, message := range messages {
		validators = append(validators, core.NewFunc("failedValidator",
			prefix+model.Path()+": "+message, severity,
			func(core.Model) bool { return false },
			core.WithDetailed(func(core.Model) string { return "" }),
		))
	}
	return validators
}
