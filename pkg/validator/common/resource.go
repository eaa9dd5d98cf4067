package common

import (
	"errors"
	"fmt"
	"strings"

	"katydid-common-validation/pkg/validator/bundle"
	"katydid-common-validation/pkg/validator/core"
)

// ============================================================================
// 资源属性验证器
// ============================================================================

// HasTitle 标题非空且与资源名不同（固定为 ERROR）
func HasTitle() core.Validator {
	return core.NewFunc("hasTitle", "Title is configured.", core.SeverityError,
		func(model core.Model) bool {
			title := model.Title()
			return title != "" && title != model.Name()
		},
		core.WithDetailed(func(core.Model) string {
			return "The jcr:title property must be configured."
		}),
	)
}

// HasDescription 描述非空
func HasDescription(severity core.Severity) core.Validator {
	return core.NewFunc("hasDescription", "Description is configured.", severity,
		func(model core.Model) bool {
			return model.Description() != ""
		},
		core.WithDetailed(func(core.Model) string {
			return "The jcr:description property must be configured."
		}),
	)
}

// HasFileExtension 资源名以 extension 结尾
func HasFileExtension(extension string, severity core.Severity) core.Validator {
	return core.NewFunc("hasFileExtension",
		fmt.Sprintf("Resource name ends with %s extension.", extension), severity,
		func(model core.Model) bool {
			return strings.HasSuffix(model.Name(), extension)
		},
		core.WithDetailed(func(model core.Model) string {
			if model == nil {
				return fmt.Sprintf("Filename is expected to end with .%s.", extension)
			}
			return fmt.Sprintf("Filename %s is expected to end with .%s.", model.Name(), extension)
		}),
	)
}

// ============================================================================
// 子资源验证器
// ============================================================================

// HasChildResource 存在名为 childName 的子资源
func HasChildResource(childName string, severity core.Severity) core.Validator {
	return core.NewFunc("hasChildResource",
		fmt.Sprintf("Has child resource '%s'.", childName), severity,
		func(model core.Model) bool {
			child, err := model.Child(childName)
			return err == nil && child != nil
		},
		core.WithDetailed(func(core.Model) string {
			return fmt.Sprintf("Expected child resource '%s' was not found.", childName)
		}),
	)
}

// IsChildValidType 子资源存在时必须能适配为 S
// 子资源不存在视为通过，存在性由 HasChildResource 单独检查
func IsChildValidType[S core.Model](childName string, severity core.Severity) core.Validator {
	typeName := core.TypeName(core.TypeFor[S]())
	return core.NewFunc("isChildValidType",
		fmt.Sprintf("Has valid child resource '%s'.", childName), severity,
		func(model core.Model) bool {
			_, err := core.AdaptChild[S](model, childName)
			return err == nil || errors.Is(err, core.ErrChildNotFound)
		},
		core.WithDetailed(func(core.Model) string {
			return fmt.Sprintf("Child resource '%s' could not be adapted to %s. Likely the wrong resourceType.",
				childName, typeName)
		}),
	)
}

// HasValidChild 子资源存在且类型正确（两个子验证器的 AND 组合）
func HasValidChild[S core.Model](childName string, severity core.Severity) *bundle.Bundle {
	message := fmt.Sprintf("Has valid child %s '%s'", core.TypeName(core.TypeFor[S]()), childName)
	return bundle.New("hasValidChild", message, true,
		bundle.WithRegistrar(func(b *bundle.Bundle) {
			b.AddValidator(HasChildResource(childName, severity))
			b.AddValidator(IsChildValidType[S](childName, severity))
		}),
	)
}
