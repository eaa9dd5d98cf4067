package core

import (
	"fmt"
	"strings"
)

// Severity 验证消息级别
// 有序枚举：INFO < WARNING < ERROR，聚合时取较高者
type Severity int8

const (
	SeverityInfo    Severity = iota // 提示
	SeverityWarning                 // 警告
	SeverityError                   // 错误
)

// severityNames 级别名称，与常量顺序保持一致
var severityNames = [...]string{
	SeverityInfo:    "INFO",
	SeverityWarning: "WARNING",
	SeverityError:   "ERROR",
}

// Severities 按从低到高的顺序返回所有级别
func Severities() []Severity {
	return []Severity{SeverityInfo, SeverityWarning, SeverityError}
}

// String 实现 fmt.Stringer
func (s Severity) String() string {
	if s.IsValid() {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", int8(s))
}

// IsValid 是否为已定义的级别
func (s Severity) IsValid() bool {
	return s >= SeverityInfo && s <= SeverityError
}

// AtLeast 当前级别是否不低于 other
func (s Severity) AtLeast(other Severity) bool {
	return s >= other
}

// MaxSeverity 返回两者中较高的级别
func MaxSeverity(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}

// ParseSeverity 解析级别名称（大小写不敏感）
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "INFO":
		return SeverityInfo, nil
	case "WARNING", "WARN":
		return SeverityWarning, nil
	case "ERROR":
		return SeverityError, nil
	default:
		return SeverityInfo, fmt.Errorf("%w: %q", ErrUnknownSeverity, name)
	}
}

// MarshalText 实现 encoding.TextMarshaler，便于序列化为名称
func (s Severity) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSeverity, int8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
