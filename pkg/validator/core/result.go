package core

// ============================================================================
// 单个验证器的执行结果
// ============================================================================

// ValidatorResult 一次验证器调用的结果
// 每次评估新建，归产生它的 ValidationResult 所有
type ValidatorResult struct {
	// Valid 是否通过
	Valid bool `json:"valid"`
	// Message 简短消息
	Message string `json:"message"`
	// DetailedMessage 详细消息
	DetailedMessage string `json:"detailedMessage"`
	// Severity 消息级别
	Severity Severity `json:"type"`
	// ValidatorName 验证器标识
	ValidatorName string `json:"validator"`
	// DocumentationResourceType 文档资源类型（可选）
	DocumentationResourceType string `json:"documentationResourceType,omitempty"`
	// Bundled 组合验证器中实际执行过的子验证器结果（可选）
	Bundled []*ValidatorResult `json:"bundled,omitempty"`
}

// NewValidatorResult 根据验证器和执行结果创建 ValidatorResult
func NewValidatorResult(v Validator, model Model, valid bool, bundled []*ValidatorResult) *ValidatorResult {
	return &ValidatorResult{
		Valid:                     valid,
		Message:                   v.Message(),
		DetailedMessage:           v.DetailedMessage(model),
		Severity:                  v.Severity(),
		ValidatorName:             NameOf(v),
		DocumentationResourceType: DocumentationOf(v),
		Bundled:                   bundled,
	}
}

// IsBundle 是否为组合验证器的结果
func (r *ValidatorResult) IsBundle() bool {
	return r.Bundled != nil
}

// Messages 按级别汇总失败消息
// 通过的结果没有消息；失败的组合结果汇总其失败子结果的消息，
// 没有失败子结果时（例如空的 OR 组合）使用自身的详细消息
func (r *ValidatorResult) Messages() map[Severity][]string {
	messages := newMessageMap()
	r.collectFailures(messages)
	return messages
}

// collectFailures 递归收集失败消息
func (r *ValidatorResult) collectFailures(dst map[Severity][]string) {
	if r.Valid {
		return
	}
	collected := false
	for _, child := range r.Bundled {
		if !child.Valid {
			child.collectFailures(dst)
			collected = true
		}
	}
	if !collected {
		dst[r.Severity] = append(dst[r.Severity], r.DetailedMessage)
	}
}

// newMessageMap 创建包含全部级别键的消息映射
func newMessageMap() map[Severity][]string {
	messages := make(map[Severity][]string, len(severityNames))
	for _, severity := range Severities() {
		messages[severity] = make([]string, 0)
	}
	return messages
}

// ============================================================================
// 一次模型验证的结果
// ============================================================================

// ValidationResult 一次 validate 调用的结果
// 构建后不可变；model 只是借用，结果不拥有模型
type ValidationResult struct {
	model      Model
	results    []*ValidatorResult
	validators []Validator
	valid      bool
	messages   map[Severity][]string
}

// NewValidationResult 创建验证结果
// 有效性为顶层结果的 AND；消息只来自失败的验证器
func NewValidationResult(model Model, validators []Validator, results []*ValidatorResult) *ValidationResult {
	messages := newMessageMap()
	valid := true
	for _, r := range results {
		if !r.Valid {
			valid = false
			r.collectFailures(messages)
		}
	}
	return &ValidationResult{
		model:      model,
		results:    append([]*ValidatorResult(nil), results...),
		validators: append([]Validator(nil), validators...),
		valid:      valid,
		messages:   messages,
	}
}

// Model 被验证的模型
func (r *ValidationResult) Model() Model {
	return r.model
}

// Results 所有顶层验证器结果
func (r *ValidationResult) Results() []*ValidatorResult {
	return append([]*ValidatorResult(nil), r.results...)
}

// Validators 实际执行过的顶层验证器
func (r *ValidationResult) Validators() []Validator {
	return append([]Validator(nil), r.validators...)
}

// IsValid 所有顶层验证器是否都通过
func (r *ValidationResult) IsValid() bool {
	return r.valid
}

// Messages 按级别分组的失败消息（返回副本，三个级别的键总是存在）
func (r *ValidationResult) Messages() map[Severity][]string {
	messages := make(map[Severity][]string, len(r.messages))
	for severity, list := range r.messages {
		messages[severity] = append(make([]string, 0, len(list)), list...)
	}
	return messages
}

// MessagesOf 指定级别的失败消息
func (r *ValidationResult) MessagesOf(severity Severity) []string {
	list := r.messages[severity]
	return append(make([]string, 0, len(list)), list...)
}

// ErrorMessages ERROR 级别的失败消息
func (r *ValidationResult) ErrorMessages() []string {
	return r.MessagesOf(SeverityError)
}

// WarningMessages WARNING 级别的失败消息
func (r *ValidationResult) WarningMessages() []string {
	return r.MessagesOf(SeverityWarning)
}

// HasMessages 指定级别是否存在失败消息
func (r *ValidationResult) HasMessages(severity Severity) bool {
	return len(r.messages[severity]) > 0
}
