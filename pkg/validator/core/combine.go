package core

// Combine 按 AND/OR 语义折叠子验证器的结果
//   - allMustBeTrue=true：遇到第一个 false 立即返回 false，后续子验证器不再执行；全部为 true（含空列表）返回 true
//   - allMustBeTrue=false：遇到第一个 true 立即返回 true；全部为 false（含空列表）返回 false
//
// eval 对每个被执行的子验证器恰好调用一次，Bundle 和评估器共用这一短路逻辑
func Combine(allMustBeTrue bool, children []Validator, eval func(Validator) bool) bool {
	for _, child := range children {
		valid := eval(child)
		if allMustBeTrue && !valid {
			return false
		}
		if !allMustBeTrue && valid {
			return true
		}
	}
	return allMustBeTrue
}
