package decision

import "regexp"

// 中文说明：
// 工具/仓位提取的有序模式表。顺序即优先级，控制流只遍历表，
// 增删或调序模式不需要改动解析逻辑。

const signedNumber = `([+-]?\d+(?:\.\d+)?)`

// gap 允许关键词与数字之间出现的少量非数字字符（冒号、空格、"约" 等）。
const gap = `[^\d+\-.]{0,12}`

var instrumentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b[A-Za-z]+_[A-Za-z]+_PERP\b`),
	regexp.MustCompile(`(?i)\b[A-Za-z]+-[A-Za-z]+-PERP\b`),
	regexp.MustCompile(`(?i)\b[A-Za-z]+/[A-Za-z]+\b`),
}

// weightPattern 配对的 (模式, 归一化行为)。
type weightPattern struct {
	re *regexp.Regexp
	// marker 表示显式 POSITION_SIZE 标记：最高优先级，跳过拒绝过滤。
	marker bool
	// negate 命中后强制取负（做空类关键词，数字本身通常不带符号）。
	negate bool
}

var weightPatterns = []weightPattern{
	{re: regexp.MustCompile(`(?i)POSITION_SIZE\s*=\s*` + signedNumber), marker: true},
	{re: regexp.MustCompile(`(?i)target[_\s]*position` + gap + signedNumber)},
	{re: regexp.MustCompile(`(?i)position` + gap + signedNumber)},
	{re: regexp.MustCompile(`(?i)weight` + gap + signedNumber)},
	{re: regexp.MustCompile(`(?i)target` + gap + signedNumber)},
	{re: regexp.MustCompile(`仓位` + gap + signedNumber)},
	{re: regexp.MustCompile(`做多` + gap + signedNumber)},
	{re: regexp.MustCompile(`做空` + gap + signedNumber), negate: true},
}
