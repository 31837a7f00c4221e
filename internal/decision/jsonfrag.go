package decision

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// 中文说明：
// 结构化片段策略：模型若按指示输出了 JSON，优先信任它。
// 只扫描单层花括号（不做嵌套对象匹配），取首个含 "cmd" 键的片段。

var cmdObjectRe = regexp.MustCompile(`\{[^{}]*"cmd"[^{}]*\}`)

// parseStructured 提取并解析首个 JSON 决策对象。命中即短路返回，
// 即使字段只部分填充也不再走后续启发式。
func parseStructured(text string) (Fields, bool) {
	frag := cmdObjectRe.FindString(text)
	if frag == "" {
		return Fields{}, false
	}
	if !gjson.Valid(frag) {
		return Fields{}, false
	}
	obj := gjson.Parse(frag)
	if !obj.IsObject() {
		return Fields{}, false
	}

	f := Fields{Cmd: CmdNoop}
	if c := strings.ToLower(strings.TrimSpace(obj.Get("cmd").String())); c != "" {
		f.Cmd = Cmd(c)
	}
	f.Inst = strings.TrimSpace(obj.Get("inst").String())

	// target_position 为规范字段名，pos_weight 为兼容别名。原样透传，不做归一化。
	tp := obj.Get("target_position")
	if !tp.Exists() {
		tp = obj.Get("pos_weight")
	}
	if v, ok := fragmentNumber(tp); ok {
		f.TargetPosition = &v
	}
	return f, true
}

func fragmentNumber(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Float(), true
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(r.String()), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}
