package decision

import (
	"math"
	"strconv"
	"strings"
)

// 中文说明：
// 解析器把 LLM 的自由文本回复还原为 {cmd, inst, target_position}。
// 模型输出格式没有契约保证：优先信任结构化 JSON 片段，失败时按
// 关键词/正则链做尽力恢复。任何输入都不报错——字段缺失本身就是
// “无可执行决策”的信号。

type Parser struct {
	// DefaultInst 当 cmd 判定为 adjust_position 但文本中没有工具标识时回填。
	DefaultInst string
	Thresholds  Thresholds
}

func NewParser(defaultInst string, th Thresholds) *Parser {
	if th == (Thresholds{}) {
		th = DefaultThresholds()
	}
	return &Parser{DefaultInst: defaultInst, Thresholds: th}
}

// Parse 按优先级执行提取策略链。结构化片段命中即短路；
// 否则依次做关键词分类、工具提取、仓位提取与默认工具回填。
func (p *Parser) Parse(text string) Fields {
	if f, ok := parseStructured(text); ok {
		return f
	}

	f := Fields{Cmd: classifyCmd(text)}
	f.Inst = extractInstrument(text)

	if w, ok := p.extractWeight(text); ok {
		f.TargetPosition = &w
		// 有仓位目标但没识别出指令时，升级为调仓指令。
		if f.Cmd == CmdNoop {
			f.Cmd = CmdAdjustPosition
		}
	}

	if f.Inst == "" && f.Cmd == CmdAdjustPosition {
		f.Inst = p.DefaultInst
	}
	return f
}

// classifyCmd 按关键词共现分类指令，优先级固定。
func classifyCmd(text string) Cmd {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "adjust") && strings.Contains(lower, "position"):
		return CmdAdjustPosition
	case strings.Contains(lower, "risk") && strings.Contains(lower, "alert"):
		return CmdRiskAlert
	case strings.Contains(lower, "query"):
		return CmdQuery
	default:
		return CmdNoop
	}
}

// extractInstrument 按模式表顺序扫描，首个命中的模式生效后即停止。
func extractInstrument(text string) string {
	for _, re := range instrumentPatterns {
		if m := re.FindString(text); m != "" {
			return normalizeInstrument(m)
		}
	}
	return ""
}

func normalizeInstrument(m string) string {
	s := strings.ToUpper(m)
	s = strings.ReplaceAll(s, "-", "_")
	if strings.Contains(s, "_") && !strings.HasSuffix(s, "_PERP") {
		s += "_PERP"
	}
	return s
}

// extractWeight 按模式表顺序尝试仓位提取，首个通过过滤的候选生效。
// 被拒绝的候选只跳过当前模式，不终止整条链。
func (p *Parser) extractWeight(text string) (float64, bool) {
	for _, wp := range weightPatterns {
		m := wp.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		// 年份、计数等杂讯数字的量级远超任何仓位表达。
		if !wp.marker && math.Abs(raw) > p.Thresholds.SpuriousMagnitude {
			continue
		}
		v := normalizeWeight(raw)
		// 钳制后几乎归零而裸值很大，视为单位错配。
		if !wp.marker && math.Abs(v) < p.Thresholds.SuspectClamped && math.Abs(raw) > p.Thresholds.SuspectRaw {
			continue
		}
		if wp.negate {
			v = -math.Abs(v)
		}
		return v, true
	}
	return 0, false
}

// normalizeWeight 量级大于 1 按百分数处理，再钳制到 [-1, 1]。
func normalizeWeight(raw float64) float64 {
	v := raw
	if math.Abs(v) > 1.0 {
		v /= 100
	}
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return v
}
