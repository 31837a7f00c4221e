package decision

// 中文说明：
// 决策字段定义。解析器的输出最终以字符串形式写入应答信封的 metadata，
// 由下游 mediator 消费执行。

// Cmd 指令类型。
type Cmd string

const (
	CmdAdjustPosition Cmd = "adjust_position"
	CmdRiskAlert      Cmd = "risk_alert"
	CmdQuery          Cmd = "query"
	CmdNoop           Cmd = "noop"
)

// Fields 从一次 LLM 回复中提取出的交易决策字段。
// Inst 为空串、TargetPosition 为 nil 表示字段未能恢复，属于合法的
// “无可执行决策”结果，不是错误。
type Fields struct {
	Cmd            Cmd
	Inst           string
	TargetPosition *float64
}

// Thresholds 数值提取的拒绝阈值。数值来自源实现的经验调参，未经推导验证，
// 因此保留为可配置项而非硬编码。
type Thresholds struct {
	// SpuriousMagnitude 裸数值绝对值超过该值时视为年份、计数等杂讯，直接拒绝。
	SpuriousMagnitude float64
	// SuspectRaw / SuspectClamped 成对生效：裸值绝对值大于 SuspectRaw
	// 而归一化钳制后绝对值仍小于 SuspectClamped，视为单位错配，拒绝。
	SuspectRaw     float64
	SuspectClamped float64
}

// DefaultThresholds 返回源实现的默认阈值。
func DefaultThresholds() Thresholds {
	return Thresholds{
		SpuriousMagnitude: 1000,
		SuspectRaw:        10,
		SuspectClamped:    0.01,
	}
}
