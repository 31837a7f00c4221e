package prompt

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"inferhost/internal/logger"
	"inferhost/internal/tensor"
)

// 中文说明：
// 把特征信封渲染成交易 agent 的提示词。上游在 metadata 中给出：
// - price: 当前价格
// - pos_weight: 当前仓位权重
// - col_names: 与 data 按位置对齐的列名（JSON 字符串数组）
// 列名以 z_ 开头的视为标准化特征，单独分块展示并标注偏离程度。

const maxUnnamedFeatures = 20

// Builder 渲染提示词。Inst 为展示在提示词里的交易对标识。
type Builder struct {
	Inst   string
	Styles *StyleRegistry
}

func NewBuilder(inst string, styles *StyleRegistry) *Builder {
	return &Builder{Inst: inst, Styles: styles}
}

// Build 从信封生成完整提示词。
func (b *Builder) Build(env *tensor.AltTensor) string {
	meta := env.Metadata
	price := metaOr(meta, "price", "未知")
	posWeight := metaOr(meta, "pos_weight", "0.0")
	colNames := parseColNames(meta["col_names"])

	if len(colNames) > 0 && len(colNames) != len(env.Data) {
		logger.Warnf("列名数量不匹配: %d 列 vs %d 个值，退回按下标展示", len(colNames), len(env.Data))
	}

	var sb strings.Builder
	sb.WriteString("你是一个专业的量化交易员，需要根据实时市场数据做出交易决策。\n\n")

	if b.Styles != nil {
		if style := b.Styles.Get(); style != "" {
			sb.WriteString("## 交易风格\n")
			sb.WriteString(style)
			sb.WriteString("\n\n")
		}
	}

	sb.WriteString("## 当前市场信息\n")
	fmt.Fprintf(&sb, "- 交易对: %s\n", b.Inst)
	fmt.Fprintf(&sb, "- 当前价格: %s\n", price)
	fmt.Fprintf(&sb, "- 当前仓位权重: %s (-1到1之间，1表示满仓做多，0表示空仓，-1表示满仓做空)\n\n", posWeight)

	if len(colNames) == len(env.Data) && len(colNames) > 0 {
		writeNamedFeatures(&sb, colNames, env.Data)
	} else if len(env.Data) > 0 {
		writeIndexedFeatures(&sb, env.Data)
	}

	sb.WriteString("## 任务要求\n")
	sb.WriteString("请根据以上市场数据做出交易决策。\n\n")
	sb.WriteString("输出格式（必须）：POSITION_SIZE=<数值>\n")
	sb.WriteString("- 数值范围：-1到1（1=满仓做多，0=空仓，-1=满仓做空）\n")
	sb.WriteString("- 示例：POSITION_SIZE=0.5 或 POSITION_SIZE=-0.3\n\n")
	sb.WriteString("请直接输出 POSITION_SIZE=... 格式：")
	return sb.String()
}

func writeNamedFeatures(sb *strings.Builder, colNames []string, data []float32) {
	type feat struct {
		name  string
		value float64
	}
	var raw, zscore []feat
	for i, name := range colNames {
		if name == "timestamp" {
			continue
		}
		f := feat{name: name, value: float64(data[i])}
		if strings.HasPrefix(name, "z_") {
			zscore = append(zscore, f)
		} else {
			raw = append(raw, f)
		}
	}

	if len(raw) > 0 {
		sb.WriteString("## 原始市场特征数据\n")
		for _, f := range raw {
			fmt.Fprintf(sb, "- %s: %.6f\n", f.name, f.value)
		}
		sb.WriteString("\n")
	}

	if len(zscore) > 0 {
		sb.WriteString("## 标准化特征数据 (Z-Score)\n")
		sb.WriteString("(这些特征已经过标准化处理，数值通常在 -3 到 3 之间)\n")
		sb.WriteString("(绝对值越大表示偏离均值越远，正值表示高于均值，负值表示低于均值)\n\n")
		for _, f := range zscore {
			fmt.Fprintf(sb, "- %s: %.4f %s\n", f.name, f.value, significance(f.value))
		}
		sb.WriteString("\n")
	}

	if len(raw) == 0 && len(zscore) == 0 {
		sb.WriteString("## 市场特征数据\n")
		for i, name := range colNames {
			if name != "timestamp" {
				fmt.Fprintf(sb, "- %s: %.6f\n", name, float64(data[i]))
			}
		}
		sb.WriteString("\n")
	}
}

func writeIndexedFeatures(sb *strings.Builder, data []float32) {
	sb.WriteString("## 市场特征数据\n")
	fmt.Fprintf(sb, "- 特征数量: %d\n", len(data))
	n := len(data)
	if n > maxUnnamedFeatures {
		n = maxUnnamedFeatures
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(sb, "  特征[%d]: %.6f\n", i, float64(data[i]))
	}
	if len(data) > maxUnnamedFeatures {
		fmt.Fprintf(sb, "  ... (共 %d 个特征)\n", len(data))
	}
	sb.WriteString("\n")
}

func significance(v float64) string {
	switch abs := math.Abs(v); {
	case abs > 2.0:
		return "⚠️ 显著偏离"
	case abs > 1.0:
		return "📊 中等偏离"
	default:
		return "✓ 接近均值"
	}
}

func parseColNames(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		logger.Warnf("col_names 解析失败: %v", err)
		return nil
	}
	return names
}

func metaOr(meta map[string]string, key, fallback string) string {
	if v, ok := meta[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
