package model

import (
	"context"
	"strconv"
	"strings"

	"inferhost/internal/decision"
	"inferhost/internal/logger"
	"inferhost/internal/provider"
	"inferhost/internal/tensor"
)

// 中文说明：
// Operator 执行一次完整预测：取 metadata 里的 prompt，调 LLM，
// 解析决策字段，组装应答信封。回复文本除了放进 metadata["response"]，
// 还按字节/255 编码进 data（保持与 mediator 的既有约定）。

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

type Operator struct {
	gen    provider.TextGenerator
	parser *decision.Parser
}

func NewOperator(gen provider.TextGenerator, parser *decision.Parser) *Operator {
	return &Operator{gen: gen, parser: parser}
}

// ModelType provider_modelname 形式的标识，写入应答 metadata。
func (o *Operator) ModelType() string {
	return o.gen.Provider() + "_" + o.gen.Model()
}

// Provider / Model 暴露给状态接口。
func (o *Operator) Provider() string { return o.gen.Provider() }
func (o *Operator) Model() string    { return o.gen.Model() }

// Predict 单次请求处理。生成失败时错误上抛，由调度层转为错误信封。
func (o *Operator) Predict(ctx context.Context, env *tensor.AltTensor) (*tensor.AltTensor, decision.Fields, error) {
	prompt := env.Metadata["prompt"]
	if strings.TrimSpace(prompt) == "" {
		logger.Warnf("metadata 中没有 prompt，按空提示词调用")
	}

	params := provider.GenParams{
		Temperature: metaFloat(env.Metadata, "temperature", defaultTemperature),
		MaxTokens:   metaInt(env.Metadata, "max_tokens", defaultMaxTokens),
	}

	raw, err := o.gen.Generate(ctx, prompt, params)
	if err != nil {
		return nil, decision.Fields{}, err
	}

	fields := o.parser.Parse(raw)

	meta := make(map[string]string, len(env.Metadata)+5)
	for k, v := range env.Metadata {
		meta[k] = v
	}
	meta["model_type"] = o.ModelType()
	meta["response"] = raw
	meta["prompt"] = prompt
	meta["cmd"] = string(fields.Cmd)
	if fields.Inst != "" {
		meta["inst"] = fields.Inst
	}
	if fields.TargetPosition != nil {
		meta["target_position"] = strconv.FormatFloat(*fields.TargetPosition, 'f', -1, 64)
	}

	data := encodeResponse(raw)
	out := tensor.FromParts(env.Timestamp, data, []int{len(data)}, meta)
	return out, fields, nil
}

// encodeResponse 回复文本按 UTF-8 字节归一化到 [0,1]。
func encodeResponse(text string) []float32 {
	b := []byte(text)
	data := make([]float32, len(b))
	for i, c := range b {
		data[i] = float32(c) / 255.0
	}
	return data
}

func metaFloat(meta map[string]string, key string, fallback float64) float64 {
	if s, ok := meta[key]; ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v
		}
		logger.Warnf("metadata[%s]=%q 不是数值，使用默认值 %v", key, s, fallback)
	}
	return fallback
}

func metaInt(meta map[string]string, key string, fallback int) int {
	if s, ok := meta[key]; ok {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
		logger.Warnf("metadata[%s]=%q 不是整数，使用默认值 %d", key, s, fallback)
	}
	return fallback
}
