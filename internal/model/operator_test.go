package model

import (
	"context"
	"testing"

	"inferhost/internal/decision"
	"inferhost/internal/provider"
	"inferhost/internal/tensor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply      string
	err        error
	seenPrompt string
	seenParams provider.GenParams
}

func (f *fakeLLM) Provider() string { return "stub" }
func (f *fakeLLM) Model() string    { return "unit" }

func (f *fakeLLM) Generate(_ context.Context, prompt string, params provider.GenParams) (string, error) {
	f.seenPrompt = prompt
	f.seenParams = params
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestOperator(llm *fakeLLM) *Operator {
	parser := decision.NewParser("DOGE_USDT_PERP", decision.DefaultThresholds())
	return NewOperator(llm, parser)
}

func TestPredictMetadata(t *testing.T) {
	llm := &fakeLLM{reply: "建议做多，POSITION_SIZE=0.5"}
	op := newTestOperator(llm)

	env := tensor.FromParts(99, []float32{0.1}, []int{1}, map[string]string{
		"prompt":   "请给出交易决策",
		"model_id": "m1",
	})
	out, fields, err := op.Predict(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, "请给出交易决策", llm.seenPrompt)
	assert.Equal(t, uint64(99), out.Timestamp)
	assert.Equal(t, "stub_unit", out.Metadata["model_type"])
	assert.Equal(t, llm.reply, out.Metadata["response"])
	assert.Equal(t, "请给出交易决策", out.Metadata["prompt"])
	assert.Equal(t, "adjust_position", out.Metadata["cmd"])
	assert.Equal(t, "DOGE_USDT_PERP", out.Metadata["inst"])
	assert.Equal(t, "0.5", out.Metadata["target_position"])
	// 原始请求 metadata 保留
	assert.Equal(t, "m1", out.Metadata["model_id"])

	assert.Equal(t, decision.CmdAdjustPosition, fields.Cmd)
	require.NotNil(t, fields.TargetPosition)
	assert.InDelta(t, 0.5, *fields.TargetPosition, 1e-9)
}

func TestPredictResponseEncoding(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	op := newTestOperator(llm)

	env := tensor.FromParts(1, nil, nil, map[string]string{"prompt": "p"})
	out, _, err := op.Predict(context.Background(), env)
	require.NoError(t, err)

	require.Equal(t, []int{2}, out.Shape)
	assert.InDelta(t, float64('o')/255.0, float64(out.Data[0]), 1e-6)
	assert.InDelta(t, float64('k')/255.0, float64(out.Data[1]), 1e-6)
}

func TestPredictGenParams(t *testing.T) {
	llm := &fakeLLM{reply: "noop"}
	op := newTestOperator(llm)

	t.Run("默认参数", func(t *testing.T) {
		env := tensor.FromParts(1, nil, nil, map[string]string{"prompt": "p"})
		_, _, err := op.Predict(context.Background(), env)
		require.NoError(t, err)
		assert.InDelta(t, 0.7, llm.seenParams.Temperature, 1e-9)
		assert.Equal(t, 1000, llm.seenParams.MaxTokens)
	})

	t.Run("metadata 覆盖", func(t *testing.T) {
		env := tensor.FromParts(1, nil, nil, map[string]string{
			"prompt":      "p",
			"temperature": "0.2",
			"max_tokens":  "256",
		})
		_, _, err := op.Predict(context.Background(), env)
		require.NoError(t, err)
		assert.InDelta(t, 0.2, llm.seenParams.Temperature, 1e-9)
		assert.Equal(t, 256, llm.seenParams.MaxTokens)
	})

	t.Run("非法值退回默认", func(t *testing.T) {
		env := tensor.FromParts(1, nil, nil, map[string]string{
			"prompt":      "p",
			"temperature": "hot",
			"max_tokens":  "many",
		})
		_, _, err := op.Predict(context.Background(), env)
		require.NoError(t, err)
		assert.InDelta(t, 0.7, llm.seenParams.Temperature, 1e-9)
		assert.Equal(t, 1000, llm.seenParams.MaxTokens)
	})
}

func TestPredictGenerateError(t *testing.T) {
	llm := &fakeLLM{err: assert.AnError}
	op := newTestOperator(llm)

	env := tensor.FromParts(1, nil, nil, map[string]string{"prompt": "p"})
	_, _, err := op.Predict(context.Background(), env)
	assert.ErrorIs(t, err, assert.AnError)
}
