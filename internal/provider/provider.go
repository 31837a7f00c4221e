package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// 中文说明：
// 文本生成后端契约。每个 provider 一种实现，单次调用语义：
// 调用层不做重试策略（客户端内部对 429/5xx 的有限重试属传输细节）。

// GenParams 单次生成参数，由请求 metadata 给出。
type GenParams struct {
	Temperature float64
	MaxTokens   int
}

// TextGenerator 文本生成接口。
type TextGenerator interface {
	// Provider 返回后端标识（gemini/openai）。
	Provider() string
	// Model 返回模型名。
	Model() string
	// Generate 单次生成。失败时返回错误，由调用方决定如何降级。
	Generate(ctx context.Context, prompt string, params GenParams) (string, error)
}

// New 按 provider 名称构造生成器。
func New(providerName, apiKey, modelName string, timeout time.Duration) (TextGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(providerName)) {
	case "", "gemini":
		return NewGeminiClient(apiKey, modelName, timeout)
	case "openai":
		return NewOpenAIClient(apiKey, modelName, timeout)
	default:
		return nil, fmt.Errorf("不支持的 llm_provider: %s", providerName)
	}
}

// maskKey 日志中只暴露密钥尾部 4 位。
func maskKey(key string) string {
	if len(key) > 4 {
		return "****" + key[len(key)-4:]
	}
	return "****"
}
