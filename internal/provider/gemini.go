package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"inferhost/internal/logger"
)

// 中文说明：
// GeminiClient 调用 Google generativelanguage 的 generateContent 接口。
// 对 429/5xx 做有限指数退避重试，其余错误直接上抛。

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.0-flash-exp"
)

type GeminiClient struct {
	BaseURL    string
	APIKey     string
	ModelName  string
	MaxRetries int

	httpc *http.Client
}

func NewGeminiClient(apiKey, modelName string, timeout time.Duration) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini 需要 api_key")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultGeminiModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	logger.Infof("Gemini 客户端就绪 model=%s key=%s", modelName, maskKey(apiKey))
	return &GeminiClient{
		BaseURL:    defaultGeminiBaseURL,
		APIKey:     apiKey,
		ModelName:  modelName,
		MaxRetries: 2,
		httpc:      &http.Client{Timeout: timeout},
	}, nil
}

func (c *GeminiClient) Provider() string { return "gemini" }
func (c *GeminiClient) Model() string    { return c.ModelName }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string, params GenParams) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     params.Temperature,
			MaxOutputTokens: params.MaxTokens,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("gemini 请求编码失败: %w", err)
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(c.BaseURL, "/"), c.ModelName, c.APIKey)

	logger.LogLLMRequest("gemini", c.ModelName, prompt, string(payload))

	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff(attempt)
			logger.Debugf("gemini 重试 #%d，等待 %s: %v", attempt, wait, lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			return "", fmt.Errorf("gemini 请求失败: %w", err)
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("gemini 响应读取失败: %w", err)
		}
		if retryableStatus(resp.StatusCode) && attempt < maxRetries {
			lastErr = fmt.Errorf("gemini status=%d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("gemini status=%d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}

		var out geminiResponse
		if err := json.Unmarshal(raw, &out); err != nil {
			return "", fmt.Errorf("gemini 响应解析失败: %w", err)
		}
		if out.Error != nil {
			return "", fmt.Errorf("gemini API 错误 code=%d: %s", out.Error.Code, out.Error.Message)
		}
		if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("gemini 未返回候选内容")
		}
		var sb strings.Builder
		for _, p := range out.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
		text := strings.TrimSpace(sb.String())
		logger.LogLLMResponse("gemini", c.ModelName, text)
		return text, nil
	}
	return "", lastErr
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoff 0.8s, 1.6s, 3.2s...，封顶 8s。
func backoff(attempt int) time.Duration {
	wait := 800 * time.Millisecond << (attempt - 1)
	if wait > 8*time.Second {
		wait = 8 * time.Second
	}
	return wait
}
