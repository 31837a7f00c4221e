package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"inferhost/internal/logger"
)

// 中文说明：
// OpenAIClient 兼容 OpenAI / DeepSeek / Qwen 的聊天补全接口
// （/v1/chat/completions）。BaseURL 做归一化，避免配置里重复写路径。

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

type OpenAIClient struct {
	BaseURL    string
	APIKey     string
	ModelName  string
	MaxRetries int

	httpc *http.Client
}

func NewOpenAIClient(apiKey, modelName string, timeout time.Duration) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai 需要 api_key")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultOpenAIModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	logger.Infof("OpenAI 客户端就绪 model=%s key=%s", modelName, maskKey(apiKey))
	return &OpenAIClient{
		BaseURL:    defaultOpenAIBaseURL,
		APIKey:     apiKey,
		ModelName:  modelName,
		MaxRetries: 2,
		httpc:      &http.Client{Timeout: timeout},
	}, nil
}

func (c *OpenAIClient) Provider() string { return "openai" }
func (c *OpenAIClient) Model() string    { return c.ModelName }

func (c *OpenAIClient) endpoint() string {
	url := strings.TrimRight(c.BaseURL, "/")
	if url == "" {
		url = defaultOpenAIBaseURL
	}
	// 用户可能把完整的 /chat/completions 也写进了配置
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, params GenParams) (string, error) {
	body := map[string]any{
		"model":       c.ModelName,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"temperature": params.Temperature,
	}
	if params.MaxTokens > 0 {
		body["max_tokens"] = params.MaxTokens
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("openai 请求编码失败: %w", err)
	}
	url := c.endpoint()

	logger.LogLLMRequest("openai", c.ModelName, prompt, string(payload))

	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.APIKey)

		resp, err := c.httpc.Do(req)
		if err != nil {
			return "", fmt.Errorf("openai 请求失败: %w", err)
		}
		if resp.StatusCode/100 == 2 {
			var r struct {
				Choices []struct {
					Message struct {
						Content string `json:"content"`
					} `json:"message"`
				} `json:"choices"`
			}
			derr := json.NewDecoder(resp.Body).Decode(&r)
			resp.Body.Close()
			if derr != nil {
				return "", fmt.Errorf("openai 响应解析失败: %w", derr)
			}
			if len(r.Choices) == 0 {
				return "", fmt.Errorf("openai 返回空 choices")
			}
			text := strings.TrimSpace(r.Choices[0].Message.Content)
			logger.LogLLMResponse("openai", c.ModelName, text)
			return text, nil
		}

		var eresp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&eresp)
		status := resp.StatusCode
		header := resp.Header
		resp.Body.Close()
		msg := strings.TrimSpace(eresp.Error.Message)
		if msg == "" {
			msg = http.StatusText(status)
		}
		lastErr = fmt.Errorf("openai status=%d: %s", status, msg)
		if retryableStatus(status) && attempt < maxRetries {
			// Retry-After 优先于默认退避
			if ra := header.Get("Retry-After"); ra != "" {
				if secs, perr := strconv.Atoi(ra); perr == nil && secs > 0 {
					select {
					case <-time.After(time.Duration(secs) * time.Second):
					case <-ctx.Done():
						return "", ctx.Err()
					}
				}
			}
			continue
		}
		return "", lastErr
	}
	return "", lastErr
}
