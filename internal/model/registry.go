package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"inferhost/internal/decision"
	"inferhost/internal/logger"
	"inferhost/internal/provider"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// 中文说明：
// 模型注册表。配置文件是一个记录数组，每条
// {port, model_id, llm_provider, api_key, model_name}；
// 只加载与绑定端口匹配的记录，每条产出一个命名的 Operator。
// 文件先过 JSON Schema 校验再解码，配置手误在启动时立刻暴露。

// Record 单条模型配置记录。
type Record struct {
	Port        int    `json:"port"`
	ModelID     string `json:"model_id"`
	LLMProvider string `json:"llm_provider"`
	APIKey      string `json:"api_key"`
	ModelName   string `json:"model_name"`
}

const recordsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["port", "model_id"],
    "properties": {
      "port": {"type": "integer", "minimum": 1, "maximum": 65535},
      "model_id": {"type": "string", "minLength": 1},
      "llm_provider": {"type": "string", "enum": ["gemini", "openai"]},
      "api_key": {"type": "string"},
      "model_name": {"type": "string"}
    }
  }
}`

var compiledRecordsSchema = jsonschema.MustCompileString("models.schema.json", recordsSchema)

// envKeyFallback provider → 密钥环境变量。配置未给 api_key 时使用。
var envKeyFallback = map[string]string{
	"gemini": "GEMINI_API_KEY",
	"openai": "OPENAI_API_KEY",
	"":       "GEMINI_API_KEY",
}

// LoadRecords 读取并校验模型配置文件。
func LoadRecords(path string) ([]Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取模型配置失败: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("模型配置不是合法 JSON: %w", err)
	}
	if err := compiledRecordsSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("模型配置校验失败: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("模型配置解码失败: %w", err)
	}
	return records, nil
}

// LoadForPort 加载绑定端口的全部模型实例。
func LoadForPort(path string, port int, parser *decision.Parser, timeout time.Duration) (map[string]*Operator, error) {
	records, err := LoadRecords(path)
	if err != nil {
		return nil, err
	}
	operators := make(map[string]*Operator)
	for _, rec := range records {
		if rec.Port != port {
			continue
		}
		apiKey := rec.APIKey
		if strings.TrimSpace(apiKey) == "" {
			apiKey = os.Getenv(envKeyFallback[strings.ToLower(rec.LLMProvider)])
		}
		gen, err := provider.New(rec.LLMProvider, apiKey, rec.ModelName, timeout)
		if err != nil {
			return nil, fmt.Errorf("模型 %q 初始化失败: %w", rec.ModelID, err)
		}
		operators[rec.ModelID] = NewOperator(gen, parser)
		logger.Infof("已加载模型 %q (%s/%s) port=%d", rec.ModelID, gen.Provider(), gen.Model(), port)
	}
	logger.Infof("端口 %d 共加载 %d 个模型", port, len(operators))
	return operators, nil
}
