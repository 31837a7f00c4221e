package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"inferhost/internal/decision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModels(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRecords(t *testing.T) {
	path := writeModels(t, `[
  {"port": 5557, "model_id": "gem", "llm_provider": "gemini", "api_key": "k1", "model_name": "gemini-2.0-flash-exp"},
  {"port": 5558, "model_id": "gpt", "llm_provider": "openai", "api_key": "k2", "model_name": "gpt-4o-mini"}
]`)
	records, err := LoadRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "gem", records[0].ModelID)
	assert.Equal(t, 5558, records[1].Port)
}

func TestLoadRecordsSchemaRejection(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"不是数组", `{"port": 5557}`},
		{"缺少 model_id", `[{"port": 5557}]`},
		{"端口越界", `[{"port": 70000, "model_id": "x"}]`},
		{"provider 不认识", `[{"port": 5557, "model_id": "x", "llm_provider": "claude"}]`},
		{"不是 JSON", `port=5557`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeModels(t, tt.content)
			_, err := LoadRecords(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadForPortFiltering(t *testing.T) {
	path := writeModels(t, `[
  {"port": 5557, "model_id": "a", "llm_provider": "gemini", "api_key": "k", "model_name": "m"},
  {"port": 5557, "model_id": "b", "llm_provider": "openai", "api_key": "k", "model_name": "m"},
  {"port": 6000, "model_id": "c", "llm_provider": "gemini", "api_key": "k", "model_name": "m"}
]`)
	parser := decision.NewParser("", decision.DefaultThresholds())
	ops, err := LoadForPort(path, 5557, parser, time.Second)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Contains(t, ops, "a")
	assert.Contains(t, ops, "b")
	assert.NotContains(t, ops, "c")
	assert.Equal(t, "gemini_m", ops["a"].ModelType())
	assert.Equal(t, "openai_m", ops["b"].ModelType())
}

func TestLoadForPortEnvKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	path := writeModels(t, `[
  {"port": 5557, "model_id": "a", "llm_provider": "gemini", "model_name": "m"}
]`)
	parser := decision.NewParser("", decision.DefaultThresholds())
	ops, err := LoadForPort(path, 5557, parser, time.Second)
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}

func TestLoadRecordsMissingFile(t *testing.T) {
	_, err := LoadRecords(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
