package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5557, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Bind)
	assert.Equal(t, "DOGE_USDT_PERP", cfg.Trading.DefaultInst)
	assert.Equal(t, float64(1000), cfg.Parser.SpuriousMagnitude)
	assert.Equal(t, 60, cfg.LLM.TimeoutSeconds)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: debug
server:
  port: 6001
  status_addr: "127.0.0.1:8080"
models:
  path: /etc/inferhost/models.json
trading:
  default_inst: ETH_USDT_PERP
parser:
  suspect_raw: 20
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, 6001, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.StatusAddr)
	assert.Equal(t, "/etc/inferhost/models.json", cfg.Models.Path)
	assert.Equal(t, "ETH_USDT_PERP", cfg.Trading.DefaultInst)
	assert.Equal(t, float64(20), cfg.Parser.SuspectRaw)
	// 未覆盖的键保持默认
	assert.Equal(t, float64(0.01), cfg.Parser.SuspectClamped)
}

func TestLoadEnvPortOverride(t *testing.T) {
	t.Setenv(EnvPort, "7001")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
}

func TestLoadValidation(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 99999
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "server.port")

	path = writeConfig(t, `
models:
  path: ""
`)
	_, err = Load(path)
	assert.ErrorContains(t, err, "models.path")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
