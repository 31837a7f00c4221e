package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvConfigPath 指定配置文件路径的环境变量，优先级低于命令行参数。
const EnvConfigPath = "INFERHOST_CONFIG"

// EnvPort 覆盖服务端口的环境变量，优先级低于命令行 --port。
const EnvPort = "INFER_PORT"

// Load 读取配置文件并套用默认值。path 为空时返回纯默认配置。
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败 (%s): %w", path, err)
		}
		if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
			dc.TagName = "yaml"
			dc.WeaklyTypedInput = true
		}); err != nil {
			return nil, fmt.Errorf("解析配置失败: %w", err)
		}
	}
	applyEnvOverrides(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides 环境变量覆盖，目前只认端口。
func applyEnvOverrides(cfg *Config) {
	if raw := strings.TrimSpace(os.Getenv(EnvPort)); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil {
			cfg.Server.Port = port
		}
	}
}
