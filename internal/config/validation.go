package config

import (
	"fmt"
	"strings"
)

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port 非法: %d", cfg.Server.Port)
	}
	if strings.TrimSpace(cfg.Models.Path) == "" {
		return fmt.Errorf("models.path 不能为空")
	}
	if cfg.Parser.SpuriousMagnitude <= 0 {
		return fmt.Errorf("parser.spurious_magnitude 必须为正: %v", cfg.Parser.SpuriousMagnitude)
	}
	if cfg.Parser.SuspectRaw <= 0 {
		return fmt.Errorf("parser.suspect_raw 必须为正: %v", cfg.Parser.SuspectRaw)
	}
	if cfg.Parser.SuspectClamped <= 0 {
		return fmt.Errorf("parser.suspect_clamped 必须为正: %v", cfg.Parser.SuspectClamped)
	}
	if cfg.LLM.TimeoutSeconds <= 0 {
		return fmt.Errorf("llm.timeout_seconds 必须为正: %d", cfg.LLM.TimeoutSeconds)
	}
	return nil
}
