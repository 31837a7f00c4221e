package config

// 中文说明：
// 进程配置。YAML 文件 + 环境变量覆盖，结构尽量扁平，
// 每个小节对应一个子系统。

type Config struct {
	App     AppConfig     `yaml:"app"`
	Server  ServerConfig  `yaml:"server"`
	Models  ModelsConfig  `yaml:"models"`
	Trading TradingConfig `yaml:"trading"`
	Parser  ParserConfig  `yaml:"parser"`
	LLM     LLMConfig     `yaml:"llm"`
}

type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	LogPath  string `yaml:"log_path"`
	LLMLog   string `yaml:"llm_log"`
	LLMDump  bool   `yaml:"llm_dump"`
}

type ServerConfig struct {
	Bind       string `yaml:"bind"`
	Port       int    `yaml:"port"`
	StatusAddr string `yaml:"status_addr"`
}

type ModelsConfig struct {
	Path string `yaml:"path"`
}

type TradingConfig struct {
	DefaultInst string `yaml:"default_inst"`
	Style       string `yaml:"style"`
	StylePath   string `yaml:"style_path"`
}

type ParserConfig struct {
	SpuriousMagnitude float64 `yaml:"spurious_magnitude"`
	SuspectRaw        float64 `yaml:"suspect_raw"`
	SuspectClamped    float64 `yaml:"suspect_clamped"`
}

type LLMConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}
