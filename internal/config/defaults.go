package config

// 各小节默认值。配置文件可以只写需要覆盖的键。
func Default() *Config {
	return &Config{
		App: AppConfig{
			Env:      "dev",
			LogLevel: "info",
		},
		Server: ServerConfig{
			Bind:       "0.0.0.0",
			Port:       5557,
			StatusAddr: "",
		},
		Models: ModelsConfig{
			Path: "configs/models.json",
		},
		Trading: TradingConfig{
			DefaultInst: "DOGE_USDT_PERP",
		},
		Parser: ParserConfig{
			SpuriousMagnitude: 1000,
			SuspectRaw:        10,
			SuspectClamped:    0.01,
		},
		LLM: LLMConfig{
			TimeoutSeconds: 60,
		},
	}
}
