package config

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      8080,
			RateLimit: 10,
			RateBurst: 20,
		},
		Generation: GenerationConfig{
			SystemPrompt:  "You are a helpful AI assistant. You can use tools to accomplish tasks.",
			MaxTokens:     4096,
			Temperature:   0.7,
			MaxToolRounds: 8,
			HistoryLimit:  50,
			TimeoutSecs:   120,
		},
		Classifier: ClassifierConfig{
			Strategy:    "heuristic",
			TimeoutSecs: 10,
		},
		Providers: map[string]ProviderConfig{},
		Store: StoreConfig{
			Path: "modelrelay.db",
		},
		Tools: ToolsConfig{
			ShellTimeoutSecs: 60,
			MaxOutputChars:   10000,
			SandboxEnabled:   true,
			WebSearchEnabled: true,
		},
	}
}
