package config

import (
	"fmt"
	"strings"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig              `yaml:"server"`
	Generation GenerationConfig          `yaml:"generation"`
	Classifier ClassifierConfig          `yaml:"classifier"`
	Providers  map[string]ProviderConfig `yaml:"providers"`
	Store      StoreConfig               `yaml:"store"`
	Tools      ToolsConfig               `yaml:"tools"`
}

// ServerConfig defines the HTTP listener and its request guards.
type ServerConfig struct {
	Port      int     `yaml:"port"`
	AuthToken string  `yaml:"auth_token,omitempty"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst int     `yaml:"rate_burst"`
}

// GenerationConfig bounds a single turn.
type GenerationConfig struct {
	SystemPrompt  string  `yaml:"system_prompt"`
	MaxTokens     int     `yaml:"max_tokens"`
	Temperature   float64 `yaml:"temperature"`
	MaxToolRounds int     `yaml:"max_tool_rounds"`
	HistoryLimit  int     `yaml:"history_limit"`
	TimeoutSecs   int     `yaml:"timeout_secs"`
}

// ClassifierConfig selects and tunes the classification strategy.
type ClassifierConfig struct {
	Strategy    string `yaml:"strategy"` // "header" or "heuristic"
	Provider    string `yaml:"provider,omitempty"`
	Model       string `yaml:"model,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ProviderConfig captures credentials and routing info for one backend.
// An empty APIKey is resolved from the environment and OS keyring at startup.
type ProviderConfig struct {
	APIKey  string            `yaml:"api_key,omitempty"`
	BaseURL string            `yaml:"base_url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ToolsConfig configures the built-in tool set.
type ToolsConfig struct {
	WorkspaceDir     string `yaml:"workspace_dir,omitempty"`
	ShellTimeoutSecs int    `yaml:"shell_timeout_secs"`
	MaxOutputChars   int    `yaml:"max_output_chars"`
	SandboxEnabled   bool   `yaml:"sandbox_enabled"`
	WebSearchEnabled bool   `yaml:"web_search_enabled"`
}

// ProviderConfigured reports whether a provider has usable credentials. A
// provider with a base URL and no key (a local endpoint) counts as configured.
func (c *Config) ProviderConfigured(name string) bool {
	pc, ok := c.Providers[name]
	if !ok {
		return false
	}
	return pc.APIKey != "" || pc.BaseURL != ""
}

// Validate performs sanity checks on the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}
	if c.Generation.MaxToolRounds <= 0 {
		return fmt.Errorf("generation.max_tool_rounds must be positive, got %d", c.Generation.MaxToolRounds)
	}
	switch c.Classifier.Strategy {
	case "header", "heuristic":
	default:
		return fmt.Errorf("classifier.strategy must be %q or %q, got %q", "header", "heuristic", c.Classifier.Strategy)
	}
	if c.Classifier.Strategy == "header" && c.Classifier.Provider == "" {
		return fmt.Errorf("classifier.provider must be set for the header strategy")
	}
	for name := range c.Providers {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("provider name must not be empty")
		}
	}
	return nil
}
