package llm

import (
	"fmt"

	"modelrelay/internal/config"
)

// NewProvider creates a provider adapter from config. Providers without a
// native SDK adapter fall through to the OpenAI-compatible one.
func NewProvider(name string, cfg config.ProviderConfig) (Provider, error) {
	switch name {
	case "openai":
		if cfg.APIKey == "" {
			return nil, &ProviderError{Provider: name, Type: ErrorAuth, Body: "api key not configured"}
		}
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		}), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, &ProviderError{Provider: name, Type: ErrorAuth, Body: "api key not configured"}
		}
		return NewAnthropicProvider(AnthropicConfig{
			APIKey: cfg.APIKey,
		}), nil
	case "local", "openrouter", "nvidia", "azure":
		return NewCompatProvider(CompatConfig{
			Name:    name,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Headers: cfg.Headers,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
}

// NewRegistryFromConfig builds the lazy provider cache over the configured
// provider set.
func NewRegistryFromConfig(cfg *config.Config) *Registry {
	return NewRegistry(func(name string) (Provider, error) {
		pc, ok := cfg.Providers[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
		}
		return NewProvider(name, pc)
	})
}
