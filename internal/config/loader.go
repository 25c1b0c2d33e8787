package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads YAML configuration from disk, layered over defaults, and
// validates the result. Missing provider API keys are resolved from the
// environment (<PROVIDER>_API_KEY).
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", absPath, err)
	}

	cfg.resolveEnvKeys()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveEnvKeys fills empty api_key fields from the environment.
func (c *Config) resolveEnvKeys() {
	for name, pc := range c.Providers {
		if pc.APIKey != "" {
			continue
		}
		envName := strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_API_KEY"
		if v := os.Getenv(envName); v != "" {
			pc.APIKey = v
			c.Providers[name] = pc
		}
	}
}
