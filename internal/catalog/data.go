package catalog

// Default returns the built-in model catalog.
func Default() []ModelDefinition {
	full := []Capability{CapabilityText, CapabilityVision, CapabilityTools, CapabilityStreaming}
	textTools := []Capability{CapabilityText, CapabilityTools, CapabilityStreaming}
	textOnly := []Capability{CapabilityText, CapabilityStreaming}

	return []ModelDefinition{
		{
			ID: "gpt-4o-mini", Provider: "openai", DeploymentName: "gpt-4o-mini",
			Tier: 1, Capabilities: full, ContextWindow: 128000, MaxOutputTokens: 16384,
			CostPer1kInput: 0.00015, CostPer1kOutput: 0.0006, Status: StatusEnabled,
		},
		{
			ID: "gpt-4o", Provider: "openai", DeploymentName: "gpt-4o",
			Tier: 2, Capabilities: full, ContextWindow: 128000, MaxOutputTokens: 16384,
			CostPer1kInput: 0.0025, CostPer1kOutput: 0.01, Status: StatusEnabled,
		},
		{
			ID: "o3", Provider: "openai", DeploymentName: "o3",
			Tier: 3, Capabilities: textTools, ContextWindow: 200000, MaxOutputTokens: 100000,
			CostPer1kInput: 0.01, CostPer1kOutput: 0.04, Status: StatusEnabled,
		},
		{
			ID: "claude-haiku", Provider: "anthropic", DeploymentName: "claude-3-5-haiku-20241022",
			Tier: 1, Capabilities: textTools, ContextWindow: 200000, MaxOutputTokens: 8192,
			CostPer1kInput: 0.0008, CostPer1kOutput: 0.004, Status: StatusEnabled,
		},
		{
			ID: "claude-sonnet", Provider: "anthropic", DeploymentName: "claude-sonnet-4-20250514",
			Tier: 2, Capabilities: full, ContextWindow: 200000, MaxOutputTokens: 64000,
			CostPer1kInput: 0.003, CostPer1kOutput: 0.015, Status: StatusEnabled,
		},
		{
			ID: "claude-opus", Provider: "anthropic", DeploymentName: "claude-opus-4-20250514",
			Tier: 3, Capabilities: full, ContextWindow: 200000, MaxOutputTokens: 32000,
			CostPer1kInput: 0.015, CostPer1kOutput: 0.075, Status: StatusEnabled,
		},
		{
			ID: "llama-3.1-8b", Provider: "local", DeploymentName: "llama-3.1-8b-instant",
			Tier: 1, Capabilities: textTools, ContextWindow: 131072, MaxOutputTokens: 8192,
			Status: StatusEnabled,
		},
		{
			ID: "mistral-7b", Provider: "local", DeploymentName: "mistral-7b-instruct",
			Tier: 1, Capabilities: textOnly, ContextWindow: 32768, MaxOutputTokens: 8192,
			Status: StatusBeta,
		},
	}
}
