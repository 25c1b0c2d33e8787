package catalog

// Status marks whether a model may be selected.
type Status string

const (
	StatusEnabled  Status = "enabled"
	StatusDisabled Status = "disabled"
	StatusBeta     Status = "beta"
)

// Capability names a feature a model supports.
type Capability string

const (
	CapabilityText      Capability = "text"
	CapabilityVision    Capability = "vision"
	CapabilityTools     Capability = "tools"
	CapabilityStreaming Capability = "streaming"
)

// ModelDefinition describes one model. Definitions are immutable at request
// time; the catalog is read-only per request. Tier strictly orders the
// cost/quality tradeoff class (1 cheapest/fastest, 3 strongest), not absolute
// cost.
type ModelDefinition struct {
	ID              string       `json:"id"`
	Provider        string       `json:"provider"`
	DeploymentName  string       `json:"deployment_name"`
	Tier            int          `json:"tier"` // 1..3
	Capabilities    []Capability `json:"capabilities"`
	ContextWindow   int          `json:"context_window"`
	MaxOutputTokens int          `json:"max_output_tokens"`
	CostPer1kInput  float64      `json:"cost_per_1k_input,omitempty"`
	CostPer1kOutput float64      `json:"cost_per_1k_output,omitempty"`
	Status          Status       `json:"status"`
}

// Has reports whether the model supports a capability.
func (m ModelDefinition) Has(c Capability) bool {
	for _, cap := range m.Capabilities {
		if cap == c {
			return true
		}
	}
	return false
}

// BlendedCost returns the per-1k cost used for ordering candidates.
func (m ModelDefinition) BlendedCost() float64 {
	return (m.CostPer1kInput + m.CostPer1kOutput) / 2
}

// Filter narrows a List call. Zero values match everything.
type Filter struct {
	Status         Status
	Provider       string
	Tier           int
	Capability     Capability
	ConfiguredOnly bool
}

// Catalog is the static model registry. The configured callback reports
// whether a provider has usable credentials.
type Catalog struct {
	models     []ModelDefinition
	configured func(provider string) bool
}

// New constructs a catalog. A nil configured callback treats every provider
// as configured.
func New(models []ModelDefinition, configured func(string) bool) *Catalog {
	if configured == nil {
		configured = func(string) bool { return true }
	}
	copied := make([]ModelDefinition, len(models))
	copy(copied, models)
	return &Catalog{models: copied, configured: configured}
}

// List returns the definitions matching the filter, in catalog order.
func (c *Catalog) List(f Filter) []ModelDefinition {
	var out []ModelDefinition
	for _, m := range c.models {
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		if f.Provider != "" && m.Provider != f.Provider {
			continue
		}
		if f.Tier != 0 && m.Tier != f.Tier {
			continue
		}
		if f.Capability != "" && !m.Has(f.Capability) {
			continue
		}
		if f.ConfiguredOnly && !c.configured(m.Provider) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// GetByID returns the definition with the given catalog ID.
func (c *Catalog) GetByID(id string) (ModelDefinition, bool) {
	for _, m := range c.models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelDefinition{}, false
}

// GetByProviderAndName returns the definition matching provider and either
// the catalog ID or the deployment name.
func (c *Catalog) GetByProviderAndName(provider, name string) (ModelDefinition, bool) {
	for _, m := range c.models {
		if m.Provider == provider && (m.ID == name || m.DeploymentName == name) {
			return m, true
		}
	}
	return ModelDefinition{}, false
}

// Configured reports whether the given provider has usable credentials.
func (c *Catalog) Configured(provider string) bool {
	return c.configured(provider)
}
