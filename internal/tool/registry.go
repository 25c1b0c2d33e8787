package tool

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"modelrelay/internal/config"
	"modelrelay/internal/llm"
)

// Registry holds the tools available to a turn. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// NewRegistryFromConfig builds the default tool set.
func NewRegistryFromConfig(cfg config.ToolsConfig) *Registry {
	r := NewRegistry()
	r.Register(NewCalculatorTool())
	if cfg.WorkspaceDir != "" {
		r.Register(NewFilesystemTool(cfg.WorkspaceDir))
		r.Register(NewShellTool(ShellConfig{
			WorkspaceDir:   cfg.WorkspaceDir,
			TimeoutSecs:    cfg.ShellTimeoutSecs,
			MaxOutputChars: cfg.MaxOutputChars,
			SandboxEnabled: cfg.SandboxEnabled,
		}))
	}
	if cfg.WebSearchEnabled {
		r.Register(NewWebSearchTool())
	}
	return r
}

func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return t, nil
}

func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Definitions returns the tool declarations sent with model requests, in
// stable name order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	tools := r.List()
	defs := make([]llm.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  json.RawMessage(t.Parameters()),
		})
	}
	return defs
}
