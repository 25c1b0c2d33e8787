package llm

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownProvider indicates no adapter is configured under that name.
var ErrUnknownProvider = errors.New("unknown provider")

// Registry is a process-lifetime provider cache. Adapters are constructed
// lazily on first use and safe for concurrent reuse once created.
type Registry struct {
	mu        sync.Mutex
	providers map[string]Provider
	build     func(name string) (Provider, error)
}

// NewRegistry creates a registry backed by the given constructor.
func NewRegistry(build func(name string) (Provider, error)) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		build:     build,
	}
}

// Get returns the cached adapter for name, constructing it on first use.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	p, err := r.build(name)
	if err != nil {
		return nil, fmt.Errorf("construct provider %q: %w", name, err)
	}
	r.providers[name] = p
	return p, nil
}

// Put pre-seeds an adapter, replacing any cached instance. Used by tests and
// by callers that construct adapters out of band.
func (r *Registry) Put(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}
