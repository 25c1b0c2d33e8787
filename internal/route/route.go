// Package route resolves a classification header plus caller overrides into
// an ordered list of model candidates.
package route

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"modelrelay/internal/catalog"
	"modelrelay/internal/classify"
)

// ErrNoModelsConfigured reports that no enabled, credential-configured model
// exists at all. This is a system-side condition (5xx class).
var ErrNoModelsConfigured = errors.New("route: no models configured")

// ErrModelNotAvailable reports that the caller's explicit override names a
// model the catalog cannot resolve. This is a caller-side condition (4xx
// class).
var ErrModelNotAvailable = errors.New("route: requested model not available")

// Preferences carries caller overrides for one turn.
type Preferences struct {
	// Override is the raw "provider:model", bare provider, or bare model
	// string from the request. Empty means auto-routing.
	Override string
	// Mode, when set, replaces the classified lane outright.
	Mode classify.Lane
	// Speed lowers the effective target tier by one (floor 1).
	Speed bool
}

// Candidate pairs a model with the reason it was chosen, for status events.
type Candidate struct {
	Model  catalog.ModelDefinition
	Reason string
}

// Selector resolves candidates against the catalog. The knownProvider
// callback distinguishes a bare provider override from a bare model override.
type Selector struct {
	catalog       *catalog.Catalog
	knownProvider func(name string) bool
}

func NewSelector(cat *catalog.Catalog, knownProvider func(string) bool) *Selector {
	if knownProvider == nil {
		knownProvider = func(string) bool { return false }
	}
	return &Selector{catalog: cat, knownProvider: knownProvider}
}

// SelectCandidates resolves the primary candidate and its fallback pool.
// The primary is element 0; the pool holds every other enabled, configured
// model sorted by tier distance from the target, then cost.
func (s *Selector) SelectCandidates(header classify.Header, prefs Preferences) ([]Candidate, error) {
	pool := s.catalog.List(catalog.Filter{Status: catalog.StatusEnabled, ConfiguredOnly: true})
	if len(pool) == 0 {
		return nil, ErrNoModelsConfigured
	}

	target := header.Tier
	if prefs.Mode != "" {
		target = classify.TierForLane(prefs.Mode)
	}
	if prefs.Speed && target > 1 {
		target--
	}

	primary, reason, err := s.resolvePrimary(pool, target, prefs.Override)
	if err != nil {
		return nil, err
	}

	candidates := []Candidate{{Model: primary, Reason: reason}}
	rest := make([]Candidate, 0, len(pool))
	for _, m := range pool {
		if m.ID == primary.ID {
			continue
		}
		rest = append(rest, Candidate{Model: m, Reason: "fallback"})
	}
	sort.SliceStable(rest, func(i, j int) bool {
		di, dj := tierDistance(rest[i].Model.Tier, target), tierDistance(rest[j].Model.Tier, target)
		if di != dj {
			return di < dj
		}
		return rest[i].Model.BlendedCost() < rest[j].Model.BlendedCost()
	})
	return append(candidates, rest...), nil
}

// resolvePrimary applies the resolution order: explicit provider+model, then
// provider-only narrowing, then cheapest at the target tier widening only
// downward.
func (s *Selector) resolvePrimary(pool []catalog.ModelDefinition, target int, override string) (catalog.ModelDefinition, string, error) {
	override = strings.TrimSpace(override)
	switch {
	case override == "":
		m, ok := cheapestAtOrBelow(pool, target)
		if !ok {
			return catalog.ModelDefinition{}, "", ErrNoModelsConfigured
		}
		return m, "auto", nil

	case strings.Contains(override, ":"):
		provider, model, _ := strings.Cut(override, ":")
		m, ok := s.catalog.GetByProviderAndName(provider, model)
		if !ok || m.Status != catalog.StatusEnabled || !s.catalog.Configured(m.Provider) {
			return catalog.ModelDefinition{}, "", fmt.Errorf("%w: %s", ErrModelNotAvailable, override)
		}
		return m, "override", nil

	case s.knownProvider(override):
		narrowed := filterProvider(pool, override)
		if len(narrowed) == 0 {
			return catalog.ModelDefinition{}, "", fmt.Errorf("%w: no models for provider %s", ErrModelNotAvailable, override)
		}
		if m, ok := cheapestAtOrBelow(narrowed, target); ok {
			return m, "provider override", nil
		}
		// No model at or below the target tier; any tier for that provider.
		sort.SliceStable(narrowed, func(i, j int) bool {
			if narrowed[i].Tier != narrowed[j].Tier {
				return narrowed[i].Tier < narrowed[j].Tier
			}
			return narrowed[i].BlendedCost() < narrowed[j].BlendedCost()
		})
		return narrowed[0], "provider override", nil

	default:
		for _, m := range pool {
			if m.ID == override || m.DeploymentName == override {
				return m, "override", nil
			}
		}
		return catalog.ModelDefinition{}, "", fmt.Errorf("%w: %s", ErrModelNotAvailable, override)
	}
}

// cheapestAtOrBelow picks the lowest-cost model at the target tier, widening
// to the next lower tier when the target tier is empty. It never widens
// upward.
func cheapestAtOrBelow(pool []catalog.ModelDefinition, target int) (catalog.ModelDefinition, bool) {
	for tier := target; tier >= 1; tier-- {
		var best catalog.ModelDefinition
		found := false
		for _, m := range pool {
			if m.Tier != tier {
				continue
			}
			if !found || m.BlendedCost() < best.BlendedCost() {
				best = m
				found = true
			}
		}
		if found {
			return best, true
		}
	}
	return catalog.ModelDefinition{}, false
}

func filterProvider(pool []catalog.ModelDefinition, provider string) []catalog.ModelDefinition {
	var out []catalog.ModelDefinition
	for _, m := range pool {
		if m.Provider == provider {
			out = append(out, m)
		}
	}
	return out
}

func tierDistance(tier, target int) int {
	if tier > target {
		return tier - target
	}
	return target - tier
}
