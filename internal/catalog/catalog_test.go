package catalog

import "testing"

func TestListFilters(t *testing.T) {
	cat := New(Default(), func(p string) bool { return p == "openai" })

	all := cat.List(Filter{})
	if len(all) != len(Default()) {
		t.Fatalf("unfiltered length = %d, want %d", len(all), len(Default()))
	}

	enabled := cat.List(Filter{Status: StatusEnabled})
	for _, m := range enabled {
		if m.Status != StatusEnabled {
			t.Errorf("%s has status %s", m.ID, m.Status)
		}
	}

	configured := cat.List(Filter{ConfiguredOnly: true})
	for _, m := range configured {
		if m.Provider != "openai" {
			t.Errorf("%s from unconfigured provider %s", m.ID, m.Provider)
		}
	}

	tier3 := cat.List(Filter{Tier: 3})
	for _, m := range tier3 {
		if m.Tier != 3 {
			t.Errorf("%s has tier %d", m.ID, m.Tier)
		}
	}

	withTools := cat.List(Filter{Capability: CapabilityTools})
	for _, m := range withTools {
		if !m.Has(CapabilityTools) {
			t.Errorf("%s lacks tools capability", m.ID)
		}
	}
}

func TestGetByID(t *testing.T) {
	cat := New(Default(), nil)
	m, ok := cat.GetByID("gpt-4o-mini")
	if !ok || m.Provider != "openai" {
		t.Errorf("GetByID = %+v, %v", m, ok)
	}
	if _, ok := cat.GetByID("nope"); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestGetByProviderAndName(t *testing.T) {
	cat := New(Default(), nil)

	// Catalog ID and deployment name both resolve.
	if _, ok := cat.GetByProviderAndName("anthropic", "claude-sonnet"); !ok {
		t.Error("catalog id lookup failed")
	}
	if _, ok := cat.GetByProviderAndName("anthropic", "claude-sonnet-4-20250514"); !ok {
		t.Error("deployment name lookup failed")
	}
	if _, ok := cat.GetByProviderAndName("openai", "claude-sonnet"); ok {
		t.Error("provider mismatch should miss")
	}
}
