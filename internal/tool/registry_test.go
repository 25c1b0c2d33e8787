package tool

import (
	"context"
	"encoding/json"
	"testing"
)

type mockTool struct {
	name string
}

func (m *mockTool) Name() string        { return m.name }
func (m *mockTool) Description() string { return "test tool" }
func (m *mockTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{}}`)
}
func (m *mockTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	return &Result{Output: "executed " + m.name}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockTool{name: "alpha"})
	r.Register(&mockTool{name: "beta"})

	got, err := r.Get("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name() != "alpha" {
		t.Fatalf("expected alpha, got %s", got.Name())
	}

	if _, err := r.Get("nonexistent"); err == nil {
		t.Fatal("expected error for nonexistent tool")
	}
}

func TestRegistryDefinitionsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockTool{name: "zeta"})
	r.Register(&mockTool{name: "alpha"})
	r.Register(&mockTool{name: "mid"})

	defs := r.Definitions()
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, d := range defs {
		if d.Name != want[i] {
			t.Fatalf("definitions order = %v at %d, want %v", d.Name, i, want)
		}
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockTool{name: "gone"})
	r.Unregister("gone")
	if _, err := r.Get("gone"); err == nil {
		t.Fatal("expected error after unregister")
	}
}
