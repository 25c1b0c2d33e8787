package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"modelrelay/internal/catalog"
	"modelrelay/internal/classify"
	"modelrelay/internal/config"
	"modelrelay/internal/llm"
	"modelrelay/internal/orchestrator"
	"modelrelay/internal/route"
	"modelrelay/internal/store"
	"modelrelay/internal/tool"
)

type stubProvider struct {
	text string
}

func (p *stubProvider) Name() string { return "alpha" }

func (p *stubProvider) Chat(context.Context, *llm.ChatRequest) (*llm.Response, error) {
	return &llm.Response{Content: p.text, FinishReason: llm.FinishStop}, nil
}

func (p *stubProvider) StreamChat(context.Context, *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk, 3)
	ch <- llm.StreamChunk{Text: p.text}
	ch <- llm.StreamChunk{FinishReason: llm.FinishStop, Usage: &llm.Usage{PromptTokens: 8, CompletionTokens: 4, TotalTokens: 12}}
	close(ch)
	return ch, nil
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *store.SQLiteStore) {
	t.Helper()
	if cfg == nil {
		cfg = config.Defaults()
	}

	models := []catalog.ModelDefinition{
		{ID: "alpha-small", Provider: "alpha", DeploymentName: "alpha-small", Tier: 1,
			Capabilities: []catalog.Capability{catalog.CapabilityText}, Status: catalog.StatusEnabled},
	}
	cat := catalog.New(models, nil)
	selector := route.NewSelector(cat, func(n string) bool { return n == "alpha" })

	registry := llm.NewRegistry(func(string) (llm.Provider, error) { return nil, errors.New("unseeded") })
	registry.Put("alpha", &stubProvider{text: "hello from alpha"})

	logger := log.New(io.Discard, "", 0)
	orch := orchestrator.New(
		classify.New(classify.NewHeuristic(), nil, logger),
		selector, registry, tool.NewRegistry(),
		cfg.Generation, logger,
	)

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return New(cfg, orch, st, cat, logger), st
}

func postTurn(t *testing.T, s *Server, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/v1/turns", strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestTurnEndpointStreamsSSE(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := postTurn(t, s, map[string]any{"message": "say hello"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	for _, name := range []string{"event: classification", "event: model_selected", "event: delta", "event: final"} {
		if !strings.Contains(body, name) {
			t.Errorf("missing %q in stream:\n%s", name, body)
		}
	}
	if !strings.Contains(body, "hello from alpha") {
		t.Errorf("final text missing:\n%s", body)
	}
	if strings.Contains(body, "event: error") {
		t.Errorf("unexpected error event:\n%s", body)
	}
}

func TestTurnPersistsConversation(t *testing.T) {
	s, st := newTestServer(t, nil)
	rec := postTurn(t, s, map[string]any{"message": "remember this", "conversation_id": "conv-9"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	history, err := st.GetHistory(context.Background(), "conv-9", 10)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want user + assistant", len(history))
	}
	if history[0].Role != "user" || history[1].Role != "assistant" {
		t.Errorf("history roles = %s/%s", history[0].Role, history[1].Role)
	}

	turns, err := st.GetTurns(context.Background(), "conv-9", 10)
	if err != nil {
		t.Fatalf("GetTurns: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("turns = %d, want 1", len(turns))
	}
	if turns[0].Provider != "alpha" || turns[0].TotalTokens != 12 {
		t.Errorf("artifact = %+v", turns[0])
	}
	if !strings.Contains(turns[0].Header, "intent:") {
		t.Errorf("serialized header missing: %q", turns[0].Header)
	}
}

func TestInvalidModeRejected(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := postTurn(t, s, map[string]any{"message": "hi", "mode": "turbo"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUnknownOverrideRejectedBeforeStreaming(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := postTurn(t, s, map[string]any{"message": "hi", "model": "alpha:no-such-model"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if strings.Contains(rec.Header().Get("Content-Type"), "text/event-stream") {
		t.Error("error should be JSON, not an event stream")
	}
}

func TestBearerAuth(t *testing.T) {
	cfg := config.Defaults()
	cfg.Server.AuthToken = "sekrit"
	s, _ := newTestServer(t, cfg)

	rec := postTurn(t, s, map[string]any{"message": "hi"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without token: status = %d, want 401", rec.Code)
	}

	data, _ := json.Marshal(map[string]any{"message": "hi"})
	req := httptest.NewRequest(http.MethodPost, "/v1/turns", strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer sekrit")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("with token: status = %d, want 200", rec.Code)
	}

	// Health stays open.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health: status = %d, want 200", rec.Code)
	}
}

func TestModelsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Models []struct {
			ID         string `json:"id"`
			Configured bool   `json:"configured"`
		} `json:"models"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Models) != 1 || body.Models[0].ID != "alpha-small" {
		t.Errorf("models = %+v", body.Models)
	}
	if !body.Models[0].Configured {
		t.Error("configured flag missing")
	}
}

func TestEmptyMessageStillFinalizes(t *testing.T) {
	// An empty message classifies as clarify and must not call out before
	// routing; the turn still completes normally.
	s, _ := newTestServer(t, nil)
	rec := postTurn(t, s, map[string]any{"message": "   "})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "event: final") {
		t.Errorf("missing final event:\n%s", rec.Body.String())
	}
}
