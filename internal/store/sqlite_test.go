package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"modelrelay/internal/llm"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMessageRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	msgs := []llm.Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "", ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "shell", Arguments: json.RawMessage(`{"command":"ls"}`)},
		}},
		{Role: "tool", Content: "file.txt", ToolCallID: "call_1"},
		{Role: "assistant", Content: "there is one file"},
	}
	for _, m := range msgs {
		if err := s.SaveMessage(ctx, "conv-1", m); err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
	}

	got, err := s.GetHistory(ctx, "conv-1", 50)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("history length = %d, want 4", len(got))
	}
	if got[0].Content != "hello" || got[3].Content != "there is one file" {
		t.Errorf("chronological order broken: %+v", got)
	}
	if len(got[1].ToolCalls) != 1 || got[1].ToolCalls[0].ID != "call_1" {
		t.Errorf("tool calls lost: %+v", got[1])
	}
	if got[2].ToolCallID != "call_1" {
		t.Errorf("tool call id lost: %+v", got[2])
	}
}

func TestHistoryLimitKeepsMostRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		msg := llm.Message{Role: "user", Content: string(rune('a' + i))}
		if err := s.SaveMessage(ctx, "conv-1", msg); err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
	}

	got, err := s.GetHistory(ctx, "conv-1", 3)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("history length = %d, want 3", len(got))
	}
	if got[0].Content != "h" || got[2].Content != "j" {
		t.Errorf("expected the 3 newest messages in order, got %+v", got)
	}
}

func TestHistoryIsolatedByConversation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.SaveMessage(ctx, "conv-a", llm.Message{Role: "user", Content: "a"})
	s.SaveMessage(ctx, "conv-b", llm.Message{Role: "user", Content: "b"})

	got, err := s.GetHistory(ctx, "conv-a", 10)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(got) != 1 || got[0].Content != "a" {
		t.Errorf("conversation isolation broken: %+v", got)
	}
}

func TestTurnRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	turn := Turn{
		ConversationID:   "conv-1",
		Text:             "final answer",
		Provider:         "openai",
		Model:            "gpt-4o-mini",
		Header:           "<<<ROUTE\nintent: chat_qa\nROUTE>>>",
		PromptTokens:     100,
		CompletionTokens: 20,
		TotalTokens:      120,
		ToolRounds:       2,
	}
	if err := s.SaveTurn(ctx, turn); err != nil {
		t.Fatalf("SaveTurn: %v", err)
	}

	got, err := s.GetTurns(ctx, "conv-1", 10)
	if err != nil {
		t.Fatalf("GetTurns: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("turns = %d, want 1", len(got))
	}
	if got[0].ID == "" {
		t.Error("turn ID not assigned")
	}
	if got[0].Text != "final answer" || got[0].TotalTokens != 120 || got[0].ToolRounds != 2 {
		t.Errorf("turn fields lost: %+v", got[0])
	}
	if got[0].Header != turn.Header {
		t.Errorf("header = %q, want %q", got[0].Header, turn.Header)
	}
}
