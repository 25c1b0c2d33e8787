// Package store persists conversation history and terminal turn artifacts.
package store

import (
	"context"
	"time"

	"modelrelay/internal/llm"
)

// Turn is the persisted artifact of one completed turn.
type Turn struct {
	ID               string    `json:"id"`
	ConversationID   string    `json:"conversation_id"`
	Text             string    `json:"text"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	Header           string    `json:"header"` // serialized routing header
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	ToolRounds       int       `json:"tool_rounds"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store is the persistence boundary.
type Store interface {
	SaveMessage(ctx context.Context, conversationID string, msg llm.Message) error
	GetHistory(ctx context.Context, conversationID string, limit int) ([]llm.Message, error)
	SaveTurn(ctx context.Context, turn Turn) error
	GetTurns(ctx context.Context, conversationID string, limit int) ([]Turn, error)
	Close() error
}
