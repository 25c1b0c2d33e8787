package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"modelrelay/internal/llm"
)

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies
// migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *SQLiteStore) SaveMessage(ctx context.Context, conversationID string, msg llm.Message) error {
	var toolCallsJSON *string
	if len(msg.ToolCalls) > 0 {
		data, _ := json.Marshal(msg.ToolCalls)
		v := string(data)
		toolCallsJSON = &v
	}
	var toolCallID *string
	if msg.ToolCallID != "" {
		toolCallID = &msg.ToolCallID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, tool_calls, tool_call_id) VALUES (?, ?, ?, ?, ?)`,
		conversationID, msg.Role, msg.Content, toolCallsJSON, toolCallID,
	)
	return err
}

// GetHistory returns up to limit most recent messages in chronological order.
func (s *SQLiteStore) GetHistory(ctx context.Context, conversationID string, limit int) ([]llm.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, tool_calls, tool_call_id FROM (
			SELECT role, content, tool_calls, tool_call_id, id
			FROM messages WHERE conversation_id = ? ORDER BY id DESC LIMIT ?
		) sub ORDER BY id ASC`,
		conversationID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []llm.Message
	for rows.Next() {
		var msg llm.Message
		var toolCallsJSON, toolCallID sql.NullString
		if err := rows.Scan(&msg.Role, &msg.Content, &toolCallsJSON, &toolCallID); err != nil {
			return nil, err
		}
		if toolCallsJSON.Valid {
			_ = json.Unmarshal([]byte(toolCallsJSON.String), &msg.ToolCalls)
		}
		if toolCallID.Valid {
			msg.ToolCallID = toolCallID.String
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// SaveTurn persists a terminal artifact. A missing ID is filled in.
func (s *SQLiteStore) SaveTurn(ctx context.Context, turn Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (id, conversation_id, text, provider, model, header,
			prompt_tokens, completion_tokens, total_tokens, tool_rounds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.ConversationID, turn.Text, turn.Provider, turn.Model, turn.Header,
		turn.PromptTokens, turn.CompletionTokens, turn.TotalTokens, turn.ToolRounds, turn.CreatedAt,
	)
	return err
}

// GetTurns returns up to limit most recent turns, newest first.
func (s *SQLiteStore) GetTurns(ctx context.Context, conversationID string, limit int) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, text, provider, model, header,
			prompt_tokens, completion_tokens, total_tokens, tool_rounds, created_at
		FROM turns WHERE conversation_id = ? ORDER BY created_at DESC LIMIT ?`,
		conversationID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var header sql.NullString
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.Text, &t.Provider, &t.Model, &header,
			&t.PromptTokens, &t.CompletionTokens, &t.TotalTokens, &t.ToolRounds, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Header = header.String
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
