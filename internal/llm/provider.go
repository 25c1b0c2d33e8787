package llm

import (
	"context"
	"fmt"
)

// Provider is the interface all model backends must implement.
type Provider interface {
	// Chat sends a chat completion request and returns the full response.
	Chat(ctx context.Context, req *ChatRequest) (*Response, error)

	// StreamChat sends a streaming chat completion request. The returned
	// channel is finite, not restartable, and closed when the stream ends.
	// Cancelling ctx halts the underlying vendor call.
	StreamChat(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error)

	// Name returns the provider name (e.g. "openai", "anthropic").
	Name() string
}

// ErrorType classifies provider errors for fallback decisions.
type ErrorType int

const (
	ErrorUnknown      ErrorType = iota
	ErrorRateLimit              // 429
	ErrorAuth                   // 401/403, missing or bad credentials
	ErrorInvalidInput           // 400
	ErrorServerError            // 500+
	ErrorTimeout                // context deadline exceeded
	ErrorNetwork                // connection refused, DNS, etc.
)

// ProviderError wraps a vendor failure with a classification for fallback
// logic. Status and Body carry the raw HTTP surface when available.
type ProviderError struct {
	Provider string
	Type     ErrorType
	Status   int
	Body     string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Body)
	}
	if e.Err != nil {
		return e.Provider + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Body
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Blocking reports whether the failure is an auth/config problem that makes
// further use of this provider pointless for the remainder of the turn.
func (e *ProviderError) Blocking() bool {
	return e.Type == ErrorAuth || e.Type == ErrorInvalidInput
}

// classifyStatus maps an HTTP status code onto an ErrorType.
func classifyStatus(status int) ErrorType {
	switch {
	case status == 401 || status == 403:
		return ErrorAuth
	case status == 429:
		return ErrorRateLimit
	case status >= 400 && status < 500:
		return ErrorInvalidInput
	case status >= 500:
		return ErrorServerError
	default:
		return ErrorUnknown
	}
}
