// Package tool is the external tool boundary: tool failures are data returned
// to the model, never pipeline errors.
package tool

import (
	"context"
	"encoding/json"
)

// Tool is one callable capability exposed to the model.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage // JSON Schema
	Execute(ctx context.Context, args json.RawMessage) (*Result, error)
}

// Result is the outcome of a tool execution. IsError marks a failure the
// model should see and react to; it is not a Go error.
type Result struct {
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
	IsError bool   `json:"is_error"`
}

// ErrorResult builds a failure Result.
func ErrorResult(msg string) *Result {
	return &Result{Error: msg, IsError: true}
}
