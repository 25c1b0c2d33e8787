// Package events carries the ordered turn-progress stream from the
// orchestrator to the caller.
package events

import (
	"time"
)

// Type names one event in the output protocol.
type Type string

const (
	// Status events, one per phase transition.
	TypeClassification  Type = "classification"
	TypeModelSelected   Type = "model_selected"
	TypeProviderFailure Type = "provider_failure"
	TypeToolStarted     Type = "tool_started"
	TypeToolFinished    Type = "tool_finished"

	// Incremental content during streaming.
	TypeDelta     Type = "delta"
	TypeReasoning Type = "reasoning"

	// Terminal events, exactly one per turn.
	TypeFinal Type = "final"
	TypeError Type = "error"
)

// Event is one protocol record. Payload marshals to the event's data frame.
type Event struct {
	Type      Type      `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Terminal reports whether the event ends the turn.
func (e Event) Terminal() bool {
	return e.Type == TypeFinal || e.Type == TypeError
}

// Emitter delivers events to the caller. Emission is fire-and-forget for the
// state machine: implementations log delivery failures and never propagate
// them into generation.
type Emitter interface {
	Emit(e Event)
}

// Payload shapes.

type ClassificationPayload struct {
	Intent     string  `json:"intent"`
	Category   string  `json:"category"`
	Lane       string  `json:"lane"`
	Tier       int     `json:"tier"`
	Confidence float64 `json:"confidence"`
	Strategy   string  `json:"strategy,omitempty"`
}

type ModelSelectedPayload struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Reason   string `json:"reason,omitempty"`
}

type ProviderFailurePayload struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Error    string `json:"error"`
	Blocked  bool   `json:"blocked"`
	Next     string `json:"next,omitempty"`
}

type ToolPayload struct {
	CallID string `json:"call_id"`
	Name   string `json:"name"`
	Round  int    `json:"round"`
	Error  string `json:"error,omitempty"`
}

type DeltaPayload struct {
	Text string `json:"text"`
}

type FinalPayload struct {
	Text             string `json:"text"`
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	ToolRounds       int    `json:"tool_rounds"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// New builds an event stamped now.
func New(t Type, payload any) Event {
	return Event{Type: t, Payload: payload, Timestamp: time.Now()}
}
