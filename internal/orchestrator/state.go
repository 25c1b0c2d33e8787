package orchestrator

import (
	"modelrelay/internal/classify"
	"modelrelay/internal/llm"
	"modelrelay/internal/route"
)

// State names a phase of the turn state machine.
type State string

const (
	StateClassifying State = "classifying"
	StateSelecting   State = "selecting"
	StateStreaming   State = "streaming"
	StateToolRound   State = "tool_round"
	StateFinalizing  State = "finalizing"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// TurnRequest describes one inbound turn.
type TurnRequest struct {
	ConversationID string
	Message        string
	History        []llm.Message

	// Mode, when set, overrides the classified lane. Auto leaves routing to
	// the classifier. Speed lowers the target tier by one.
	Mode  classify.Lane
	Auto  bool
	Speed bool

	// Override is a raw "provider:model", bare provider, or bare model
	// string.
	Override string
}

// TurnResult is the terminal outcome of a successful turn.
type TurnResult struct {
	Text       string
	Header     classify.Header
	Provider   string
	Model      string
	Usage      llm.Usage
	ToolRounds int
}

// generationState is the single-worker mutable state for one turn. It is
// never shared between goroutines.
type generationState struct {
	state      State
	header     classify.Header
	candidates []route.Candidate
	messages   []llm.Message

	// blocked holds providers disabled for the remainder of the turn after
	// an auth/config failure.
	blocked map[string]bool

	text       string
	usage      llm.Usage
	toolRounds int
}

func newGenerationState(req TurnRequest) *generationState {
	msgs := make([]llm.Message, 0, len(req.History)+1)
	msgs = append(msgs, req.History...)
	msgs = append(msgs, llm.Message{Role: "user", Content: req.Message})
	return &generationState{
		state:    StateClassifying,
		messages: msgs,
		blocked:  map[string]bool{},
	}
}

// appendText accumulates round text so a forced finalize still has whatever
// the model produced along the way.
func (g *generationState) appendText(text string) {
	if text == "" {
		return
	}
	if g.text != "" {
		g.text += "\n"
	}
	g.text += text
}

// addUsage folds one completed call's usage into the turn total.
func (g *generationState) addUsage(u *llm.Usage) {
	if u == nil {
		return
	}
	g.usage.PromptTokens += u.PromptTokens
	g.usage.CompletionTokens += u.CompletionTokens
	g.usage.TotalTokens += u.TotalTokens
}
