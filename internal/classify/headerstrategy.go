package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"modelrelay/internal/llm"
)

const classifierInstructions = `You are a routing classifier. Read the user message and respond with ONLY a routing block in this exact form:

<<<ROUTE
intent: <one of: chat_qa, code_gen, debug, summarize, filesystem, shell, web_search, math, creative, clarify>
category: <the intent in upper case>
complexity: <1-5>
lane: <quick|standard|deep>
tier: <1-3>
tools: <comma-separated tool names, or omit>
confidence: <0.0-1.0>
reasoning: <one short sentence>
ROUTE>>>

Do not answer the user message. Output only the block.`

// HeaderStrategy issues one call to a designated fast model and parses the
// routing block out of its raw response. The call is timeboxed; any failure
// (transport, timeout, no parseable block) is returned to the caller so the
// heuristic fallback can take over.
type HeaderStrategy struct {
	provider llm.Provider
	model    string
	timeout  time.Duration
}

// NewHeaderStrategy builds the structured-header strategy. A zero timeout
// defaults to 10s.
func NewHeaderStrategy(provider llm.Provider, model string, timeout time.Duration) *HeaderStrategy {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HeaderStrategy{provider: provider, model: model, timeout: timeout}
}

func (s *HeaderStrategy) Name() string { return "header" }

func (s *HeaderStrategy) Classify(ctx context.Context, text string, recent []llm.Message) (Header, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := text
	if len(recent) > 0 {
		var b strings.Builder
		b.WriteString("Recent conversation:\n")
		for _, m := range tail(recent, 4) {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, truncate(m.Content, 200))
		}
		b.WriteString("\nLatest user message:\n")
		b.WriteString(text)
		prompt = b.String()
	}

	resp, err := s.provider.Chat(ctx, &llm.ChatRequest{
		Model:        s.model,
		SystemPrompt: classifierInstructions,
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:    256,
	})
	if err != nil {
		return Header{}, fmt.Errorf("classification call: %w", err)
	}
	return Parse(resp.Content)
}

func tail(msgs []llm.Message, n int) []llm.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
