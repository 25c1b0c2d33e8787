package classify

import (
	"context"
	"log"
	"strings"

	"modelrelay/internal/llm"
)

// Intent categories. The category is the scoring-table key; the intent is its
// lowercase form carried through the pipeline.
const (
	CategoryChatQA     = "CHAT_QA"
	CategoryCodeGen    = "CODE_GEN"
	CategoryDebug      = "DEBUG"
	CategorySummarize  = "SUMMARIZE"
	CategoryFilesystem = "FILESYSTEM"
	CategoryShell      = "SHELL"
	CategoryWebSearch  = "WEB_SEARCH"
	CategoryMath       = "MATH"
	CategoryCreative   = "CREATIVE"

	IntentClarify = "clarify"
)

// Strategy produces a routing header for one user turn.
type Strategy interface {
	// Classify inspects the latest user message plus recent conversation
	// context. It must not be called with empty input; the Classifier wrapper
	// handles that case without reaching any strategy.
	Classify(ctx context.Context, text string, recent []llm.Message) (Header, error)
	Name() string
}

// Classifier wraps a primary strategy with an optional fallback. A primary
// failure (no parseable block, provider error, timeout) falls through to the
// fallback; headers are never merged across strategies, the winner's header
// is used whole.
type Classifier struct {
	primary  Strategy
	fallback Strategy
	logger   *log.Logger
}

// New builds a classifier. fallback may be nil.
func New(primary, fallback Strategy, logger *log.Logger) *Classifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Classifier{primary: primary, fallback: fallback, logger: logger}
}

// Classify returns the routing header for a turn. Empty or whitespace-only
// input deterministically yields a clarify header with full confidence and
// no outbound call.
func (c *Classifier) Classify(ctx context.Context, text string, recent []llm.Message) (Header, error) {
	if strings.TrimSpace(text) == "" {
		return Header{
			Intent:     IntentClarify,
			Category:   CategoryChatQA,
			Complexity: 1,
			Lane:       LaneQuick,
			Tier:       1,
			Confidence: 1.0,
			Reasoning:  "empty input",
		}, nil
	}

	h, err := c.primary.Classify(ctx, text, recent)
	if err == nil {
		return h, nil
	}
	if c.fallback == nil {
		return Header{}, err
	}
	c.logger.Printf("[classify] %s strategy failed (%v), falling back to %s", c.primary.Name(), err, c.fallback.Name())
	return c.fallback.Classify(ctx, text, recent)
}
