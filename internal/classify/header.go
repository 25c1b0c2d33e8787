package classify

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Lane is the coarse speed/cost/quality class assigned to a turn.
type Lane string

const (
	LaneQuick    Lane = "quick"
	LaneStandard Lane = "standard"
	LaneDeep     Lane = "deep"
)

// Routing block delimiters. A header serialized into a prompt or scraped out
// of a model response sits between these two lines.
const (
	blockOpen  = "<<<ROUTE"
	blockClose = "ROUTE>>>"
)

// ErrNoHeader reports that a response contained no parseable routing block.
// This is a classification failure, not a clarify result: callers fall back
// to another strategy instead of treating it as an answer.
var ErrNoHeader = errors.New("classify: no routing block found")

// Header is the routing metadata computed once per turn. It is immutable
// after classification.
type Header struct {
	Intent       string   `json:"intent"`
	Category     string   `json:"category"`
	Complexity   int      `json:"complexity"` // 1..5
	Lane         Lane     `json:"lane"`
	Tier         int      `json:"tier"` // 1..3
	Tools        []string `json:"tools,omitempty"`
	ContextNeeds []string `json:"context_needs,omitempty"`
	Confidence   float64  `json:"confidence"` // 0..1
	Reasoning    string   `json:"reasoning,omitempty"`
	Safety       string   `json:"safety,omitempty"`
}

// TierForLane maps a lane to its model tier.
func TierForLane(l Lane) int {
	switch l {
	case LaneQuick:
		return 1
	case LaneDeep:
		return 3
	default:
		return 2
	}
}

// LaneForComplexity derives the lane from a 1..5 complexity score.
func LaneForComplexity(c int) Lane {
	switch {
	case c <= 2:
		return LaneQuick
	case c == 3:
		return LaneStandard
	default:
		return LaneDeep
	}
}

// Encode serializes the header as a delimited routing block. The output
// round-trips through Parse without loss of the routed fields.
func (h Header) Encode() string {
	var b strings.Builder
	b.WriteString(blockOpen)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "intent: %s\n", h.Intent)
	fmt.Fprintf(&b, "category: %s\n", h.Category)
	fmt.Fprintf(&b, "complexity: %d\n", h.Complexity)
	fmt.Fprintf(&b, "lane: %s\n", h.Lane)
	fmt.Fprintf(&b, "tier: %d\n", h.Tier)
	if len(h.Tools) > 0 {
		fmt.Fprintf(&b, "tools: %s\n", strings.Join(h.Tools, ","))
	}
	if len(h.ContextNeeds) > 0 {
		fmt.Fprintf(&b, "context: %s\n", strings.Join(h.ContextNeeds, ","))
	}
	fmt.Fprintf(&b, "confidence: %.2f\n", h.Confidence)
	if h.Reasoning != "" {
		fmt.Fprintf(&b, "reasoning: %s\n", strings.ReplaceAll(h.Reasoning, "\n", " "))
	}
	if h.Safety != "" {
		fmt.Fprintf(&b, "safety: %s\n", h.Safety)
	}
	b.WriteString(blockClose)
	return b.String()
}

// Parse locates a routing block in raw model output and decodes it,
// tolerating prose before and after the delimiters. Out-of-range numeric
// fields are clamped rather than rejected. Returns ErrNoHeader when no
// complete block is present.
func Parse(text string) (Header, error) {
	open := strings.Index(text, blockOpen)
	if open < 0 {
		return Header{}, ErrNoHeader
	}
	rest := text[open+len(blockOpen):]
	close := strings.Index(rest, blockClose)
	if close < 0 {
		return Header{}, ErrNoHeader
	}

	h := Header{Complexity: 3, Lane: LaneStandard, Tier: 2, Confidence: 0.5}
	seen := false
	for _, line := range strings.Split(rest[:close], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		seen = true
		switch key {
		case "intent":
			h.Intent = strings.ToLower(value)
		case "category":
			h.Category = strings.ToUpper(value)
		case "complexity":
			h.Complexity = clampInt(parseIntDefault(value, 3), 1, 5)
		case "lane":
			h.Lane = normalizeLane(value)
		case "tier":
			h.Tier = clampInt(parseIntDefault(value, 2), 1, 3)
		case "tools":
			h.Tools = splitList(value)
		case "context":
			h.ContextNeeds = splitList(value)
		case "confidence":
			h.Confidence = clampFloat(parseFloatDefault(value, 0.5), 0, 1)
		case "reasoning":
			h.Reasoning = value
		case "safety":
			h.Safety = value
		}
	}
	if !seen || h.Intent == "" {
		return Header{}, ErrNoHeader
	}
	if h.Category == "" {
		h.Category = strings.ToUpper(h.Intent)
	}
	return h, nil
}

// Strip removes every routing block from text. Blocks left open at the end
// of the text are removed to the end. Used on terminal answers so header
// artifacts never reach the user.
func Strip(text string) string {
	for {
		open := strings.Index(text, blockOpen)
		if open < 0 {
			return strings.TrimSpace(text)
		}
		rest := text[open+len(blockOpen):]
		close := strings.Index(rest, blockClose)
		if close < 0 {
			return strings.TrimSpace(text[:open])
		}
		text = text[:open] + rest[close+len(blockClose):]
	}
}

func normalizeLane(s string) Lane {
	switch Lane(strings.ToLower(s)) {
	case LaneQuick:
		return LaneQuick
	case LaneDeep:
		return LaneDeep
	default:
		return LaneStandard
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func parseFloatDefault(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return f
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func clampFloat(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
