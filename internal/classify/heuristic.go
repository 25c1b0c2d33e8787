package classify

import (
	"context"
	"regexp"
	"strings"

	"modelrelay/internal/llm"
)

// signal is one weighted pattern contributing to a category score.
type signal struct {
	re     *regexp.Regexp
	weight int
}

// categorySignals is the static scoring table. Highest total wins; a zero
// total falls back to CHAT_QA.
var categorySignals = map[string][]signal{
	CategoryCodeGen: {
		{regexp.MustCompile(`(?i)\b(write|implement|create|generate)\b.{0,40}\b(function|class|method|script|program|code)\b`), 3},
		{regexp.MustCompile("```"), 2},
		{regexp.MustCompile(`(?i)\bin (go|golang|python|rust|javascript|typescript|java|c\+\+)\b`), 2},
		{regexp.MustCompile(`(?i)\brefactor\b`), 2},
	},
	CategoryDebug: {
		{regexp.MustCompile(`(?i)\b(debug|fix|error|exception|crash|broken|fails?|failing)\b`), 2},
		{regexp.MustCompile(`(?i)(traceback \(most recent call last\)|panic:|segmentation fault)`), 4},
		{regexp.MustCompile(`(?i)\bstack ?trace\b`), 3},
		{regexp.MustCompile(`\bat [\w./]+\(\S+:\d+\)`), 3},
	},
	CategorySummarize: {
		{regexp.MustCompile(`(?i)\b(summarize|summarise|summary|tl;?dr|condense)\b`), 4},
		{regexp.MustCompile(`(?i)\bkey (points|takeaways)\b`), 3},
	},
	CategoryFilesystem: {
		{regexp.MustCompile(`(?i)\b(list|show|read|open|find)\b.{0,30}\b(files?|director(y|ies)|folders?)\b`), 4},
		{regexp.MustCompile(`(?i)\b(ls|cat|mkdir|touch)\b`), 3},
		{regexp.MustCompile(`(^|\s)[\w.-]+/(\s|$)`), 2},
		{regexp.MustCompile(`(?i)\b(write|save|create) .{0,30}\bfile\b`), 3},
	},
	CategoryShell: {
		{regexp.MustCompile(`(?i)\b(run|execute)\b.{0,30}\b(command|shell|script)\b`), 4},
		{regexp.MustCompile(`(?m)^\s*\$ `), 3},
		{regexp.MustCompile(`(?i)\b(git|docker|kubectl|npm|make|grep)\b \S`), 2},
	},
	CategoryWebSearch: {
		{regexp.MustCompile(`(?i)\b(search|look up|google|latest|current|news|today)\b`), 3},
		{regexp.MustCompile(`(?i)\bwhat('s| is) the (weather|price|score)\b`), 3},
	},
	CategoryMath: {
		{regexp.MustCompile(`(?i)\b(calculate|compute|solve|evaluate)\b`), 3},
		{regexp.MustCompile(`\d+\s*[-+*/^%]\s*\d+`), 3},
		{regexp.MustCompile(`(?i)\b(equation|integral|derivative|percent(age)?)\b`), 2},
	},
	CategoryCreative: {
		{regexp.MustCompile(`(?i)\b(write|compose)\b.{0,30}\b(story|poem|song|essay|blog)\b`), 4},
		{regexp.MustCompile(`(?i)\bbrainstorm\b`), 3},
	},
}

// categoryTools maps each category to the tools a turn in that category is
// likely to need.
var categoryTools = map[string][]string{
	CategoryFilesystem: {"filesystem"},
	CategoryShell:      {"shell"},
	CategoryWebSearch:  {"websearch"},
	CategoryMath:       {"calculator"},
	CategoryDebug:      {"filesystem", "shell"},
}

var (
	quickPhrasing = regexp.MustCompile(`(?i)\b(quick(ly)?|brief(ly)?|short answer|one[- ]liner|just tell me)\b`)
	deepPhrasing  = regexp.MustCompile(`(?i)\b(deep dive|in[- ]depth|thorough(ly)?|detailed analysis|step[- ]by[- ]step|comprehensive)\b`)

	complexitySignals = []signal{
		{regexp.MustCompile("```"), 1},
		{regexp.MustCompile(`(?i)\b(architecture|design|tradeoffs?|compare|analyze|analyse|prove|optimi[sz]e)\b`), 1},
		{regexp.MustCompile(`(?i)\b(and then|after that|finally|first\b.*\bthen)\b`), 1},
	}
)

// HeuristicStrategy classifies with static keyword/regex tables. It is a pure
// function of the input text; it never makes an outbound call.
type HeuristicStrategy struct{}

func NewHeuristic() *HeuristicStrategy { return &HeuristicStrategy{} }

func (s *HeuristicStrategy) Name() string { return "heuristic" }

func (s *HeuristicStrategy) Classify(_ context.Context, text string, _ []llm.Message) (Header, error) {
	best := CategoryChatQA
	bestScore := 0
	for category, signals := range categorySignals {
		score := 0
		for _, sig := range signals {
			if sig.re.MatchString(text) {
				score += sig.weight
			}
		}
		if score > bestScore || (score == bestScore && score > 0 && category < best) {
			best = category
			bestScore = score
		}
	}

	complexity := baseComplexity(text)
	for _, sig := range complexitySignals {
		if sig.re.MatchString(text) {
			complexity += sig.weight
		}
	}
	complexity = clampInt(complexity, 1, 5)

	lane := LaneForComplexity(complexity)
	switch {
	case deepPhrasing.MatchString(text):
		lane = LaneDeep
	case quickPhrasing.MatchString(text):
		lane = LaneQuick
	}

	confidence := 0.5
	if bestScore >= 4 {
		confidence = 0.8
	} else if bestScore >= 2 {
		confidence = 0.65
	}

	return Header{
		Intent:     strings.ToLower(best),
		Category:   best,
		Complexity: complexity,
		Lane:       lane,
		Tier:       TierForLane(lane),
		Tools:      categoryTools[best],
		Confidence: confidence,
		Reasoning:  "keyword scoring",
	}, nil
}

// baseComplexity scores message length: short prompts are quick work, long
// pasted context usually is not.
func baseComplexity(text string) int {
	switch n := len(text); {
	case n < 120:
		return 1
	case n < 600:
		return 2
	case n < 2000:
		return 3
	default:
		return 4
	}
}
