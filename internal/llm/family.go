package llm

import "strings"

// Family captures per-model-family wire quirks so adapters resolve them once
// per request instead of string-matching inline at call time.
type Family struct {
	Tag string

	// MaxTokensField names the output-budget field the vendor expects for
	// this family ("max_tokens" or "max_completion_tokens").
	MaxTokensField string

	// InlineTools marks families that never emit structured tool calls;
	// their raw text is scanned for inline call notation instead.
	InlineTools bool

	// NoTemperature marks families that reject a temperature parameter.
	NoTemperature bool
}

var defaultFamily = Family{Tag: "chat", MaxTokensField: "max_tokens"}

// familyTable is checked in order; first prefix match wins.
var familyTable = []struct {
	prefix string
	family Family
}{
	{"o1", Family{Tag: "reasoning", MaxTokensField: "max_completion_tokens", NoTemperature: true}},
	{"o3", Family{Tag: "reasoning", MaxTokensField: "max_completion_tokens", NoTemperature: true}},
	{"o4", Family{Tag: "reasoning", MaxTokensField: "max_completion_tokens", NoTemperature: true}},
	{"gpt-5", Family{Tag: "reasoning", MaxTokensField: "max_completion_tokens", NoTemperature: true}},
	{"gpt-4", Family{Tag: "chat", MaxTokensField: "max_tokens"}},
	{"text-", Family{Tag: "instruct", MaxTokensField: "max_tokens", InlineTools: true}},
	{"mistral-7b-instruct", Family{Tag: "instruct", MaxTokensField: "max_tokens", InlineTools: true}},
	{"llama", Family{Tag: "open", MaxTokensField: "max_tokens"}},
}

// FamilyOf resolves the quirk table entry for a deployment name.
func FamilyOf(deployment string) Family {
	name := strings.ToLower(deployment)
	for _, entry := range familyTable {
		if strings.HasPrefix(name, entry.prefix) {
			return entry.family
		}
	}
	return defaultFamily
}
