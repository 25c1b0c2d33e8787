package orchestrator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"modelrelay/internal/llm"
)

// Inline call notation for model families that never emit structured tool
// calls. Two forms are recognized in raw output text:
//
//	{"tool": "shell", "arguments": {"command": "ls"}}
//	<tool_call name="shell">{"command": "ls"}</tool_call>
//
// Recognized calls run through the same tool boundary and iteration bound as
// native tool calls.

var inlineTagPattern = regexp.MustCompile(`<tool(?:_call)?\s+name="([\w-]+)"\s*>([\s\S]*?)</tool(?:_call)?>`)

type inlineJSONCall struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

// scanInlineCalls extracts inline tool invocations from text and returns the
// calls plus the text with the notation removed.
func scanInlineCalls(text string) ([]llm.ToolCall, string) {
	var calls []llm.ToolCall
	seq := 0

	remaining := inlineTagPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := inlineTagPattern.FindStringSubmatch(m)
		args := strings.TrimSpace(sub[2])
		if args == "" || !json.Valid([]byte(args)) {
			args = "{}"
		}
		calls = append(calls, llm.ToolCall{
			ID:        fmt.Sprintf("inline_%d", seq),
			Name:      sub[1],
			Arguments: json.RawMessage(args),
		})
		seq++
		return ""
	})

	remaining = scanInlineJSON(remaining, &calls, &seq)
	return calls, strings.TrimSpace(remaining)
}

// scanInlineJSON walks the text for top-level JSON objects carrying a "tool"
// key, removing each recognized object.
func scanInlineJSON(text string, calls *[]llm.ToolCall, seq *int) string {
	var b strings.Builder
	i := 0
	for i < len(text) {
		if text[i] != '{' {
			b.WriteByte(text[i])
			i++
			continue
		}
		obj, end, ok := balancedObject(text, i)
		if !ok {
			b.WriteByte(text[i])
			i++
			continue
		}
		var call inlineJSONCall
		if err := json.Unmarshal([]byte(obj), &call); err != nil || call.Tool == "" {
			b.WriteString(obj)
			i = end
			continue
		}
		args := call.Arguments
		if len(args) == 0 || !json.Valid(args) {
			args = json.RawMessage("{}")
		}
		*calls = append(*calls, llm.ToolCall{
			ID:        fmt.Sprintf("inline_%d", *seq),
			Name:      call.Tool,
			Arguments: args,
		})
		*seq++
		i = end
	}
	return b.String()
}

// balancedObject returns the brace-balanced substring starting at start,
// respecting string literals and escapes.
func balancedObject(s string, start int) (string, int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], i + 1, true
			}
		}
	}
	return "", start, false
}
