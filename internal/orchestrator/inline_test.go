package orchestrator

import (
	"strings"
	"testing"
)

func TestScanInlineJSONCall(t *testing.T) {
	text := `I'll check that directory.
{"tool": "filesystem", "arguments": {"action": "list", "path": "src"}}
One moment.`

	calls, cleaned := scanInlineCalls(text)
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if calls[0].Name != "filesystem" {
		t.Errorf("name = %q", calls[0].Name)
	}
	if !strings.Contains(string(calls[0].Arguments), `"action": "list"`) {
		t.Errorf("arguments = %s", calls[0].Arguments)
	}
	if strings.Contains(cleaned, "filesystem") {
		t.Errorf("notation not removed: %q", cleaned)
	}
	if !strings.Contains(cleaned, "I'll check that directory.") {
		t.Errorf("surrounding text lost: %q", cleaned)
	}
}

func TestScanInlineTagCall(t *testing.T) {
	text := `Running it now. <tool_call name="shell">{"command": "ls -la"}</tool_call>`

	calls, cleaned := scanInlineCalls(text)
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if calls[0].Name != "shell" {
		t.Errorf("name = %q", calls[0].Name)
	}
	if string(calls[0].Arguments) != `{"command": "ls -la"}` {
		t.Errorf("arguments = %s", calls[0].Arguments)
	}
	if cleaned != "Running it now." {
		t.Errorf("cleaned = %q", cleaned)
	}
}

func TestScanInlineShortTagForm(t *testing.T) {
	calls, _ := scanInlineCalls(`<tool name="calculator">{"expression": "2+2"}</tool>`)
	if len(calls) != 1 || calls[0].Name != "calculator" {
		t.Fatalf("calls = %+v, want one calculator call", calls)
	}
}

func TestScanInlineIgnoresPlainJSON(t *testing.T) {
	text := `Here is the config: {"port": 8080, "debug": true}. Done.`
	calls, cleaned := scanInlineCalls(text)
	if len(calls) != 0 {
		t.Fatalf("calls = %+v, want none", calls)
	}
	if !strings.Contains(cleaned, `{"port": 8080, "debug": true}`) {
		t.Errorf("plain JSON mangled: %q", cleaned)
	}
}

func TestScanInlineBadArgumentsBecomeEmptyObject(t *testing.T) {
	calls, _ := scanInlineCalls(`<tool_call name="shell">not json</tool_call>`)
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if string(calls[0].Arguments) != "{}" {
		t.Errorf("arguments = %s, want {}", calls[0].Arguments)
	}
}

func TestScanInlineNestedBraces(t *testing.T) {
	text := `{"tool": "filesystem", "arguments": {"action": "write", "content": "a { b } c"}}`
	calls, cleaned := scanInlineCalls(text)
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if cleaned != "" {
		t.Errorf("cleaned = %q, want empty", cleaned)
	}
}
