package classify

import (
	"reflect"
	"testing"
)

func TestParseTolerantOfSurroundingProse(t *testing.T) {
	raw := "Sure, here is the classification you asked for:\n\n" +
		"<<<ROUTE\n" +
		"intent: code_gen\n" +
		"category: CODE_GEN\n" +
		"complexity: 4\n" +
		"lane: deep\n" +
		"tier: 3\n" +
		"tools: filesystem, shell\n" +
		"confidence: 0.9\n" +
		"reasoning: multi-file refactor\n" +
		"ROUTE>>>\n\n" +
		"Let me know if you need anything else."

	h, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if h.Intent != "code_gen" || h.Category != "CODE_GEN" {
		t.Errorf("intent/category = %q/%q", h.Intent, h.Category)
	}
	if h.Tier != 3 || h.Lane != LaneDeep || h.Complexity != 4 {
		t.Errorf("tier/lane/complexity = %d/%s/%d", h.Tier, h.Lane, h.Complexity)
	}
	if !reflect.DeepEqual(h.Tools, []string{"filesystem", "shell"}) {
		t.Errorf("tools = %v", h.Tools)
	}
	if h.Confidence != 0.9 {
		t.Errorf("confidence = %v", h.Confidence)
	}
}

func TestParseClampsOutOfRangeNumerics(t *testing.T) {
	raw := "<<<ROUTE\nintent: chat_qa\ntier: 9\ncomplexity: 0\nconfidence: 1.7\nROUTE>>>"
	h, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if h.Tier != 3 {
		t.Errorf("tier = %d, want clamped to 3", h.Tier)
	}
	if h.Complexity != 1 {
		t.Errorf("complexity = %d, want clamped to 1", h.Complexity)
	}
	if h.Confidence != 1.0 {
		t.Errorf("confidence = %v, want clamped to 1.0", h.Confidence)
	}
}

func TestParseGarbageNumericsUseDefaults(t *testing.T) {
	raw := "<<<ROUTE\nintent: chat_qa\ntier: lots\nconfidence: very\nROUTE>>>"
	h, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if h.Tier != 2 || h.Confidence != 0.5 {
		t.Errorf("tier/confidence = %d/%v, want defaults 2/0.5", h.Tier, h.Confidence)
	}
}

func TestParseNoBlock(t *testing.T) {
	for _, raw := range []string{
		"just a normal answer with no block",
		"<<<ROUTE\nintent: chat_qa\n", // never closed
		"<<<ROUTE\nROUTE>>>",          // empty block
	} {
		if _, err := Parse(raw); err != ErrNoHeader {
			t.Errorf("Parse(%q) err = %v, want ErrNoHeader", raw, err)
		}
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	in := Header{
		Intent:     "filesystem",
		Category:   "FILESYSTEM",
		Complexity: 2,
		Lane:       LaneQuick,
		Tier:       1,
		Tools:      []string{"filesystem"},
		Confidence: 0.8,
		Reasoning:  "file listing request",
	}
	out, err := Parse(in.Encode())
	if err != nil {
		t.Fatalf("Parse(Encode): %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestStripRemovesBlocks(t *testing.T) {
	block := Header{Intent: "chat_qa", Category: "CHAT_QA", Complexity: 1, Lane: LaneQuick, Tier: 1, Confidence: 1}.Encode()

	cases := []struct{ in, want string }{
		{"answer text", "answer text"},
		{block + "\nThe answer is 4.", "The answer is 4."},
		{"The answer is 4.\n" + block, "The answer is 4."},
		{block + "\nmiddle\n" + block, "middle"},
		{"partial tail\n<<<ROUTE\nintent: chat_qa", "partial tail"},
	}
	for _, c := range cases {
		if got := Strip(c.in); got != c.want {
			t.Errorf("Strip(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
