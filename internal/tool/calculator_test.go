package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
)

func calc(t *testing.T, expr string) *Result {
	t.Helper()
	args, _ := json.Marshal(map[string]string{"expression": expr})
	res, err := NewCalculatorTool().Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("Execute(%q): %v", expr, err)
	}
	return res
}

func TestCalculatorEvaluates(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"10 / 4", "2.5"},
		{"2 ^ 10", "1024"},
		{"2 ^ 3 ^ 2", "512"}, // right associative
		{"-5 + 3", "-2"},
		{"10 % 3", "1"},
		{"1.5 * 2", "3"},
	}
	for _, c := range cases {
		res := calc(t, c.expr)
		if res.IsError {
			t.Errorf("%q: unexpected error %q", c.expr, res.Error)
			continue
		}
		if res.Output != c.want {
			t.Errorf("%q = %q, want %q", c.expr, res.Output, c.want)
		}
	}
}

func TestCalculatorRejectsBadInput(t *testing.T) {
	for _, expr := range []string{"", "2 +", "foo", "1 / 0", "(1 + 2", "2 ** 3"} {
		res := calc(t, expr)
		if !res.IsError {
			t.Errorf("%q: expected error result, got output %q", expr, res.Output)
		}
	}
}

func TestCalculatorMalformedArguments(t *testing.T) {
	res, err := NewCalculatorTool().Execute(context.Background(), json.RawMessage(`{notjson`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Error("expected error result for malformed arguments")
	}
}

func ExampleCalculatorTool() {
	args, _ := json.Marshal(map[string]string{"expression": "6 * 7"})
	res, _ := NewCalculatorTool().Execute(context.Background(), args)
	fmt.Println(res.Output)
	// Output: 42
}
