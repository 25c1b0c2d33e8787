package llm

import (
	"bufio"
	"errors"
	"io"
	"sort"
	"strings"
)

// errStreamDone signals the vendor's [DONE] sentinel.
var errStreamDone = errors.New("stream done")

// eventStreamDecoder incrementally decodes line-delimited event records
// (text/event-stream framing) into raw data payloads. Partial lines are
// buffered across read boundaries by the underlying reader.
type eventStreamDecoder struct {
	r *bufio.Reader
}

func newEventStreamDecoder(r io.Reader) *eventStreamDecoder {
	return &eventStreamDecoder{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next data payload. It returns errStreamDone on the [DONE]
// sentinel and io.EOF when the stream ends. Lines that are not data records
// (blank separators, comments, event names) are skipped.
func (d *eventStreamDecoder) Next() ([]byte, error) {
	for {
		line, err := d.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && strings.HasPrefix(strings.TrimSpace(line), "data:") {
				// Final record without trailing newline.
				payload := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "data:"))
				if payload == "[DONE]" {
					return nil, errStreamDone
				}
				if payload != "" {
					return []byte(payload), nil
				}
			}
			return nil, err
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			return nil, errStreamDone
		}
		if payload == "" {
			continue
		}
		return []byte(payload), nil
	}
}

// pendingCall accumulates one tool call whose fragments arrive across chunks.
type pendingCall struct {
	id   string
	name string
	args strings.Builder
}

// toolCallAccumulator collects tool-call deltas keyed by the vendor-supplied
// index. It is scoped to a single streaming call and discarded when the call
// ends.
type toolCallAccumulator struct {
	calls map[int]*pendingCall
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{calls: make(map[int]*pendingCall)}
}

// Add folds one delta into the accumulator. Empty fields are fragments that
// simply do not carry that piece; name and id stick from whichever fragment
// supplied them first.
func (a *toolCallAccumulator) Add(index int, id, name, argsFragment string) {
	call, ok := a.calls[index]
	if !ok {
		call = &pendingCall{}
		a.calls[index] = call
	}
	if call.id == "" {
		call.id = id
	}
	if call.name == "" {
		call.name = name
	}
	call.args.WriteString(argsFragment)
}

func (a *toolCallAccumulator) Empty() bool {
	return len(a.calls) == 0
}

// Drain returns the completed calls in vendor index order and resets the
// accumulator. Calls with no name are dropped; an empty arguments string is
// normalized to an empty JSON object.
func (a *toolCallAccumulator) Drain() []ToolCall {
	if len(a.calls) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(a.calls))
	for i := range a.calls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	out := make([]ToolCall, 0, len(indexes))
	for _, i := range indexes {
		call := a.calls[i]
		if call.name == "" {
			continue
		}
		args := call.args.String()
		if strings.TrimSpace(args) == "" {
			args = "{}"
		}
		out = append(out, ToolCall{
			ID:        call.id,
			Name:      call.name,
			Arguments: []byte(args),
		})
	}
	a.calls = make(map[int]*pendingCall)
	return out
}
