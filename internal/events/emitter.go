package events

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
)

// LogEmitter writes events to a logger. Used as the default sink and as a
// secondary tap next to an SSE emitter.
type LogEmitter struct {
	logger *log.Logger
}

func NewLogEmitter(logger *log.Logger) *LogEmitter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogEmitter{logger: logger}
}

func (l *LogEmitter) Emit(e Event) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		l.logger.Printf("[events] %s (payload marshal failed: %v)", e.Type, err)
		return
	}
	l.logger.Printf("[events] %s %s", e.Type, payload)
}

// SSEEmitter frames events as server-sent events. A write failure (the client
// went away) is logged and remembered; subsequent events are dropped so the
// state machine keeps running to completion.
type SSEEmitter struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	logger  *log.Logger
	dead    bool
}

// NewSSEEmitter wraps a response writer. flusher may be nil when the writer
// does not support flushing.
func NewSSEEmitter(w io.Writer, flusher http.Flusher, logger *log.Logger) *SSEEmitter {
	if logger == nil {
		logger = log.Default()
	}
	return &SSEEmitter{w: w, flusher: flusher, logger: logger}
}

func (s *SSEEmitter) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead {
		return
	}
	if err := writeSSE(s.w, string(e.Type), e.Payload); err != nil {
		s.logger.Printf("[events] SSE delivery failed, dropping remaining events: %v", err)
		s.dead = true
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// writeSSE frames one event as "event:" plus "data:" lines ended by a blank
// line.
func writeSSE(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal SSE payload: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return fmt.Errorf("write SSE event name: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write SSE data: %w", err)
	}
	return nil
}

// Multi fans one event out to several emitters.
type Multi []Emitter

func (m Multi) Emit(e Event) {
	for _, em := range m {
		em.Emit(e)
	}
}
