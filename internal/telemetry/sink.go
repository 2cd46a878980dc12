package telemetry

import (
	"context"
	"strings"
	"sync"
)

// Sink receives finished telemetry records.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

// NewSink creates a postgres-backed sink when configured, otherwise in-memory.
func NewSink(ctx context.Context, databaseURL string) (Sink, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemorySink(0), nil
	}
	return NewPostgresSink(ctx, databaseURL)
}

// InMemorySink keeps the most recent records in a bounded ring. It backs
// local/dev runs and tests.
type InMemorySink struct {
	mu      sync.RWMutex
	records []Record
	next    int
	filled  bool
	max     int
}

func NewInMemorySink(max int) *InMemorySink {
	if max <= 0 {
		max = 1024
	}
	return &InMemorySink{records: make([]Record, max), max: max}
}

func (s *InMemorySink) Write(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[s.next] = rec
	s.next++
	if s.next == s.max {
		s.next = 0
		s.filled = true
	}
	return nil
}

// Recent returns up to limit records, oldest first.
func (s *InMemorySink) Recent(limit int) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ordered []Record
	if s.filled {
		ordered = append(ordered, s.records[s.next:]...)
	}
	ordered = append(ordered, s.records[:s.next]...)

	if limit > 0 && len(ordered) > limit {
		ordered = ordered[len(ordered)-limit:]
	}
	out := make([]Record, len(ordered))
	copy(out, ordered)
	return out
}

func (s *InMemorySink) Close() error { return nil }
