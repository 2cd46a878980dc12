package telemetry

import (
	"time"
)

// Severity grades trace records.
type Severity string

const (
	SeverityInformation Severity = "information"
	SeverityWarning     Severity = "warning"
	SeverityError       Severity = "error"
)

// RecordKind distinguishes the observation types handed to a Sink.
type RecordKind string

const (
	KindOperation  RecordKind = "operation"
	KindDependency RecordKind = "dependency"
	KindEvent      RecordKind = "event"
	KindException  RecordKind = "exception"
	KindTrace      RecordKind = "trace"
)

// Record is one observation as persisted by a Sink.
type Record struct {
	ID         string            `json:"id"`
	Kind       RecordKind        `json:"kind"`
	Name       string            `json:"name"`
	Target     string            `json:"target,omitempty"`
	Severity   Severity          `json:"severity,omitempty"`
	Props      map[string]string `json:"props,omitempty"`
	Start      time.Time         `json:"start,omitempty"`
	DurationMS int64             `json:"duration_ms,omitempty"`
	Success    bool              `json:"success"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Dependency describes one timed call to an external collaborator.
type Dependency struct {
	Type     string
	Name     string
	Target   string
	Start    time.Time
	Duration time.Duration
	Success  bool
}

// Tracker is the instrumentation boundary every orchestration step reports
// through. Implementations must never let a recording failure surface to the
// caller; from the caller's point of view every method is fire-and-forget.
type Tracker interface {
	StartOperation(name, kind string) *Operation
	TrackDependency(dep Dependency)
	TrackEvent(name string, props map[string]string)
	TrackException(err error, props map[string]string)
	TrackTrace(msg string, severity Severity, props map[string]string)
}

// Operation is a named span covering one externally-visible step. End records
// it with its duration and accumulated properties.
type Operation struct {
	name   string
	kind   string
	start  time.Time
	props  map[string]string
	finish func(Record)
}

// SetProperty attaches request metadata to the span.
func (o *Operation) SetProperty(key, value string) {
	if o == nil || o.props == nil {
		return
	}
	o.props[key] = value
}

// End closes the span. Safe to call on a nil operation.
func (o *Operation) End() {
	if o == nil || o.finish == nil {
		return
	}
	o.finish(Record{
		Kind:       KindOperation,
		Name:       o.name,
		Target:     o.kind,
		Props:      o.props,
		Start:      o.start,
		DurationMS: time.Since(o.start).Milliseconds(),
		Success:    true,
	})
}

// Nop discards every observation; used in tests and when telemetry is disabled.
type Nop struct{}

func NewNop() Nop { return Nop{} }

func (Nop) StartOperation(name, kind string) *Operation    { return nil }
func (Nop) TrackDependency(Dependency)                     {}
func (Nop) TrackEvent(string, map[string]string)           {}
func (Nop) TrackException(error, map[string]string)        {}
func (Nop) TrackTrace(string, Severity, map[string]string) {}
