package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/KiranJulakanti/chatagent/internal/observability"
)

const sinkWriteTimeout = 2 * time.Second

// Service is the production Tracker: every observation is mirrored to
// Prometheus instruments and handed to the configured Sink. Sink failures are
// counted and swallowed so business logic is never aborted by telemetry.
type Service struct {
	sink    Sink
	metrics *observability.Metrics
}

func NewService(sink Sink, metrics *observability.Metrics) *Service {
	return &Service{sink: sink, metrics: metrics}
}

func (s *Service) StartOperation(name, kind string) *Operation {
	return &Operation{
		name:   name,
		kind:   kind,
		start:  time.Now().UTC(),
		props:  map[string]string{"operation_id": uuid.NewString()},
		finish: s.record,
	}
}

func (s *Service) TrackDependency(dep Dependency) {
	outcome := "success"
	if !dep.Success {
		outcome = "failure"
	}
	if s.metrics != nil {
		s.metrics.DependencyCalls.WithLabelValues(dep.Type, outcome).Inc()
	}
	s.record(Record{
		Kind:       KindDependency,
		Name:       dep.Type + "." + dep.Name,
		Target:     dep.Target,
		Start:      dep.Start,
		DurationMS: dep.Duration.Milliseconds(),
		Success:    dep.Success,
	})
}

func (s *Service) TrackEvent(name string, props map[string]string) {
	s.record(Record{Kind: KindEvent, Name: name, Props: props, Success: true})
}

func (s *Service) TrackException(err error, props map[string]string) {
	if err == nil {
		return
	}
	if s.metrics != nil {
		s.metrics.Exceptions.Inc()
	}
	copied := make(map[string]string, len(props)+1)
	for k, v := range props {
		copied[k] = v
	}
	copied["error"] = err.Error()
	s.record(Record{Kind: KindException, Name: "exception", Severity: SeverityError, Props: copied})
}

func (s *Service) TrackTrace(msg string, severity Severity, props map[string]string) {
	s.record(Record{Kind: KindTrace, Name: msg, Severity: severity, Props: props, Success: true})
}

func (s *Service) record(rec Record) {
	if s.sink == nil {
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
	defer cancel()
	if err := s.sink.Write(ctx, rec); err != nil && s.metrics != nil {
		s.metrics.TelemetrySinkErrors.Inc()
	}
}
