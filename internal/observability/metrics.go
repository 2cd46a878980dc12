package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions      prometheus.Gauge
	SessionEvents       *prometheus.CounterVec
	WSMessages          *prometheus.CounterVec
	Intents             *prometheus.CounterVec
	DependencyCalls     *prometheus.CounterVec
	HandlerErrors       *prometheus.CounterVec
	Exceptions          prometheus.Counter
	TelemetrySinkErrors prometheus.Counter
	CompletionLatency   prometheus.Histogram
	HandlerLatency      *prometheus.HistogramVec

	latency *latencyWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active chat sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		Intents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "Classified intents by label.",
		}, []string{"intent"}),
		DependencyCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dependency_calls_total",
			Help:      "External dependency calls by dependency and outcome.",
		}, []string{"dependency", "outcome"}),
		HandlerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_errors_total",
			Help:      "Dialogue handler failures by intent.",
		}, []string{"intent"}),
		Exceptions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exceptions_total",
			Help:      "Exceptions recorded through the telemetry boundary.",
		}),
		TelemetrySinkErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_sink_errors_total",
			Help:      "Telemetry records dropped because the sink write failed.",
		}),
		CompletionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_latency_ms",
			Help:      "Latency of completion provider calls in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 15000},
		}),
		HandlerLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_latency_ms",
			Help:      "Dialogue handler latency by intent in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000},
		}, []string{"intent"}),
		latency: newLatencyWindow(256),
	}
}

func (m *Metrics) ObserveCompletionLatency(d time.Duration) {
	m.CompletionLatency.Observe(float64(d.Milliseconds()))
	m.ObserveDependencyLatency("completion", d)
}

func (m *Metrics) ObserveHandlerLatency(intent string, d time.Duration) {
	m.HandlerLatency.WithLabelValues(intent).Observe(float64(d.Milliseconds()))
}

// ObserveDependencyLatency feeds the rolling latency window behind the perf
// snapshot endpoint.
func (m *Metrics) ObserveDependencyLatency(dependency string, d time.Duration) {
	if m.latency == nil {
		return
	}
	m.latency.Observe(dependency, float64(d.Milliseconds()))
}

func (m *Metrics) ObserveIndicator(name string) {
	if m.latency == nil {
		return
	}
	m.latency.ObserveIndicator(name)
}

func (m *Metrics) SnapshotLatency() LatencySnapshot {
	if m.latency == nil {
		return LatencySnapshot{}
	}
	return m.latency.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
