package observability

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

type DependencyStats struct {
	Dependency string  `json:"dependency"`
	Samples    int     `json:"samples"`
	LastMS     float64 `json:"last_ms"`
	AvgMS      float64 `json:"avg_ms"`
	P50MS      float64 `json:"p50_ms"`
	P95MS      float64 `json:"p95_ms"`
	P99MS      float64 `json:"p99_ms"`
}

type Indicator struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type LatencySnapshot struct {
	GeneratedAt  time.Time         `json:"generated_at"`
	WindowSize   int               `json:"window_size"`
	Dependencies []DependencyStats `json:"dependencies"`
	Indicators   []Indicator       `json:"indicators,omitempty"`
}

// latencyWindow keeps a rolling sample window per dependency for quick
// in-process percentile inspection, independent of the Prometheus scrape.
type latencyWindow struct {
	mu         sync.RWMutex
	maxSamples int
	deps       map[string]*latencyBuffer
	indicators map[string]int
}

type latencyBuffer struct {
	values []float64
	next   int
	filled bool
	last   float64
}

func newLatencyWindow(maxSamples int) *latencyWindow {
	if maxSamples <= 0 {
		maxSamples = 256
	}
	return &latencyWindow{
		maxSamples: maxSamples,
		deps:       make(map[string]*latencyBuffer),
		indicators: make(map[string]int),
	}
}

func (w *latencyWindow) Observe(dependency string, ms float64) {
	if dependency == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, ok := w.deps[dependency]
	if !ok {
		buf = &latencyBuffer{values: make([]float64, w.maxSamples)}
		w.deps[dependency] = buf
	}
	buf.values[buf.next] = ms
	buf.last = ms
	buf.next++
	if buf.next >= len(buf.values) {
		buf.next = 0
		buf.filled = true
	}
}

func (w *latencyWindow) ObserveIndicator(name string) {
	if w == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.indicators[name]++
}

func (w *latencyWindow) Snapshot() LatencySnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	deps := make([]DependencyStats, 0, len(w.deps))
	keys := make([]string, 0, len(w.deps))
	for dep := range w.deps {
		keys = append(keys, dep)
	}
	sort.Strings(keys)

	for _, dep := range keys {
		buf := w.deps[dep]
		if buf == nil {
			continue
		}
		n := buf.next
		if buf.filled {
			n = len(buf.values)
		}
		if n <= 0 {
			continue
		}
		samples := make([]float64, n)
		copy(samples, buf.values[:n])
		sort.Float64s(samples)

		sum := 0.0
		for _, v := range samples {
			sum += v
		}

		deps = append(deps, DependencyStats{
			Dependency: dep,
			Samples:    n,
			LastMS:     round2(buf.last),
			AvgMS:      round2(sum / float64(n)),
			P50MS:      round2(quantile(samples, 0.50)),
			P95MS:      round2(quantile(samples, 0.95)),
			P99MS:      round2(quantile(samples, 0.99)),
		})
	}

	indicators := make([]Indicator, 0, len(w.indicators))
	indicatorKeys := make([]string, 0, len(w.indicators))
	for name := range w.indicators {
		indicatorKeys = append(indicatorKeys, name)
	}
	sort.Strings(indicatorKeys)
	for _, name := range indicatorKeys {
		count := w.indicators[name]
		if count <= 0 {
			continue
		}
		indicators = append(indicators, Indicator{Name: name, Count: count})
	}

	return LatencySnapshot{
		GeneratedAt:  time.Now().UTC(),
		WindowSize:   w.maxSamples,
		Dependencies: deps,
		Indicators:   indicators,
	}
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
