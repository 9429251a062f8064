// Package metrics defines throughput computation and the recording sink
// workers report into.
package metrics

import (
	"sync"
	"time"
)

// Aggregation names how per-worker samples of a metric combine into a
// whole-run figure.
type Aggregation string

// Supported aggregations.
const (
	// AggHarmonicMean combines throughput rates. Rates, not raw counts,
	// combine correctly via the harmonic mean when workers run for
	// different wall-clock spans.
	AggHarmonicMean Aggregation = "harmonic_mean"
)

// Recorder accepts named measurements together with the aggregation
// that combines them across workers. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(name string, value float64, agg Aggregation)
}

// Rate converts an operation count and accumulated duration into an
// operations-per-second figure. A zero duration degrades to 0 rather
// than dividing by zero.
func Rate(ops uint64, d time.Duration) float64 {
	secs := d.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(ops) / secs
}

// HarmonicMean combines per-worker rates. Non-positive rates are
// skipped: a worker that never completed a search contributes no
// throughput signal.
func HarmonicMean(rates []float64) float64 {
	var (
		n   int
		sum float64
	)
	for _, r := range rates {
		if r > 0 {
			n++
			sum += 1 / r
		}
	}
	if n == 0 || sum <= 0 {
		return 0
	}
	return float64(n) / sum
}

// Sample is one recorded measurement.
type Sample struct {
	Value float64
	Agg   Aggregation
}

// MemoryRecorder collects samples for post-run aggregation.
type MemoryRecorder struct {
	mu      sync.Mutex
	samples map[string][]Sample
}

// NewMemoryRecorder creates an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{samples: make(map[string][]Sample)}
}

// Record stores one sample under name.
func (r *MemoryRecorder) Record(name string, value float64, agg Aggregation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[name] = append(r.samples[name], Sample{Value: value, Agg: agg})
}

// Values returns the raw sample values recorded under name.
func (r *MemoryRecorder) Values(name string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, 0, len(r.samples[name]))
	for _, s := range r.samples[name] {
		out = append(out, s.Value)
	}
	return out
}

// Aggregate folds the samples recorded under name using their tagged
// aggregation. Samples tagged with an unknown aggregation are ignored.
func (r *MemoryRecorder) Aggregate(name string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	rates := make([]float64, 0, len(r.samples[name]))
	for _, s := range r.samples[name] {
		if s.Agg == AggHarmonicMean {
			rates = append(rates, s.Value)
		}
	}
	return HarmonicMean(rates)
}
