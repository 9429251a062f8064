package sinks

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/primestress/primestress/internal/progress"
)

// PrometheusSink exports benchmark progress via Prometheus. It owns all
// collectors for the prime workload: primes found, digit milestones,
// accumulated search time, and per-worker throughput.
type PrometheusSink struct {
	primesTotal    *prometheus.CounterVec
	primeDigits    *prometheus.GaugeVec
	searchSeconds  *prometheus.GaugeVec
	primesPerSec   *prometheus.GaugeVec
	workersRunning prometheus.Gauge
	forcedExits    prometheus.Counter

	tracker *opsTracker
}

// NewPrometheusSink registers the collectors against the provided
// registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		primesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "primestress_primes_found_total",
			Help: "Total primes found partitioned by worker instance.",
		}, []string{"instance", "method"}),
		primeDigits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "primestress_prime_digits",
			Help: "Decimal digit length of the largest prime found per instance.",
		}, []string{"instance", "method"}),
		searchSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "primestress_search_seconds",
			Help: "Accumulated time spent inside the primality search per instance.",
		}, []string{"instance", "method"}),
		primesPerSec: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "primestress_primes_per_second",
			Help: "Final search throughput per instance; combine across instances with a harmonic mean.",
		}, []string{"instance", "method"}),
		workersRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "primestress_workers_running",
			Help: "Current number of running workers.",
		}),
		forcedExits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "primestress_forced_exits_total",
			Help: "Workers that required a forced exit after the cooperative stop.",
		}),
		tracker: newOpsTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.primesTotal,
		s.primeDigits,
		s.searchSeconds,
		s.primesPerSec,
		s.workersRunning,
		s.forcedExits,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch.
// It is safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	instance := strconv.Itoa(evt.Instance)
	switch evt.Stage {
	case progress.StageWorkerStart:
		if s.tracker.start(evt.Instance) {
			s.workersRunning.Inc()
		}
	case progress.StageProgress, progress.StageWorkerDone:
		// Events carry cumulative counts; convert to deltas for the
		// counter.
		if delta := s.tracker.advance(evt.Instance, evt.Ops); delta > 0 {
			s.primesTotal.WithLabelValues(instance, evt.Method).Add(float64(delta))
		}
		s.primeDigits.WithLabelValues(instance, evt.Method).Set(float64(evt.Digits))
		s.searchSeconds.WithLabelValues(instance, evt.Method).Set(evt.Dur.Seconds())
	}
	if evt.Stage == progress.StageWorkerDone {
		s.primesPerSec.WithLabelValues(instance, evt.Method).Set(evt.Rate)
		if evt.Forced {
			s.forcedExits.Inc()
		}
		if s.tracker.complete(evt.Instance) {
			s.workersRunning.Dec()
		}
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

// opsTracker remembers the last cumulative count seen per instance so
// counter updates stay monotonic.
type opsTracker struct {
	mu      sync.Mutex
	running map[int]struct{}
	lastOps map[int]uint64
}

func newOpsTracker() *opsTracker {
	return &opsTracker{
		running: make(map[int]struct{}),
		lastOps: make(map[int]uint64),
	}
}

func (t *opsTracker) start(instance int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[instance]; ok {
		return false
	}
	t.running[instance] = struct{}{}
	return true
}

func (t *opsTracker) advance(instance int, ops uint64) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	last := t.lastOps[instance]
	if ops <= last {
		return 0
	}
	t.lastOps[instance] = ops
	return ops - last
}

func (t *opsTracker) complete(instance int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[instance]; !ok {
		return false
	}
	delete(t.running, instance)
	return true
}
