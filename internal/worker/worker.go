// Package worker implements the single-instance prime search loop.
package worker

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/primestress/primestress/internal/metrics"
	"github.com/primestress/primestress/internal/prime"
	"github.com/primestress/primestress/internal/progress"
)

// RateMetric is the name workers record their throughput under.
const RateMetric = "primes per second"

// DefaultProgressInterval gates periodic status emission.
const DefaultProgressInterval = 60 * time.Second

// Lifecycle states reported by a worker.
const (
	StateInit   = "init"
	StateRun    = "run"
	StateDeinit = "deinit"
)

// Config controls Worker behavior.
type Config struct {
	// Instance is this worker's index; only instance 0 may report
	// progress.
	Instance int
	// Method selects the candidate growth strategy.
	Method prime.Method
	// Progress enables periodic status emission (instance 0 only).
	Progress bool
	// ProgressInterval overrides the 60s progress gate.
	ProgressInterval time.Duration
	// OpsBudget stops the loop after this many primes; 0 is unlimited.
	OpsBudget uint64
	// RunID identifies the run in emitted events.
	RunID uuid.UUID
}

// Worker searches for successive primes until its Stopper fires,
// accumulating timing for the search step only.
type Worker struct {
	arith    prime.Arith
	clock    prime.Clock
	stopper  *Stopper
	emitter  progress.Emitter
	recorder metrics.Recorder
	cfg      Config
	logger   *zap.Logger

	state  atomic.Pointer[string]
	ops    atomic.Uint64
	digits atomic.Int64
	durNS  atomic.Int64
	rate   atomic.Uint64 // float64 bits
	forced atomic.Bool
}

// New constructs a Worker. The arithmetic backend, clock, and stopper
// are required; a missing one is a resource failure reported before the
// loop ever starts.
func New(
	arith prime.Arith,
	clock prime.Clock,
	stopper *Stopper,
	emitter progress.Emitter,
	recorder metrics.Recorder,
	cfg Config,
	logger *zap.Logger,
) (*Worker, error) {
	if arith == nil {
		return nil, errors.New("worker: arithmetic backend is required")
	}
	if clock == nil {
		return nil, errors.New("worker: clock is required")
	}
	if stopper == nil {
		return nil, errors.New("worker: stopper is required")
	}
	if _, err := prime.ParseMethod(string(cfg.Method)); err != nil {
		return nil, err
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	if cfg.RunID == uuid.Nil {
		cfg.RunID = uuid.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Worker{
		arith:    arith,
		clock:    clock,
		stopper:  stopper,
		emitter:  emitter,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
	}
	w.setState(StateInit)
	return w, nil
}

// Stopper returns the worker's cancellation handle.
func (w *Worker) Stopper() *Stopper {
	return w.stopper
}

// Run executes the search loop until cancellation. Cancellation is a
// normal exit, not an error; the final metrics are emitted on both the
// cooperative and the forced path.
func (w *Worker) Run(ctx context.Context) error {
	strategy, err := prime.NewStrategy(w.arith, w.cfg.Method)
	if err != nil {
		return err
	}
	start := w.arith.New(1)
	value := w.arith.New(0)

	w.setState(StateRun)
	defer w.setState(StateDeinit)

	progressOn := w.cfg.Progress && w.cfg.Instance == 0
	threshold := w.clock.Now().Add(w.cfg.ProgressInterval)

	w.emit(progress.Event{
		Stage: progress.StageWorkerStart,
		TS:    w.clock.Now(),
	})

	var (
		duration time.Duration
		ops      uint64
		digits   = 1
		jumped   bool
	)

loop:
	for {
		t1 := w.clock.Now()
		done := make(chan struct{})
		go func() {
			// The oracle has no internal cancellation point; an
			// abandoned call keeps computing and its result is
			// discarded.
			w.arith.NextPrime(value, start)
			close(done)
		}()
		select {
		case <-done:
		case <-w.stopper.Forced():
			jumped = true
			break loop
		}
		t2 := w.clock.Now()
		duration += t2.Sub(t1)

		strategy.Advance(start, value)
		ops++
		digits = w.arith.Digits(value)

		w.ops.Store(ops)
		w.digits.Store(int64(digits))
		w.durNS.Store(int64(duration))

		if progressOn && !t2.Before(threshold) {
			// Advance by the interval, not from "now", so bursty
			// iterations cannot double-fire the gate.
			threshold = threshold.Add(w.cfg.ProgressInterval)
			w.logger.Info("prime progress",
				zap.Uint64("primes_found", ops),
				zap.Int("largest_prime_digits", digits),
			)
			w.emit(progress.Event{
				Stage:  progress.StageProgress,
				TS:     t2,
				Ops:    ops,
				Digits: digits,
				Dur:    duration,
			})
		}

		if !w.keepGoing(ctx, ops) {
			break
		}
	}

	w.forced.Store(jumped)
	if !jumped {
		// Handles go back to the backend only when the loop exited at
		// an iteration boundary; after a forced exit the abandoned
		// search may still be writing into them.
		strategy.Close()
		w.arith.Release(start, value)
	}

	rate := metrics.Rate(ops, duration)
	w.rate.Store(math.Float64bits(rate))
	w.logger.Info("prime summary",
		zap.Uint64("primes_found", ops),
		zap.Int("largest_prime_digits", digits),
		zap.Float64("primes_per_second", rate),
		zap.Bool("forced_exit", jumped),
	)
	if w.recorder != nil {
		w.recorder.Record(RateMetric, rate, metrics.AggHarmonicMean)
	}
	w.emit(progress.Event{
		Stage:  progress.StageWorkerDone,
		TS:     w.clock.Now(),
		Ops:    ops,
		Digits: digits,
		Dur:    duration,
		Rate:   rate,
		Forced: jumped,
	})
	return nil
}

func (w *Worker) keepGoing(ctx context.Context, ops uint64) bool {
	if !w.stopper.Continue() || ctx.Err() != nil {
		return false
	}
	if w.cfg.OpsBudget > 0 && ops >= w.cfg.OpsBudget {
		return false
	}
	return true
}

func (w *Worker) emit(evt progress.Event) {
	if w.emitter == nil {
		return
	}
	evt.RunID = progress.UUIDToBytes(w.cfg.RunID)
	evt.Instance = w.cfg.Instance
	evt.Method = string(w.cfg.Method)
	w.emitter.Emit(evt)
}

func (w *Worker) setState(s string) {
	w.state.Store(&s)
}

// Snapshot is a point-in-time view of worker progress for the status
// API.
type Snapshot struct {
	Instance int     `json:"instance"`
	Method   string  `json:"method"`
	State    string  `json:"state"`
	Ops      uint64  `json:"primes_found"`
	Digits   int     `json:"largest_prime_digits"`
	Seconds  float64 `json:"search_seconds"`
	Rate     float64 `json:"primes_per_second"`
	Forced   bool    `json:"forced_exit"`
}

// Snapshot reports current progress. Safe to call concurrently with
// Run.
func (w *Worker) Snapshot() Snapshot {
	state := StateInit
	if p := w.state.Load(); p != nil {
		state = *p
	}
	return Snapshot{
		Instance: w.cfg.Instance,
		Method:   string(w.cfg.Method),
		State:    state,
		Ops:      w.ops.Load(),
		Digits:   int(w.digits.Load()),
		Seconds:  time.Duration(w.durNS.Load()).Seconds(),
		Rate:     math.Float64frombits(w.rate.Load()),
		Forced:   w.forced.Load(),
	}
}
