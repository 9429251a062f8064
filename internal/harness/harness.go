// Package harness fans the prime search out over worker instances and
// enforces the run budget.
package harness

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/primestress/primestress/internal/metrics"
	"github.com/primestress/primestress/internal/prime"
	"github.com/primestress/primestress/internal/progress"
	"github.com/primestress/primestress/internal/worker"
)

// Config controls the harness.
type Config struct {
	// Workers is the number of parallel instances.
	Workers int
	// Method is the growth method shared by all instances.
	Method prime.Method
	// Progress enables status emission on instance 0.
	Progress bool
	// ProgressInterval overrides the 60s progress gate.
	ProgressInterval time.Duration
	// OpsBudget is a per-worker operation budget; 0 is unlimited.
	OpsBudget uint64
	// RunFor is the wall-clock budget; 0 runs until the context or an
	// explicit Stop ends the run.
	RunFor time.Duration
	// Grace is how long to wait after the cooperative stop before
	// forcing workers out of stuck searches.
	Grace time.Duration
}

// DefaultGrace separates the cooperative stop from the forced one.
const DefaultGrace = 5 * time.Second

// Summary aggregates the whole run.
type Summary struct {
	RunID     uuid.UUID
	Workers   int
	TotalOps  uint64
	MaxDigits int
	// Rate is the harmonic mean of per-worker throughput.
	Rate float64
	// ForcedExits counts workers torn down via the forced path.
	ForcedExits int
	Elapsed     time.Duration
}

// Harness owns a set of workers and their stoppers.
type Harness struct {
	cfg      Config
	clock    prime.Clock
	recorder *metrics.MemoryRecorder
	logger   *zap.Logger
	runID    uuid.UUID

	workers  []*worker.Worker
	stoppers []*worker.Stopper

	stopOnce  sync.Once
	forceOnce sync.Once
}

// New builds the harness and its workers. Worker construction fails
// fast, before any search starts.
func New(
	cfg Config,
	arith prime.Arith,
	clock prime.Clock,
	emitter progress.Emitter,
	logger *zap.Logger,
) (*Harness, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Harness{
		cfg:      cfg,
		clock:    clock,
		recorder: metrics.NewMemoryRecorder(),
		logger:   logger,
		runID:    uuid.New(),
	}
	for i := 0; i < cfg.Workers; i++ {
		stopper := worker.NewStopper()
		w, err := worker.New(arith, clock, stopper, emitter, h.recorder, worker.Config{
			Instance:         i,
			Method:           cfg.Method,
			Progress:         cfg.Progress,
			ProgressInterval: cfg.ProgressInterval,
			OpsBudget:        cfg.OpsBudget,
			RunID:            h.runID,
		}, logger.Named("worker").With(zap.Int("instance", i)))
		if err != nil {
			return nil, fmt.Errorf("build worker %d: %w", i, err)
		}
		h.workers = append(h.workers, w)
		h.stoppers = append(h.stoppers, stopper)
	}
	return h, nil
}

// RunID identifies this run in emitted events.
func (h *Harness) RunID() uuid.UUID {
	return h.runID
}

// Snapshots reports current per-worker progress.
func (h *Harness) Snapshots() []worker.Snapshot {
	out := make([]worker.Snapshot, 0, len(h.workers))
	for _, w := range h.workers {
		out = append(out, w.Snapshot())
	}
	return out
}

// Stop delivers the cooperative stop to every worker. Idempotent.
func (h *Harness) Stop() {
	h.stopOnce.Do(func() {
		h.logger.Info("stopping workers")
		for _, s := range h.stoppers {
			s.Stop()
		}
	})
}

// ForceStop forces every worker out of any in-flight search. Idempotent.
func (h *Harness) ForceStop() {
	h.forceOnce.Do(func() {
		h.logger.Warn("forcing worker exit", zap.Duration("grace", h.cfg.Grace))
		for _, s := range h.stoppers {
			s.Force()
		}
	})
}

// Run starts all workers and blocks until they finish. The run budget
// and context cancellation both trigger the cooperative stop; workers
// still running once the grace period expires are forced out.
func (h *Harness) Run(ctx context.Context) (Summary, error) {
	started := h.clock.Now()

	var wg sync.WaitGroup
	errCh := make(chan error, len(h.workers))
	for _, w := range h.workers {
		wg.Add(1)
		go func(wk *worker.Worker) {
			defer wg.Done()
			if err := wk.Run(ctx); err != nil {
				errCh <- err
			}
		}(w)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var budgetC <-chan time.Time
	if h.cfg.RunFor > 0 {
		budget := time.NewTimer(h.cfg.RunFor)
		defer budget.Stop()
		budgetC = budget.C
	}
	ctxDone := ctx.Done()
	var graceC <-chan time.Time

wait:
	for {
		select {
		case <-done:
			break wait
		case <-budgetC:
			budgetC = nil
			h.Stop()
			graceC = h.startGrace(graceC)
		case <-ctxDone:
			ctxDone = nil
			h.Stop()
			graceC = h.startGrace(graceC)
		case <-graceC:
			graceC = nil
			h.ForceStop()
		}
	}

	summary := h.summarize(started)
	h.logger.Info("run complete",
		zap.String("run_id", summary.RunID.String()),
		zap.Int("workers", summary.Workers),
		zap.Uint64("primes_found", summary.TotalOps),
		zap.Int("largest_prime_digits", summary.MaxDigits),
		zap.Float64("primes_per_second", summary.Rate),
		zap.Int("forced_exits", summary.ForcedExits),
		zap.Duration("elapsed", summary.Elapsed),
	)

	select {
	case err := <-errCh:
		return summary, err
	default:
		return summary, nil
	}
}

func (h *Harness) startGrace(existing <-chan time.Time) <-chan time.Time {
	if existing != nil {
		return existing
	}
	return time.After(h.cfg.Grace)
}

func (h *Harness) summarize(started time.Time) Summary {
	s := Summary{
		RunID:   h.runID,
		Workers: len(h.workers),
		Elapsed: h.clock.Now().Sub(started),
		Rate:    h.recorder.Aggregate(worker.RateMetric),
	}
	for _, snap := range h.Snapshots() {
		s.TotalOps += snap.Ops
		if snap.Digits > s.MaxDigits {
			s.MaxDigits = snap.Digits
		}
		if snap.Forced {
			s.ForcedExits++
		}
	}
	return s
}
