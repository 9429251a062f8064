package worker

import (
	"sync"
	"sync/atomic"
)

// Stopper implements the two-stage cancellation protocol for one
// worker. The first Stop clears the continue flag, which the search
// loop observes at its next iteration boundary. The second Stop forces
// an exit, abandoning whatever search call is in flight. Each worker
// owns its own Stopper; nothing is shared across instances.
type Stopper struct {
	cont atomic.Bool

	mu    sync.Mutex
	stops int

	forceOnce sync.Once
	forced    chan struct{}
}

// NewStopper creates a Stopper with the continue flag set.
func NewStopper() *Stopper {
	s := &Stopper{forced: make(chan struct{})}
	s.cont.Store(true)
	return s
}

// Continue reports whether the loop should keep iterating.
func (s *Stopper) Continue() bool {
	return s.cont.Load()
}

// Stop delivers one cancellation signal. The first call requests a
// cooperative exit; the second and any later calls force one.
func (s *Stopper) Stop() {
	s.mu.Lock()
	s.stops++
	force := s.stops > 1
	s.mu.Unlock()

	s.cont.Store(false)
	if force {
		s.Force()
	}
}

// Force requests an immediate exit regardless of how many cooperative
// signals were delivered before. Idempotent.
func (s *Stopper) Force() {
	s.cont.Store(false)
	s.forceOnce.Do(func() {
		close(s.forced)
	})
}

// Forced returns a channel closed once a forced exit has been
// requested.
func (s *Stopper) Forced() <-chan struct{} {
	return s.forced
}
