package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageWorkerStart Stage = "WORKER_START"
	StageProgress    Stage = "PROGRESS"
	StageWorkerDone  Stage = "WORKER_DONE"
)

// Event captures a single milestone from one worker instance.
type Event struct {
	// RunID identifies the benchmark run in 16-byte UUID form.
	RunID [16]byte
	// TS is the timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle milestone occurred.
	Stage Stage
	// Instance is the worker's index within the run.
	Instance int
	// Method names the growth method the worker runs.
	Method string
	// Ops is the cumulative count of primes found.
	Ops uint64
	// Digits is the decimal digit length of the most recent prime.
	Digits int
	// Dur is the accumulated time spent inside the primality search.
	Dur time.Duration
	// Rate carries the final primes-per-second figure on WORKER_DONE.
	Rate float64
	// Forced marks a worker that exited via the forced path.
	Forced bool
	// Note lets emitters attach low-volume debug context.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageWorkerStart, StageProgress, StageWorkerDone:
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Instance < 0 {
		return errors.New("instance must be >= 0")
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
