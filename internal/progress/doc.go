// Package progress provides the event primitives, non-blocking hub, and
// emitter interfaces that prime workers use to report milestones. Events
// are drained on a background goroutine and fanned out to pluggable
// sinks such as Prometheus collectors or structured logs.
package progress
