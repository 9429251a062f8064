// Package system provides the real clock implementation.
package system

import "time"

// Clock implements prime.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time. The monotonic reading is retained so
// search-duration arithmetic is immune to wall-clock adjustments.
func (Clock) Now() time.Time {
	return time.Now()
}
