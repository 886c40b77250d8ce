// Package timing provides small wall-clock timers for reporting how
// long document and page processing takes.
package timing

import (
	"fmt"
	"time"
)

// Timer measures one span of work. The zero value is not usable; start
// one with Start.
type Timer struct {
	name    string
	started time.Time
	stopped time.Duration
}

// Start begins timing a named span.
func Start(name string) *Timer {
	return &Timer{name: name, started: time.Now()}
}

// Stop ends the span and returns its duration. Further calls return
// the duration recorded by the first.
func (t *Timer) Stop() time.Duration {
	if t.stopped == 0 {
		t.stopped = time.Since(t.started)
	}
	return t.stopped
}

// Elapsed reports time since start without ending the span.
func (t *Timer) Elapsed() time.Duration {
	if t.stopped != 0 {
		return t.stopped
	}
	return time.Since(t.started)
}

// Name returns the span name.
func (t *Timer) Name() string { return t.name }

func (t *Timer) String() string {
	return fmt.Sprintf("%s: %v", t.name, t.Elapsed())
}
