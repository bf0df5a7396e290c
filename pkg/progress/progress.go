// Package progress publishes best-effort progress events for a running
// migration. Emission never blocks the run: when no one is listening, or
// the listener falls behind, events are dropped.
package progress

import (
	"sync"

	"github.com/Ramsey-B/clover/pkg/models"
)

const defaultBuffer = 64

// Tracker fans progress events out to an optional subscriber and keeps the
// latest event for polling.
type Tracker struct {
	mu     sync.Mutex
	latest models.Progress
	events chan models.Progress
	closed bool
}

func NewTracker() *Tracker {
	return &Tracker{
		events: make(chan models.Progress, defaultBuffer),
	}
}

// Emit records a progress event. It never blocks; if the event buffer is
// full the event is dropped and only Latest reflects it.
func (t *Tracker) Emit(step string, percent int, message string) {
	event := models.Progress{Step: step, Percent: percent, Message: message}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.latest = event
	if t.closed {
		return
	}
	select {
	case t.events <- event:
	default:
	}
}

// Latest returns the most recently emitted event.
func (t *Tracker) Latest() models.Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}

// Events returns the event stream. The channel is closed when the run
// finishes.
func (t *Tracker) Events() <-chan models.Progress {
	return t.events
}

// Close ends the event stream. Emit remains safe to call afterwards.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.events)
	}
}

// ScalePercent maps item i of n (zero-based) onto the [base, base+span]
// percent range, mirroring how per-unit progress advances inside the
// processing phase.
func ScalePercent(base, span, i, n int) int {
	if n <= 0 {
		return base + span
	}
	return base + span*(i+1)/n
}
