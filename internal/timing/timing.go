// Package timing records how long each phase of a lifecycle operation took,
// so grace periods and polling can be tuned from debug logs.
package timing

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Timer tracks durations of named phases.
type Timer struct {
	clk    clock.PassiveClock
	start  time.Time
	last   time.Time
	phases []Phase
}

// Phase represents a timed phase with name and duration.
type Phase struct {
	Name     string
	Duration time.Duration
}

// New creates a Timer starting from clk's current time.
func New(clk clock.PassiveClock) *Timer {
	now := clk.Now()
	return &Timer{clk: clk, start: now, last: now}
}

// Mark records a named phase ending now.
// Duration is time since last mark (or since start if first mark).
func (t *Timer) Mark(name string) {
	now := t.clk.Now()
	t.phases = append(t.phases, Phase{Name: name, Duration: now.Sub(t.last)})
	t.last = now
}

// Total returns the elapsed time since the timer was created.
func (t *Timer) Total() time.Duration {
	return t.clk.Since(t.start)
}

// Phases returns all recorded phases.
func (t *Timer) Phases() []Phase {
	return t.phases
}

// Fields renders the phases as log fields, plus a "total" field.
func (t *Timer) Fields() logrus.Fields {
	fields := make(logrus.Fields, len(t.phases)+1)
	for _, p := range t.phases {
		fields[p.Name] = formatDuration(p.Duration)
	}
	fields["total"] = formatDuration(t.Total())
	return fields
}

// Log emits the phase breakdown at debug level.
func (t *Timer) Log(log logrus.FieldLogger, msg string) {
	log.WithFields(t.Fields()).Debug(msg)
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
