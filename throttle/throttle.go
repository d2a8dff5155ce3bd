// Package throttle limits how often a function runs while still honouring
// the most recent call.
//
// A Throttler runs the wrapped function immediately on the first call of a
// burst (leading edge). Calls that arrive within the interval of the last
// execution replace any pending deferred run with a new one scheduled one
// interval after the triggering call, using that call's argument (trailing
// edge). A burst therefore collapses into one leading and one trailing run.
package throttle

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// DefaultInterval is used when the configured interval is not positive.
const DefaultInterval = 250 * time.Millisecond

// Option configures a Throttler.
type Option func(*config)

type config struct {
	clock quartz.Clock
}

// WithClock sets the clock used for timestamps and deferred runs.
func WithClock(clock quartz.Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// Throttler wraps a function of one argument. It is safe for concurrent use
// and the wrapped function may call back into the Throttler.
type Throttler[T any] struct {
	fn       func(T)
	interval time.Duration
	clock    quartz.Clock

	mu      sync.Mutex
	ran     bool
	last    time.Time
	timer   *quartz.Timer
	gen     uint64
	stopped bool
}

// New wraps fn so that it executes at most once per interval.
func New[T any](fn func(T), interval time.Duration, opts ...Option) *Throttler[T] {
	cfg := config{clock: quartz.NewReal()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Throttler[T]{
		fn:       fn,
		interval: interval,
		clock:    cfg.clock,
	}
}

// Interval returns the effective spacing between executions.
func (t *Throttler[T]) Interval() time.Duration {
	return t.interval
}

// Call runs fn now or schedules it, depending on when fn last ran.
func (t *Throttler[T]) Call(arg T) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}

	now := t.clock.Now("throttle", "call")
	t.cancelLocked()

	if t.ran && now.Before(t.last.Add(t.interval)) {
		gen := t.gen
		t.timer = t.clock.AfterFunc(t.interval, func() {
			t.fire(gen, now, arg)
		}, "throttle", "trailing")
		t.mu.Unlock()
		return
	}

	t.ran = true
	t.last = now
	t.mu.Unlock()

	t.fn(arg)
}

// Pending reports whether a trailing run is scheduled.
func (t *Throttler[T]) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// Stop cancels any pending run. Later calls are ignored.
func (t *Throttler[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.cancelLocked()
}

// cancelLocked drops the pending timer. Bumping gen also invalidates a timer
// whose function has already started but not yet taken the lock.
func (t *Throttler[T]) cancelLocked() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Throttler[T]) fire(gen uint64, triggered time.Time, arg T) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.ran = true
	t.last = triggered
	t.mu.Unlock()

	t.fn(arg)
}
