// Package clock abstracts timers so session and trigger logic can run
// against virtual time in tests. Production code uses Real(); tests use
// Fake() and move time with Advance.
package clock

import "time"

// Clock is the subset of the time package the bot depends on.
type Clock interface {
	Now() time.Time

	// AfterFunc calls f in its own goroutine (real) or synchronously
	// during Advance (fake) once d has elapsed.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker panics if d <= 0, like time.NewTicker.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a cancellable one-shot callback.
type Timer struct {
	stop func() bool
}

// Stop prevents the callback from firing. It reports false if the timer
// already fired or was stopped.
func (t *Timer) Stop() bool { return t.stop() }

// Ticker delivers ticks on C. Slow consumers drop ticks.
type Ticker struct {
	C    <-chan time.Time
	stop func()
}

// Stop turns the ticker off. C is not closed.
func (t *Ticker) Stop() { t.stop() }

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stop: t.Stop}
}

func (realClock) NewTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{C: t.C, stop: t.Stop}
}
