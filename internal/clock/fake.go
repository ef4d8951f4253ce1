package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a deterministic Clock. Time moves only on Advance.
//
// AfterFunc callbacks run synchronously inside Advance, in deadline
// order; ties fire in registration order. Do not call Advance from a
// callback.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	waiters []*waiter
	changed *sync.Cond
}

type waiter struct {
	deadline time.Time
	seq      uint64
	callback func()         // AfterFunc
	ch       chan time.Time // ticker
	interval time.Duration  // >0 for tickers
	stopped  bool
	fired    bool
}

// Fake returns a FakeClock set to initial.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{now: initial}
	c.changed = sync.NewCond(&c.mu)
	return c
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	c.mu.Lock()
	if d <= 0 {
		c.mu.Unlock()
		f()
		return &Timer{stop: func() bool { return false }}
	}
	w := c.addLocked(&waiter{deadline: c.now.Add(d), callback: f})
	c.mu.Unlock()

	return &Timer{stop: func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if w.stopped || w.fired {
			return false
		}
		w.stopped = true
		return true
	}}
}

func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	ch := make(chan time.Time, 1)
	c.mu.Lock()
	w := c.addLocked(&waiter{deadline: c.now.Add(d), ch: ch, interval: d})
	c.mu.Unlock()

	return &Ticker{C: ch, stop: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		w.stopped = true
	}}
}

func (c *FakeClock) addLocked(w *waiter) *waiter {
	c.seq++
	w.seq = c.seq
	c.waiters = append(c.waiters, w)
	c.changed.Broadcast()
	return w
}

// Advance moves the clock forward by d, firing everything due on the way.
// Each waiter observes the clock at its own deadline, so a callback that
// reschedules itself keeps a steady cadence across one large Advance.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		w := c.nextDue(target)
		if w == nil {
			break
		}
		switch {
		case w.callback != nil:
			w.callback()
		case w.ch != nil:
			select {
			case w.ch <- w.deadline:
			default:
			}
		}
	}

	c.mu.Lock()
	c.now = target
	c.mu.Unlock()
}

// nextDue pops the earliest waiter due at or before target and moves the
// clock to its deadline. Tickers are rescheduled.
func (c *FakeClock) nextDue(target time.Time) *waiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.stopped && !w.fired {
			live = append(live, w)
		}
	}
	c.waiters = live
	if len(live) == 0 {
		return nil
	}
	sort.SliceStable(live, func(i, j int) bool {
		if live[i].deadline.Equal(live[j].deadline) {
			return live[i].seq < live[j].seq
		}
		return live[i].deadline.Before(live[j].deadline)
	})
	w := live[0]
	if w.deadline.After(target) {
		return nil
	}
	if w.deadline.After(c.now) {
		c.now = w.deadline
	}
	fired := *w
	if w.interval > 0 {
		w.deadline = w.deadline.Add(w.interval)
		c.seq++
		w.seq = c.seq
	} else {
		w.fired = true
	}
	return &fired
}

// WaitForTimers blocks until at least n timers or tickers are pending.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of armed timers and tickers.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *FakeClock) pendingLocked() int {
	n := 0
	for _, w := range c.waiters {
		if !w.stopped && !w.fired {
			n++
		}
	}
	return n
}
