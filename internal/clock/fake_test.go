package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2025, 6, 1, 7, 30, 0, 0, time.UTC)

func TestFakeNowAdvance(t *testing.T) {
	c := Fake(epoch)
	c.Advance(5 * time.Second)
	if got := c.Now(); !got.Equal(epoch.Add(5 * time.Second)) {
		t.Fatalf("Now() = %v", got)
	}
}

func TestFakeAfterFuncFiresOnce(t *testing.T) {
	c := Fake(epoch)
	calls := 0
	c.AfterFunc(time.Minute, func() { calls++ })

	c.Advance(59 * time.Second)
	if calls != 0 {
		t.Fatalf("fired early")
	}
	c.Advance(time.Second)
	c.Advance(time.Hour)
	if calls != 1 {
		t.Fatalf("want 1 call, got %d", calls)
	}
}

func TestFakeAfterFuncStop(t *testing.T) {
	c := Fake(epoch)
	fired := false
	tm := c.AfterFunc(time.Minute, func() { fired = true })
	if !tm.Stop() {
		t.Fatalf("Stop on pending timer should report true")
	}
	if tm.Stop() {
		t.Fatalf("second Stop should report false")
	}
	c.Advance(time.Hour)
	if fired {
		t.Fatalf("stopped timer fired")
	}
	if c.PendingCount() != 0 {
		t.Fatalf("pending = %d", c.PendingCount())
	}
}

func TestFakeCallbackSeesDeadline(t *testing.T) {
	c := Fake(epoch)
	var seen []time.Time
	var schedule func()
	schedule = func() {
		c.AfterFunc(5*time.Minute, func() {
			seen = append(seen, c.Now())
			schedule()
		})
	}
	schedule()

	c.Advance(15 * time.Minute)
	if len(seen) != 3 {
		t.Fatalf("want 3 firings, got %d", len(seen))
	}
	for i, at := range seen {
		want := epoch.Add(time.Duration(i+1) * 5 * time.Minute)
		if !at.Equal(want) {
			t.Fatalf("firing %d at %v, want %v", i, at, want)
		}
	}
}

func TestFakeTiesFireInRegistrationOrder(t *testing.T) {
	c := Fake(epoch)
	var order []string
	c.AfterFunc(time.Minute, func() { order = append(order, "a") })
	c.AfterFunc(time.Minute, func() { order = append(order, "b") })
	c.Advance(time.Minute)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v", order)
	}
}

func TestFakeTicker(t *testing.T) {
	c := Fake(epoch)
	tk := c.NewTicker(time.Minute)
	defer tk.Stop()

	c.Advance(time.Minute)
	select {
	case at := <-tk.C:
		if !at.Equal(epoch.Add(time.Minute)) {
			t.Fatalf("tick at %v", at)
		}
	default:
		t.Fatalf("no tick")
	}

	tk.Stop()
	c.Advance(time.Minute)
	select {
	case <-tk.C:
		t.Fatalf("tick after Stop")
	default:
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		c.AfterFunc(time.Second, func() {})
		close(done)
	}()
	c.WaitForTimers(1)
	<-done
	if c.PendingCount() != 1 {
		t.Fatalf("pending = %d", c.PendingCount())
	}
}
