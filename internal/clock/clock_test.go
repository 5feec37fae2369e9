package clock

import (
	"testing"
	"time"
)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2025, time.January, 8, 9, 5, 0, 0, time.UTC)
	c := NewFake(start)

	var order []string
	c.AfterFunc(300*time.Millisecond, func() { order = append(order, "b") })
	c.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	c.AfterFunc(2*time.Second, func() { order = append(order, "c") })

	c.Advance(time.Second)

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("fired = %v, want [a b]", order)
	}
	if c.Pending() != 1 {
		t.Fatalf("Pending = %d, want 1", c.Pending())
	}
	if got := c.Now(); !got.Equal(start.Add(time.Second)) {
		t.Fatalf("Now = %v, want %v", got, start.Add(time.Second))
	}
}

func TestFakeStopPreventsCall(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	called := false
	timer := c.AfterFunc(time.Millisecond, func() { called = true })

	if !timer.Stop() {
		t.Fatalf("Stop = false, want true for pending timer")
	}
	if timer.Stop() {
		t.Fatalf("second Stop = true, want false")
	}
	c.Advance(time.Second)
	if called {
		t.Fatalf("stopped timer fired")
	}
}

func TestFakeCallbackSeesDeadlineAndCanRearm(t *testing.T) {
	c := NewFake(time.Unix(10, 0))
	var seen []time.Time
	var arm func()
	arm = func() {
		c.AfterFunc(time.Second, func() {
			seen = append(seen, c.Now())
			arm()
		})
	}
	arm()

	c.Advance(3500 * time.Millisecond)

	if len(seen) != 3 {
		t.Fatalf("fired %d times, want 3", len(seen))
	}
	for i, ts := range seen {
		want := time.Unix(int64(11+i), 0)
		if !ts.Equal(want) {
			t.Fatalf("fire %d saw %v, want %v", i, ts, want)
		}
	}
}
