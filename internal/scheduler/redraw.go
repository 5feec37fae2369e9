// Package scheduler drives the watch face's periodic work: the per-second
// interactive redraw tick, and gocron jobs for the coarse time tick and the
// companion weather sync.
package scheduler

import (
	"time"

	"github.com/i474232898/weather-watchface/internal/clock"
)

// MsgUpdateTime is the message id of the interactive tick.
const MsgUpdateTime = 0

// InteractiveUpdatePeriod is the redraw cadence while interactive.
const InteractiveUpdatePeriod = time.Second

// Sender posts and cancels tick messages. *dispatch.Handler implements it.
type Sender interface {
	SendEmpty(what int)
	SendEmptyDelayed(what int, d time.Duration)
	Remove(what int)
	Has(what int) bool
}

// Redraw keeps at most one tick pending and re-arms it on each second
// boundary for as long as shouldRun holds.
type Redraw struct {
	sender     Sender
	clock      clock.Clock
	period     time.Duration
	shouldRun  func() bool
	invalidate func()
}

// NewRedraw builds a scheduler. invalidate is called on every tick.
func NewRedraw(sender Sender, clk clock.Clock, shouldRun func() bool, invalidate func()) *Redraw {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Redraw{
		sender:     sender,
		clock:      clk,
		period:     InteractiveUpdatePeriod,
		shouldRun:  shouldRun,
		invalidate: invalidate,
	}
}

// Update cancels any pending tick and, if the timer should run, sends an
// immediate one. Call it after every visibility or ambient change.
func (r *Redraw) Update() {
	r.sender.Remove(MsgUpdateTime)
	if r.shouldRun() {
		r.sender.SendEmpty(MsgUpdateTime)
	}
}

// OnTick redraws and arms the next tick on the next period boundary.
func (r *Redraw) OnTick() {
	r.invalidate()
	if r.shouldRun() {
		r.sender.SendEmptyDelayed(MsgUpdateTime, NextDelay(r.clock.Now(), r.period))
	}
}

// Stop cancels any pending tick.
func (r *Redraw) Stop() {
	r.sender.Remove(MsgUpdateTime)
}

// Pending reports whether a tick is armed.
func (r *Redraw) Pending() bool {
	return r.sender.Has(MsgUpdateTime)
}

// NextDelay returns the time from now to the next multiple of period since
// the Unix epoch, in whole milliseconds. It is never zero: a tick landing
// exactly on a boundary waits a full period.
func NextDelay(now time.Time, period time.Duration) time.Duration {
	p := period.Milliseconds()
	if p <= 0 {
		return period
	}
	rem := now.UnixMilli() % p
	if rem < 0 {
		rem += p
	}
	return time.Duration(p-rem) * time.Millisecond
}
