// Package dispatch provides the serial callback queue the watch face engine
// runs on, with an Android-handler style message API for deferred ticks.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/weather-watchface/internal/clock"
)

// Receiver handles messages sent through a Handler.
type Receiver interface {
	HandleMessage(what int)
}

// Queue runs posted tasks one at a time on the goroutine that drives it,
// which is the single callback thread the engine relies on.
//
// Handlers never keep a reference to their receiver: delivery looks the
// receiver up by id, so a released handler's pending messages become no-ops.
type Queue struct {
	clock clock.Clock

	mu        sync.Mutex
	pending   []func()
	wake      chan struct{}
	nextID    uint64
	nextSeq   uint64
	receivers map[uint64]Receiver
	gens      map[msgKey]uint64
	counts    map[msgKey]int
	timers    map[msgKey]map[uint64]clock.Timer
}

type msgKey struct {
	id   uint64
	what int
}

// NewQueue creates an empty queue using clk for delayed messages.
func NewQueue(clk clock.Clock) *Queue {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Queue{
		clock:     clk,
		wake:      make(chan struct{}, 1),
		receivers: make(map[uint64]Receiver),
		gens:      make(map[msgKey]uint64),
		counts:    make(map[msgKey]int),
		timers:    make(map[msgKey]map[uint64]clock.Timer),
	}
}

// Clock returns the queue's time source.
func (q *Queue) Clock() clock.Clock {
	return q.clock
}

// Post enqueues fn. Safe to call from any goroutine; never blocks.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Run executes tasks until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) error {
	for {
		q.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
		}
	}
}

// RunPending executes queued tasks, including tasks they post, on the calling
// goroutine and returns how many ran.
func (q *Queue) RunPending() int {
	ran := 0
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return ran
		}
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		fn()
		ran++
	}
}

// Register returns a Handler delivering messages to r.
func (q *Queue) Register(r Receiver) *Handler {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	q.receivers[q.nextID] = r
	return &Handler{queue: q, id: q.nextID}
}

// Handler sends messages to one registered receiver.
type Handler struct {
	queue *Queue
	id    uint64
}

// SendEmpty enqueues what for immediate delivery.
func (h *Handler) SendEmpty(what int) {
	h.SendEmptyDelayed(what, 0)
}

// SendEmptyDelayed delivers what after d.
func (h *Handler) SendEmptyDelayed(what int, d time.Duration) {
	q := h.queue
	key := msgKey{id: h.id, what: what}

	q.mu.Lock()
	if _, live := q.receivers[h.id]; !live {
		q.mu.Unlock()
		return
	}
	gen := q.gens[key]
	q.counts[key]++
	if d <= 0 {
		q.mu.Unlock()
		q.Post(func() { q.deliver(key, gen) })
		return
	}
	q.nextSeq++
	seq := q.nextSeq
	// The callback blocks on q.mu until the timer is recorded below.
	timer := q.clock.AfterFunc(d, func() {
		q.mu.Lock()
		delete(q.timers[key], seq)
		q.mu.Unlock()
		q.Post(func() { q.deliver(key, gen) })
	})
	if q.timers[key] == nil {
		q.timers[key] = make(map[uint64]clock.Timer)
	}
	q.timers[key][seq] = timer
	q.mu.Unlock()
}

// Remove cancels every pending what message, timed or already queued.
func (h *Handler) Remove(what int) {
	q := h.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(msgKey{id: h.id, what: what})
}

// Has reports whether a what message is pending.
func (h *Handler) Has(what int) bool {
	q := h.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.counts[msgKey{id: h.id, what: what}] > 0
}

// Release unregisters the receiver and drops all of its pending messages.
func (h *Handler) Release() {
	q := h.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.receivers, h.id)
	for key := range q.counts {
		if key.id == h.id {
			q.removeLocked(key)
		}
	}
	for key := range q.timers {
		if key.id == h.id {
			q.removeLocked(key)
		}
	}
}

func (q *Queue) removeLocked(key msgKey) {
	q.gens[key]++
	delete(q.counts, key)
	for _, t := range q.timers[key] {
		t.Stop()
	}
	delete(q.timers, key)
}

func (q *Queue) deliver(key msgKey, gen uint64) {
	q.mu.Lock()
	r, live := q.receivers[key.id]
	if !live || q.gens[key] != gen {
		q.mu.Unlock()
		return
	}
	if q.counts[key] > 0 {
		q.counts[key]--
	}
	q.mu.Unlock()

	r.HandleMessage(key.what)
}
