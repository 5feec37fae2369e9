package lifecycle

import "sync"

// TimezoneBroadcaster fans timezone-change notifications out to subscribers.
// It also remembers the last id sent, which stands in for the system
// default timezone.
type TimezoneBroadcaster struct {
	mu      sync.Mutex
	current string
	nextID  uint64
	subs    map[uint64]func(string)
}

// NewTimezoneBroadcaster creates a broadcaster with no subscribers whose
// current timezone is initial.
func NewTimezoneBroadcaster(initial string) *TimezoneBroadcaster {
	return &TimezoneBroadcaster{current: initial, subs: make(map[uint64]func(string))}
}

// Current returns the most recent timezone id.
func (b *TimezoneBroadcaster) Current() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Subscribe adds fn. The returned func removes it and may be called more
// than once.
func (b *TimezoneBroadcaster) Subscribe(fn func(tz string)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Broadcast sends tz to every subscriber and returns how many received it.
func (b *TimezoneBroadcaster) Broadcast(tz string) int {
	b.mu.Lock()
	b.current = tz
	fns := make([]func(string), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(tz)
	}
	return len(fns)
}

// Subscribers returns the current subscriber count.
func (b *TimezoneBroadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
