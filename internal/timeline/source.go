// ABOUTME: Injected clock and event source abstractions for the timeline
// ABOUTME: Lets the controller run headless with fake time and fake resizes
package timeline

import (
	"sync"
	"time"
)

// Clock provides "now"
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns the current system time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock is a settable clock for tests and replays
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock stopped at t
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the clock's current time
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// EventSource delivers notifications such as viewport resizes
type EventSource interface {
	Subscribe(fn func()) (cancel func())
}

// Broadcaster is an EventSource fed by whoever owns the real events
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

// NewBroadcaster creates an empty broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]func())}
}

// Subscribe registers fn and returns a func that removes it
func (b *Broadcaster) Subscribe(fn func()) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Emit calls every subscriber in subscription order
func (b *Broadcaster) Emit() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for id := 0; id < b.next; id++ {
		if fn, ok := b.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
