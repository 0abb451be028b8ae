// ABOUTME: Scroll synchronization controller around the pure state machine
// ABOUTME: Reads and writes the viewport and publishes snapshots to renderers
package timeline

import (
	"log"
	"sync"
	"time"

	"github.com/harperreed/tzscroll/internal/tz"
)

// Viewport is the scrollable surface the timeline is drawn in
type Viewport interface {
	ScrollLeft() float64
	SetScrollLeft(px float64)
	ClientWidth() float64
	ScrollWidth() float64
}

// Controller owns the scroll state. Every operation runs to completion under
// a lock, so a rebuild is always visible before the viewport is repositioned.
//
// Subscribers are called in publish order but must not call back into the
// controller from inside the callback.
type Controller struct {
	mu    sync.Mutex
	pubMu sync.Mutex

	machine  Machine
	state    State
	viewport Viewport
	conv     *tz.Converter
	clock    Clock

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	detach []func()
}

// NewController creates a controller. The timeline stays unbuilt until the
// first ScrollTo or ScrollToNow.
func NewController(vp Viewport, conv *tz.Converter, clock Clock, opts Options) *Controller {
	if conv == nil {
		conv = tz.NewConverter(nil)
	}
	if clock == nil {
		clock = SystemClock{}
	}

	return &Controller{
		machine:  NewMachine(opts),
		viewport: vp,
		conv:     conv,
		clock:    clock,
		subs:     make(map[int]func(Snapshot)),
	}
}

// Options returns the geometry the controller runs with
func (c *Controller) Options() Options {
	return c.machine.Options()
}

// Converter returns the timezone converter used by PickTime
func (c *Controller) Converter() *tz.Converter {
	return c.conv
}

// Attach subscribes OnResize to a resize event source
func (c *Controller) Attach(resizes EventSource) {
	cancel := resizes.Subscribe(c.OnResize)

	c.mu.Lock()
	c.detach = append(c.detach, cancel)
	c.mu.Unlock()
}

// Close detaches from every event source
func (c *Controller) Close() {
	c.mu.Lock()
	detach := c.detach
	c.detach = nil
	c.mu.Unlock()

	for _, cancel := range detach {
		cancel()
	}
}

// Subscribe registers a renderer and returns a func that removes it
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// Snapshot returns the current state for rendering
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// OnScroll handles a scroll position change of the viewport
func (c *Controller) OnScroll() {
	c.dispatch(func() Event {
		return Scrolled{
			Offset:      c.viewport.ScrollLeft(),
			ClientWidth: c.viewport.ClientWidth(),
			ScrollWidth: c.viewport.ScrollWidth(),
		}
	})
}

// OnResize keeps the indicated instant in place across a viewport resize
func (c *Controller) OnResize() {
	c.dispatch(func() Event {
		return Resized{ClientWidth: c.viewport.ClientWidth()}
	})
}

// ScrollTo re-centers the timeline on at and clears the shift
func (c *Controller) ScrollTo(at time.Time) {
	c.dispatch(func() Event {
		return JumpTo{At: at, ClientWidth: c.viewport.ClientWidth()}
	})
}

// ScrollToNow re-centers the timeline on the current time
func (c *Controller) ScrollToNow() {
	c.ScrollTo(c.clock.Now())
}

// PickTime jumps to the reference instant matching a wall time picked on a
// city clock whose offset is remoteOffsetMinutes
func (c *Controller) PickTime(remoteWall time.Time, remoteOffsetMinutes int) {
	at := c.conv.RemoteToReference(remoteWall, remoteOffsetMinutes)
	log.Printf("Picked %s (offset %s), jumping to %s",
		remoteWall.Format("2006-01-02 15:04"), tz.FormatOffset(remoteOffsetMinutes), at.Format(time.RFC3339))
	c.ScrollTo(at)
}

// Settle ends the current scroll gesture
func (c *Controller) Settle() {
	c.dispatch(func() Event { return Settled{} })
}

// dispatch runs one transition and applies its effects. The event is built
// under the lock so it reads the viewport after any previous repositioning.
func (c *Controller) dispatch(build func() Event) {
	c.mu.Lock()

	next, effects := c.machine.Transition(c.state, build())

	var published []Snapshot
	moved := false
	for _, eff := range effects {
		switch e := eff.(type) {
		case SetScrollOffset:
			c.viewport.SetScrollLeft(e.Offset)
			// The viewport may clamp; remember where it actually is so its
			// echo is not mistaken for a user scroll
			next.Offset = c.viewport.ScrollLeft()
			moved = true
		case Publish:
			snap := e.Snapshot
			if moved {
				snap.Offset = next.Offset
			}
			published = append(published, snap)
		}
	}

	if next.Gen != c.state.Gen {
		log.Printf("Timeline rebuilt #%d around %s (shift %v)",
			next.Gen, next.Indicated().Format(time.RFC3339), next.Shift)
	}
	c.state = next

	// Hold the publish lock before releasing state so publishes keep their order
	c.pubMu.Lock()
	c.mu.Unlock()
	defer c.pubMu.Unlock()

	if len(published) == 0 {
		return
	}

	c.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(c.subs))
	for id := 0; id < c.nextSub; id++ {
		if fn, ok := c.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	c.subMu.Unlock()

	for _, snap := range published {
		for _, fn := range fns {
			fn(snap)
		}
	}
}
