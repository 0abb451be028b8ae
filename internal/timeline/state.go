// ABOUTME: Scroll synchronization state, events and effects
// ABOUTME: Value types shared by the pure transition function and the controller
package timeline

import (
	"time"

	"github.com/harperreed/tzscroll/internal/timescale"
)

// Phase is the controller's position in the scroll state machine
type Phase int

const (
	Idle Phase = iota
	UserScrolling
	EdgeContinuation
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case UserScrolling:
		return "scrolling"
	case EdgeContinuation:
		return "edge-continuation"
	default:
		return "unknown"
	}
}

// State is the authoritative scroll state. Only the controller mutates it.
type State struct {
	Reference time.Time
	Shift     time.Duration
	Scale     timescale.Scale

	// ShiftSuspended is only true inside a transition that re-centers the scale
	ShiftSuspended bool
	Phase          Phase

	// Offset and ClientWidth are the last viewport geometry the state saw
	Offset      float64
	ClientWidth float64

	// Gen counts scale rebuilds
	Gen uint64
}

// Ready reports whether a scale has been built yet
func (s State) Ready() bool {
	return !s.Scale.IsZero()
}

// Indicated is the instant shown under the indicator
func (s State) Indicated() time.Time {
	return s.Reference.Add(s.Shift)
}

// Snapshot returns an immutable copy for renderers
func (s State) Snapshot() Snapshot {
	return Snapshot{
		Reference:   s.Reference,
		Shift:       s.Shift,
		Scale:       s.Scale,
		Phase:       s.Phase,
		Offset:      s.Offset,
		ClientWidth: s.ClientWidth,
		Gen:         s.Gen,
		Recentered:  s.ShiftSuspended,
	}
}

// Snapshot is what renderers receive. Every value in one snapshot shares the
// same reference and shift.
type Snapshot struct {
	Reference   time.Time
	Shift       time.Duration
	Scale       timescale.Scale
	Phase       Phase
	Offset      float64
	ClientWidth float64
	Gen         uint64

	// Recentered marks a snapshot published while the scale was rebuilt
	Recentered bool
}

// Indicated is the instant shown under the indicator
func (s Snapshot) Indicated() time.Time {
	return s.Reference.Add(s.Shift)
}

// Event drives a transition
type Event interface {
	isEvent()
}

// Scrolled reports the viewport geometry after a scroll
type Scrolled struct {
	Offset      float64
	ClientWidth float64
	ScrollWidth float64
}

// Resized reports a new viewport width
type Resized struct {
	ClientWidth float64
}

// JumpTo re-centers the timeline on an instant and clears the shift
type JumpTo struct {
	At          time.Time
	ClientWidth float64
}

// Settled ends a user scroll gesture
type Settled struct{}

func (Scrolled) isEvent() {}
func (Resized) isEvent()  {}
func (JumpTo) isEvent()   {}
func (Settled) isEvent()  {}

// Effect is a side effect the controller must apply after a transition
type Effect interface {
	isEffect()
}

// SetScrollOffset moves the viewport
type SetScrollOffset struct {
	Offset float64
}

// Publish hands a snapshot to renderers
type Publish struct {
	Snapshot Snapshot
}

func (SetScrollOffset) isEffect() {}
func (Publish) isEffect()         {}
