// ABOUTME: Pure scroll synchronization state machine
// ABOUTME: Computes shift, edge continuation and re-centering from events
package timeline

import (
	"math"
	"time"

	"github.com/harperreed/tzscroll/internal/timescale"
)

// Options tune the timeline geometry
type Options struct {
	// WidthFactor is the materialized width as a multiple of the viewport
	WidthFactor float64
	// IndicatorRatio places the indicator as a fraction of the viewport width
	IndicatorRatio float64
	// EdgeTolerance is how close (px) to an edge counts as reaching it
	EdgeTolerance float64
	// PixelDuration is the time covered by one pixel
	PixelDuration time.Duration
}

// DefaultOptions returns the stock timeline geometry
func DefaultOptions() Options {
	return Options{
		WidthFactor:    5,
		IndicatorRatio: 0.5,
		EdgeTolerance:  0.5,
		PixelDuration:  timescale.DefaultPixelDuration,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.WidthFactor < 1 {
		o.WidthFactor = d.WidthFactor
	}
	if o.IndicatorRatio <= 0 || o.IndicatorRatio >= 1 {
		o.IndicatorRatio = d.IndicatorRatio
	}
	if o.EdgeTolerance < 0 {
		o.EdgeTolerance = 0
	}
	if o.PixelDuration <= 0 {
		o.PixelDuration = d.PixelDuration
	}
	return o
}

// Machine holds the transition rules. It has no mutable state.
type Machine struct {
	opts Options
}

// NewMachine creates a machine with normalized options
func NewMachine(opts Options) Machine {
	return Machine{opts: opts.normalized()}
}

// Options returns the normalized options
func (m Machine) Options() Options {
	return m.opts
}

// IndicatorPixel is the absolute pixel under the indicator
func (m Machine) IndicatorPixel(offset, clientWidth float64) float64 {
	return offset + m.opts.IndicatorRatio*clientWidth
}

// Transition applies one event to a state and returns the new state plus the
// effects to apply, in order.
func (m Machine) Transition(s State, e Event) (State, []Effect) {
	switch ev := e.(type) {
	case JumpTo:
		return m.recenter(s, ev.At, ev.ClientWidth)
	case Scrolled:
		return m.scrolled(s, ev)
	case Resized:
		return m.resized(s, ev)
	case Settled:
		if s.Phase == UserScrolling {
			s.Phase = Idle
		}
		return s, nil
	}
	return s, nil
}

func (m Machine) scrolled(s State, ev Scrolled) (State, []Effect) {
	if !s.Ready() {
		s.Offset = ev.Offset
		s.ClientWidth = ev.ClientWidth
		return s, nil
	}

	// No position change: this is the echo of our own repositioning
	if ev.Offset == s.Offset && ev.ClientWidth == s.ClientWidth {
		return s, nil
	}

	s.Phase = UserScrolling
	s.Offset = ev.Offset
	s.ClientWidth = ev.ClientWidth

	candidate := s.Scale.Invert(m.IndicatorPixel(ev.Offset, ev.ClientWidth))
	s.Shift = candidate.Sub(s.Reference)

	effects := []Effect{Publish{Snapshot: s.Snapshot()}}

	if !m.atEdge(ev) {
		return s, effects
	}

	// The edge changes the domain, not the user's intended offset: the
	// indicated instant becomes the new reference
	s.Phase = EdgeContinuation
	next, more := m.recenter(s, candidate, ev.ClientWidth)
	return next, append(effects, more...)
}

func (m Machine) resized(s State, ev Resized) (State, []Effect) {
	if !s.Ready() {
		s.ClientWidth = ev.ClientWidth
		return s, nil
	}

	indicated := s.Indicated()
	scale := m.scaleFor(indicated, ev.ClientWidth)

	// Keep the shift unless the reference would fall outside the new domain
	if scale.Contains(s.Reference) {
		s.Scale = scale
		s.ClientWidth = ev.ClientWidth
		s.Offset = m.offsetFor(scale, indicated, ev.ClientWidth)
		s.Phase = Idle
		s.Gen++
		return s, []Effect{
			SetScrollOffset{Offset: s.Offset},
			Publish{Snapshot: s.Snapshot()},
		}
	}

	return m.recenter(s, indicated, ev.ClientWidth)
}

// recenter rebuilds the scale on at, makes at the reference and positions the
// viewport so the indicator shows at. The shift is suspended for the rebuild.
func (m Machine) recenter(s State, at time.Time, clientWidth float64) (State, []Effect) {
	s.Scale = m.scaleFor(at, clientWidth)
	s.Reference = at
	s.Shift = 0
	s.ShiftSuspended = true
	s.ClientWidth = clientWidth
	s.Offset = m.offsetFor(s.Scale, at, clientWidth)
	s.Gen++

	effects := []Effect{
		SetScrollOffset{Offset: s.Offset},
		Publish{Snapshot: s.Snapshot()},
	}

	s.ShiftSuspended = false
	s.Phase = Idle
	return s, effects
}

func (m Machine) scaleFor(center time.Time, clientWidth float64) timescale.Scale {
	return timescale.New(center, clientWidth, m.opts.WidthFactor, m.opts.PixelDuration)
}

func (m Machine) offsetFor(scale timescale.Scale, at time.Time, clientWidth float64) float64 {
	return scale.Forward(at) - m.opts.IndicatorRatio*clientWidth
}

// atEdge reports whether the offset reached either end of the scrollable
// range. A range no wider than the viewport counts as the minimum edge.
func (m Machine) atEdge(ev Scrolled) bool {
	tol := m.opts.EdgeTolerance
	maxOffset := ev.ScrollWidth - ev.ClientWidth
	if maxOffset <= tol {
		return true
	}
	if ev.Offset <= tol {
		return true
	}
	return math.Abs(maxOffset-ev.Offset) <= tol || ev.Offset > maxOffset
}
