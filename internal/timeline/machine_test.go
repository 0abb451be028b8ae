// ABOUTME: Tests for the pure scroll state machine
// ABOUTME: Tests transitions without any viewport
package timeline

import (
	"math"
	"testing"
	"time"
)

var ref = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func readyState(m Machine, at time.Time, width float64) State {
	s, _ := m.Transition(State{}, JumpTo{At: at, ClientWidth: width})
	return s
}

func publishes(effects []Effect) []Snapshot {
	var out []Snapshot
	for _, e := range effects {
		if p, ok := e.(Publish); ok {
			out = append(out, p.Snapshot)
		}
	}
	return out
}

func offsets(effects []Effect) []float64 {
	var out []float64
	for _, e := range effects {
		if o, ok := e.(SetScrollOffset); ok {
			out = append(out, o.Offset)
		}
	}
	return out
}

func TestJumpToBuildsCenteredScale(t *testing.T) {
	m := NewMachine(DefaultOptions())

	s, effects := m.Transition(State{}, JumpTo{At: ref, ClientWidth: 1000})

	if !s.Ready() {
		t.Fatal("expected scale to be built")
	}
	if !s.Reference.Equal(ref) || s.Shift != 0 {
		t.Errorf("expected reference %v with no shift, got %v / %v", ref, s.Reference, s.Shift)
	}
	if s.Scale.Span() != 5000 {
		t.Errorf("expected 5000px span, got %v", s.Scale.Span())
	}
	if s.Phase != Idle || s.ShiftSuspended {
		t.Errorf("expected idle with shift reporting restored, got %v suspended=%v", s.Phase, s.ShiftSuspended)
	}

	offs := offsets(effects)
	if len(offs) != 1 || !approx(offs[0], 2000) {
		t.Errorf("expected one reposition to 2000, got %v", offs)
	}

	snaps := publishes(effects)
	if len(snaps) != 1 || !snaps[0].Recentered || snaps[0].Shift != 0 {
		t.Errorf("expected one recentered publish with zero shift, got %+v", snaps)
	}
}

func TestScrollComputesShift(t *testing.T) {
	m := NewMachine(DefaultOptions())
	s := readyState(m, ref, 1000)

	s, effects := m.Transition(s, Scrolled{Offset: 2300, ClientWidth: 1000, ScrollWidth: 5000})

	want := s.Scale.Invert(2800).Sub(ref)
	if s.Shift != want {
		t.Errorf("expected shift %v, got %v", want, s.Shift)
	}
	if s.Shift != 300*time.Minute {
		t.Errorf("expected 300m shift, got %v", s.Shift)
	}
	if s.Phase != UserScrolling {
		t.Errorf("expected scrolling phase, got %v", s.Phase)
	}
	if len(offsets(effects)) != 0 {
		t.Error("expected no reposition away from the edges")
	}

	s, _ = m.Transition(s, Settled{})
	if s.Phase != Idle {
		t.Errorf("expected idle after settle, got %v", s.Phase)
	}
}

func TestScrollEchoIsIgnored(t *testing.T) {
	m := NewMachine(DefaultOptions())
	s := readyState(m, ref, 1000)

	next, effects := m.Transition(s, Scrolled{Offset: s.Offset, ClientWidth: 1000, ScrollWidth: 5000})

	if len(effects) != 0 {
		t.Errorf("expected no effects for an unchanged offset, got %v", effects)
	}
	if next.Phase != Idle || next.Shift != 0 {
		t.Errorf("expected idle state to be untouched, got %v shift %v", next.Phase, next.Shift)
	}
}

func TestScrollBeforeReady(t *testing.T) {
	m := NewMachine(DefaultOptions())

	s, effects := m.Transition(State{}, Scrolled{Offset: 10, ClientWidth: 100, ScrollWidth: 500})
	if len(effects) != 0 || s.Ready() {
		t.Error("expected scrolling an unbuilt timeline to do nothing")
	}
}

func TestEdgeContinuationAtMinimum(t *testing.T) {
	m := NewMachine(DefaultOptions())
	s := readyState(m, ref, 1000)
	old := s.Scale

	s, effects := m.Transition(s, Scrolled{Offset: 0, ClientWidth: 1000, ScrollWidth: 5000})

	shown := old.Invert(500)
	if !s.Reference.Equal(shown) {
		t.Errorf("expected new reference %v, got %v", shown, s.Reference)
	}
	if s.Shift != 0 {
		t.Errorf("expected shift 0 after continuation, got %v", s.Shift)
	}
	if s.Phase != Idle || s.ShiftSuspended {
		t.Errorf("expected idle after continuation, got %v suspended=%v", s.Phase, s.ShiftSuspended)
	}

	snaps := publishes(effects)
	if len(snaps) != 2 {
		t.Fatalf("expected the scroll publish and the recentered publish, got %d", len(snaps))
	}
	if snaps[0].Shift != -2000*time.Minute {
		t.Errorf("expected first publish to carry -2000m, got %v", snaps[0].Shift)
	}
	if snaps[1].Shift != 0 || !snaps[1].Recentered {
		t.Errorf("expected recentered publish with zero shift, got %+v", snaps[1])
	}
	if !snaps[0].Indicated().Equal(snaps[1].Indicated()) {
		t.Errorf("indicated instant jumped from %v to %v", snaps[0].Indicated(), snaps[1].Indicated())
	}

	offs := offsets(effects)
	if len(offs) != 1 {
		t.Fatalf("expected one reposition, got %v", offs)
	}
	if got := s.Scale.Invert(m.IndicatorPixel(offs[0], 1000)); !got.Equal(shown) {
		t.Errorf("expected indicator to keep showing %v, got %v", shown, got)
	}
}

func TestEdgeContinuationAtMaximum(t *testing.T) {
	m := NewMachine(DefaultOptions())
	s := readyState(m, ref, 1000)

	s, _ = m.Transition(s, Scrolled{Offset: 4000, ClientWidth: 1000, ScrollWidth: 5000})

	if !s.Reference.Equal(ref.Add(2000 * time.Minute)) {
		t.Errorf("expected reference two thousand minutes ahead, got %v", s.Reference)
	}
	if s.Shift != 0 {
		t.Errorf("expected shift 0, got %v", s.Shift)
	}
}

func TestEdgeTolerance(t *testing.T) {
	m := NewMachine(DefaultOptions())

	tests := []struct {
		offset float64
		edge   bool
	}{
		{0, true},
		{0.3, true},
		{1, false},
		{2000, false},
		{3999, false},
		{3999.7, true},
		{4000, true},
	}

	for _, tt := range tests {
		s := readyState(m, ref, 1000)
		next, _ := m.Transition(s, Scrolled{Offset: tt.offset, ClientWidth: 1000, ScrollWidth: 5000})
		rebuilt := next.Gen != s.Gen
		if rebuilt != tt.edge {
			t.Errorf("offset %v: expected edge=%v, got %v", tt.offset, tt.edge, rebuilt)
		}
	}
}

func TestExactEdgeWithZeroTolerance(t *testing.T) {
	opts := DefaultOptions()
	opts.EdgeTolerance = 0
	m := NewMachine(opts)

	s := readyState(m, ref, 1000)
	next, _ := m.Transition(s, Scrolled{Offset: 0.3, ClientWidth: 1000, ScrollWidth: 5000})
	if next.Gen != s.Gen {
		t.Error("expected no continuation short of the exact edge")
	}
}

func TestDegenerateRangeDoesNotPanic(t *testing.T) {
	m := NewMachine(DefaultOptions())
	s := readyState(m, ref, 1000)

	next, effects := m.Transition(s, Scrolled{Offset: 0, ClientWidth: 1000, ScrollWidth: 800})

	if next.Gen == s.Gen {
		t.Error("expected degenerate range to trigger continuation")
	}
	if next.Shift != 0 {
		t.Errorf("expected shift 0, got %v", next.Shift)
	}
	if len(offsets(effects)) != 1 {
		t.Errorf("expected a single reposition, got %v", offsets(effects))
	}
}

func TestResizeKeepsShiftAndIndicatedInstant(t *testing.T) {
	m := NewMachine(DefaultOptions())
	s := readyState(m, ref, 1000)
	s, _ = m.Transition(s, Scrolled{Offset: 2300, ClientWidth: 1000, ScrollWidth: 5000})
	indicated := s.Indicated()

	s, effects := m.Transition(s, Resized{ClientWidth: 800})

	if s.Shift != 300*time.Minute || !s.Reference.Equal(ref) {
		t.Errorf("expected shift and reference unchanged, got %v / %v", s.Shift, s.Reference)
	}
	if s.Scale.Span() != 4000 {
		t.Errorf("expected span 4000, got %v", s.Scale.Span())
	}

	offs := offsets(effects)
	if len(offs) != 1 {
		t.Fatalf("expected one reposition, got %v", offs)
	}
	if got := s.Scale.Invert(m.IndicatorPixel(offs[0], 800)); !got.Equal(indicated) {
		t.Errorf("expected indicator to show %v after resize, got %v", indicated, got)
	}
}

func TestResizeFoldsShiftWhenReferenceLeavesDomain(t *testing.T) {
	m := NewMachine(DefaultOptions())
	s := readyState(m, ref, 1000)
	s, _ = m.Transition(s, Scrolled{Offset: 3900, ClientWidth: 1000, ScrollWidth: 5000})
	indicated := s.Indicated()

	s, _ = m.Transition(s, Resized{ClientWidth: 300})

	if s.Shift != 0 || !s.Reference.Equal(indicated) {
		t.Errorf("expected reference %v with zero shift, got %v / %v", indicated, s.Reference, s.Shift)
	}
	if !s.Scale.Contains(s.Reference) {
		t.Error("expected reference inside the domain")
	}
}

func TestOptionsNormalized(t *testing.T) {
	m := NewMachine(Options{WidthFactor: 0.2, IndicatorRatio: 3, EdgeTolerance: -1})
	o := m.Options()

	if o.WidthFactor != 5 || o.IndicatorRatio != 0.5 || o.EdgeTolerance != 0 || o.PixelDuration != time.Minute {
		t.Errorf("unexpected normalized options: %+v", o)
	}
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		Idle:             "idle",
		UserScrolling:    "scrolling",
		EdgeContinuation: "edge-continuation",
		Phase(42):        "unknown",
	}
	for p, want := range tests {
		if p.String() != want {
			t.Errorf("Phase(%d).String() = %q, expected %q", int(p), p.String(), want)
		}
	}
}
