// ABOUTME: Linear time-to-pixel scale for the clock timeline
// ABOUTME: Maps a time window onto a pixel range and back again
package timescale

import (
	"fmt"
	"math"
	"time"
)

// DefaultPixelDuration is how much time one pixel (one terminal column) covers
const DefaultPixelDuration = time.Minute

// Scale maps the domain [DomainStart, DomainEnd] linearly onto the range
// [RangeStart, RangeEnd]. A Scale is a value; rebuild it instead of mutating it.
type Scale struct {
	DomainStart time.Time
	DomainEnd   time.Time
	RangeStart  float64
	RangeEnd    float64
}

// New builds a scale centered on center. The range is
// [0, viewportWidth*widthFactor] and every pixel covers pixelDuration.
func New(center time.Time, viewportWidth, widthFactor float64, pixelDuration time.Duration) Scale {
	if widthFactor < 1 {
		widthFactor = 1
	}
	if pixelDuration <= 0 {
		pixelDuration = DefaultPixelDuration
	}

	span := viewportWidth * widthFactor
	if span < 1 {
		span = 1
	}

	// Keep the half window on a whole millisecond so the center maps back exactly
	half := time.Duration(span / 2 * float64(pixelDuration)).Round(time.Millisecond)
	if half < time.Millisecond {
		half = time.Millisecond
	}

	return Scale{
		DomainStart: center.Add(-half),
		DomainEnd:   center.Add(half),
		RangeStart:  0,
		RangeEnd:    span,
	}
}

// pixelsPerMilli returns the slope of the mapping
func (s Scale) pixelsPerMilli() float64 {
	domain := float64(s.DomainEnd.Sub(s.DomainStart)) / float64(time.Millisecond)
	if domain == 0 {
		return 0
	}
	return (s.RangeEnd - s.RangeStart) / domain
}

// Forward maps an instant to a pixel position. Instants outside the domain
// extrapolate linearly; they are not clamped.
func (s Scale) Forward(t time.Time) float64 {
	elapsed := float64(t.Sub(s.DomainStart)) / float64(time.Millisecond)
	return s.RangeStart + elapsed*s.pixelsPerMilli()
}

// Invert maps a pixel position back to an instant, rounded to the millisecond
func (s Scale) Invert(px float64) time.Time {
	k := s.pixelsPerMilli()
	if k == 0 {
		return s.DomainStart
	}
	ms := math.Round((px - s.RangeStart) / k)
	return s.DomainStart.Add(time.Duration(ms) * time.Millisecond)
}

// Span is the width of the range in pixels
func (s Scale) Span() float64 {
	return s.RangeEnd - s.RangeStart
}

// Center is the midpoint of the domain
func (s Scale) Center() time.Time {
	return s.DomainStart.Add(s.DomainEnd.Sub(s.DomainStart) / 2)
}

// PixelDuration is the amount of time covered by one pixel
func (s Scale) PixelDuration() time.Duration {
	span := s.Span()
	if span == 0 {
		return 0
	}
	return time.Duration(float64(s.DomainEnd.Sub(s.DomainStart)) / span)
}

// Contains reports whether t lies inside the domain, bounds included
func (s Scale) Contains(t time.Time) bool {
	return !t.Before(s.DomainStart) && !t.After(s.DomainEnd)
}

// IsZero reports whether the scale has never been built
func (s Scale) IsZero() bool {
	return s.Span() == 0
}

func (s Scale) String() string {
	return fmt.Sprintf("[%s .. %s] -> [%.1f .. %.1f]",
		s.DomainStart.UTC().Format(time.RFC3339), s.DomainEnd.UTC().Format(time.RFC3339),
		s.RangeStart, s.RangeEnd)
}
