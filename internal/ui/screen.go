// ABOUTME: Terminal scroll surface the timeline controller drives
// ABOUTME: One terminal column is one pixel of the time scale
package ui

import "sync"

// screen is the timeline strip. Its content is factor times wider than what
// fits on the terminal, and left is the first visible column.
type screen struct {
	mu     sync.Mutex
	left   float64
	width  float64
	factor float64
}

func newScreen(factor float64) *screen {
	if factor < 1 {
		factor = 1
	}
	return &screen{factor: factor}
}

func (s *screen) ScrollLeft() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.left
}

// SetScrollLeft clamps like a browser scroll container
func (s *screen) SetScrollLeft(px float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxLeft := s.width*s.factor - s.width
	if maxLeft < 0 {
		maxLeft = 0
	}
	if px > maxLeft {
		px = maxLeft
	}
	if px < 0 {
		px = 0
	}
	s.left = px
}

func (s *screen) ClientWidth() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

func (s *screen) ScrollWidth() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width * s.factor
}

// resize changes the visible width; the controller repositions afterwards
func (s *screen) resize(width int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width < 1 {
		width = 1
	}
	s.width = float64(width)
}
