// ABOUTME: Messages and commands the timeline TUI exchanges with bubbletea
// ABOUTME: Wraps clock list requests and timers as tea commands
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/tzscroll/internal/protocol"
)

const (
	requestTimeout = 5 * time.Second
	settleDelay    = 250 * time.Millisecond
	centerDelay    = 10 * time.Millisecond
	tickInterval   = time.Second
)

// ClocksChangedMsg tells the model the backend list changed and should be re-fetched
type ClocksChangedMsg struct{}

type clocksMsg struct {
	cities []protocol.City
	err    error
}

type clockAddedMsg struct {
	city protocol.City
	err  error
}

type clockDeletedMsg struct {
	id  string
	err error
}

// centerMsg asks for the first "center on now" once the terminal size is known
type centerMsg struct{}

// settleMsg ends a scroll gesture unless a newer one started since
type settleMsg struct {
	gen int
}

type tickMsg time.Time

func (m Model) fetchClocks() tea.Cmd {
	src := m.source
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		cities, err := src.List(ctx)
		return clocksMsg{cities: cities, err: err}
	}
}

func (m Model) addClock(city, zone string) tea.Cmd {
	src := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		c, err := src.Add(ctx, city, zone)
		return clockAddedMsg{city: c, err: err}
	}
}

func (m Model) deleteClock(id string) tea.Cmd {
	src := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return clockDeletedMsg{id: id, err: src.Delete(ctx, id)}
	}
}

func settleAfter(gen int) tea.Cmd {
	return tea.Tick(settleDelay, func(time.Time) tea.Msg {
		return settleMsg{gen: gen}
	})
}

func centerSoon() tea.Cmd {
	return tea.Tick(centerDelay, func(time.Time) tea.Msg {
		return centerMsg{}
	})
}

func tickEvery() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
