// ABOUTME: Server TUI for displaying the clock list and connected watchers
// ABOUTME: Real-time server status display using bubbletea
package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/tzscroll/internal/protocol"
	"github.com/harperreed/tzscroll/internal/tz"
)

// ServerTUI manages the server TUI
type ServerTUI struct {
	program  *tea.Program
	updates  chan ServerStatus
	quitChan chan struct{} // Signal to stop the server

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
}

// ServerStatus holds server state for TUI
type ServerStatus struct {
	Name     string
	Port     int
	Uptime   time.Duration
	Clocks   []protocol.City
	Watchers int
}

// tuiModel is the bubbletea model for server TUI
type tuiModel struct {
	status    ServerStatus
	startTime time.Time
	quitting  bool
	quitChan  chan struct{}
}

type tickMsg time.Time
type statusMsg ServerStatus

func (m tuiModel) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
			return m, tea.Quit
		}

	case tickMsg:
		return m, tickEvery()

	case statusMsg:
		m.status = ServerStatus(msg)
		return m, nil
	}

	return m, nil
}

var (
	tuiTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)
	tuiHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))
	tuiValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))
	tuiListHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("220"))
)

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down server...\n"
	}

	var b strings.Builder

	b.WriteString(tuiTitleStyle.Render("tzscroll Server"))
	b.WriteString("\n\n")

	field := func(name, value string) {
		b.WriteString(tuiHeaderStyle.Render(name + ": "))
		b.WriteString(tuiValueStyle.Render(value))
		b.WriteString("\n")
	}
	field("Server", m.status.Name)
	field("Port", fmt.Sprintf("%d", m.status.Port))
	field("Uptime", time.Since(m.startTime).Round(time.Second).String())
	field("Watchers", fmt.Sprintf("%d", m.status.Watchers))
	b.WriteString("\n")

	b.WriteString(tuiListHeaderStyle.Render(fmt.Sprintf("Clocks (%d)", len(m.status.Clocks))))
	b.WriteString("\n\n")

	if len(m.status.Clocks) == 0 {
		b.WriteString(tuiValueStyle.Render("  No clocks yet"))
		b.WriteString("\n")
	} else {
		now := time.Now()
		for _, c := range m.status.Clocks {
			b.WriteString(fmt.Sprintf("  • %-20s %s", c.City, cityTime(now, c.Timezone)))
			b.WriteString(tuiValueStyle.Render(fmt.Sprintf(" (%s)", c.Timezone)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

// cityTime is the wall clock of zone at now, or "--:--" when it does not resolve
func cityTime(now time.Time, zone string) string {
	loc, err := tz.Resolve(zone)
	if err != nil {
		return "--:--   "
	}
	return now.In(loc).Format("03:04 PM")
}

// NewServerTUI creates a new server TUI
func NewServerTUI() *ServerTUI {
	ctx, cancel := context.WithCancel(context.Background())
	return &ServerTUI{
		updates:  make(chan ServerStatus, 10),
		quitChan: make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the TUI until the user quits or Stop is called
func (t *ServerTUI) Start(serverName string, port int) error {
	m := tuiModel{
		status: ServerStatus{
			Name: serverName,
			Port: port,
		},
		startTime: time.Now(),
		quitChan:  t.quitChan,
	}

	t.program = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(t.ctx))

	go func() {
		for {
			select {
			case status := <-t.updates:
				status.Port = port
				t.program.Send(statusMsg(status))
			case <-t.ctx.Done():
				return
			}
		}
	}()

	_, err := t.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// Update sends a status update to the TUI without blocking
func (t *ServerTUI) Update(status ServerStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}

	select {
	case t.updates <- status:
	default:
	}
}

// Stop stops the TUI
func (t *ServerTUI) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.cancel()
}

// QuitChan returns the channel that signals when user wants to quit
func (t *ServerTUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
