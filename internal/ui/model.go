// ABOUTME: Bubbletea model for the world clock timeline
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/tzscroll/internal/clockface"
	"github.com/harperreed/tzscroll/internal/clocklist"
	"github.com/harperreed/tzscroll/internal/protocol"
	"github.com/harperreed/tzscroll/internal/timeline"
	"github.com/harperreed/tzscroll/internal/tz"
)

// labelWidth is the space left of the strip for the marker, city and time
const labelWidth = 34

// nameWidth is what remains of labelWidth after the marker and the time
const nameWidth = labelWidth - 2 - 11

// minStripWidth keeps the strip usable on very narrow terminals
const minStripWidth = 10

// wheelStep is how many columns one mouse wheel notch scrolls
const wheelStep = 4

type promptKind int

const (
	promptNone promptKind = iota
	promptAdd
	promptPick
)

// Config holds what the model needs from the outside
type Config struct {
	Source     clocklist.Source // nil runs with the local clock only
	ServerAddr string
	Converter  *tz.Converter
	Clock      timeline.Clock
	Timeline   timeline.Options
}

// latest holds the most recent published snapshot. Subscribers run inside
// Update, so a shared pointer is how they reach the value-typed model.
type latest struct {
	mu       sync.Mutex
	snap     timeline.Snapshot
	rebuilds int
}

func (l *latest) store(s timeline.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap = s
	if s.Recentered {
		l.rebuilds++
	}
}

func (l *latest) get() (timeline.Snapshot, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap, l.rebuilds
}

// Model represents the TUI state
type Model struct {
	ctrl    *timeline.Controller
	screen  *screen
	resizes *timeline.Broadcaster
	latest  *latest
	unsub   func()

	conv   *tz.Converter
	clock  timeline.Clock
	source clocklist.Source
	keys   keyMap

	// Clock list
	cities     []protocol.City
	serverAddr string

	// Interaction
	editMode  bool
	following bool
	selected  int
	prompt    promptKind
	input     string
	settleGen int

	// Status line
	status    string
	statusErr bool

	pendingCenter bool

	// Dimensions
	width  int
	height int
}

// NewModel creates a new TUI model
func NewModel(cfg Config) Model {
	if cfg.Converter == nil {
		cfg.Converter = tz.NewConverter(nil)
	}
	if cfg.Clock == nil {
		cfg.Clock = timeline.SystemClock{}
	}

	scr := newScreen(cfg.Timeline.WidthFactor)
	ctrl := timeline.NewController(scr, cfg.Converter, cfg.Clock, cfg.Timeline)
	// Options come back normalized; the strip must match the scale's factor
	scr.factor = ctrl.Options().WidthFactor

	resizes := timeline.NewBroadcaster()
	ctrl.Attach(resizes)

	l := &latest{}
	unsub := ctrl.Subscribe(l.store)

	status := "offline: showing local time only"
	if cfg.Source != nil {
		status = "loading clocks from " + cfg.ServerAddr
	}

	return Model{
		ctrl:       ctrl,
		screen:     scr,
		resizes:    resizes,
		latest:     l,
		unsub:      unsub,
		conv:       cfg.Converter,
		clock:      cfg.Clock,
		source:     cfg.Source,
		keys:       defaultKeyMap(),
		serverAddr: cfg.ServerAddr,
		following:  true,
		status:     status,
	}
}

// Close detaches the model from its controller
func (m Model) Close() {
	m.unsub()
	m.ctrl.Close()
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchClocks(), centerSoon(), tickEvery())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.handlePromptKey(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.screen.resize(stripWidth(msg.Width))
		if m.pendingCenter {
			m.pendingCenter = false
			m.ctrl.ScrollToNow()
		} else {
			m.resizes.Emit()
		}

	case centerMsg:
		if m.width == 0 {
			m.pendingCenter = true
			return m, nil
		}
		m.ctrl.ScrollToNow()

	case tickMsg:
		if m.following && m.prompt == promptNone {
			snap, _ := m.latest.get()
			now := m.clock.Now()
			if !now.Truncate(time.Minute).Equal(snap.Reference.Truncate(time.Minute)) {
				m.ctrl.ScrollToNow()
			}
		}
		return m, tickEvery()

	case settleMsg:
		if msg.gen == m.settleGen {
			m.ctrl.Settle()
		}

	case ClocksChangedMsg:
		return m, m.fetchClocks()

	case clocksMsg:
		if msg.err != nil {
			log.Printf("Failed to fetch clocks: %v", msg.err)
			m.setError(fmt.Sprintf("fetch failed: %v", msg.err))
			return m, nil
		}
		m.cities = msg.cities
		m.clampSelection()
		m.setStatus(fmt.Sprintf("%d clocks from %s", len(m.cities), m.serverAddr))

	case clockAddedMsg:
		if msg.err != nil {
			log.Printf("Failed to add clock: %v", msg.err)
			m.setError(fmt.Sprintf("add failed: %v", msg.err))
			return m, nil
		}
		m.setStatus("added " + msg.city.City)
		return m, m.fetchClocks()

	case clockDeletedMsg:
		if msg.err != nil {
			log.Printf("Failed to delete clock %s: %v", msg.id, msg.err)
			m.setError(fmt.Sprintf("delete failed: %v", msg.err))
			return m, nil
		}
		m.setStatus("deleted clock")
		return m, m.fetchClocks()
	}

	return m, nil
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := int(m.screen.ClientWidth() / 2)
	if page < 1 {
		page = 1
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Left):
		return m.scrollBy(-1)
	case key.Matches(msg, m.keys.Right):
		return m.scrollBy(1)
	case key.Matches(msg, m.keys.PageLeft):
		return m.scrollBy(-page)
	case key.Matches(msg, m.keys.PageRight):
		return m.scrollBy(page)
	case key.Matches(msg, m.keys.Now):
		m.following = true
		m.ctrl.ScrollToNow()
		m.setStatus("back to now")
	case key.Matches(msg, m.keys.Edit):
		m.editMode = !m.editMode
		m.following = true
		m.ctrl.ScrollToNow()
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.cities) {
			m.selected++
		}
	case key.Matches(msg, m.keys.Add):
		if m.source == nil {
			m.setError("no clock server to add to")
			return m, nil
		}
		m.prompt = promptAdd
		m.input = ""
	case key.Matches(msg, m.keys.Delete):
		return m.deleteSelected()
	case key.Matches(msg, m.keys.Pick):
		m.prompt = promptPick
		m.input = ""
	}

	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelLeft:
		return m.scrollBy(-wheelStep)
	case tea.MouseButtonWheelDown, tea.MouseButtonWheelRight:
		return m.scrollBy(wheelStep)
	}
	return m, nil
}

// scrollBy moves the strip like a user drag and schedules the end of the gesture
func (m Model) scrollBy(columns int) (tea.Model, tea.Cmd) {
	m.following = false
	m.screen.SetScrollLeft(m.screen.ScrollLeft() + float64(columns))
	m.ctrl.OnScroll()

	m.settleGen++
	return m, settleAfter(m.settleGen)
}

func (m Model) deleteSelected() (tea.Model, tea.Cmd) {
	if !m.editMode {
		m.setError("press e to edit clocks first")
		return m, nil
	}
	// Row 0 is local time and cannot be deleted
	if m.selected == 0 || m.selected > len(m.cities) || m.source == nil {
		return m, nil
	}

	c := m.cities[m.selected-1]
	m.setStatus("deleting " + c.City)
	return m, m.deleteClock(c.ID)
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.prompt = promptNone
		m.input = ""
		return m, nil
	case tea.KeyEnter:
		kind, input := m.prompt, strings.TrimSpace(m.input)
		m.prompt = promptNone
		m.input = ""
		if kind == promptAdd {
			return m.submitAdd(input)
		}
		return m.submitPick(input)
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m Model) submitAdd(input string) (tea.Model, tea.Cmd) {
	city, zone, err := parseCityInput(input)
	if err != nil {
		m.setError(err.Error())
		return m, nil
	}
	if err := tz.Validate(zone); err != nil {
		m.setError(err.Error())
		return m, nil
	}

	m.setStatus("adding " + city)
	return m, m.addClock(city, zone)
}

func (m Model) submitPick(input string) (tea.Model, tea.Cmd) {
	snap, _ := m.latest.get()
	faces := clockface.Faces(snap, m.cities, m.conv, m.editMode)
	if m.selected >= len(faces) {
		return m, nil
	}
	face := faces[m.selected]

	wall, err := parsePickedTime(input, face.Scrolled(), m.conv.Local())
	if err != nil {
		m.setError(err.Error())
		return m, nil
	}

	m.following = false
	m.ctrl.PickTime(wall, face.OffsetMinutes)
	m.setStatus(fmt.Sprintf("%s at %s", face.City, wall.Format("Mon 02 Jan 15:04")))
	return m, nil
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

func (m *Model) clampSelection() {
	if m.selected > len(m.cities) {
		m.selected = len(m.cities)
	}
}

func stripWidth(termWidth int) int {
	w := termWidth - labelWidth
	if w < minStripWidth {
		w = minStripWidth
	}
	return w
}

// parseCityInput accepts "City=Zone", a bare zone like "Asia/Tokyo", or
// "City/Zone" split at the first slash
func parseCityInput(s string) (city, zone string, err error) {
	s = strings.TrimSpace(s)

	switch {
	case strings.Contains(s, "="):
		city, zone, _ = strings.Cut(s, "=")
	case tz.Validate(s) == nil:
		zone = s
		city = cityFromZone(s)
	default:
		city, zone, _ = strings.Cut(s, "/")
	}

	city = strings.TrimSpace(city)
	zone = strings.TrimSpace(zone)
	if city == "" || zone == "" {
		return "", "", fmt.Errorf("enter City/Zone, e.g. Tokyo/Asia/Tokyo")
	}
	return city, zone, nil
}

func cityFromZone(zone string) string {
	if i := strings.LastIndex(zone, "/"); i >= 0 {
		zone = zone[i+1:]
	}
	return strings.ReplaceAll(zone, "_", " ")
}

// parsePickedTime reads "HH:MM" on the day the clock currently shows, or a
// full "YYYY-MM-DD HH:MM". The result carries the clock's wall fields in loc.
func parsePickedTime(s string, shown time.Time, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04", s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
	}
	if t, err := time.Parse("15:04", s); err == nil {
		return time.Date(shown.Year(), shown.Month(), shown.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("enter HH:MM or YYYY-MM-DD HH:MM")
}
