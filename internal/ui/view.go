// ABOUTME: Rendering for the world clock timeline
// ABOUTME: Draws the header, day axis, one strip per clock, prompt and help
package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/tzscroll/internal/clockface"
	"github.com/harperreed/tzscroll/internal/timeline"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	axisStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	timeStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	indicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Reverse(true)
	helpStyle      = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	snap, _ := m.latest.get()
	if snap.Scale.IsZero() {
		return "Centering on now..."
	}

	faces := clockface.Faces(snap, m.cities, m.conv, m.editMode)
	left := m.screen.ScrollLeft()
	width := int(m.screen.ClientWidth())
	indicator := m.indicatorColumn(width)

	var b strings.Builder
	b.WriteString(m.renderHeader(snap))
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", labelWidth))
	b.WriteString(axisStyle.Render(renderAxis(snap, faces[0], left, width)))
	b.WriteString("\n")

	for i, face := range faces {
		b.WriteString(m.renderLabel(i, face))
		b.WriteString(renderStrip(snap, face, left, width, indicator))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderPrompt())
	b.WriteString(m.renderStatus())
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader(snap timeline.Snapshot) string {
	mode := "now"
	if snap.Shift != 0 {
		mode = "shifted " + formatShift(snap.Shift)
	} else if !m.following {
		mode = "pinned"
	}
	if m.editMode {
		mode += " · edit"
	}

	return titleStyle.Render("tzscroll") + "  " + headerStyle.Render(mode)
}

func (m Model) renderLabel(row int, face clockface.Face) string {
	marker := "  "
	style := labelStyle
	if row == m.selected {
		marker = "▸ "
		style = selectedStyle
	}

	label := fmt.Sprintf("%-*s", nameWidth, truncate(face.Label(), nameWidth))

	clock := face.FormattedTime()
	tstyle := timeStyle
	if face.Err != nil {
		tstyle = errorStyle
	}

	return marker + style.Render(label) + " " + tstyle.Render(fmt.Sprintf("%-8s", clock)) + "  "
}

func (m Model) indicatorColumn(width int) int {
	col := int(math.Floor(m.ctrl.Options().IndicatorRatio * float64(width)))
	if col >= width {
		col = width - 1
	}
	return col
}

// renderStrip draws one character per visible column, shaded by the hour the
// clock shows there, with a bar wherever its day changes
func renderStrip(snap timeline.Snapshot, face clockface.Face, left float64, width, indicator int) string {
	cells := make([]rune, width)
	loc := face.Location
	if loc == nil {
		loc = time.Local
	}

	var prevDay int
	for x := 0; x < width; x++ {
		wall := snap.Scale.Invert(left + float64(x)).In(loc)
		day := wall.YearDay()
		switch {
		case x > 0 && day != prevDay:
			cells[x] = '│'
		default:
			cells[x] = hourShade(wall.Hour())
		}
		prevDay = day
	}

	if indicator < 0 || indicator >= width {
		return string(cells)
	}
	return string(cells[:indicator]) + indicatorStyle.Render(string(cells[indicator])) + string(cells[indicator+1:])
}

func hourShade(hour int) rune {
	switch {
	case hour >= 9 && hour < 18:
		return '▓'
	case hour >= 6 && hour < 22:
		return '▒'
	default:
		return '░'
	}
}

// renderAxis labels the midnights of the first clock
func renderAxis(snap timeline.Snapshot, face clockface.Face, left float64, width int) string {
	cells := []rune(strings.Repeat(" ", width))

	for _, px := range clockface.DayTicks(snap.Scale, face.Location) {
		col := int(math.Round(px - left))
		if col < 0 || col >= width {
			continue
		}
		label := []rune("│" + clockface.DayLabel(snap.Scale.Invert(px).In(face.Location)))
		for i, r := range label {
			if col+i < width {
				cells[col+i] = r
			}
		}
	}
	return string(cells)
}

func (m Model) renderPrompt() string {
	switch m.prompt {
	case promptAdd:
		return fmt.Sprintf("City/Zone: %s█\n", m.input)
	case promptPick:
		return fmt.Sprintf("Time (HH:MM or YYYY-MM-DD HH:MM): %s█\n", m.input)
	}
	return ""
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return errorStyle.Render(m.status) + "\n"
	}
	return helpStyle.Render(m.status) + "\n"
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return helpStyle.Render(helpLine(m.keys.shortHelp(m.editMode)))
}

// formatShift renders a shift as "+3h15m", "-45m" or "+2h"
func formatShift(d time.Duration) string {
	sign := "+"
	if d < 0 {
		sign = "-"
		d = -d
	}
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	mins := int((d % time.Hour) / time.Minute)

	switch {
	case h == 0:
		return fmt.Sprintf("%s%dm", sign, mins)
	case mins == 0:
		return fmt.Sprintf("%s%dh", sign, h)
	default:
		return fmt.Sprintf("%s%dh%dm", sign, h, mins)
	}
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	if length <= 3 {
		return string(r[:length])
	}
	return string(r[:length-3]) + "..."
}
