// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the timeline UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run builds the program; the caller runs it and forwards messages with Send
func Run(m Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
}
