// ABOUTME: Key bindings for the timeline TUI
// ABOUTME: One binding per action, with the help text the footer shows
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Left      key.Binding
	Right     key.Binding
	PageLeft  key.Binding
	PageRight key.Binding
	Now       key.Binding
	Up        key.Binding
	Down      key.Binding
	Pick      key.Binding
	Edit      key.Binding
	Add       key.Binding
	Delete    key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "earlier")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "later")),
		PageLeft:  key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "page back")),
		PageRight: key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "page on")),
		Now:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "now")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Pick:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pick time")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Delete:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// shortHelp lists the bindings worth showing in the footer for a mode
func (k keyMap) shortHelp(editMode bool) []key.Binding {
	if editMode {
		done := k.Edit
		done.SetHelp("e", "done")
		return []key.Binding{k.Left, k.Right, k.Now, k.Up, k.Down, k.Add, k.Delete, done, k.Quit}
	}
	return []key.Binding{k.Left, k.Right, k.PageLeft, k.PageRight, k.Now, k.Up, k.Down, k.Pick, k.Edit, k.Quit}
}

func helpLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, h.Key+":"+h.Desc)
	}
	return strings.Join(parts, "  ")
}
