// ABOUTME: TUI update helpers for server
// ABOUTME: Sends the current clock list and watcher count to the TUI
package server

import (
	"log"
	"time"
)

// updateTUI sends current server state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}

	cities, err := s.store.List()
	if err != nil {
		log.Printf("Failed to list clocks for TUI: %v", err)
	}

	s.tui.Update(ServerStatus{
		Name:     s.config.Name,
		Port:     s.config.Port,
		Uptime:   time.Since(s.startTime),
		Clocks:   cities,
		Watchers: s.watcherCount(),
	})
}
