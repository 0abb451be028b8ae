// ABOUTME: REST handlers for the clock list
// ABOUTME: Lists, adds and deletes cities and broadcasts each change
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/harperreed/tzscroll/internal/protocol"
	"github.com/harperreed/tzscroll/internal/store"
	"github.com/harperreed/tzscroll/internal/tz"
)

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	cities, err := s.store.List()
	if err != nil {
		log.Printf("Failed to list clocks: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, cities)
}

// handleAdd reads city and timezone from the query string, falling back to a
// form body
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	city := r.FormValue("city")
	zone := r.FormValue("timezone")

	c, err := s.store.Add(city, zone)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrInvalidCity) || errors.Is(err, tz.ErrUnknownTimezone) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	log.Printf("Added clock %s (%s) as %s", c.City, c.Timezone, c.ID)
	s.notifyChanged("added", c.ID)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.store.Delete(id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}

	log.Printf("Deleted clock %s", id)
	s.notifyChanged("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if _, err := s.store.List(); err != nil {
		status, code = err.Error(), http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":   status,
		"clocks":   s.clockCount(),
		"watchers": s.watcherCount(),
	})
}

// clockCount is -1 when the store cannot be read
func (s *Server) clockCount() int {
	cities, err := s.store.List()
	if err != nil {
		return -1
	}
	return len(cities)
}

func (s *Server) notifyChanged(reason, id string) {
	s.broadcast(protocol.Message{
		Type: protocol.TypeChanged,
		Payload: protocol.ClocksChanged{
			Reason: reason,
			ID:     id,
			Count:  s.clockCount(),
		},
	})
	s.updateTUI()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, protocol.ErrorResponse{Error: err.Error()})
}
