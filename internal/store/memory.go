// ABOUTME: In-memory clock list kept by the backend
// ABOUTME: Stores cities in insertion order for the lifetime of the process
package store

import (
	"fmt"
	"sync"

	"github.com/harperreed/tzscroll/internal/protocol"
)

// Memory is a concurrency-safe clock list
type Memory struct {
	mu     sync.RWMutex
	cities []protocol.City
}

// NewMemory creates an empty list
func NewMemory() *Memory {
	return &Memory{}
}

// List returns a copy of the stored cities in insertion order
func (m *Memory) List() ([]protocol.City, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]protocol.City, len(m.cities))
	copy(out, m.cities)
	return out, nil
}

// Len returns how many cities are stored
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cities)
}

// Add stores a new city after checking that its timezone resolves
func (m *Memory) Add(city, zone string) (protocol.City, error) {
	c, err := newCity(city, zone)
	if err != nil {
		return protocol.City{}, err
	}

	m.mu.Lock()
	m.cities = append(m.cities, c)
	m.mu.Unlock()

	return c, nil
}

// Delete removes the city with the given id
func (m *Memory) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.cities {
		if c.ID == id {
			m.cities = append(m.cities[:i], m.cities[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}
