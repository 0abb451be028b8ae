// ABOUTME: Clock list storage contract shared by the memory and SQLite backends
// ABOUTME: Holds the common errors, input checks and seeding helper
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/tzscroll/internal/protocol"
	"github.com/harperreed/tzscroll/internal/tz"
)

var (
	// ErrNotFound is returned when deleting an id that is not stored
	ErrNotFound = errors.New("clock not found")

	// ErrInvalidCity is returned when a city name is missing
	ErrInvalidCity = errors.New("city name required")
)

// Store keeps the backend's clock list in insertion order
type Store interface {
	List() ([]protocol.City, error)
	Add(city, zone string) (protocol.City, error)
	Delete(id string) error
	Close() error
}

// newCity trims and checks the input and assigns a fresh id
func newCity(city, zone string) (protocol.City, error) {
	city = strings.TrimSpace(city)
	zone = strings.TrimSpace(zone)

	if city == "" {
		return protocol.City{}, ErrInvalidCity
	}
	if err := tz.Validate(zone); err != nil {
		return protocol.City{}, err
	}

	return protocol.City{
		ID:       uuid.New().String(),
		City:     city,
		Timezone: zone,
	}, nil
}

// Seed adds every entry of a "City=Zone,City=Zone" list. It stops at the
// first bad entry; entries before it stay stored.
func Seed(st Store, entries string) error {
	for _, entry := range strings.Split(entries, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		city, zone, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("bad seed entry %q: want City=Zone", entry)
		}
		if _, err := st.Add(city, zone); err != nil {
			return fmt.Errorf("bad seed entry %q: %w", entry, err)
		}
	}
	return nil
}

// SeedIfEmpty seeds st only when it holds no clocks yet, so a persistent
// list is not duplicated on every restart. It reports whether it seeded.
func SeedIfEmpty(st Store, entries string) (bool, error) {
	cities, err := st.List()
	if err != nil {
		return false, err
	}
	if len(cities) > 0 {
		return false, nil
	}
	return true, Seed(st, entries)
}
