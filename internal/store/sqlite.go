// ABOUTME: SQLite-backed clock list that survives server restarts
// ABOUTME: Keeps cities in a single table ordered by insertion
package store

import (
	"database/sql"
	"fmt"

	"github.com/harperreed/tzscroll/internal/protocol"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a clock list stored in a SQLite database file
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates the database at path
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open clock database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init clock database: %w", err)
	}
	return s, nil
}

func (s *SQLite) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS clocks (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			city TEXT NOT NULL,
			timezone TEXT NOT NULL
		);
	`)
	return err
}

// List returns the stored cities in insertion order
func (s *SQLite) List() ([]protocol.City, error) {
	rows, err := s.db.Query("SELECT id, city, timezone FROM clocks ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("list clocks: %w", err)
	}
	defer rows.Close()

	cities := []protocol.City{}
	for rows.Next() {
		var c protocol.City
		if err := rows.Scan(&c.ID, &c.City, &c.Timezone); err != nil {
			return nil, fmt.Errorf("scan clock: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list clocks: %w", err)
	}
	return cities, nil
}

// Add stores a new city after checking that its timezone resolves
func (s *SQLite) Add(city, zone string) (protocol.City, error) {
	c, err := newCity(city, zone)
	if err != nil {
		return protocol.City{}, err
	}

	_, err = s.db.Exec("INSERT INTO clocks (id, city, timezone) VALUES (?, ?, ?)", c.ID, c.City, c.Timezone)
	if err != nil {
		return protocol.City{}, fmt.Errorf("save clock: %w", err)
	}
	return c, nil
}

// Delete removes the city with the given id
func (s *SQLite) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM clocks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete clock: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete clock: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}
