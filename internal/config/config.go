// ABOUTME: Configuration loading for the timeline client and the clock list server
// ABOUTME: Compiled defaults overridden by TZSCROLL_ environment variables via koanf
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks the environment variables Load reads. A double underscore
// separates nesting levels: TZSCROLL_TIMELINE__WIDTH_FACTOR sets
// timeline.width_factor.
const EnvPrefix = "TZSCROLL_"

// DotEnvFile is read into the environment by Load when present. Variables
// already set in the environment win.
const DotEnvFile = ".env"

// Config holds all tzscroll configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Timeline  TimelineConfig  `koanf:"timeline"`
	Discovery DiscoveryConfig `koanf:"discovery"`
	Log       LogConfig       `koanf:"log"`
	Seed      SeedConfig      `koanf:"seed"`
	Store     StoreConfig     `koanf:"store"`
}

// ServerConfig locates the clock list backend
type ServerConfig struct {
	// Addr is where the timeline fetches clocks from; empty means discover via mDNS
	Addr string `koanf:"addr"`
	// Port is where the backend listens
	Port int    `koanf:"port"`
	Name string `koanf:"name"`
}

// TimelineConfig tunes the scroll controller
type TimelineConfig struct {
	WidthFactor      float64 `koanf:"width_factor"`
	Indicator        float64 `koanf:"indicator"`
	EdgeTolerance    float64 `koanf:"edge_tolerance"`
	MinutesPerColumn int     `koanf:"minutes_per_column"`
	// Zone overrides the viewer's local zone when set
	Zone string `koanf:"zone"`
}

// DiscoveryConfig bounds the mDNS search for a backend
type DiscoveryConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// LogConfig selects the log destination
type LogConfig struct {
	File string `koanf:"file"`
}

// SeedConfig lists cities the backend starts with, as "City=Zone,City=Zone"
type SeedConfig struct {
	Cities string `koanf:"cities"`
}

// StoreConfig selects where the backend keeps its clock list
type StoreConfig struct {
	// Path is a SQLite database file; empty keeps the list in memory
	Path string `koanf:"path"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8930,
		},
		Timeline: TimelineConfig{
			WidthFactor:      5,
			Indicator:        0.5,
			EdgeTolerance:    0.5,
			MinutesPerColumn: 15,
		},
		Discovery: DiscoveryConfig{
			Timeout: 3 * time.Second,
		},
		Log: LogConfig{
			File: "tzscroll.log",
		},
		Seed: SeedConfig{
			Cities: "London=Europe/London,New York=America/New_York,Tokyo=Asia/Tokyo",
		},
	}
}

// Load returns defaults overridden by environment variables
func Load() (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	cfg := defaults()

	err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// envKey maps TZSCROLL_TIMELINE__WIDTH_FACTOR to timeline.width_factor
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate rejects values no component can work with
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Timeline.WidthFactor < 1 {
		return fmt.Errorf("timeline.width_factor must be at least 1, got %v", c.Timeline.WidthFactor)
	}
	if c.Timeline.Indicator < 0 || c.Timeline.Indicator > 1 {
		return fmt.Errorf("timeline.indicator must be within [0, 1], got %v", c.Timeline.Indicator)
	}
	if c.Timeline.EdgeTolerance < 0 {
		return fmt.Errorf("timeline.edge_tolerance must not be negative, got %v", c.Timeline.EdgeTolerance)
	}
	if c.Timeline.MinutesPerColumn < 1 {
		return fmt.Errorf("timeline.minutes_per_column must be at least 1, got %d", c.Timeline.MinutesPerColumn)
	}
	return nil
}

// ColumnDuration is how much time one terminal column covers
func (c *Config) ColumnDuration() time.Duration {
	return time.Duration(c.Timeline.MinutesPerColumn) * time.Minute
}
