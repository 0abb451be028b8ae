// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, environment and .env overrides, and validation
package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/tzscroll/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "", cfg.Server.Addr)
	assert.Equal(t, 8930, cfg.Server.Port)
	assert.Equal(t, 5.0, cfg.Timeline.WidthFactor)
	assert.Equal(t, 0.5, cfg.Timeline.Indicator)
	assert.Equal(t, 0.5, cfg.Timeline.EdgeTolerance)
	assert.Equal(t, 15, cfg.Timeline.MinutesPerColumn)
	assert.Equal(t, 3*time.Second, cfg.Discovery.Timeout)
	assert.Equal(t, "tzscroll.log", cfg.Log.File)
	assert.Contains(t, cfg.Seed.Cities, "Tokyo=Asia/Tokyo")
	assert.Equal(t, 15*time.Minute, cfg.ColumnDuration())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TZSCROLL_SERVER__ADDR", "clocks.local:9000")
	t.Setenv("TZSCROLL_SERVER__PORT", "9000")
	t.Setenv("TZSCROLL_TIMELINE__WIDTH_FACTOR", "7.5")
	t.Setenv("TZSCROLL_TIMELINE__MINUTES_PER_COLUMN", "5")
	t.Setenv("TZSCROLL_TIMELINE__ZONE", "Europe/Berlin")
	t.Setenv("TZSCROLL_DISCOVERY__TIMEOUT", "250ms")
	t.Setenv("TZSCROLL_SEED__CITIES", "")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "clocks.local:9000", cfg.Server.Addr)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 7.5, cfg.Timeline.WidthFactor)
	assert.Equal(t, 5*time.Minute, cfg.ColumnDuration())
	assert.Equal(t, "Europe/Berlin", cfg.Timeline.Zone)
	assert.Equal(t, 250*time.Millisecond, cfg.Discovery.Timeout)
	assert.Equal(t, "", cfg.Seed.Cities)
}

func TestInvalidEnvIsRejected(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"narrow timeline", "TZSCROLL_TIMELINE__WIDTH_FACTOR", "0.5"},
		{"indicator past the edge", "TZSCROLL_TIMELINE__INDICATOR", "1.5"},
		{"negative tolerance", "TZSCROLL_TIMELINE__EDGE_TOLERANCE", "-1"},
		{"zero column", "TZSCROLL_TIMELINE__MINUTES_PER_COLUMN", "0"},
		{"port out of range", "TZSCROLL_SERVER__PORT", "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()

			assert.Error(t, err)
		})
	}
}

func TestUnrelatedEnvIsIgnored(t *testing.T) {
	t.Setenv("OTHER_SERVER__PORT", "1")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 8930, cfg.Server.Port)
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	content := "TZSCROLL_STORE__PATH=clocks.db\nTZSCROLL_SERVER__NAME=from-dotenv\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DotEnvFile), []byte(content), 0o600))
	t.Chdir(dir)

	// godotenv writes straight into the process environment
	t.Cleanup(func() {
		os.Unsetenv("TZSCROLL_STORE__PATH")
		os.Unsetenv("TZSCROLL_SERVER__NAME")
	})
	t.Setenv("TZSCROLL_SERVER__NAME", "from-env")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "clocks.db", cfg.Store.Path)
	assert.Equal(t, "from-env", cfg.Server.Name, "real environment wins over .env")
}

func TestBrokenDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, config.DotEnvFile), 0o700))
	t.Chdir(dir)

	_, err := config.Load()

	assert.Error(t, err)
}
