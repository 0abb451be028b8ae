// ABOUTME: Timezone conversion between the viewer's zone and city zones
// ABOUTME: Converts reference instants to city wall clocks and back
package tz

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	// Embedded zone database so city zones resolve on hosts without zoneinfo
	_ "time/tzdata"
)

// ErrUnknownTimezone is returned when a timezone id does not resolve
var ErrUnknownTimezone = errors.New("unknown timezone")

// Converter translates between the viewer's local zone and city zones.
// Offsets are recomputed on every call; nothing is cached per city.
type Converter struct {
	local *time.Location
}

// NewConverter creates a converter for the given viewer location.
// A nil location means time.Local.
func NewConverter(local *time.Location) *Converter {
	if local == nil {
		local = time.Local
	}
	return &Converter{local: local}
}

// Local returns the viewer's location
func (c *Converter) Local() *time.Location {
	return c.local
}

// Resolve loads the location for an IANA timezone id
func Resolve(zone string) (*time.Location, error) {
	if zone == "" {
		return nil, fmt.Errorf("%w: empty id", ErrUnknownTimezone)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, zone)
	}
	return loc, nil
}

// Validate reports whether zone resolves
func Validate(zone string) error {
	_, err := Resolve(zone)
	return err
}

// ToRemote answers "what does the clock in zone show at ref". The result is
// expressed in the viewer's location with calendar fields equal to the
// remote wall clock.
func (c *Converter) ToRemote(ref time.Time, zone string) (time.Time, error) {
	loc, err := Resolve(zone)
	if err != nil {
		return time.Time{}, err
	}
	return c.wallIn(ref, loc), nil
}

// ToRemoteIn is ToRemote for an already resolved location
func (c *Converter) ToRemoteIn(ref time.Time, loc *time.Location) time.Time {
	return c.wallIn(ref, loc)
}

func (c *Converter) wallIn(ref time.Time, loc *time.Location) time.Time {
	w := ref.In(loc)
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), c.local)
}

// RemoteOffsetMinutes returns the UTC offset of zone at ref, DST included
func (c *Converter) RemoteOffsetMinutes(ref time.Time, zone string) (int, error) {
	loc, err := Resolve(zone)
	if err != nil {
		return 0, err
	}
	return OffsetMinutes(ref, loc), nil
}

// LocalOffsetMinutes returns the viewer's UTC offset at ref
func (c *Converter) LocalOffsetMinutes(ref time.Time) int {
	return OffsetMinutes(ref, c.local)
}

// RemoteToReference converts a wall time picked on a city clock back to the
// reference instant. The picked calendar fields are already expressed in the
// viewer's location, so only the difference between the two offsets is removed.
func (c *Converter) RemoteToReference(picked time.Time, pickedOffsetMinutes int) time.Time {
	diff := pickedOffsetMinutes - c.LocalOffsetMinutes(picked)
	return picked.Add(-time.Duration(diff) * time.Minute)
}

// OffsetMinutes returns the UTC offset of loc at t in minutes
func OffsetMinutes(t time.Time, loc *time.Location) int {
	_, secs := t.In(loc).Zone()
	return secs / 60
}

// FormatOffset renders an offset in hours the way city labels show it:
// "+2", "-3.5", "+5.75", "+0"
func FormatOffset(minutes int) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
	}
	hours := math.Abs(float64(minutes)) / 60
	return sign + strconv.FormatFloat(hours, 'f', -1, 64)
}
