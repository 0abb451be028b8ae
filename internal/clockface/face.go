// ABOUTME: Per-city clock faces derived from one timeline snapshot
// ABOUTME: Formats displayed times, edit-mode labels and day tick positions
package clockface

import (
	"fmt"
	"log"
	"time"

	"github.com/harperreed/tzscroll/internal/protocol"
	"github.com/harperreed/tzscroll/internal/timeline"
	"github.com/harperreed/tzscroll/internal/timescale"
	"github.com/harperreed/tzscroll/internal/tz"
)

// LocalName labels the viewer's own clock
const LocalName = "Local time"

// TimeLayout is how a face shows its time
const TimeLayout = "03:04 PM"

// roundStep is the slot a shifted time snaps down to
const roundStep = 15

// Face is everything one clock row needs to render
type Face struct {
	ID       string
	City     string
	Timezone string

	// Time is the city's wall clock at the reference instant, in viewer fields
	Time  time.Time
	Shift time.Duration

	OffsetMinutes int
	EditMode      bool

	// Location drives the day ticks; nil for the local clock
	Location *time.Location

	// Err is set when the timezone did not resolve and Time fell back to the
	// unshifted reference
	Err error
}

// Scrolled is the wall time under the indicator
func (f Face) Scrolled() time.Time {
	return f.Time.Add(f.Shift)
}

// DisplayTime is the time the face shows. While scrolled it snaps down to a
// quarter hour so the digits don't flicker.
func (f Face) DisplayTime() time.Time {
	t := f.Scrolled()
	if f.Shift == 0 {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()/roundStep*roundStep, 0, 0, t.Location())
}

// FormattedTime renders DisplayTime
func (f Face) FormattedTime() string {
	return f.DisplayTime().Format(TimeLayout)
}

// Label is the city name, plus its UTC offset in edit mode
func (f Face) Label() string {
	if f.EditMode && f.Err == nil {
		return fmt.Sprintf("%s (%s)", f.City, tz.FormatOffset(f.OffsetMinutes))
	}
	return f.City
}

// Faces builds one face per city plus the leading local clock. All faces
// share the snapshot's reference and shift. Offsets are taken at the
// indicated instant so a DST change inside the timeline shows up while
// scrolling.
func Faces(snap timeline.Snapshot, cities []protocol.City, conv *tz.Converter, editMode bool) []Face {
	at := snap.Indicated()

	faces := make([]Face, 0, len(cities)+1)
	faces = append(faces, Face{
		City:          LocalName,
		Time:          snap.Reference.In(conv.Local()),
		Shift:         snap.Shift,
		OffsetMinutes: conv.LocalOffsetMinutes(at),
		EditMode:      editMode,
		Location:      conv.Local(),
	})

	for _, c := range cities {
		face := Face{
			ID:       c.ID,
			City:     c.City,
			Timezone: c.Timezone,
			Shift:    snap.Shift,
			EditMode: editMode,
		}

		loc, err := tz.Resolve(c.Timezone)
		if err != nil {
			log.Printf("Clock %q: %v, showing reference time", c.City, err)
			face.Err = err
			face.Time = snap.Reference.In(conv.Local())
			face.OffsetMinutes = conv.LocalOffsetMinutes(at)
			face.Location = conv.Local()
			faces = append(faces, face)
			continue
		}

		// Wall time at the indicated instant, expressed relative to the shift
		face.Time = conv.ToRemoteIn(at, loc).Add(-snap.Shift)
		face.OffsetMinutes = tz.OffsetMinutes(at, loc)
		face.Location = loc
		faces = append(faces, face)
	}

	return faces
}

// DayTicks returns the pixel positions of every midnight in loc that falls
// inside the scale's domain
func DayTicks(scale timescale.Scale, loc *time.Location) []float64 {
	if scale.IsZero() {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}

	start := scale.DomainStart.In(loc)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	if day.Before(start) {
		day = day.AddDate(0, 0, 1)
	}

	var ticks []float64
	for !day.After(scale.DomainEnd) {
		ticks = append(ticks, scale.Forward(day))
		day = day.AddDate(0, 0, 1)
	}
	return ticks
}

// DayLabel is the text printed next to a day tick
func DayLabel(t time.Time) string {
	return t.Format("Mon 02")
}
