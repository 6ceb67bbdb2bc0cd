// internal/analytics/window.go
package analytics

import (
	"time"

	"github.com/andresuchdata/demandlens/internal/domain"
)

// WindowMonths is the fixed length of every reporting window.
const WindowMonths = 12

// Window is a resolved 12-month reporting range. Months are UTC month-start
// dates ordered oldest to newest; Start and End bound the window inclusively.
// All values are date-only (midnight UTC) so bucketing never drifts across
// timezones.
type Window struct {
	Mode   domain.WindowMode
	Months [WindowMonths]time.Time
	Start  time.Time
	End    time.Time
}

// ResolveWindow computes the month keys and inclusive date range for the
// requested mode. For trailing12 the anchor is the first day of now's UTC
// month; for calendar_year the window is January through December of year.
func ResolveWindow(mode domain.WindowMode, year int, now time.Time) (Window, error) {
	switch mode {
	case domain.WindowTrailing12:
		anchor := monthStart(now.UTC())
		return buildWindow(mode, anchor.AddDate(0, -(WindowMonths - 1), 0)), nil
	case domain.WindowCalendarYear:
		if year < 1970 || year > 9999 {
			return Window{}, Errorf(KindInvalidInput, "calendar year %d out of range", year)
		}
		return buildWindow(mode, time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)), nil
	default:
		return Window{}, Errorf(KindInvalidInput, "unknown window mode %q", mode)
	}
}

func buildWindow(mode domain.WindowMode, first time.Time) Window {
	w := Window{Mode: mode, Start: first}
	for i := 0; i < WindowMonths; i++ {
		w.Months[i] = first.AddDate(0, i, 0)
	}
	// End is the last day of the newest month.
	w.End = w.Months[WindowMonths-1].AddDate(0, 1, -1)
	return w
}

// MonthIndex maps a date to its offset within the window, or -1 when the
// date falls outside the window.
func (w Window) MonthIndex(d time.Time) int {
	key := monthStart(d.UTC())
	months := (key.Year()-w.Months[0].Year())*12 + int(key.Month()-w.Months[0].Month())
	if months < 0 || months >= WindowMonths {
		return -1
	}
	return months
}

// Contains reports whether d falls inside the inclusive window range.
func (w Window) Contains(d time.Time) bool {
	return w.MonthIndex(d) >= 0
}

// MonthKeys returns the ordered month-start keys as a slice.
func (w Window) MonthKeys() []time.Time {
	keys := make([]time.Time, WindowMonths)
	copy(keys, w.Months[:])
	return keys
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
