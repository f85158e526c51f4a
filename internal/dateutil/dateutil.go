package dateutil

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownZone is returned when an IANA timezone name cannot be resolved.
// Callers must treat this as a configuration failure; there is no fallback
// to the process-local timezone.
var ErrUnknownZone = errors.New("unknown timezone")

// DateLayout is the strict calendar-date format used throughout the system.
const DateLayout = "2006-01-02"

// LoadZone resolves an IANA timezone name.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty zone name", ErrUnknownZone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, name)
	}
	return loc, nil
}

// StartOfDayIn returns 00:00:00 of t's calendar day as seen in loc.
// The UTC offset comes from that specific date, so DST transitions are honored.
func StartOfDayIn(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// EndOfDayIn returns 23:59:59.999 of t's calendar day as seen in loc.
func EndOfDayIn(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 23, 59, 59, 999_000_000, loc)
}

// DatePartsIn returns the calendar parts of t as seen in loc.
func DatePartsIn(t time.Time, loc *time.Location) (int, time.Month, int) {
	return t.In(loc).Date()
}

// SameDayIn reports whether two instants fall on the same calendar day in loc.
func SameDayIn(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := DatePartsIn(a, loc)
	by, bm, bd := DatePartsIn(b, loc)
	return ay == by && am == bm && ad == bd
}

// civil re-expresses t's calendar date in loc as midnight UTC. UTC has no DST,
// so differences between civil dates are exact multiples of 24 hours.
func civil(t time.Time, loc *time.Location) time.Time {
	y, m, d := DatePartsIn(t, loc)
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a's day to b's day in
// loc. Negative when b precedes a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	return int(civil(b, loc).Sub(civil(a, loc)) / (24 * time.Hour))
}

// AddDays returns midnight in loc of the calendar day n days after t's day.
func AddDays(t time.Time, n int, loc *time.Location) time.Time {
	y, m, d := DatePartsIn(t, loc)
	return time.Date(y, m, d+n, 0, 0, 0, 0, loc)
}

// ParseDateIn parses a strict YYYY-MM-DD string as midnight in loc.
// Unpadded or otherwise non-canonical forms are rejected.
func ParseDateIn(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil || t.Format(DateLayout) != s {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}
