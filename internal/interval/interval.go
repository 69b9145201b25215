package interval

import (
	"errors"
	"fmt"
)

// ErrInvalidInterval is returned when an interval's bounds are degenerate
// (start >= end) or fall outside a single day.
var ErrInvalidInterval = errors.New("invalid interval")

// MinutesPerDay is the exclusive upper bound for any minute-of-day value.
const MinutesPerDay = 24 * 60

// Interval is a half-open time range [Start, End) within a single day,
// expressed in minutes since midnight. Minute resolution avoids the
// string-comparison bugs that come with "HH:MM" arithmetic.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// New constructs an Interval, rejecting degenerate or out-of-day bounds.
func New(start, end int) (Interval, error) {
	if start < 0 || end > MinutesPerDay || start >= end {
		return Interval{}, fmt.Errorf("%w: [%d, %d)", ErrInvalidInterval, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// FromClock builds an Interval from wall-clock hour/minute pairs.
func FromClock(startHour, startMinute, endHour, endMinute int) (Interval, error) {
	if startMinute < 0 || startMinute > 59 || endMinute < 0 || endMinute > 59 {
		return Interval{}, fmt.Errorf("%w: minute out of range", ErrInvalidInterval)
	}
	return New(startHour*60+startMinute, endHour*60+endMinute)
}

// Overlaps reports whether two half-open intervals share any minute.
// [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1. This is the single
// overlap predicate for the whole engine; every availability and conflict
// check must route through it.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// OverlapsAny reports whether i overlaps any interval in the list.
func (i Interval) OverlapsAny(others []Interval) bool {
	for _, o := range others {
		if i.Overlaps(o) {
			return true
		}
	}
	return false
}

// Minutes returns the interval's length in minutes.
func (i Interval) Minutes() int {
	return i.End - i.Start
}

// String renders the interval as "HH:MM-HH:MM".
func (i Interval) String() string {
	return FormatMinute(i.Start) + "-" + FormatMinute(i.End)
}

// FormatMinute renders a minute-of-day value as "HH:MM".
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseClock converts an "HH:MM" string into a minute-of-day value.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	minutes := h*60 + m
	if minutes > MinutesPerDay {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	return minutes, nil
}
