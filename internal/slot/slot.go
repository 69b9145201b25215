// Package slot produces the canonical bookable time blocks for a day and
// validates caller-supplied custom time ranges against operating hours.
package slot

import (
	"errors"
	"fmt"

	"facility-booking-backend/internal/interval"
)

// Default operating parameters. Preset blocks run hourly from 07:00 to
// 22:00; custom ranges may extend until 23:00.
const (
	DefaultOpenMinute  = 7 * 60  // 07:00
	DefaultCloseMinute = 22 * 60 // 22:00
	DefaultStepMinutes = 60

	DefaultCustomCloseMinute = 23 * 60 // 23:00
)

// ErrOutsideOperatingHours is returned when a candidate range starts before
// opening or ends after closing. The close boundary itself is legal as an
// end time.
var ErrOutsideOperatingHours = errors.New("outside operating hours")

// Generate returns the ordered sequence of fixed-size slots covering
// [open, close). It is a pure function: same inputs, same output, no state.
func Generate(openMinute, closeMinute, stepMinutes int) []interval.Interval {
	if stepMinutes <= 0 || closeMinute <= openMinute {
		return nil
	}
	var slots []interval.Interval
	for start := openMinute; start+stepMinutes <= closeMinute; start += stepMinutes {
		slots = append(slots, interval.Interval{Start: start, End: start + stepMinutes})
	}
	return slots
}

// Presets returns the default hourly blocks, 07:00-22:00.
func Presets() []interval.Interval {
	return Generate(DefaultOpenMinute, DefaultCloseMinute, DefaultStepMinutes)
}

// Hours bounds custom candidate ranges.
type Hours struct {
	OpenMinute  int
	CloseMinute int
}

// DefaultHours returns the operating window custom candidates are checked
// against.
func DefaultHours() Hours {
	return Hours{OpenMinute: DefaultOpenMinute, CloseMinute: DefaultCustomCloseMinute}
}

// CustomCandidate builds a validated custom time range from wall-clock
// components. Degenerate ranges are rejected by interval construction;
// ranges outside [OpenMinute, CloseMinute] are rejected here. The same
// rules apply to preset-shaped ranges, there is no preset exemption.
func (h Hours) CustomCandidate(startHour, startMinute, endHour, endMinute int) (interval.Interval, error) {
	iv, err := interval.FromClock(startHour, startMinute, endHour, endMinute)
	if err != nil {
		return interval.Interval{}, err
	}
	return iv, h.Check(iv)
}

// Check validates an already-constructed interval against the operating
// window.
func (h Hours) Check(iv interval.Interval) error {
	if iv.Start < h.OpenMinute || iv.End > h.CloseMinute {
		return fmt.Errorf("%w: %s not within %s-%s", ErrOutsideOperatingHours,
			iv, interval.FormatMinute(h.OpenMinute), interval.FormatMinute(h.CloseMinute))
	}
	return nil
}
