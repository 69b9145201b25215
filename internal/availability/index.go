// Package availability derives free/occupied views from reservation lists.
//
// An Index is always rebuilt from the full reservation list for its key,
// never patched in place. Incremental patching of a derived structure under
// concurrent reconciliation is where partial-update bugs live; a rebuild
// from the canonical list costs little at this scale and cannot desync.
package availability

import (
	"sort"

	"facility-booking-backend/internal/interval"
	"facility-booking-backend/internal/model"
	"facility-booking-backend/internal/parse"
)

// Index holds the occupied intervals for one (facility, date) key and a
// free/occupied classification of the day's candidate slots.
type Index struct {
	occupied []interval.Interval
	slots    []interval.Interval
	slotFree []bool
}

// Build filters reservations to active statuses, sorts their intervals by
// start time, and classifies each candidate slot. An empty reservation
// list is valid and yields a fully free index.
func Build(reservations []model.Reservation, slots []interval.Interval) *Index {
	var occupied []interval.Interval
	for _, r := range reservations {
		if !r.Active() {
			continue
		}
		occupied = append(occupied, r.Interval())
	}
	sort.Slice(occupied, func(i, j int) bool { return occupied[i].Start < occupied[j].Start })

	slotFree := make([]bool, len(slots))
	for i, s := range slots {
		slotFree[i] = !s.OverlapsAny(occupied)
	}

	return &Index{occupied: occupied, slots: slots, slotFree: slotFree}
}

// IsFree reports whether the candidate interval overlaps no active
// reservation.
func (x *Index) IsFree(iv interval.Interval) bool {
	return !iv.OverlapsAny(x.occupied)
}

// OccupiedIntervals returns the active reservations' intervals sorted by
// start time.
func (x *Index) OccupiedIntervals() []interval.Interval {
	out := make([]interval.Interval, len(x.occupied))
	copy(out, x.occupied)
	return out
}

// FreeSlots returns the candidate slots no active reservation overlaps.
func (x *Index) FreeSlots() []interval.Interval {
	return x.selectSlots(true)
}

// OccupiedSlots returns the candidate slots at least one active
// reservation overlaps. FreeSlots and OccupiedSlots partition the
// candidate set.
func (x *Index) OccupiedSlots() []interval.Interval {
	return x.selectSlots(false)
}

func (x *Index) selectSlots(free bool) []interval.Interval {
	var out []interval.Interval
	for i, s := range x.slots {
		if x.slotFree[i] == free {
			out = append(out, s)
		}
	}
	return out
}

// CategoriesWithBookings returns the facility categories that have at
// least one active reservation in the list. names maps facility IDs to
// display names; reservations for unknown facilities classify as "other".
// Supports the calendar dot/legend aggregation.
func CategoriesWithBookings(reservations []model.Reservation, names map[string]string) map[parse.Category]bool {
	out := make(map[parse.Category]bool)
	for _, r := range reservations {
		if !r.Active() {
			continue
		}
		out[parse.FacilityCategory(names[r.FacilityID])] = true
	}
	return out
}
