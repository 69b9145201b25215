package engine

import (
	"sort"

	"facility-booking-backend/internal/availability"
	"facility-booking-backend/internal/events"
	"facility-booking-backend/internal/model"
)

// applyEvent merges one inbound change event into the cache and any
// observed in-memory list. Events are processed in arrival order, one at
// a time per channel goroutine.
//
// Every branch invalidates the cache entry before touching in-memory
// state: a worst-case race then costs one extra fetch instead of serving
// stale availability.
func (e *Engine) applyEvent(ev events.ChangeEvent) {
	facilityID, date, ok := ev.Key()
	if !ok {
		return
	}
	key := Key{FacilityID: facilityID, Date: date}
	e.cache.Invalidate(key)

	// An update that moved the reservation across keys dirties both.
	if pfid, pdate, ok := ev.PreviousKey(); ok {
		prevKey := Key{FacilityID: pfid, Date: pdate}
		if prevKey != key {
			e.cache.Invalidate(prevKey)
			if e.isObserved(prevKey) {
				e.sched.Trigger(prevKey)
			}
		}
	}

	// notify matches subscribers whose scope covers the key, including
	// the all-facilities scope; for a key without local state they get a
	// nil view and refetch on their own terms.
	switch ev.Type {
	case events.EventInsert:
		if ev.Record == nil || !ev.Record.Active() {
			return
		}
		e.mergeRecord(key, *ev.Record)
		e.notify(key)

	case events.EventUpdate:
		// Status flips, date/time moves: refetch from the canonical list
		// rather than patching derived state in place. The refetch's
		// publish notifies.
		if e.isObserved(key) {
			e.sched.Trigger(key)
			return
		}
		e.notify(key)

	case events.EventDelete:
		if ev.Record == nil {
			return
		}
		e.removeRecord(key, ev.Record.ID)
		e.notify(key)
	}
}

func (e *Engine) isObserved(key Key) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.observed[key]
	return ok
}

// mergeRecord adds or replaces a record in the observed list for the key,
// deduplicating by identifier, and rebuilds the index. Returns false when
// the key is not observed; unobserved keys cost only the invalidation.
func (e *Engine) mergeRecord(key Key, rec model.Reservation) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.observed[key]
	if !ok {
		return false
	}

	replaced := false
	for i := range st.list {
		if st.list[i].ID == rec.ID {
			st.list[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		st.list = append(st.list, rec)
	}
	sort.Slice(st.list, func(i, j int) bool { return st.list[i].StartMinute < st.list[j].StartMinute })
	st.index = availability.Build(st.list, e.cfg.Slots)
	return true
}

// removeRecord deletes a record by id from the observed list and rebuilds
// the index. Removing an absent id is a no-op, not an error.
func (e *Engine) removeRecord(key Key, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.observed[key]
	if !ok {
		return false
	}

	for i := range st.list {
		if st.list[i].ID == id {
			st.list = append(st.list[:i], st.list[i+1:]...)
			st.index = availability.Build(st.list, e.cfg.Slots)
			return true
		}
	}
	return true
}
