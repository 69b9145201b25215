// Package engine is the client-side availability and conflict-resolution
// core. It owns the reservation cache, the derived availability indices,
// the change-event reconciliation, and the write path's pre-submit
// conflict check. A presentation layer drives it through GetAvailability,
// Subscribe/Unsubscribe, and SubmitReservation; the backing store is
// reached only through the remote query interface and event stream.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"facility-booking-backend/internal/availability"
	"facility-booking-backend/internal/interval"
	"facility-booking-backend/internal/model"
	"facility-booking-backend/internal/parse"
	"facility-booking-backend/internal/remote"
	"facility-booking-backend/internal/slot"
)

// Config holds the engine tuning knobs.
type Config struct {
	DebounceWindow         time.Duration
	DeferralDelay          time.Duration
	ReconnectMaxAttempts   int
	ReconnectBackoff       time.Duration
	PaymentPollInterval    time.Duration
	PaymentPollMaxAttempts int
	Hours                  slot.Hours
	Slots                  []interval.Interval
}

// DefaultConfig returns the standard knob values.
func DefaultConfig() Config {
	return Config{
		DebounceWindow:         200 * time.Millisecond,
		DeferralDelay:          150 * time.Millisecond,
		ReconnectMaxAttempts:   5,
		ReconnectBackoff:       time.Second,
		PaymentPollInterval:    2 * time.Second,
		PaymentPollMaxAttempts: 30,
		Hours:                  slot.DefaultHours(),
		Slots:                  slot.Presets(),
	}
}

// Availability is the free/occupied view handed to consumers.
type Availability struct {
	Occupied []interval.Interval `json:"occupied"`
	Free     []interval.Interval `json:"free"`
}

// keyState is the canonical in-memory reservation list for an observed
// key, plus its derived index. The index is rebuilt from the list on every
// change, never patched.
type keyState struct {
	observers int
	list      []model.Reservation
	index     *availability.Index
}

// Engine ties the components together. Safe for concurrent use.
type Engine struct {
	remote remote.Client
	opener remote.StreamOpener
	clock  Clock
	cfg    Config
	cache  *ReservationCache
	sched  *RefetchScheduler

	mu         sync.Mutex
	observed   map[Key]*keyState
	subs       map[Handle]*subscriber
	channels   map[string]*channel
	nextHandle Handle
	facilities map[string]model.Facility
}

// New creates an engine. opener may be nil when live updates are not
// wanted; Subscribe then still registers callbacks but reports
// ErrLiveUpdatesUnavailable through ChannelState.
func New(client remote.Client, opener remote.StreamOpener, clock Clock, cfg Config) *Engine {
	if clock == nil {
		clock = RealClock{}
	}
	if len(cfg.Slots) == 0 {
		cfg.Slots = slot.Presets()
	}
	e := &Engine{
		remote:   client,
		opener:   opener,
		clock:    clock,
		cfg:      cfg,
		cache:    NewReservationCache(),
		observed: make(map[Key]*keyState),
		subs:     make(map[Handle]*subscriber),
		channels: make(map[string]*channel),
	}
	e.sched = NewRefetchScheduler(cfg.DebounceWindow, cfg.DeferralDelay, clock, e.backgroundFetch)
	return e
}

// RequestRefresh feeds a UI-driven selection change (facility switch,
// date switch) into the debounced refetch path.
func (e *Engine) RequestRefresh(facilityID, date string) {
	e.sched.Trigger(Key{FacilityID: facilityID, Date: date})
}

// GetAvailability returns the free/occupied view for a facility and date.
// A cache hit is answered synchronously; a miss fetches through the remote
// query interface and populates the cache on success only.
func (e *Engine) GetAvailability(ctx context.Context, facilityID, date string) (Availability, error) {
	key := Key{FacilityID: facilityID, Date: date}
	list, ok := e.cache.Get(key)
	if !ok {
		var err error
		list, err = e.load(ctx, key)
		if err != nil {
			return Availability{}, err
		}
	}

	idx := availability.Build(list, e.cfg.Slots)
	return Availability{
		Occupied: idx.OccupiedIntervals(),
		Free:     idx.FreeSlots(),
	}, nil
}

// LoadFacilities fetches the facility reference data once per session.
// Subsequent calls return the cached set.
func (e *Engine) LoadFacilities(ctx context.Context) ([]model.Facility, error) {
	e.mu.Lock()
	cached := e.facilities
	e.mu.Unlock()
	if cached != nil {
		out := make([]model.Facility, 0, len(cached))
		for _, f := range cached {
			out = append(out, f)
		}
		return out, nil
	}

	facilities, err := e.remote.ListFacilities(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Facility, len(facilities))
	for _, f := range facilities {
		byID[f.ID] = f
	}
	e.mu.Lock()
	e.facilities = byID
	e.mu.Unlock()
	return facilities, nil
}

// CategoriesWithBookings returns the facility categories with at least one
// active reservation on the date, for calendar dot rendering.
func (e *Engine) CategoriesWithBookings(ctx context.Context, date string) (map[parse.Category]bool, error) {
	if _, err := e.LoadFacilities(ctx); err != nil {
		return nil, err
	}

	reservations, err := e.remote.ListReservations(ctx, "", date, date)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	names := make(map[string]string, len(e.facilities))
	for id, f := range e.facilities {
		names[id] = f.Name
	}
	e.mu.Unlock()

	return availability.CategoriesWithBookings(reservations, names), nil
}

// load fetches the key's reservation list through the remote interface
// and, when it holds the in-flight slot, publishes the result to the
// cache and any observed state. A concurrent fetch for the same key means
// we return the data without publishing; the owner's result lands instead.
func (e *Engine) load(ctx context.Context, key Key) ([]model.Reservation, error) {
	owner := e.sched.Begin(key)
	if owner {
		defer e.sched.End(key)
	}

	list, err := e.remote.ListReservations(ctx, key.FacilityID, key.Date, key.Date)
	if err != nil {
		return nil, fmt.Errorf("fetch for %s failed: %w", key, err)
	}

	if owner {
		e.publish(key, list)
	}
	return list, nil
}

// backgroundFetch is the scheduler's fetch function. The scheduler already
// holds the in-flight slot when it runs.
func (e *Engine) backgroundFetch(key Key) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	list, err := e.remote.ListReservations(ctx, key.FacilityID, key.Date, key.Date)
	if err != nil {
		// Failures are not cached; the next trigger retries naturally.
		log.Printf("Background fetch for %s failed: %v", key, err)
		return
	}
	e.publish(key, list)
}

// publish installs a freshly fetched list as the canonical state for the
// key and notifies subscribers.
func (e *Engine) publish(key Key, list []model.Reservation) {
	e.cache.Put(key, list)

	e.mu.Lock()
	if st, ok := e.observed[key]; ok {
		st.list = append([]model.Reservation(nil), list...)
		st.index = availability.Build(st.list, e.cfg.Slots)
	}
	e.mu.Unlock()

	e.notify(key)
}

// availabilityFor builds the consumer view for a key from observed state
// or cache; nil when nothing is known locally.
func (e *Engine) availabilityFor(key Key) *Availability {
	e.mu.Lock()
	st, ok := e.observed[key]
	var idx *availability.Index
	if ok && st.index != nil {
		idx = st.index
	}
	e.mu.Unlock()

	if idx == nil {
		list, found := e.cache.Get(key)
		if !found {
			return nil
		}
		idx = availability.Build(list, e.cfg.Slots)
	}
	return &Availability{Occupied: idx.OccupiedIntervals(), Free: idx.FreeSlots()}
}
