package engine

import (
	"sync/atomic"

	gocache "github.com/patrickmn/go-cache"

	"facility-booking-backend/internal/model"
)

// Key addresses one facility's reservation list on one date.
type Key struct {
	FacilityID string
	Date       string
}

func (k Key) String() string {
	return k.FacilityID + "|" + k.Date
}

// ReservationCache stores raw reservation lists per key. No TTL:
// correctness relies entirely on explicit invalidation from writes and
// change events. Entries are either present or absent, never stale-but-
// served. A monotonic version stamp changes on every mutation so readers
// can detect that anything moved underneath them.
type ReservationCache struct {
	store   *gocache.Cache
	version atomic.Uint64
}

// NewReservationCache creates an empty cache.
func NewReservationCache() *ReservationCache {
	// NoExpiration and no janitor: eviction is explicit only.
	return &ReservationCache{store: gocache.New(gocache.NoExpiration, 0)}
}

// Get returns the cached list for the key, if present. The returned slice
// is a copy; callers may not mutate cached state.
func (c *ReservationCache) Get(key Key) ([]model.Reservation, bool) {
	v, found := c.store.Get(key.String())
	if !found {
		return nil, false
	}
	list := v.([]model.Reservation)
	out := make([]model.Reservation, len(list))
	copy(out, list)
	return out, true
}

// Put stores the list for the key. Only successful fetches are put;
// failures leave the previous state untouched.
func (c *ReservationCache) Put(key Key, list []model.Reservation) {
	stored := make([]model.Reservation, len(list))
	copy(stored, list)
	c.store.Set(key.String(), stored, gocache.NoExpiration)
	c.version.Add(1)
}

// Invalidate evicts one key.
func (c *ReservationCache) Invalidate(key Key) {
	c.store.Delete(key.String())
	c.version.Add(1)
}

// InvalidateAll evicts everything.
func (c *ReservationCache) InvalidateAll() {
	c.store.Flush()
	c.version.Add(1)
}

// Version returns the monotonic mutation stamp.
func (c *ReservationCache) Version() uint64 {
	return c.version.Load()
}
