package api

import (
	"time"

	"facility-booking-backend/internal/events"
	"facility-booking-backend/internal/interval"
	"facility-booking-backend/internal/mw"
	"facility-booking-backend/internal/slot"
	"facility-booking-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	publisher *events.Publisher
	hours     slot.Hours
	slots     []interval.Interval
	respCache *mw.ResponseCache
}

// NewHandler creates a new API handler. publisher may be nil when the
// change feed is disabled.
func NewHandler(s store.Store, publisher *events.Publisher, hours slot.Hours, slots []interval.Interval) *Handler {
	return &Handler{
		store:     s,
		publisher: publisher,
		hours:     hours,
		slots:     slots,
	}
}

// useResponseCache attaches the router's response cache so write handlers
// can evict derived read endpoints.
func (h *Handler) useResponseCache(rc *mw.ResponseCache) {
	h.respCache = rc
}

func (h *Handler) dispatch(ev events.ChangeEvent) {
	if h.publisher != nil {
		h.publisher.Dispatch(ev)
	}
}

// invalidateCalendar evicts the cached calendar-dot responses. Called on
// every reservation write; the dot set depends on the active set.
func (h *Handler) invalidateCalendar() {
	if h.respCache != nil {
		h.respCache.InvalidatePath("/api/calendar/categories")
	}
}

// validDate reports whether s is a well-formed calendar date. Dates stay
// plain strings end to end; parsing here is validation only.
func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
