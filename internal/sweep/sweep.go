// Package sweep runs the server-side completion sweep: active
// reservations whose end time has passed are transitioned to completed so
// they stop blocking availability.
package sweep

import (
	"context"
	"log"
	"time"

	"facility-booking-backend/config"
	"facility-booking-backend/internal/events"
	"facility-booking-backend/internal/store"
)

// Service periodically sweeps expired reservations. Each transition is
// announced on the change feed so engine caches invalidate.
type Service struct {
	cfg       *config.Config
	store     store.Store
	publisher *events.Publisher
	now       func() time.Time
}

// NewService creates a sweep service. publisher may be nil when the change
// feed is disabled.
func NewService(cfg *config.Config, s store.Store, publisher *events.Publisher) *Service {
	return &Service{
		cfg:       cfg,
		store:     s,
		publisher: publisher,
		now:       time.Now,
	}
}

// Run starts the sweep loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Sweep.Enabled {
		log.Println("Completion sweep is disabled. Not starting.")
		return
	}
	log.Println("Starting completion sweep...")

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Sweep.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Completion sweep shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Sweep.Interval)
		}
	}
}

// SweepOnce performs a single sweep cycle against the current wall clock.
func (s *Service) SweepOnce(ctx context.Context) {
	now := s.now()
	cutoffDate := now.Format("2006-01-02")
	cutoffMinute := now.Hour()*60 + now.Minute()

	transitioned, err := s.store.MarkCompleted(ctx, cutoffDate, cutoffMinute)
	if err != nil {
		log.Printf("Error sweeping completed reservations: %v", err)
		return
	}
	if len(transitioned) == 0 {
		return
	}

	log.Printf("Sweep transitioned %d reservations to completed", len(transitioned))
	if s.publisher == nil {
		return
	}
	// The key is unchanged by a completion, so no previous record is
	// attached; consumers refetch the key either way.
	for i := range transitioned {
		rec := transitioned[i]
		s.publisher.Dispatch(events.ChangeEvent{
			Type:   events.EventUpdate,
			Record: &rec,
		})
	}
}
