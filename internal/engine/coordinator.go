package engine

import (
	"context"
	"fmt"

	"facility-booking-backend/internal/availability"
	"facility-booking-backend/internal/events"
	"facility-booking-backend/internal/interval"
	"facility-booking-backend/internal/model"
	"facility-booking-backend/internal/remote"
)

// Candidate is a proposed reservation.
type Candidate struct {
	FacilityID    string
	Date          string
	Interval      interval.Interval
	Purpose       string
	CreatedBy     string
	PaymentMethod string
}

// SubmitReservation is the serialized create path:
//
//  1. validate the candidate interval and operating-hours bound;
//  2. check against the freshest known occupied intervals, forcing a
//     synchronous fetch when the key was never cached; the cache's
//     version stamp guards the check, and a stamp that moved while
//     deciding forces one more pass on the settled state;
//  3. fail with model.ErrConflict before any network write when the
//     interval is taken;
//  4. otherwise submit through the remote query interface.
//
// The gap between step 3 and the remote write is a genuine race against
// other clients; the store's overlap constraint resolves it, and its
// conflict response surfaces here as model.ErrConflict too. The local
// check only avoids pointless round trips and gives instant feedback.
func (e *Engine) SubmitReservation(ctx context.Context, cand Candidate) (model.Reservation, error) {
	iv, err := interval.New(cand.Interval.Start, cand.Interval.End)
	if err != nil {
		return model.Reservation{}, err
	}
	if err := e.cfg.Hours.Check(iv); err != nil {
		return model.Reservation{}, err
	}

	key := Key{FacilityID: cand.FacilityID, Date: cand.Date}
	for attempt := 0; ; attempt++ {
		stamp := e.cache.Version()

		list, ok := e.cache.Get(key)
		if !ok {
			list, err = e.load(ctx, key)
			if err != nil {
				return model.Reservation{}, fmt.Errorf("pre-submit check: %w", err)
			}
		}

		idx := availability.Build(list, e.cfg.Slots)
		if !idx.IsFree(iv) {
			return model.Reservation{}, model.ErrConflict
		}

		// The version stamp moving while we decided means something landed
		// mid-check (an event, a concurrent fetch, our own forced load).
		// One more pass decides on the settled state; the bound keeps a
		// busy feed from starving the submit.
		if e.cache.Version() == stamp || attempt >= 1 {
			break
		}
	}

	created, err := e.remote.CreateReservation(ctx, remote.CreateRequest{
		FacilityID:    cand.FacilityID,
		Date:          cand.Date,
		StartMinute:   iv.Start,
		EndMinute:     iv.End,
		Purpose:       cand.Purpose,
		CreatedBy:     cand.CreatedBy,
		PaymentMethod: cand.PaymentMethod,
	})
	if err != nil {
		return model.Reservation{}, err
	}

	// Fold our own write in immediately instead of waiting for the echo
	// on the event stream; the stream's copy then dedups by id.
	e.applyEvent(events.ChangeEvent{Type: events.EventInsert, Record: &created})
	return created, nil
}
