package engine

import (
	"context"
	"log"
	"time"

	"facility-booking-backend/internal/model"
)

// PollPaymentStatus watches a reservation's payment status at a fixed
// interval until a terminal status appears, the attempt budget runs out
// (ErrPollExhausted), or ctx is cancelled. Cancellation wins immediately;
// a caller tearing down never waits for the next tick.
func (e *Engine) PollPaymentStatus(ctx context.Context, reservationID string) (model.PaymentStatus, error) {
	attempts := e.cfg.PaymentPollMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	ticker := time.NewTicker(e.cfg.PaymentPollInterval)
	defer ticker.Stop()

	for i := 0; i < attempts; i++ {
		r, err := e.remote.GetReservation(ctx, reservationID)
		if err != nil {
			// Transient remote failures consume an attempt; the bound
			// covers errors and non-terminal statuses alike.
			log.Printf("Payment poll for %s: %v", reservationID, err)
		} else if r.PaymentStatus.Terminal() {
			return r.PaymentStatus, nil
		}

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
	return "", ErrPollExhausted
}
