package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"facility-booking-backend/internal/model"
)

// Store defines the persistence operations the API and sweep depend on.
type Store interface {
	ListFacilities(ctx context.Context) ([]model.Facility, error)
	UpsertFacilities(ctx context.Context, facilities []model.Facility) error

	ListReservations(ctx context.Context, facilityID, dateFrom, dateTo string) ([]model.Reservation, error)
	GetReservation(ctx context.Context, id string) (model.Reservation, error)

	// CreateReservation inserts the reservation unless its interval
	// overlaps an active reservation on the same facility and date, in
	// which case it returns model.ErrConflict. The check and insert run
	// in one transaction; this is the authoritative conflict guard that
	// closes the client-side TOCTOU window.
	CreateReservation(ctx context.Context, r *model.Reservation) error

	CancelReservation(ctx context.Context, id string) (model.Reservation, error)
	UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) (model.Reservation, error)

	// MarkCompleted transitions active reservations that ended before the
	// cutoff to completed and returns the transitioned rows.
	MarkCompleted(ctx context.Context, beforeDate string, beforeMinute int) ([]model.Reservation, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) ListFacilities(ctx context.Context) ([]model.Facility, error) {
	var facilities []model.Facility
	if err := s.db.WithContext(ctx).Order("name").Find(&facilities).Error; err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	return facilities, nil
}

func (s *gormStore) UpsertFacilities(ctx context.Context, facilities []model.Facility) error {
	if len(facilities) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "price", "price_unit", "updated_at"}),
	}).Create(&facilities).Error
	if err != nil {
		return fmt.Errorf("failed to upsert facilities: %w", err)
	}
	return nil
}

func (s *gormStore) ListReservations(ctx context.Context, facilityID, dateFrom, dateTo string) ([]model.Reservation, error) {
	q := s.db.WithContext(ctx).Where("date >= ? AND date <= ?", dateFrom, dateTo)
	if facilityID != "" {
		q = q.Where("facility_id = ?", facilityID)
	}

	var reservations []model.Reservation
	if err := q.Order("date, start_minute").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

func (s *gormStore) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	var r model.Reservation
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Reservation{}, model.ErrNotFound
		}
		return model.Reservation{}, fmt.Errorf("failed to load reservation %s: %w", id, err)
	}
	return r, nil
}

func (s *gormStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	if r.StartMinute >= r.EndMinute {
		return fmt.Errorf("reservation %q has start >= end", r.ID)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = model.StatusPending
	}

	// Postgres deployments additionally carry an exclusion constraint on
	// (facility_id, date, minute range); see db.Init. The transactional
	// check below is what sqlite and the common path rely on.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var overlapping int64
		err := tx.Model(&model.Reservation{}).
			Where("facility_id = ? AND date = ?", r.FacilityID, r.Date).
			Where("status IN ?", []model.ReservationStatus{model.StatusPending, model.StatusConfirmed}).
			Where("start_minute < ? AND ? < end_minute", r.EndMinute, r.StartMinute).
			Count(&overlapping).Error
		if err != nil {
			return fmt.Errorf("overlap check failed for facility %s on %s: %w", r.FacilityID, r.Date, err)
		}
		if overlapping > 0 {
			return model.ErrConflict
		}

		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}
		return nil
	})
}

func (s *gormStore) CancelReservation(ctx context.Context, id string) (model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrNotFound
			}
			return err
		}
		if !r.Active() {
			return fmt.Errorf("reservation %s is already %s", id, r.Status)
		}
		r.Status = model.StatusCancelled
		return tx.Model(&r).Update("status", model.StatusCancelled).Error
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return r, nil
}

func (s *gormStore) UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) (model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrNotFound
			}
			return err
		}

		updates := map[string]any{"payment_status": status}
		// A pending cash reservation becomes confirmed once paid.
		if status == model.PaymentPaid && r.Status == model.StatusPending {
			updates["status"] = model.StatusConfirmed
			r.Status = model.StatusConfirmed
		}
		r.PaymentStatus = status
		return tx.Model(&r).Updates(updates).Error
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return r, nil
}

func (s *gormStore) MarkCompleted(ctx context.Context, beforeDate string, beforeMinute int) ([]model.Reservation, error) {
	var transitioned []model.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("status IN ?", []model.ReservationStatus{model.StatusPending, model.StatusConfirmed}).
			Where("date < ? OR (date = ? AND end_minute <= ?)", beforeDate, beforeDate, beforeMinute).
			Find(&transitioned).Error
		if err != nil {
			return fmt.Errorf("failed to find completable reservations: %w", err)
		}
		if len(transitioned) == 0 {
			return nil
		}

		ids := make([]string, len(transitioned))
		for i := range transitioned {
			ids[i] = transitioned[i].ID
			transitioned[i].Status = model.StatusCompleted
		}
		err = tx.Model(&model.Reservation{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"status": model.StatusCompleted, "updated_at": time.Now().UTC()}).Error
		if err != nil {
			return fmt.Errorf("failed to mark reservations completed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transitioned, nil
}
