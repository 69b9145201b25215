package model

import (
	"time"

	"facility-booking-backend/internal/interval"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
)

// Active reports whether a reservation in this status occupies time.
// Only pending and confirmed reservations block a slot.
func (s ReservationStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// PaymentStatus tracks the payment side of a reservation. Payment
// processing itself happens elsewhere; the engine only polls this field.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Terminal reports whether payment polling can stop at this status.
func (p PaymentStatus) Terminal() bool {
	return p == PaymentPaid || p == PaymentRefunded
}

// Reservation is a single-facility, single-interval booking on one calendar
// day. Date is a plain "YYYY-MM-DD" string: wall-clock, no time zone
// shifting across midnight. Start/end are minutes since midnight on that
// day. Date, time, and facility are immutable once created; only status
// and payment fields change afterwards.
type Reservation struct {
	ID            string            `gorm:"primaryKey;size:64" json:"id"`
	FacilityID    string            `gorm:"size:64;index:idx_reservations_key;not null" json:"facilityId"`
	Date          string            `gorm:"size:10;index:idx_reservations_key;not null" json:"date"`
	StartMinute   int               `gorm:"not null" json:"startMinute"`
	EndMinute     int               `gorm:"not null" json:"endMinute"`
	Status        ReservationStatus `gorm:"size:16;index;not null" json:"status"`
	PaymentStatus PaymentStatus     `gorm:"size:16;not null" json:"paymentStatus"`
	CreatedBy     string            `gorm:"size:64;not null" json:"createdBy"`
	Purpose       string            `gorm:"size:512" json:"purpose"`
	TotalAmount   int64             `gorm:"not null" json:"totalAmount"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Interval returns the reservation's time range.
func (r Reservation) Interval() interval.Interval {
	return interval.Interval{Start: r.StartMinute, End: r.EndMinute}
}

// Active reports whether the reservation currently occupies its interval.
func (r Reservation) Active() bool {
	return r.Status.Active()
}
