package model

import "time"

// PriceUnit says what a facility's price applies to.
type PriceUnit string

const (
	PricePerHour    PriceUnit = "hour"
	PricePerSession PriceUnit = "session"
)

// Facility is a shared bookable space (court, hall, ...). Reference data:
// fetched once per session and never mutated by the engine.
type Facility struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Price     int64     `gorm:"not null" json:"price"`
	PriceUnit PriceUnit `gorm:"size:16;not null" json:"priceUnit"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
