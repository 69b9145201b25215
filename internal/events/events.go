// Package events defines the reservation change-event feed shared by the
// backend publisher and the engine's stream consumer.
package events

import "facility-booking-backend/internal/model"

// EventType classifies a change to the reservations table.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent is one entry in the ordered change feed. Record carries the
// row after the change; Previous carries the row before it (nil on insert).
// On delete, Record identifies the removed row.
type ChangeEvent struct {
	Type     EventType          `json:"eventType"`
	Record   *model.Reservation `json:"record"`
	Previous *model.Reservation `json:"previousRecord,omitempty"`
}

// Key returns the (facility, date) the event affects, preferring the
// current record. Update events that moved a reservation across keys
// affect both; see PreviousKey.
func (e ChangeEvent) Key() (facilityID, date string, ok bool) {
	if e.Record != nil {
		return e.Record.FacilityID, e.Record.Date, true
	}
	if e.Previous != nil {
		return e.Previous.FacilityID, e.Previous.Date, true
	}
	return "", "", false
}

// PreviousKey returns the (facility, date) of the pre-change row, if any.
func (e ChangeEvent) PreviousKey() (facilityID, date string, ok bool) {
	if e.Previous != nil {
		return e.Previous.FacilityID, e.Previous.Date, true
	}
	return "", "", false
}
