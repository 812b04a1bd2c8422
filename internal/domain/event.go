package domain

import "time"

type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventReservationConfirmed EventType = "reservation.confirmed"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationExpired   EventType = "reservation.expired"
)

// ReservationEvent is what notification channels receive after a lifecycle change.
type ReservationEvent struct {
	Type        EventType   `json:"type"`
	Reservation Reservation `json:"reservation"`
	FieldName   string      `json:"field_name,omitempty"`
	Token       string      `json:"token,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}
