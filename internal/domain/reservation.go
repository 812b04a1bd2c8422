package domain

import (
	"time"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Occupying reports whether a reservation in this status holds its slot.
func (s ReservationStatus) Occupying() bool {
	return s == StatusPending || s == StatusConfirmed
}

// DefaultConfirmationWindow is how long a pending reservation waits for its token.
const DefaultConfirmationWindow = 15 * time.Minute

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Reservation struct {
	ID             uint              `json:"id"`
	Customer       Customer          `json:"customer"`
	FieldID        uint              `json:"field_id"`
	Date           time.Time         `json:"date"`
	Start          TimeOfDay         `json:"start"`
	DurationHours  float64           `json:"duration"`
	Price          float64           `json:"price"`
	Status         ReservationStatus `json:"status"`
	SubscriptionID *uint             `json:"subscription_id,omitempty"`
	Token          string            `json:"-"`
	TokenCreatedAt time.Time         `json:"-"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (r Reservation) End() TimeOfDay {
	return r.Start.Add(DurationMinutes(r.DurationHours))
}

// StartsAt and EndsAt place the reservation on the timeline.
func (r Reservation) StartsAt() time.Time {
	return r.Start.At(r.Date)
}

func (r Reservation) EndsAt() time.Time {
	return r.End().At(r.Date)
}

// IsConfirmationOverdue is the lazy-expiry predicate for pending reservations.
func (r Reservation) IsConfirmationOverdue(now time.Time, window time.Duration) bool {
	if r.Status != StatusPending || r.Token == "" {
		return false
	}
	return now.Sub(r.TokenCreatedAt) > window
}

// IsFinished reports whether the session is over.
func (r Reservation) IsFinished(now time.Time) bool {
	return !r.EndsAt().After(now)
}

// CanTransition encodes pending -> confirmed|cancelled and confirmed -> cancelled.
func (r Reservation) CanTransition(to ReservationStatus) bool {
	switch r.Status {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCancelled
	default:
		return false
	}
}

func (r *Reservation) Confirm(now time.Time) error {
	if !r.CanTransition(StatusConfirmed) {
		return ErrInvalidTransition
	}
	r.Status = StatusConfirmed
	r.UpdatedAt = now
	return nil
}

func (r *Reservation) Cancel(now time.Time) error {
	if !r.CanTransition(StatusCancelled) {
		return ErrInvalidTransition
	}
	r.Status = StatusCancelled
	r.UpdatedAt = now
	return nil
}

// Overlaps is the half-open interval test used everywhere in the engine.
func Overlaps(startA, endA, startB, endB TimeOfDay) bool {
	return startA < endB && endA > startB
}
