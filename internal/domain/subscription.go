package domain

import (
	"time"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionExpired, SubscriptionCancelled:
		return true
	}
	return false
}

// Subscription is a weekly recurring booking rule. It does not occupy the
// calendar itself; Occurs tells whether it produces a session on a date.
type Subscription struct {
	ID            uint               `json:"id"`
	FieldID       uint               `json:"field_id"`
	Weekday       time.Weekday       `json:"weekday"`
	Start         TimeOfDay          `json:"start"`
	DurationHours float64            `json:"duration"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       time.Time          `json:"end_date"`
	Customer      Customer           `json:"customer"`
	Status        SubscriptionStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func (s Subscription) End() TimeOfDay {
	return s.Start.Add(DurationMinutes(s.DurationHours))
}

// IsExpired reports whether an active subscription's window has closed.
func (s Subscription) IsExpired(now time.Time) bool {
	return s.Status == SubscriptionActive && DateBefore(s.EndDate, now)
}

// EffectiveStatus applies the lazy expiry predicate without mutating s.
func (s Subscription) EffectiveStatus(now time.Time) SubscriptionStatus {
	if s.IsExpired(now) {
		return SubscriptionExpired
	}
	return s.Status
}

func (s Subscription) IsActive(now time.Time) bool {
	return s.EffectiveStatus(now) == SubscriptionActive
}

func (s Subscription) InWindow(date time.Time) bool {
	return !DateBefore(date, s.StartDate) && !DateBefore(s.EndDate, date)
}

// Occurs reports whether the rule produces a session on date.
func (s Subscription) Occurs(date time.Time) bool {
	return date.Weekday() == s.Weekday && s.InWindow(date)
}

// Occurrences lists the dates in [from, to] on which the rule produces a session.
func (s Subscription) Occurrences(from, to time.Time) []time.Time {
	var out []time.Time
	d := DateOf(from)
	for offset := (int(s.Weekday) - int(d.Weekday()) + 7) % 7; ; offset = 7 {
		d = d.AddDate(0, 0, offset)
		if DateBefore(to, d) {
			break
		}
		if s.InWindow(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s *Subscription) Cancel(now time.Time) error {
	if s.Status == SubscriptionCancelled {
		return ErrInvalidTransition
	}
	s.Status = SubscriptionCancelled
	s.UpdatedAt = now
	return nil
}

// MonthWindow returns the first and last day of a calendar month.
func MonthWindow(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return first, first.AddDate(0, 1, -1)
}
