package availability

import (
	"sort"
	"time"

	"github.com/terrainbook/booking-api/internal/domain"
)

// Snapshot is what the store knows about one field on one date at check time.
// Reservations may include rows of any status; Subscriptions should include
// every rule of the field so that reservations tied to an inactive rule can be
// recognised.
type Snapshot struct {
	Reservations  []domain.Reservation
	Subscriptions []domain.Subscription
}

// Candidate is a requested booking.
type Candidate struct {
	Field         domain.Field
	Date          time.Time
	Start         domain.TimeOfDay
	DurationHours float64
	// SubscriptionID is set when the candidate materializes a rule; the rule's
	// own occurrence does not block it.
	SubscriptionID *uint
}

func (c Candidate) End() domain.TimeOfDay {
	return c.Start.Add(domain.DurationMinutes(c.DurationHours))
}

// Resolver decides whether a candidate is free. It never caches: every call
// evaluates the snapshot it is given.
type Resolver struct {
	Policy             Policy
	ConfirmationWindow time.Duration
}

func NewResolver(policy Policy, confirmationWindow time.Duration) Resolver {
	if confirmationWindow <= 0 {
		confirmationWindow = domain.DefaultConfirmationWindow
	}
	return Resolver{Policy: policy, ConfirmationWindow: confirmationWindow}
}

// CheckAvailability validates the slot, then checks it against snap. On
// success it returns the effective duration to book.
func (r Resolver) CheckAvailability(c Candidate, snap Snapshot, now time.Time) (float64, error) {
	effective, err := r.Policy.ValidateSlot(c.Field, c.Date, c.Start, c.DurationHours)
	if err != nil {
		return 0, err
	}
	c.DurationHours = effective

	if err := r.Check(c, snap, now); err != nil {
		return 0, err
	}

	return effective, nil
}

// Check runs the conflict rules in order: reservations, subscription
// occurrences, then grid alignment for fixed-length sports.
func (r Resolver) Check(c Candidate, snap Snapshot, now time.Time) error {
	start, end := c.Start, c.End()

	reservations := r.Blocking(c.Field.ID, c.Date, snap, now)
	for _, res := range reservations {
		if domain.Overlaps(start, end, res.Start, res.End()) {
			return domain.Reject(domain.ErrConflict, "overlaps reservation #%d (%s-%s)", res.ID, res.Start, res.End())
		}
	}

	occurring := occurringSubscriptions(c.Field.ID, c.Date, snap.Subscriptions, now)
	for _, sub := range occurring {
		if c.SubscriptionID != nil && *c.SubscriptionID == sub.ID {
			continue
		}
		if domain.Overlaps(start, end, sub.Start, sub.End()) {
			return domain.Reject(domain.ErrConflict, "overlaps subscription #%d every %s %s-%s",
				sub.ID, sub.Weekday, sub.Start, sub.End())
		}
	}

	if !c.Field.Sport.FixedDuration() {
		return nil
	}

	phase, ok := DominantPhase(anchorStarts(reservations, occurring), footballSessionMinutes)
	if ok && !phase.Accepts(start) {
		before, after := phase.Nearest(start)
		return domain.Reject(domain.ErrConflict,
			"%s would leave an unbookable gap; the day is aligned on %s or %s", start, before, after)
	}

	return nil
}

// Blocking returns the reservations of snap that still hold a slot on
// fieldID/date, ordered by start. Cancelled rows, pending rows past their
// confirmation window and rows of an inactive subscription are dropped.
func (r Resolver) Blocking(fieldID uint, date time.Time, snap Snapshot, now time.Time) []domain.Reservation {
	window := r.ConfirmationWindow
	if window <= 0 {
		window = domain.DefaultConfirmationWindow
	}

	subs := make(map[uint]domain.Subscription, len(snap.Subscriptions))
	for _, s := range snap.Subscriptions {
		subs[s.ID] = s
	}

	out := make([]domain.Reservation, 0, len(snap.Reservations))
	for _, res := range snap.Reservations {
		if res.FieldID != fieldID || !domain.SameDate(res.Date, date) {
			continue
		}
		if !res.Status.Occupying() || res.IsConfirmationOverdue(now, window) {
			continue
		}
		if res.SubscriptionID != nil {
			if sub, ok := subs[*res.SubscriptionID]; ok && !sub.IsActive(now) {
				continue
			}
		}
		out = append(out, res)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})

	return out
}

func occurringSubscriptions(fieldID uint, date time.Time, subs []domain.Subscription, now time.Time) []domain.Subscription {
	out := make([]domain.Subscription, 0, len(subs))
	for _, s := range subs {
		if s.FieldID == fieldID && s.IsActive(now) && s.Occurs(date) {
			out = append(out, s)
		}
	}
	return out
}

// anchorStarts lists reservation starts then subscription starts. A rule that
// was already materialized on the date is counted once.
func anchorStarts(reservations []domain.Reservation, subs []domain.Subscription) []domain.TimeOfDay {
	materialized := make(map[uint]bool)
	starts := make([]domain.TimeOfDay, 0, len(reservations)+len(subs))
	for _, res := range reservations {
		starts = append(starts, res.Start)
		if res.SubscriptionID != nil {
			materialized[*res.SubscriptionID] = true
		}
	}
	for _, s := range subs {
		if !materialized[s.ID] {
			starts = append(starts, s.Start)
		}
	}
	return starts
}
