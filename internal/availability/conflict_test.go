package availability

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrainbook/booking-api/internal/domain"
)

var now = time.Date(2024, time.June, 3, 12, 0, 0, 0, time.UTC)

func booked(id, fieldID uint, date time.Time, start string, hours float64, status domain.ReservationStatus) domain.Reservation {
	return domain.Reservation{
		ID:            id,
		FieldID:       fieldID,
		Date:          date,
		Start:         tod(start),
		DurationHours: hours,
		Status:        status,
	}
}

func weekly(id, fieldID uint, day time.Weekday, start string, status domain.SubscriptionStatus) domain.Subscription {
	return domain.Subscription{
		ID:            id,
		FieldID:       fieldID,
		Weekday:       day,
		Start:         tod(start),
		DurationHours: 1.5,
		StartDate:     time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
		Status:        status,
	}
}

func TestCheck_EmptyDayIsFree(t *testing.T) {
	r := NewResolver(DefaultPolicy(), 0)
	f := tennis(1)

	for _, s := range r.Policy.SlotsFor(f, tuesday, 1) {
		_, err := r.CheckAvailability(Candidate{Field: f, Date: tuesday, Start: s, DurationHours: 1}, Snapshot{}, now)
		assert.NoError(t, err, s.String())
	}
}

func TestCheck_Reservations(t *testing.T) {
	r := NewResolver(DefaultPolicy(), 15*time.Minute)
	f := tennis(1)

	overdue := booked(3, 1, tuesday, "12:00", 1, domain.StatusPending)
	overdue.Token = "tok"
	overdue.TokenCreatedAt = now.Add(-16 * time.Minute)

	fresh := booked(4, 1, tuesday, "14:00", 1, domain.StatusPending)
	fresh.Token = "tok2"
	fresh.TokenCreatedAt = now.Add(-5 * time.Minute)

	snap := Snapshot{Reservations: []domain.Reservation{
		booked(1, 1, tuesday, "10:00", 2, domain.StatusConfirmed),
		booked(2, 1, tuesday, "18:00", 1, domain.StatusCancelled),
		overdue,
		fresh,
		booked(5, 2, tuesday, "16:00", 1, domain.StatusConfirmed),
		booked(6, 1, tuesday.AddDate(0, 0, 1), "16:00", 1, domain.StatusConfirmed),
	}}

	tests := []struct {
		start string
		hours float64
		err   bool
	}{
		{"09:00", 1, false},
		{"09:00", 1.5, true},
		{"11:00", 1, true},
		{"12:00", 2, false},
		{"13:00", 1.5, true},
		{"15:00", 1, false},
		{"16:00", 1, false},
		{"18:00", 1, false},
	}

	for _, tt := range tests {
		err := r.Check(Candidate{Field: f, Date: tuesday, Start: tod(tt.start), DurationHours: tt.hours}, snap, now)
		if tt.err {
			assert.ErrorIs(t, err, domain.ErrConflict, "%s %gh", tt.start, tt.hours)
			assert.Contains(t, domain.ReasonOf(err), "reservation #")
		} else {
			assert.NoError(t, err, "%s %gh", tt.start, tt.hours)
		}
	}
}

func TestCheck_Subscriptions(t *testing.T) {
	r := NewResolver(DefaultPolicy(), 0)
	f := tennis(1)

	expired := weekly(3, 1, time.Tuesday, "09:00", domain.SubscriptionActive)
	expired.EndDate = time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC)

	snap := Snapshot{Subscriptions: []domain.Subscription{
		weekly(1, 1, time.Tuesday, "18:00", domain.SubscriptionActive),
		weekly(2, 1, time.Tuesday, "20:00", domain.SubscriptionCancelled),
		expired,
		weekly(4, 1, time.Wednesday, "12:00", domain.SubscriptionActive),
	}}

	err := r.Check(Candidate{Field: f, Date: tuesday, Start: tod("19:00"), DurationHours: 1}, snap, now)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, domain.ReasonOf(err), "subscription #1")

	assert.NoError(t, r.Check(Candidate{Field: f, Date: tuesday, Start: tod("20:00"), DurationHours: 1}, snap, now))
	assert.NoError(t, r.Check(Candidate{Field: f, Date: tuesday, Start: tod("09:00"), DurationHours: 1}, snap, now))
	assert.NoError(t, r.Check(Candidate{Field: f, Date: tuesday, Start: tod("12:00"), DurationHours: 1}, snap, now))

	ownRule := uint(1)
	assert.NoError(t, r.Check(Candidate{Field: f, Date: tuesday, Start: tod("18:00"), DurationHours: 1.5, SubscriptionID: &ownRule}, snap, now))
}

func TestCheck_CancelledSubscriptionReservationDoesNotBlock(t *testing.T) {
	r := NewResolver(DefaultPolicy(), 0)
	f := football(1, domain.FormatSixASide)

	subID := uint(7)
	generated := booked(1, 1, tuesday, "20:00", 1.5, domain.StatusConfirmed)
	generated.SubscriptionID = &subID

	snap := Snapshot{
		Reservations:  []domain.Reservation{generated},
		Subscriptions: []domain.Subscription{weekly(7, 1, time.Tuesday, "20:00", domain.SubscriptionCancelled)},
	}

	_, err := r.CheckAvailability(Candidate{Field: f, Date: tuesday, Start: tod("20:00"), DurationHours: 1.5}, snap, now)
	assert.NoError(t, err)

	snap.Subscriptions[0].Status = domain.SubscriptionActive
	_, err = r.CheckAvailability(Candidate{Field: f, Date: tuesday, Start: tod("20:00"), DurationHours: 1.5}, snap, now)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCheck_FootballAlignment(t *testing.T) {
	r := NewResolver(DefaultPolicy(), 0)
	f := football(1, domain.FormatSixASide)
	snap := Snapshot{Reservations: []domain.Reservation{
		booked(1, 1, tuesday, "17:00", 1.5, domain.StatusConfirmed),
	}}

	err := r.Check(Candidate{Field: f, Date: tuesday, Start: tod("21:00"), DurationHours: 1.5}, snap, now)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, domain.ReasonOf(err), "20:00 or 21:30")

	assert.NoError(t, r.Check(Candidate{Field: f, Date: tuesday, Start: tod("21:30"), DurationHours: 1.5}, snap, now))
	assert.NoError(t, r.Check(Candidate{Field: f, Date: tuesday, Start: tod("18:30"), DurationHours: 1.5}, snap, now))

	// Racket sports have no alignment rule.
	court := tennis(2)
	snap.Reservations[0].FieldID = 2
	assert.NoError(t, r.Check(Candidate{Field: court, Date: tuesday, Start: tod("19:30"), DurationHours: 1}, snap, now))
}

func TestCheck_AlignmentCountsSubscriptions(t *testing.T) {
	r := NewResolver(DefaultPolicy(), 0)
	f := football(1, domain.FormatSevenOrEightASide)
	snap := Snapshot{
		Reservations: []domain.Reservation{booked(1, 1, tuesday, "10:30", 1.5, domain.StatusConfirmed)},
		Subscriptions: []domain.Subscription{
			weekly(1, 1, time.Tuesday, "17:30", domain.SubscriptionActive),
			weekly(2, 1, time.Tuesday, "20:30", domain.SubscriptionActive),
		},
	}

	assert.ErrorIs(t, r.Check(Candidate{Field: f, Date: tuesday, Start: tod("13:30"), DurationHours: 1.5}, snap, now), domain.ErrConflict)
	assert.NoError(t, r.Check(Candidate{Field: f, Date: tuesday, Start: tod("14:30"), DurationHours: 1.5}, snap, now))
}

func TestSequentialBookingsNeverOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	r := NewResolver(DefaultPolicy(), 0)
	fields := []domain.Field{tennis(1), football(2, domain.FormatSevenOrEightASide)}

	for _, f := range fields {
		for round := 0; round < 50; round++ {
			var snap Snapshot
			for attempt := 0; attempt < 40; attempt++ {
				dur := RacketDurations[rng.Intn(len(RacketDurations))]
				slots := r.Policy.SlotsFor(f, tuesday, dur)
				start := slots[rng.Intn(len(slots))]

				effective, err := r.CheckAvailability(Candidate{Field: f, Date: tuesday, Start: start, DurationHours: dur}, snap, now)
				if err != nil {
					require.ErrorIs(t, err, domain.ErrConflict)
					continue
				}
				snap.Reservations = append(snap.Reservations,
					booked(uint(len(snap.Reservations)+1), f.ID, tuesday, start.String(), effective, domain.StatusConfirmed))
			}

			for i, a := range snap.Reservations {
				for _, b := range snap.Reservations[i+1:] {
					require.False(t, domain.Overlaps(a.Start, a.End(), b.Start, b.End()),
						"%s: %s-%s overlaps %s-%s", f.Sport, a.Start, a.End(), b.Start, b.End())
				}
			}
		}
	}
}
