package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrainbook/booking-api/internal/domain"
)

func weeklyInput(fieldID uint, day time.Weekday, start string, hours float64) CreateSubscriptionInput {
	first, last := domain.MonthWindow(2024, time.June, time.UTC)
	return CreateSubscriptionInput{
		FieldID:       fieldID,
		Weekday:       day,
		Start:         tod(start),
		DurationHours: hours,
		StartDate:     first,
		EndDate:       last,
		Customer:      domain.Customer{Name: "Club", Phone: "0600000000"},
	}
}

func TestCreateSubscription(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	sub, err := fx.subscriptions.CreateSubscription(ctx, weeklyInput(1, time.Tuesday, "18:00", 1.5))
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, sub.Status)
	assert.Equal(t, 1.5, sub.DurationHours)

	_, err = fx.subscriptions.CreateSubscription(ctx, weeklyInput(1, time.Tuesday, "19:00", 1))
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = fx.subscriptions.CreateSubscription(ctx, weeklyInput(1, time.Wednesday, "19:00", 1))
	assert.NoError(t, err)

	_, err = fx.subscriptions.CreateSubscription(ctx, weeklyInput(1, time.Tuesday, "08:00", 1))
	assert.ErrorIs(t, err, domain.ErrInvalidSlot)

	in := weeklyInput(1, time.Friday, "10:00", 1)
	in.StartDate, in.EndDate = in.EndDate, in.StartDate
	_, err = fx.subscriptions.CreateSubscription(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	in = weeklyInput(1, time.Friday, "10:00", 1)
	in.StartDate = time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	in.EndDate = time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC)
	_, err = fx.subscriptions.CreateSubscription(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestCreateSubscription_RefusesBookedDates(t *testing.T) {
	fx := newFixture(tennisField(1), footballField(2))
	ctx := context.Background()

	res, err := fx.reservations.CreateReservation(ctx, booking(1, tuesday, "18:00", 1))
	require.NoError(t, err)
	_, err = fx.reservations.ChangeStatus(ctx, res.ID, domain.StatusConfirmed)
	require.NoError(t, err)

	_, err = fx.subscriptions.CreateSubscription(ctx, weeklyInput(1, time.Tuesday, "18:00", 1))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, domain.ReasonOf(err), "2024-06-04")

	// a one-off that already started does not count
	fx.res.put(domain.Reservation{FieldID: 1, Date: monday, Start: tod("10:00"), DurationHours: 1, Status: domain.StatusConfirmed})
	_, err = fx.subscriptions.CreateSubscription(ctx, weeklyInput(1, time.Monday, "10:00", 1))
	assert.NoError(t, err)

	_, err = fx.reservations.CreateReservation(ctx, booking(2, tuesday.AddDate(0, 0, 7), "18:00", 1.5))
	require.NoError(t, err)

	_, err = fx.subscriptions.CreateSubscription(ctx, weeklyInput(2, time.Tuesday, "20:00", 1.5))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, domain.ReasonOf(err), "2024-06-11")

	list, err := fx.subscriptions.ListSubscriptions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSubscriptionOccurrenceBlocksBookings(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	_, err := fx.subscriptions.CreateSubscription(ctx, weeklyInput(1, time.Tuesday, "18:00", 1))
	require.NoError(t, err)

	_, err = fx.reservations.CreateReservation(ctx, booking(1, tuesday, "18:00", 1))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, domain.ReasonOf(err), "subscription")

	_, err = fx.reservations.CreateReservation(ctx, booking(1, tuesday.AddDate(0, 0, 1), "18:00", 1))
	assert.NoError(t, err)
}

func TestMaterializeAndCancel(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	sub, err := fx.subscriptions.CreateSubscription(ctx, weeklyInput(1, time.Tuesday, "18:00", 1))
	require.NoError(t, err)

	from, to := domain.MonthWindow(2024, time.June, time.UTC)
	report, err := fx.subscriptions.Materialize(ctx, sub.ID, from, to)
	require.NoError(t, err)
	require.Len(t, report.Created, 4)
	assert.Empty(t, report.Skipped)
	for _, res := range report.Created {
		assert.Equal(t, domain.StatusConfirmed, res.Status)
		require.NotNil(t, res.SubscriptionID)
		assert.Equal(t, sub.ID, *res.SubscriptionID)
		assert.Equal(t, time.Tuesday, res.Date.Weekday())
	}

	again, err := fx.subscriptions.Materialize(ctx, sub.ID, from, to)
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Len(t, again.Skipped, 4)

	cancelled, err := fx.subscriptions.CancelSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionCancelled, cancelled.Status)

	rows, err := fx.res.FindBySubscriptionFrom(ctx, sub.ID, from)
	require.NoError(t, err)
	for _, res := range rows {
		assert.Equal(t, domain.StatusCancelled, res.Status)
	}

	_, err = fx.subscriptions.Materialize(ctx, sub.ID, from, to)
	assert.ErrorIs(t, err, domain.ErrInvalidSlot)

	// the freed slots take customer bookings again
	_, err = fx.reservations.CreateReservation(ctx, booking(1, tuesday, "18:00", 1))
	assert.NoError(t, err)
}

func TestMaterialize_SkipsPastAndTaken(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	sub, err := fx.subscriptions.CreateSubscription(ctx, weeklyInput(1, time.Monday, "10:00", 1))
	require.NoError(t, err)

	fx.res.put(domain.Reservation{FieldID: 1, Date: monday.AddDate(0, 0, 7), Start: tod("10:00"), DurationHours: 1, Status: domain.StatusConfirmed})

	from, to := domain.MonthWindow(2024, time.June, time.UTC)
	report, err := fx.subscriptions.Materialize(ctx, sub.ID, from, to)
	require.NoError(t, err)

	// June 3 has started, June 10 is taken, June 17 and 24 are written
	assert.Len(t, report.Created, 2)
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, "2024-06-03", report.Skipped[0].Date)
	assert.Equal(t, "2024-06-10", report.Skipped[1].Date)
	assert.Contains(t, report.Skipped[1].Reason, "overlaps reservation")
}

func TestSubscriptionSweepAndLazyStatus(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	old, err := fx.subs.Create(ctx, domain.Subscription{
		FieldID: 1, Weekday: time.Friday, Start: tod("10:00"), DurationHours: 1,
		StartDate: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC),
		Status:    domain.SubscriptionActive,
	})
	require.NoError(t, err)

	got, err := fx.subscriptions.GetSubscription(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionExpired, got.Status)

	n, err := fx.subscriptions.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = fx.subscriptions.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := fx.subscriptions.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.SubscriptionExpired, list[0].Status)
}
