package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrainbook/booking-api/internal/domain"
)

func TestCreateReservation_PendingWithToken(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	res, err := fx.reservations.CreateReservation(ctx, booking(1, tuesday, "10:00", 1))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, res.Status)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, fx.clock.Now(), res.TokenCreatedAt)
	assert.Equal(t, 20.0, res.Price)

	require.Len(t, fx.notifier.events, 1)
	assert.Equal(t, domain.EventReservationCreated, fx.notifier.events[0].Type)
	assert.Equal(t, res.Token, fx.notifier.events[0].Token)
	assert.Equal(t, "Court A", fx.notifier.events[0].FieldName)
}

func TestCreateReservation_NightPriceFromSetting(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	res, err := fx.reservations.CreateReservation(ctx, booking(1, tuesday, "18:00", 1))
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.Price)

	fx.settings.values = map[string]string{domain.SettingNightStart: "18:00"}
	res, err = fx.reservations.CreateReservation(ctx, booking(1, tuesday, "20:00", 1))
	require.NoError(t, err)
	assert.Equal(t, 30.0, res.Price)
}

func TestCreateReservation_Rejections(t *testing.T) {
	fx := newFixture(tennisField(1), footballField(2))
	ctx := context.Background()

	_, err := fx.reservations.CreateReservation(ctx, booking(1, tuesday, "10:00", 1.5))
	require.NoError(t, err)

	_, err = fx.reservations.CreateReservation(ctx, booking(2, tuesday, "18:00", 1.5))
	require.NoError(t, err)

	tests := []struct {
		name string
		in   CreateReservationInput
		kind error
	}{
		{"overlap", booking(1, tuesday, "11:00", 1), domain.ErrConflict},
		{"off grid", booking(1, tuesday, "10:30", 1), domain.ErrInvalidSlot},
		{"duration not offered", booking(1, tuesday, "14:00", 4), domain.ErrInvalidSlot},
		{"already started", booking(1, monday, "10:00", 1), domain.ErrInvalidSlot},
		{"football before opening", booking(2, tuesday, "10:00", 1.5), domain.ErrInvalidSlot},
		{"football misaligned", booking(2, tuesday, "20:00", 1.5), domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.reservations.CreateReservation(ctx, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var rej *domain.RejectionError
			assert.True(t, errors.As(err, &rej))
			assert.NotEmpty(t, rej.Reason)
		})
	}

	_, err = fx.reservations.CreateReservation(ctx, booking(2, tuesday, "19:30", 1.5))
	assert.NoError(t, err)
}

func TestCreateReservation_UnknownOrClosedField(t *testing.T) {
	closed := tennisField(2)
	closed.Active = false
	fx := newFixture(closed)
	ctx := context.Background()

	_, err := fx.reservations.CreateReservation(ctx, booking(1, tuesday, "10:00", 1))
	assert.ErrorIs(t, err, ErrFieldNotFound)

	_, err = fx.reservations.CreateReservation(ctx, booking(2, tuesday, "10:00", 1))
	assert.ErrorIs(t, err, domain.ErrInvalidSlot)
}

func TestCreateReservation_Gate(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	fx.gate.throttled = true
	_, err := fx.reservations.CreateReservation(ctx, booking(1, tuesday, "10:00", 1))
	assert.ErrorIs(t, err, domain.ErrBlocked)

	// staff bookings skip the throttle but not the blacklist
	res, err := fx.reservations.CreateStaffReservation(ctx, booking(1, tuesday, "10:00", 1))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, res.Status)
	assert.Empty(t, res.Token)

	fx.gate.blocked = true
	_, err = fx.reservations.CreateStaffReservation(ctx, booking(1, tuesday, "12:00", 1))
	assert.ErrorIs(t, err, domain.ErrBlocked)
}

func TestCreateReservation_ConcurrentWriteIsConflict(t *testing.T) {
	fx := newFixture(tennisField(1))
	fx.res.racing = true

	_, err := fx.reservations.CreateReservation(context.Background(), booking(1, tuesday, "10:00", 1))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, domain.ReasonOf(err), "concurrent")
	assert.Empty(t, fx.notifier.events)
}

func TestCreateReservation_CancelledSubscriptionDoesNotBlock(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	sub, err := fx.subs.Create(ctx, domain.Subscription{
		FieldID: 1, Weekday: time.Tuesday, Start: tod("18:00"), DurationHours: 1,
		StartDate: monday, EndDate: monday.AddDate(0, 1, 0), Status: domain.SubscriptionCancelled,
	})
	require.NoError(t, err)

	subID := sub.ID
	fx.res.put(domain.Reservation{
		FieldID: 1, Date: tuesday, Start: tod("18:00"), DurationHours: 1,
		Status: domain.StatusConfirmed, SubscriptionID: &subID,
	})

	_, err = fx.reservations.CreateReservation(ctx, booking(1, tuesday, "18:00", 1))
	assert.NoError(t, err)
}

func TestConfirmReservation(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	res, err := fx.reservations.CreateReservation(ctx, booking(1, tuesday, "10:00", 1))
	require.NoError(t, err)

	fx.clock.Advance(10 * time.Minute)
	confirmed, err := fx.reservations.ConfirmReservation(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)

	_, err = fx.reservations.ConfirmReservation(ctx, res.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = fx.reservations.ConfirmReservation(ctx, "no-such-token")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []domain.EventType{domain.EventReservationCreated, domain.EventReservationConfirmed}, fx.notifier.types())
}

func TestConfirmReservation_Expired(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	res, err := fx.reservations.CreateReservation(ctx, booking(1, tuesday, "10:00", 1))
	require.NoError(t, err)

	fx.clock.Advance(16 * time.Minute)
	_, err = fx.reservations.ConfirmReservation(ctx, res.Token)
	assert.ErrorIs(t, err, domain.ErrExpired)

	stored, err := fx.reservations.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)

	_, err = fx.reservations.ConfirmReservation(ctx, res.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// the slot is free again
	_, err = fx.reservations.CreateReservation(ctx, booking(1, tuesday, "10:00", 1))
	assert.NoError(t, err)
}

func TestChangeStatus(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	res, err := fx.reservations.CreateReservation(ctx, booking(1, tuesday, "10:00", 1))
	require.NoError(t, err)

	updated, err := fx.reservations.ChangeStatus(ctx, res.ID, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)

	same, err := fx.reservations.ChangeStatus(ctx, res.ID, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, same.Status)

	_, err = fx.reservations.ChangeStatus(ctx, res.ID, domain.StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	cancelled, err := fx.reservations.ChangeStatus(ctx, res.ID, domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	_, err = fx.reservations.ChangeStatus(ctx, res.ID, domain.StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = fx.reservations.ChangeStatus(ctx, 999, domain.StatusCancelled)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChangeStatus_LapsedPendingCannotRetakeSlot(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	lapsed, err := fx.reservations.CreateReservation(ctx, booking(1, tuesday, "10:00", 1))
	require.NoError(t, err)

	fx.clock.Advance(16 * time.Minute)
	taker, err := fx.reservations.CreateReservation(ctx, booking(1, tuesday, "10:00", 1))
	require.NoError(t, err)
	_, err = fx.reservations.ConfirmReservation(ctx, taker.Token)
	require.NoError(t, err)

	_, err = fx.reservations.ChangeStatus(ctx, lapsed.ID, domain.StatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := fx.reservations.GetReservation(ctx, lapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)

	// cancelling it is still allowed
	cancelled, err := fx.reservations.ChangeStatus(ctx, lapsed.ID, domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
}

func TestChangeStatus_LapsedPendingConfirmedWhenSlotStillFree(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	res, err := fx.reservations.CreateReservation(ctx, booking(1, tuesday, "10:00", 1))
	require.NoError(t, err)
	_, err = fx.reservations.CreateReservation(ctx, booking(1, tuesday, "11:00", 1))
	require.NoError(t, err)

	fx.clock.Advance(time.Hour)
	updated, err := fx.reservations.ChangeStatus(ctx, res.ID, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	assert.Equal(t, domain.EventReservationConfirmed, fx.notifier.events[len(fx.notifier.events)-1].Type)
}

func TestSweepExpired_Idempotent(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	first, err := fx.reservations.CreateReservation(ctx, booking(1, tuesday, "10:00", 1))
	require.NoError(t, err)
	_, err = fx.reservations.CreateReservation(ctx, booking(1, tuesday, "12:00", 1))
	require.NoError(t, err)

	fx.clock.Advance(5 * time.Minute)
	fresh, err := fx.reservations.CreateReservation(ctx, booking(1, tuesday, "14:00", 1))
	require.NoError(t, err)

	fx.clock.Advance(11 * time.Minute)

	n, err := fx.reservations.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = fx.reservations.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	done, err := fx.reservations.ExpireIfOverdue(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, done)

	done, err = fx.reservations.ExpireIfOverdue(ctx, fresh.ID)
	require.NoError(t, err)
	assert.False(t, done)

	fx.clock.Advance(5 * time.Minute)
	done, err = fx.reservations.ExpireIfOverdue(ctx, fresh.ID)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestListReservations_Views(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()
	now := fx.clock.Now()

	sub, err := fx.subs.Create(ctx, domain.Subscription{
		FieldID: 1, Weekday: time.Tuesday, Start: tod("18:00"), DurationHours: 1,
		StartDate: monday, EndDate: monday.AddDate(0, 1, 0), Status: domain.SubscriptionCancelled,
	})
	require.NoError(t, err)
	subID := sub.ID

	live := fx.res.put(domain.Reservation{FieldID: 1, Date: tuesday, Start: tod("10:00"), DurationHours: 1, Status: domain.StatusConfirmed})
	fx.res.put(domain.Reservation{FieldID: 1, Date: tuesday, Start: tod("12:00"), DurationHours: 1, Status: domain.StatusCancelled})
	fx.res.put(domain.Reservation{FieldID: 1, Date: tuesday, Start: tod("14:00"), DurationHours: 1, Status: domain.StatusPending,
		Token: "late", TokenCreatedAt: now.Add(-20 * time.Minute)})
	fx.res.put(domain.Reservation{FieldID: 1, Date: monday, Start: tod("09:00"), DurationHours: 1, Status: domain.StatusConfirmed})
	fx.res.put(domain.Reservation{FieldID: 1, Date: tuesday, Start: tod("18:00"), DurationHours: 1, Status: domain.StatusConfirmed, SubscriptionID: &subID})
	fx.res.put(domain.Reservation{FieldID: 1, Date: monday.AddDate(0, 0, -3), Start: tod("10:00"), DurationHours: 1, Status: domain.StatusConfirmed})

	upcoming, err := fx.reservations.ListReservations(ctx, ViewUpcoming)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, live.ID, upcoming[0].ID)

	current, err := fx.reservations.ListReservations(ctx, ViewCurrent)
	require.NoError(t, err)
	assert.Len(t, current, 5)
}

func TestSlotBoard(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	fx.res.put(domain.Reservation{FieldID: 1, Date: tuesday, Start: tod("10:00"), DurationHours: 2, Status: domain.StatusConfirmed})

	board, err := fx.reservations.SlotBoard(ctx, 1, tuesday, 1)
	require.NoError(t, err)

	require.Len(t, board.Slots, 15)
	assert.Equal(t, "2024-06-04", board.Date)
	assert.Equal(t, tod("19:00"), board.NightStart)

	bySlot := map[domain.TimeOfDay]SlotView{}
	for _, s := range board.Slots {
		bySlot[s.Start] = s
	}
	assert.True(t, bySlot[tod("09:00")].Available)
	assert.False(t, bySlot[tod("10:00")].Available)
	assert.False(t, bySlot[tod("11:00")].Available)
	assert.Contains(t, bySlot[tod("11:00")].Reason, "overlaps reservation")
	assert.True(t, bySlot[tod("12:00")].Available)
	assert.Equal(t, 20.0, bySlot[tod("18:00")].Price)
	assert.Equal(t, 30.0, bySlot[tod("19:00")].Price)

	_, err = fx.reservations.SlotBoard(ctx, 1, tuesday, 4)
	assert.ErrorIs(t, err, domain.ErrInvalidSlot)
}

func TestCheckAvailabilityAndPricePreview(t *testing.T) {
	fx := newFixture(tennisField(1))
	ctx := context.Background()

	fx.res.put(domain.Reservation{FieldID: 1, Date: tuesday, Start: tod("10:00"), DurationHours: 1, Status: domain.StatusConfirmed})

	assert.NoError(t, fx.reservations.CheckAvailability(ctx, 1, tuesday, tod("11:00"), 1))
	assert.ErrorIs(t, fx.reservations.CheckAvailability(ctx, 1, tuesday, tod("09:00"), 1.5), domain.ErrConflict)

	slots, err := fx.reservations.GenerateSlots(ctx, 1, tuesday)
	require.NoError(t, err)
	assert.Len(t, slots, 15)

	quote, err := fx.reservations.PricePreview(ctx, 1, tod("18:00"), 2.5)
	require.NoError(t, err)
	assert.Equal(t, 65.0, quote.Total)
	assert.Len(t, quote.Lines, 3)
}
