package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terrainbook/booking-api/internal/availability"
	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/metrics"
	"github.com/terrainbook/booking-api/internal/pricing"
	"github.com/terrainbook/booking-api/internal/repository"
)

var (
	ErrFieldNotFound       = repository.ErrFieldNotFound
	ErrReservationNotFound = repository.ErrReservationNotFound
	ErrInvalidTransition   = domain.ErrInvalidTransition
)

type ReservationRepository interface {
	CreateIfFree(ctx context.Context, res domain.Reservation, check repository.SlotCheck) (domain.Reservation, error)
	FindByID(ctx context.Context, id uint) (domain.Reservation, error)
	FindByToken(ctx context.Context, token string) (domain.Reservation, error)
	UpdateStatus(ctx context.Context, id uint, from, to domain.ReservationStatus) (domain.Reservation, error)
	UpdateStatusIfFree(ctx context.Context, id uint, from, to domain.ReservationStatus, check repository.SlotCheck) (domain.Reservation, error)
	FindByFieldAndDate(ctx context.Context, fieldID uint, date time.Time) ([]domain.Reservation, error)
	FindFrom(ctx context.Context, date time.Time) ([]domain.Reservation, error)
	FindPendingIssuedBefore(ctx context.Context, cutoff time.Time) ([]domain.Reservation, error)
	FindBySubscriptionFrom(ctx context.Context, subscriptionID uint, date time.Time) ([]domain.Reservation, error)
}

type FieldReader interface {
	FindByID(ctx context.Context, id uint) (domain.Field, error)
}

type SubscriptionReader interface {
	FindByField(ctx context.Context, fieldID uint) ([]domain.Subscription, error)
	FindAll(ctx context.Context) ([]domain.Subscription, error)
}

type NightStartProvider interface {
	NightStart(ctx context.Context) (domain.TimeOfDay, error)
}

// ReservationGate refuses contacts and devices that may not book. Both
// methods return a rejection of kind ErrBlocked when refusing.
type ReservationGate interface {
	CheckContact(ctx context.Context, phone, email string) error
	MayReserve(ctx context.Context, phone, email, fingerprint string) error
}

// EventNotifier is fire-and-forget: it must not block the caller and its
// failures never reach the lifecycle.
type EventNotifier interface {
	Notify(ctx context.Context, ev domain.ReservationEvent)
}

type PolicyProvider interface {
	Policy() availability.Policy
}

type ReservationDeps struct {
	Repo               ReservationRepository
	Fields             FieldReader
	Subscriptions      SubscriptionReader
	NightStart         NightStartProvider
	Gate               ReservationGate
	Notifier           EventNotifier
	Policy             PolicyProvider
	Clock              domain.Clock
	ConfirmationWindow time.Duration
}

type ReservationService struct {
	repo       ReservationRepository
	fields     FieldReader
	subs       SubscriptionReader
	nightStart NightStartProvider
	gate       ReservationGate
	notifier   EventNotifier
	policy     PolicyProvider
	clock      domain.Clock
	window     time.Duration
}

func NewReservationService(deps ReservationDeps) *ReservationService {
	window := deps.ConfirmationWindow
	if window <= 0 {
		window = domain.DefaultConfirmationWindow
	}

	return &ReservationService{
		repo:       deps.Repo,
		fields:     deps.Fields,
		subs:       deps.Subscriptions,
		nightStart: deps.NightStart,
		gate:       deps.Gate,
		notifier:   deps.Notifier,
		policy:     deps.Policy,
		clock:      deps.Clock,
		window:     window,
	}
}

type CreateReservationInput struct {
	Customer      domain.Customer
	FieldID       uint
	Date          time.Time
	Start         domain.TimeOfDay
	DurationHours float64
	Fingerprint   string
}

// CreateReservation books a slot for a customer. The reservation starts
// pending and must be confirmed with its token within the confirmation window.
func (s *ReservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (domain.Reservation, error) {
	if err := s.gate.MayReserve(ctx, in.Customer.Phone, in.Customer.Email, in.Fingerprint); err != nil {
		return domain.Reservation{}, s.rejected(err, "s.gate.MayReserve")
	}

	return s.create(ctx, in, false)
}

// CreateStaffReservation books a slot on behalf of a customer. It skips the
// throttle and the token step and is confirmed immediately.
func (s *ReservationService) CreateStaffReservation(ctx context.Context, in CreateReservationInput) (domain.Reservation, error) {
	if err := s.gate.CheckContact(ctx, in.Customer.Phone, in.Customer.Email); err != nil {
		return domain.Reservation{}, s.rejected(err, "s.gate.CheckContact")
	}

	return s.create(ctx, in, true)
}

func (s *ReservationService) create(ctx context.Context, in CreateReservationInput, byStaff bool) (domain.Reservation, error) {
	now := s.clock.Now()

	field, err := s.fields.FindByID(ctx, in.FieldID)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("s.fields.FindByID -> %w", err)
	}
	if !field.Active {
		return domain.Reservation{}, s.rejected(domain.Reject(domain.ErrInvalidSlot, "field %q is closed for booking", field.Name), "")
	}

	policy := s.policy.Policy()
	effective, err := policy.ValidateSlot(field, in.Date, in.Start, in.DurationHours)
	if err != nil {
		return domain.Reservation{}, s.rejected(err, "")
	}
	if !in.Start.At(in.Date).After(now) {
		return domain.Reservation{}, s.rejected(domain.Reject(domain.ErrInvalidSlot,
			"%s %s has already started", in.Date.Format(domain.DateLayout), in.Start), "")
	}

	nightStart, err := s.nightStart.NightStart(ctx)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("s.nightStart.NightStart -> %w", err)
	}

	res := domain.Reservation{
		Customer:      in.Customer,
		FieldID:       field.ID,
		Date:          domain.DateOf(in.Date),
		Start:         in.Start,
		DurationHours: effective,
		Price:         pricing.ComputePrice(field, in.Start, effective, pricing.Config{NightStart: nightStart}),
		Status:        domain.StatusPending,
	}
	if byStaff {
		res.Status = domain.StatusConfirmed
	} else {
		res.Token = uuid.NewString()
		res.TokenCreatedAt = now
	}

	created, err := s.insert(ctx, res, nil, now)
	if err != nil {
		return domain.Reservation{}, err
	}

	channel := "customer"
	if byStaff {
		channel = "staff"
	}
	metrics.ReservationsCreated.WithLabelValues(string(field.Sport), channel).Inc()

	s.notify(ctx, domain.EventReservationCreated, created, field.Name, created.Token, now)

	return created, nil
}

// insert runs the conflict check again inside the storage transaction.
func (s *ReservationService) insert(ctx context.Context, res domain.Reservation, subscriptionID *uint, now time.Time) (domain.Reservation, error) {
	resolver := availability.NewResolver(s.policy.Policy(), s.window)

	created, err := s.repo.CreateIfFree(ctx, res, func(locked domain.Field, snap availability.Snapshot) error {
		if !locked.Active {
			return domain.Reject(domain.ErrInvalidSlot, "field %q is closed for booking", locked.Name)
		}
		return resolver.Check(availability.Candidate{
			Field:          locked,
			Date:           res.Date,
			Start:          res.Start,
			DurationHours:  res.DurationHours,
			SubscriptionID: subscriptionID,
		}, snap, now)
	})
	if err != nil {
		if errors.Is(err, repository.ErrConcurrentWrite) {
			return domain.Reservation{}, s.rejected(domain.Reject(domain.ErrConflict, "the slot was taken by a concurrent booking"), "")
		}
		var rej *domain.RejectionError
		if errors.As(err, &rej) {
			return domain.Reservation{}, s.rejected(rej, "")
		}

		return domain.Reservation{}, fmt.Errorf("s.repo.CreateIfFree -> %w", err)
	}

	return created, nil
}

// ConfirmReservation redeems a confirmation token. A token redeemed too late
// cancels its reservation and reports ErrExpired; a token that does not point
// at a pending reservation reports ErrNotFound.
func (s *ReservationService) ConfirmReservation(ctx context.Context, token string) (domain.Reservation, error) {
	now := s.clock.Now()
	notFound := domain.Reject(domain.ErrNotFound, "unknown or already used confirmation token")

	res, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			metrics.Confirmations.WithLabelValues("not_found").Inc()
			return domain.Reservation{}, notFound
		}
		return domain.Reservation{}, fmt.Errorf("s.repo.FindByToken -> %w", err)
	}
	if res.Status != domain.StatusPending {
		metrics.Confirmations.WithLabelValues("not_found").Inc()
		return domain.Reservation{}, notFound
	}

	if res.IsConfirmationOverdue(now, s.window) {
		if _, err = s.expire(ctx, res, now, "confirm"); err != nil {
			return domain.Reservation{}, err
		}
		metrics.Confirmations.WithLabelValues("expired").Inc()
		return domain.Reservation{}, domain.Reject(domain.ErrExpired,
			"the reservation was not confirmed within %s and has been cancelled", s.window)
	}

	confirmed, err := s.repo.UpdateStatus(ctx, res.ID, domain.StatusPending, domain.StatusConfirmed)
	if err != nil {
		if errors.Is(err, repository.ErrReservationStale) {
			metrics.Confirmations.WithLabelValues("not_found").Inc()
			return domain.Reservation{}, notFound
		}
		return domain.Reservation{}, fmt.Errorf("s.repo.UpdateStatus -> %w", err)
	}

	metrics.Confirmations.WithLabelValues("confirmed").Inc()
	s.notify(ctx, domain.EventReservationConfirmed, confirmed, "", "", now)

	return confirmed, nil
}

// ChangeStatus is the staff override. It skips the token but not the state
// machine. Asking for the status a reservation already has is a no-op unless
// that status is pending.
func (s *ReservationService) ChangeStatus(ctx context.Context, id uint, to domain.ReservationStatus) (domain.Reservation, error) {
	now := s.clock.Now()

	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return domain.Reservation{}, domain.Reject(domain.ErrNotFound, "reservation %d does not exist", id)
		}
		return domain.Reservation{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if res.Status == to && to != domain.StatusPending {
		return res, nil
	}
	if !res.CanTransition(to) {
		return domain.Reservation{}, fmt.Errorf("%s -> %s: %w", res.Status, to, ErrInvalidTransition)
	}

	// An overdue pending row no longer holds its slot, so confirming it is a
	// fresh claim on the slot.
	if to == domain.StatusConfirmed && res.IsConfirmationOverdue(now, s.window) {
		return s.reclaim(ctx, res, now)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, res.Status, to)
	if err != nil {
		if errors.Is(err, repository.ErrReservationStale) {
			return domain.Reservation{}, domain.Reject(domain.ErrConflict, "reservation %d was modified concurrently, reload it", id)
		}
		return domain.Reservation{}, fmt.Errorf("s.repo.UpdateStatus -> %w", err)
	}

	ev := domain.EventReservationConfirmed
	if to == domain.StatusCancelled {
		ev = domain.EventReservationCancelled
	}
	s.notify(ctx, ev, updated, "", "", now)

	return updated, nil
}

// reclaim confirms a pending reservation whose window has passed, provided
// nothing took its slot in the meantime.
func (s *ReservationService) reclaim(ctx context.Context, res domain.Reservation, now time.Time) (domain.Reservation, error) {
	resolver := availability.NewResolver(s.policy.Policy(), s.window)

	confirmed, err := s.repo.UpdateStatusIfFree(ctx, res.ID, domain.StatusPending, domain.StatusConfirmed,
		func(locked domain.Field, snap availability.Snapshot) error {
			return resolver.Check(availability.Candidate{
				Field:          locked,
				Date:           res.Date,
				Start:          res.Start,
				DurationHours:  res.DurationHours,
				SubscriptionID: res.SubscriptionID,
			}, snap, now)
		})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationStale):
			return domain.Reservation{}, domain.Reject(domain.ErrConflict, "reservation %d was modified concurrently, reload it", res.ID)
		case errors.Is(err, repository.ErrConcurrentWrite):
			return domain.Reservation{}, s.rejected(domain.Reject(domain.ErrConflict, "the slot was taken by a concurrent booking"), "")
		}
		var rej *domain.RejectionError
		if errors.As(err, &rej) {
			return domain.Reservation{}, s.rejected(domain.Reject(domain.ErrConflict,
				"reservation %d lapsed and its slot is no longer free: %s", res.ID, rej.Reason), "")
		}

		return domain.Reservation{}, fmt.Errorf("s.repo.UpdateStatusIfFree -> %w", err)
	}

	s.notify(ctx, domain.EventReservationConfirmed, confirmed, "", "", now)

	return confirmed, nil
}

// ExpireIfOverdue cancels one reservation if its confirmation window has
// passed. It reports whether this call did the cancellation; repeated calls
// are harmless.
func (s *ReservationService) ExpireIfOverdue(ctx context.Context, id uint) (bool, error) {
	now := s.clock.Now()

	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return false, domain.Reject(domain.ErrNotFound, "reservation %d does not exist", id)
		}
		return false, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if !res.IsConfirmationOverdue(now, s.window) {
		return false, nil
	}

	return s.expire(ctx, res, now, "single")
}

// SweepExpired cancels every overdue pending reservation and returns how many
// it cancelled.
func (s *ReservationService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()

	overdue, err := s.repo.FindPendingIssuedBefore(ctx, now.Add(-s.window))
	if err != nil {
		return 0, fmt.Errorf("s.repo.FindPendingIssuedBefore -> %w", err)
	}

	count := 0
	for _, res := range overdue {
		if !res.IsConfirmationOverdue(now, s.window) {
			continue
		}
		done, err := s.expire(ctx, res, now, "sweep")
		if err != nil {
			return count, err
		}
		if done {
			count++
		}
	}

	if count > 0 {
		zap.L().Info("expired unconfirmed reservations", zap.Int("count", count))
	}

	return count, nil
}

func (s *ReservationService) expire(ctx context.Context, res domain.Reservation, now time.Time, trigger string) (bool, error) {
	cancelled, err := s.repo.UpdateStatus(ctx, res.ID, domain.StatusPending, domain.StatusCancelled)
	if err != nil {
		if errors.Is(err, repository.ErrReservationStale) {
			return false, nil
		}
		return false, fmt.Errorf("s.repo.UpdateStatus -> %w", err)
	}

	metrics.Expirations.WithLabelValues(trigger).Inc()
	s.notify(ctx, domain.EventReservationExpired, cancelled, "", "", now)

	return true, nil
}

type ReservationView string

const (
	ViewUpcoming ReservationView = "upcoming"
	ViewCurrent  ReservationView = "current"
)

func (v ReservationView) Valid() bool {
	return v == ViewUpcoming || v == ViewCurrent
}

// ListReservations returns the staff views. "current" is every row dated
// today or later. "upcoming" keeps only sessions that have not ended and
// still hold their slot.
func (s *ReservationService) ListReservations(ctx context.Context, view ReservationView) ([]domain.Reservation, error) {
	now := s.clock.Now()

	all, err := s.repo.FindFrom(ctx, domain.DateOf(now))
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindFrom -> %w", err)
	}
	if view == ViewCurrent {
		return all, nil
	}

	subs, err := s.subs.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.subs.FindAll -> %w", err)
	}
	inactive := make(map[uint]bool, len(subs))
	for _, sub := range subs {
		if !sub.IsActive(now) {
			inactive[sub.ID] = true
		}
	}

	out := make([]domain.Reservation, 0, len(all))
	for _, res := range all {
		if !res.Status.Occupying() || res.IsFinished(now) || res.IsConfirmationOverdue(now, s.window) {
			continue
		}
		if res.SubscriptionID != nil && inactive[*res.SubscriptionID] {
			continue
		}
		out = append(out, res)
	}

	return out, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id uint) (domain.Reservation, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return res, nil
}

// rejected counts expected rejections and passes them through untouched.
// Other errors are wrapped with op.
func (s *ReservationService) rejected(err error, op string) error {
	var rej *domain.RejectionError
	if errors.As(err, &rej) {
		metrics.ObserveRejection(rej)
		return rej
	}
	if op == "" {
		return err
	}
	return fmt.Errorf("%s -> %w", op, err)
}

func (s *ReservationService) notify(ctx context.Context, t domain.EventType, res domain.Reservation, fieldName, token string, now time.Time) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, domain.ReservationEvent{
		Type:        t,
		Reservation: res,
		FieldName:   fieldName,
		Token:       token,
		OccurredAt:  now,
	})
}

// CreateForSubscription writes the occurrence of sub on date as a confirmed
// reservation tagged with the subscription. The rule's own occurrence does
// not block it; everything else does.
func (s *ReservationService) CreateForSubscription(ctx context.Context, sub domain.Subscription, date time.Time) (domain.Reservation, error) {
	now := s.clock.Now()

	field, err := s.fields.FindByID(ctx, sub.FieldID)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("s.fields.FindByID -> %w", err)
	}

	effective, err := s.policy.Policy().ValidateSlot(field, date, sub.Start, sub.DurationHours)
	if err != nil {
		return domain.Reservation{}, err
	}

	nightStart, err := s.nightStart.NightStart(ctx)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("s.nightStart.NightStart -> %w", err)
	}

	subID := sub.ID
	res := domain.Reservation{
		Customer:       sub.Customer,
		FieldID:        field.ID,
		Date:           domain.DateOf(date),
		Start:          sub.Start,
		DurationHours:  effective,
		Price:          pricing.ComputePrice(field, sub.Start, effective, pricing.Config{NightStart: nightStart}),
		Status:         domain.StatusConfirmed,
		SubscriptionID: &subID,
	}

	created, err := s.insert(ctx, res, &subID, now)
	if err != nil {
		return domain.Reservation{}, err
	}

	metrics.ReservationsCreated.WithLabelValues(string(field.Sport), "subscription").Inc()

	return created, nil
}

// CheckOccurrences runs the booking check for every future occurrence of a
// rule that is not stored yet. The first clash is reported as ErrConflict.
func (s *ReservationService) CheckOccurrences(ctx context.Context, sub domain.Subscription, field domain.Field, dates []time.Time) error {
	now := s.clock.Now()
	resolver := availability.NewResolver(s.policy.Policy(), s.window)

	subs, err := s.subs.FindByField(ctx, field.ID)
	if err != nil {
		return fmt.Errorf("s.subs.FindByField -> %w", err)
	}

	for _, date := range dates {
		if sub.Start.At(date).Before(now) {
			continue
		}

		reservations, err := s.repo.FindByFieldAndDate(ctx, field.ID, date)
		if err != nil {
			return fmt.Errorf("s.repo.FindByFieldAndDate -> %w", err)
		}

		err = resolver.Check(availability.Candidate{
			Field:         field,
			Date:          date,
			Start:         sub.Start,
			DurationHours: sub.DurationHours,
		}, availability.Snapshot{Reservations: reservations, Subscriptions: subs}, now)
		if err != nil {
			var rej *domain.RejectionError
			if !errors.As(err, &rej) {
				return err
			}
			return s.rejected(domain.Reject(domain.ErrConflict, "%s: %s", date.Format(domain.DateLayout), rej.Reason), "")
		}
	}

	return nil
}

// CancelForSubscription cancels the reservations of a subscription that have
// not started yet and returns how many it cancelled.
func (s *ReservationService) CancelForSubscription(ctx context.Context, subscriptionID uint) (int, error) {
	now := s.clock.Now()

	rows, err := s.repo.FindBySubscriptionFrom(ctx, subscriptionID, domain.DateOf(now))
	if err != nil {
		return 0, fmt.Errorf("s.repo.FindBySubscriptionFrom -> %w", err)
	}

	count := 0
	for _, res := range rows {
		if !res.Status.Occupying() || !res.StartsAt().After(now) {
			continue
		}
		cancelled, err := s.repo.UpdateStatus(ctx, res.ID, res.Status, domain.StatusCancelled)
		if err != nil {
			if errors.Is(err, repository.ErrReservationStale) {
				continue
			}
			return count, fmt.Errorf("s.repo.UpdateStatus -> %w", err)
		}
		count++
		s.notify(ctx, domain.EventReservationCancelled, cancelled, "", "", now)
	}

	return count, nil
}
