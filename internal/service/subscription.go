package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/terrainbook/booking-api/internal/availability"
	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/repository"
)

var (
	ErrSubscriptionNotFound = repository.ErrSubscriptionNotFound
	ErrInvalidWindow        = errors.New("invalid subscription window")
)

// maxMaterializeDays bounds one materialization call.
const maxMaterializeDays = 366

type SubscriptionRepository interface {
	Create(ctx context.Context, s domain.Subscription) (domain.Subscription, error)
	FindByID(ctx context.Context, id uint) (domain.Subscription, error)
	FindByField(ctx context.Context, fieldID uint) ([]domain.Subscription, error)
	FindAll(ctx context.Context) ([]domain.Subscription, error)
	FindActiveEndedBefore(ctx context.Context, date time.Time) ([]domain.Subscription, error)
	UpdateStatus(ctx context.Context, id uint, from, to domain.SubscriptionStatus) (domain.Subscription, error)
}

// OccurrenceWriter turns subscription occurrences into reservations.
type OccurrenceWriter interface {
	CheckOccurrences(ctx context.Context, sub domain.Subscription, field domain.Field, dates []time.Time) error
	CreateForSubscription(ctx context.Context, sub domain.Subscription, date time.Time) (domain.Reservation, error)
	CancelForSubscription(ctx context.Context, subscriptionID uint) (int, error)
}

type SubscriptionService struct {
	repo        SubscriptionRepository
	fields      FieldReader
	occurrences OccurrenceWriter
	policy      PolicyProvider
	clock       domain.Clock
}

func NewSubscriptionService(repo SubscriptionRepository, fields FieldReader, occurrences OccurrenceWriter, policy PolicyProvider, clock domain.Clock) *SubscriptionService {
	return &SubscriptionService{
		repo:        repo,
		fields:      fields,
		occurrences: occurrences,
		policy:      policy,
		clock:       clock,
	}
}

type CreateSubscriptionInput struct {
	FieldID       uint
	Weekday       time.Weekday
	Start         domain.TimeOfDay
	DurationHours float64
	StartDate     time.Time
	EndDate       time.Time
	Customer      domain.Customer
}

// CreateSubscription validates the rule against the field's slot grid, the
// other active rules of the same field and weekday, and the bookings already
// made on its future dates.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, in CreateSubscriptionInput) (domain.Subscription, error) {
	now := s.clock.Now()

	if dateAfter(in.StartDate, in.EndDate) {
		return domain.Subscription{}, fmt.Errorf("%w: start date %s is after end date %s",
			ErrInvalidWindow, in.StartDate.Format(domain.DateLayout), in.EndDate.Format(domain.DateLayout))
	}

	field, err := s.fields.FindByID(ctx, in.FieldID)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("s.fields.FindByID -> %w", err)
	}
	if !field.Active {
		return domain.Subscription{}, domain.Reject(domain.ErrInvalidSlot, "field %q is closed for booking", field.Name)
	}

	sub := domain.Subscription{
		FieldID:   field.ID,
		Weekday:   in.Weekday,
		Start:     in.Start,
		StartDate: domain.DateOf(in.StartDate),
		EndDate:   domain.DateOf(in.EndDate),
		Customer:  in.Customer,
		Status:    domain.SubscriptionActive,
	}

	dates := sub.Occurrences(sub.StartDate, sub.EndDate)
	if len(dates) == 0 {
		return domain.Subscription{}, fmt.Errorf("%w: no %s between %s and %s", ErrInvalidWindow, in.Weekday,
			in.StartDate.Format(domain.DateLayout), in.EndDate.Format(domain.DateLayout))
	}

	// Opening hours only depend on the weekday, so the first occurrence
	// stands for all of them.
	effective, err := s.policy.Policy().ValidateSlot(field, dates[0], in.Start, in.DurationHours)
	if err != nil {
		return domain.Subscription{}, err
	}
	sub.DurationHours = effective

	existing, err := s.repo.FindByField(ctx, field.ID)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("s.repo.FindByField -> %w", err)
	}
	for _, other := range existing {
		if !other.IsActive(now) || other.Weekday != sub.Weekday {
			continue
		}
		if dateAfter(other.StartDate, sub.EndDate) || dateAfter(sub.StartDate, other.EndDate) {
			continue
		}
		if domain.Overlaps(sub.Start, sub.End(), other.Start, other.End()) {
			return domain.Subscription{}, domain.Reject(domain.ErrConflict, "overlaps subscription #%d every %s %s-%s",
				other.ID, other.Weekday, other.Start, other.End())
		}
	}

	if err = s.occurrences.CheckOccurrences(ctx, sub, field, dates); err != nil {
		return domain.Subscription{}, err
	}

	created, err := s.repo.Create(ctx, sub)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// GetSubscription returns the rule with its lazily evaluated status.
func (s *SubscriptionService) GetSubscription(ctx context.Context, id uint) (domain.Subscription, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	sub.Status = sub.EffectiveStatus(s.clock.Now())

	return sub, nil
}

func (s *SubscriptionService) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	now := s.clock.Now()

	subs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}
	for i := range subs {
		subs[i].Status = subs[i].EffectiveStatus(now)
	}

	return subs, nil
}

// CancelSubscription stops a rule and cancels its reservations that have not
// started yet.
func (s *SubscriptionService) CancelSubscription(ctx context.Context, id uint) (domain.Subscription, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if sub.Status == domain.SubscriptionCancelled {
		return sub, nil
	}

	cancelled, err := s.repo.UpdateStatus(ctx, id, sub.Status, domain.SubscriptionCancelled)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionStale) {
			return domain.Subscription{}, domain.Reject(domain.ErrConflict, "subscription %d was modified concurrently, reload it", id)
		}
		return domain.Subscription{}, fmt.Errorf("s.repo.UpdateStatus -> %w", err)
	}

	n, err := s.occurrences.CancelForSubscription(ctx, id)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("s.occurrences.CancelForSubscription -> %w", err)
	}
	if n > 0 {
		zap.L().Info("cancelled subscription reservations", zap.Uint("subscription_id", id), zap.Int("count", n))
	}

	return cancelled, nil
}

type SkippedOccurrence struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

type MaterializeReport struct {
	Created []domain.Reservation `json:"created"`
	Skipped []SkippedOccurrence  `json:"skipped"`
}

// Materialize writes the occurrences of a rule between from and to as
// confirmed reservations. Occurrences that are past, already written or
// blocked are skipped and reported.
func (s *SubscriptionService) Materialize(ctx context.Context, id uint, from, to time.Time) (MaterializeReport, error) {
	now := s.clock.Now()
	report := MaterializeReport{Created: []domain.Reservation{}, Skipped: []SkippedOccurrence{}}

	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return report, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if !sub.IsActive(now) {
		return report, domain.Reject(domain.ErrInvalidSlot, "subscription %d is %s", id, sub.EffectiveStatus(now))
	}

	if dateAfter(from, to) {
		return report, fmt.Errorf("%w: from %s is after to %s", ErrInvalidWindow, from.Format(domain.DateLayout), to.Format(domain.DateLayout))
	}
	if to.Sub(from) > maxMaterializeDays*24*time.Hour {
		return report, fmt.Errorf("%w: at most %d days per call", ErrInvalidWindow, maxMaterializeDays)
	}

	for _, date := range sub.Occurrences(from, to) {
		if !sub.Start.At(date).After(now) {
			report.Skipped = append(report.Skipped, SkippedOccurrence{Date: date.Format(domain.DateLayout), Reason: "already started"})
			continue
		}

		created, err := s.occurrences.CreateForSubscription(ctx, sub, date)
		if err != nil {
			var rej *domain.RejectionError
			if errors.As(err, &rej) {
				report.Skipped = append(report.Skipped, SkippedOccurrence{Date: date.Format(domain.DateLayout), Reason: rej.Reason})
				continue
			}
			return report, fmt.Errorf("s.occurrences.CreateForSubscription -> %w", err)
		}
		report.Created = append(report.Created, created)
	}

	return report, nil
}

// SweepExpired persists the expired status of rules whose window has closed.
func (s *SubscriptionService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()

	ended, err := s.repo.FindActiveEndedBefore(ctx, domain.DateOf(now))
	if err != nil {
		return 0, fmt.Errorf("s.repo.FindActiveEndedBefore -> %w", err)
	}

	count := 0
	for _, sub := range ended {
		if !sub.IsExpired(now) {
			continue
		}
		if _, err = s.repo.UpdateStatus(ctx, sub.ID, domain.SubscriptionActive, domain.SubscriptionExpired); err != nil {
			if errors.Is(err, repository.ErrSubscriptionStale) {
				continue
			}
			return count, fmt.Errorf("s.repo.UpdateStatus -> %w", err)
		}
		count++
	}

	return count, nil
}

// dateAfter reports whether the calendar date of a is strictly after b.
func dateAfter(a, b time.Time) bool {
	return domain.DateBefore(b, a)
}

var _ PolicyProvider = (*availability.PolicyStore)(nil)
