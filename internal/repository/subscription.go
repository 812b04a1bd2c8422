package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/repository/dao"
)

var (
	ErrSubscriptionNotFound = dao.ErrSubscriptionNotFound
	ErrSubscriptionStale    = dao.ErrSubscriptionStale
)

type SubscriptionDAO interface {
	Insert(ctx context.Context, s dao.Subscription) (dao.Subscription, error)
	FindByID(ctx context.Context, id uint) (dao.Subscription, error)
	FindByField(ctx context.Context, fieldID uint) ([]dao.Subscription, error)
	FindAll(ctx context.Context) ([]dao.Subscription, error)
	FindActiveEndedBefore(ctx context.Context, date time.Time) ([]dao.Subscription, error)
	UpdateStatus(ctx context.Context, id uint, from, to string) (dao.Subscription, error)
}

type SubscriptionRepository struct {
	dao SubscriptionDAO
	loc *time.Location
}

func NewSubscriptionRepository(dao SubscriptionDAO, loc *time.Location) *SubscriptionRepository {
	return &SubscriptionRepository{
		dao: dao,
		loc: loc,
	}
}

func (r *SubscriptionRepository) Create(ctx context.Context, s domain.Subscription) (domain.Subscription, error) {
	created, err := r.dao.Insert(ctx, dao.Subscription{
		FieldID:       s.FieldID,
		Weekday:       int(s.Weekday),
		StartMinutes:  s.Start.Minutes(),
		DurationHours: s.DurationHours,
		StartDate:     toStoredDate(s.StartDate),
		EndDate:       toStoredDate(s.EndDate),
		CustomerName:  s.Customer.Name,
		CustomerPhone: s.Customer.Phone,
		CustomerEmail: s.Customer.Email,
		Status:        string(s.Status),
	})
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return subscriptionToDomain(created, r.loc), nil
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id uint) (domain.Subscription, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return subscriptionToDomain(found, r.loc), nil
}

func (r *SubscriptionRepository) FindByField(ctx context.Context, fieldID uint) ([]domain.Subscription, error) {
	found, err := r.dao.FindByField(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByField -> %w", err)
	}

	return subscriptionsToDomain(found, r.loc), nil
}

func (r *SubscriptionRepository) FindAll(ctx context.Context) ([]domain.Subscription, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	return subscriptionsToDomain(found, r.loc), nil
}

func (r *SubscriptionRepository) FindActiveEndedBefore(ctx context.Context, date time.Time) ([]domain.Subscription, error) {
	found, err := r.dao.FindActiveEndedBefore(ctx, toStoredDate(date))
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindActiveEndedBefore -> %w", err)
	}

	return subscriptionsToDomain(found, r.loc), nil
}

func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id uint, from, to domain.SubscriptionStatus) (domain.Subscription, error) {
	updated, err := r.dao.UpdateStatus(ctx, id, string(from), string(to))
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return subscriptionToDomain(updated, r.loc), nil
}

func subscriptionsToDomain(in []dao.Subscription, loc *time.Location) []domain.Subscription {
	out := make([]domain.Subscription, 0, len(in))
	for _, s := range in {
		out = append(out, subscriptionToDomain(s, loc))
	}
	return out
}

func subscriptionToDomain(s dao.Subscription, loc *time.Location) domain.Subscription {
	return domain.Subscription{
		ID:            s.ID,
		FieldID:       s.FieldID,
		Weekday:       time.Weekday(s.Weekday),
		Start:         domain.TimeOfDay(s.StartMinutes),
		DurationHours: s.DurationHours,
		StartDate:     fromStoredDate(s.StartDate, loc),
		EndDate:       fromStoredDate(s.EndDate, loc),
		Customer: domain.Customer{
			Name:  s.CustomerName,
			Phone: s.CustomerPhone,
			Email: s.CustomerEmail,
		},
		Status:    domain.SubscriptionStatus(s.Status),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
