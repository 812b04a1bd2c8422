package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/terrainbook/booking-api/internal/availability"
	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/repository/dao"
)

var (
	ErrReservationNotFound = dao.ErrReservationNotFound
	ErrReservationStale    = dao.ErrReservationStale
	ErrConcurrentWrite     = dao.ErrConcurrentWrite
)

type ReservationDAO interface {
	InsertIfFree(ctx context.Context, r dao.Reservation, check dao.CheckFunc) (dao.Reservation, error)
	FindByID(ctx context.Context, id uint) (dao.Reservation, error)
	FindByToken(ctx context.Context, token string) (dao.Reservation, error)
	UpdateStatus(ctx context.Context, id uint, from, to string) (dao.Reservation, error)
	UpdateStatusIfFree(ctx context.Context, id uint, from, to string, check dao.CheckFunc) (dao.Reservation, error)
	FindByFieldAndDate(ctx context.Context, fieldID uint, date time.Time) ([]dao.Reservation, error)
	FindFrom(ctx context.Context, date time.Time) ([]dao.Reservation, error)
	FindPendingIssuedBefore(ctx context.Context, cutoff time.Time) ([]dao.Reservation, error)
	FindBySubscriptionFrom(ctx context.Context, subscriptionID uint, date time.Time) ([]dao.Reservation, error)
}

// SlotCheck decides, inside the insert transaction, whether the reservation
// may still be written.
type SlotCheck func(field domain.Field, snap availability.Snapshot) error

type ReservationRepository struct {
	dao ReservationDAO
	loc *time.Location
}

func NewReservationRepository(dao ReservationDAO, loc *time.Location) *ReservationRepository {
	return &ReservationRepository{
		dao: dao,
		loc: loc,
	}
}

func (r *ReservationRepository) CreateIfFree(ctx context.Context, res domain.Reservation, check SlotCheck) (domain.Reservation, error) {
	created, err := r.dao.InsertIfFree(ctx, reservationToDAO(res), r.slotCheck(check))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("r.dao.InsertIfFree -> %w", err)
	}

	return r.daoToDomain(created), nil
}

// UpdateStatusIfFree changes the status only if check still passes against
// the rest of the day, decided under the field lock.
func (r *ReservationRepository) UpdateStatusIfFree(ctx context.Context, id uint, from, to domain.ReservationStatus, check SlotCheck) (domain.Reservation, error) {
	updated, err := r.dao.UpdateStatusIfFree(ctx, id, string(from), string(to), r.slotCheck(check))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("r.dao.UpdateStatusIfFree -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *ReservationRepository) slotCheck(check SlotCheck) dao.CheckFunc {
	return func(f dao.Field, existing []dao.Reservation, subs []dao.Subscription) error {
		return check(fieldToDomain(f), availability.Snapshot{
			Reservations:  r.toDomainList(existing),
			Subscriptions: subscriptionsToDomain(subs, r.loc),
		})
	}
}

func (r *ReservationRepository) FindByID(ctx context.Context, id uint) (domain.Reservation, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *ReservationRepository) FindByToken(ctx context.Context, token string) (domain.Reservation, error) {
	found, err := r.dao.FindByToken(ctx, token)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("r.dao.FindByToken -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, id uint, from, to domain.ReservationStatus) (domain.Reservation, error) {
	updated, err := r.dao.UpdateStatus(ctx, id, string(from), string(to))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *ReservationRepository) FindByFieldAndDate(ctx context.Context, fieldID uint, date time.Time) ([]domain.Reservation, error) {
	found, err := r.dao.FindByFieldAndDate(ctx, fieldID, toStoredDate(date))
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByFieldAndDate -> %w", err)
	}

	return r.toDomainList(found), nil
}

func (r *ReservationRepository) FindFrom(ctx context.Context, date time.Time) ([]domain.Reservation, error) {
	found, err := r.dao.FindFrom(ctx, toStoredDate(date))
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindFrom -> %w", err)
	}

	return r.toDomainList(found), nil
}

func (r *ReservationRepository) FindPendingIssuedBefore(ctx context.Context, cutoff time.Time) ([]domain.Reservation, error) {
	found, err := r.dao.FindPendingIssuedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindPendingIssuedBefore -> %w", err)
	}

	return r.toDomainList(found), nil
}

func (r *ReservationRepository) FindBySubscriptionFrom(ctx context.Context, subscriptionID uint, date time.Time) ([]domain.Reservation, error) {
	found, err := r.dao.FindBySubscriptionFrom(ctx, subscriptionID, toStoredDate(date))
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindBySubscriptionFrom -> %w", err)
	}

	return r.toDomainList(found), nil
}

func (r *ReservationRepository) toDomainList(in []dao.Reservation) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(in))
	for _, res := range in {
		out = append(out, r.daoToDomain(res))
	}
	return out
}

func reservationToDAO(res domain.Reservation) dao.Reservation {
	out := dao.Reservation{
		ID:             res.ID,
		CustomerName:   res.Customer.Name,
		CustomerPhone:  res.Customer.Phone,
		CustomerEmail:  res.Customer.Email,
		FieldID:        res.FieldID,
		Date:           toStoredDate(res.Date),
		StartMinutes:   res.Start.Minutes(),
		DurationHours:  res.DurationHours,
		Price:          res.Price,
		Status:         string(res.Status),
		SubscriptionID: res.SubscriptionID,
	}
	if res.Token != "" {
		token := res.Token
		issued := res.TokenCreatedAt
		out.Token = &token
		out.TokenCreatedAt = &issued
	}
	return out
}

func (r *ReservationRepository) daoToDomain(res dao.Reservation) domain.Reservation {
	out := domain.Reservation{
		ID: res.ID,
		Customer: domain.Customer{
			Name:  res.CustomerName,
			Phone: res.CustomerPhone,
			Email: res.CustomerEmail,
		},
		FieldID:        res.FieldID,
		Date:           fromStoredDate(res.Date, r.loc),
		Start:          domain.TimeOfDay(res.StartMinutes),
		DurationHours:  res.DurationHours,
		Price:          res.Price,
		Status:         domain.ReservationStatus(res.Status),
		SubscriptionID: res.SubscriptionID,
		CreatedAt:      res.CreatedAt,
		UpdatedAt:      res.UpdatedAt,
	}
	if res.Token != nil {
		out.Token = *res.Token
	}
	if res.TokenCreatedAt != nil {
		out.TokenCreatedAt = *res.TokenCreatedAt
	}
	return out
}
