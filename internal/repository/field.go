package repository

import (
	"context"
	"fmt"

	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/repository/dao"
)

var (
	ErrFieldNameExists = dao.ErrFieldNameExists
	ErrFieldNotFound   = dao.ErrFieldNotFound
)

type FieldDAO interface {
	Insert(ctx context.Context, field dao.Field) (dao.Field, error)
	Update(ctx context.Context, field dao.Field) (dao.Field, error)
	FindByID(ctx context.Context, id uint) (dao.Field, error)
	FindAll(ctx context.Context, activeOnly bool) ([]dao.Field, error)
}

type FieldRepository struct {
	dao FieldDAO
}

func NewFieldRepository(dao FieldDAO) *FieldRepository {
	return &FieldRepository{
		dao: dao,
	}
}

func (r *FieldRepository) Create(ctx context.Context, field domain.Field) (domain.Field, error) {
	created, err := r.dao.Insert(ctx, fieldToDAO(field))
	if err != nil {
		return domain.Field{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return fieldToDomain(created), nil
}

func (r *FieldRepository) Update(ctx context.Context, field domain.Field) (domain.Field, error) {
	updated, err := r.dao.Update(ctx, fieldToDAO(field))
	if err != nil {
		return domain.Field{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return fieldToDomain(updated), nil
}

func (r *FieldRepository) FindByID(ctx context.Context, id uint) (domain.Field, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Field{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return fieldToDomain(found), nil
}

func (r *FieldRepository) FindAll(ctx context.Context, activeOnly bool) ([]domain.Field, error) {
	found, err := r.dao.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	fields := make([]domain.Field, 0, len(found))
	for _, f := range found {
		fields = append(fields, fieldToDomain(f))
	}

	return fields, nil
}

func fieldToDAO(f domain.Field) dao.Field {
	return dao.Field{
		ID:         f.ID,
		Name:       f.Name,
		Sport:      string(f.Sport),
		Format:     string(f.Format),
		Capacity:   f.Capacity,
		DayPrice:   f.DayPrice,
		NightPrice: f.NightPrice,
		Active:     f.Active,
	}
}

func fieldToDomain(f dao.Field) domain.Field {
	return domain.Field{
		ID:         f.ID,
		Name:       f.Name,
		Sport:      domain.Sport(f.Sport),
		Format:     domain.FootballFormat(f.Format),
		Capacity:   f.Capacity,
		DayPrice:   f.DayPrice,
		NightPrice: f.NightPrice,
		Active:     f.Active,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}
