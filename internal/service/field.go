package service

import (
	"context"
	"fmt"

	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/repository"
)

var ErrFieldNameExists = repository.ErrFieldNameExists

type FieldRepository interface {
	Create(ctx context.Context, field domain.Field) (domain.Field, error)
	Update(ctx context.Context, field domain.Field) (domain.Field, error)
	FindByID(ctx context.Context, id uint) (domain.Field, error)
	FindAll(ctx context.Context, activeOnly bool) ([]domain.Field, error)
}

type FieldService struct {
	repo FieldRepository
}

func NewFieldService(repo FieldRepository) *FieldService {
	return &FieldService{
		repo: repo,
	}
}

// CreateField stores a field. A football field created without a format gets
// one inferred from its name.
func (s *FieldService) CreateField(ctx context.Context, field domain.Field) (domain.Field, error) {
	field.Normalize()

	created, err := s.repo.Create(ctx, field)
	if err != nil {
		return domain.Field{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *FieldService) UpdateField(ctx context.Context, field domain.Field) (domain.Field, error) {
	if _, err := s.repo.FindByID(ctx, field.ID); err != nil {
		return domain.Field{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	field.Normalize()

	updated, err := s.repo.Update(ctx, field)
	if err != nil {
		return domain.Field{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *FieldService) GetField(ctx context.Context, id uint) (domain.Field, error) {
	field, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Field{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return field, nil
}

func (s *FieldService) ListFields(ctx context.Context, activeOnly bool) ([]domain.Field, error) {
	fields, err := s.repo.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return fields, nil
}
