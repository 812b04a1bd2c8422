package service

import (
	"context"
	"fmt"

	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/repository"
)

var (
	ErrBlacklistEntryExists   = repository.ErrBlacklistEntryExists
	ErrBlacklistEntryNotFound = repository.ErrBlacklistEntryNotFound
)

type BlacklistRepository interface {
	Create(ctx context.Context, e domain.BlacklistEntry) (domain.BlacklistEntry, error)
	Delete(ctx context.Context, id uint) error
	FindAll(ctx context.Context) ([]domain.BlacklistEntry, error)
}

type BlacklistService struct {
	repo BlacklistRepository
}

func NewBlacklistService(repo BlacklistRepository) *BlacklistService {
	return &BlacklistService{
		repo: repo,
	}
}

func (s *BlacklistService) Block(ctx context.Context, e domain.BlacklistEntry) (domain.BlacklistEntry, error) {
	created, err := s.repo.Create(ctx, e)
	if err != nil {
		return domain.BlacklistEntry{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *BlacklistService) Unblock(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

func (s *BlacklistService) List(ctx context.Context) ([]domain.BlacklistEntry, error) {
	entries, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return entries, nil
}
