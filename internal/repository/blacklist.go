package repository

import (
	"context"
	"fmt"

	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/repository/dao"
)

var (
	ErrBlacklistEntryExists   = dao.ErrBlacklistEntryExists
	ErrBlacklistEntryNotFound = dao.ErrBlacklistEntryNotFound
)

type BlacklistDAO interface {
	Insert(ctx context.Context, e dao.BlacklistEntry) (dao.BlacklistEntry, error)
	Delete(ctx context.Context, id uint) error
	FindAll(ctx context.Context) ([]dao.BlacklistEntry, error)
	Match(ctx context.Context, phone, email string) (dao.BlacklistEntry, bool, error)
}

type BlacklistRepository struct {
	dao BlacklistDAO
}

func NewBlacklistRepository(dao BlacklistDAO) *BlacklistRepository {
	return &BlacklistRepository{
		dao: dao,
	}
}

func (r *BlacklistRepository) Create(ctx context.Context, e domain.BlacklistEntry) (domain.BlacklistEntry, error) {
	created, err := r.dao.Insert(ctx, dao.BlacklistEntry{
		Kind:   string(e.Kind),
		Value:  domain.NormalizeContact(e.Kind, e.Value),
		Reason: e.Reason,
	})
	if err != nil {
		return domain.BlacklistEntry{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return blacklistToDomain(created), nil
}

func (r *BlacklistRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *BlacklistRepository) FindAll(ctx context.Context) ([]domain.BlacklistEntry, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	out := make([]domain.BlacklistEntry, 0, len(found))
	for _, e := range found {
		out = append(out, blacklistToDomain(e))
	}

	return out, nil
}

// Match looks up the normalized phone and email.
func (r *BlacklistRepository) Match(ctx context.Context, phone, email string) (domain.BlacklistEntry, bool, error) {
	found, ok, err := r.dao.Match(ctx,
		domain.NormalizeContact(domain.BlacklistPhone, phone),
		domain.NormalizeContact(domain.BlacklistEmail, email),
	)
	if err != nil {
		return domain.BlacklistEntry{}, false, fmt.Errorf("r.dao.Match -> %w", err)
	}
	if !ok {
		return domain.BlacklistEntry{}, false, nil
	}

	return blacklistToDomain(found), true, nil
}

func blacklistToDomain(e dao.BlacklistEntry) domain.BlacklistEntry {
	return domain.BlacklistEntry{
		ID:        e.ID,
		Kind:      domain.BlacklistKind(e.Kind),
		Value:     e.Value,
		Reason:    e.Reason,
		CreatedAt: e.CreatedAt,
	}
}
