package repository

import (
	"context"
	"fmt"

	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/repository/dao"
)

var ErrSettingNotFound = dao.ErrSettingNotFound

type SettingDAO interface {
	Get(ctx context.Context, key string) (dao.Setting, error)
	Upsert(ctx context.Context, s dao.Setting) (dao.Setting, error)
}

type SettingRepository struct {
	dao SettingDAO
}

func NewSettingRepository(dao SettingDAO) *SettingRepository {
	return &SettingRepository{
		dao: dao,
	}
}

func (r *SettingRepository) Get(ctx context.Context, key string) (domain.Setting, error) {
	found, err := r.dao.Get(ctx, key)
	if err != nil {
		return domain.Setting{}, fmt.Errorf("r.dao.Get -> %w", err)
	}

	return domain.Setting{Key: found.Key, Value: found.Value}, nil
}

func (r *SettingRepository) Put(ctx context.Context, s domain.Setting) (domain.Setting, error) {
	saved, err := r.dao.Upsert(ctx, dao.Setting{Key: s.Key, Value: s.Value})
	if err != nil {
		return domain.Setting{}, fmt.Errorf("r.dao.Upsert -> %w", err)
	}

	return domain.Setting{Key: saved.Key, Value: saved.Value}, nil
}
