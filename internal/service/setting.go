package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/repository"
)

type SettingRepository interface {
	Get(ctx context.Context, key string) (domain.Setting, error)
	Put(ctx context.Context, s domain.Setting) (domain.Setting, error)
}

// SettingService owns the global night-rate cutoff.
type SettingService struct {
	repo     SettingRepository
	fallback domain.TimeOfDay
}

func NewSettingService(repo SettingRepository, fallback domain.TimeOfDay) *SettingService {
	return &SettingService{
		repo:     repo,
		fallback: fallback,
	}
}

// NightStart returns the stored cutoff, or the configured default when none
// is stored or the stored value is unreadable.
func (s *SettingService) NightStart(ctx context.Context) (domain.TimeOfDay, error) {
	setting, err := s.repo.Get(ctx, domain.SettingNightStart)
	if err != nil {
		if errors.Is(err, repository.ErrSettingNotFound) {
			return s.fallback, nil
		}
		return 0, fmt.Errorf("s.repo.Get -> %w", err)
	}

	t, err := domain.ParseTimeOfDay(setting.Value)
	if err != nil {
		zap.L().Warn("ignoring unreadable night start setting", zap.String("value", setting.Value))
		return s.fallback, nil
	}

	return t, nil
}

func (s *SettingService) SetNightStart(ctx context.Context, t domain.TimeOfDay) (domain.TimeOfDay, error) {
	if _, err := s.repo.Put(ctx, domain.Setting{Key: domain.SettingNightStart, Value: t.String()}); err != nil {
		return 0, fmt.Errorf("s.repo.Put -> %w", err)
	}

	return t, nil
}
