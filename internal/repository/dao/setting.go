package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSettingNotFound = errors.New("setting not found")

type Setting struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

type SettingDAO struct {
	db *gorm.DB
}

func NewSettingDAO(db *gorm.DB) *SettingDAO {
	return &SettingDAO{
		db: db,
	}
}

func (d *SettingDAO) Get(ctx context.Context, key string) (Setting, error) {
	var s Setting

	result := d.db.WithContext(ctx).First(&s, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Setting{}, ErrSettingNotFound
		}

		return Setting{}, result.Error
	}

	return s, nil
}

func (d *SettingDAO) Upsert(ctx context.Context, s Setting) (Setting, error) {
	result := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&s)
	if result.Error != nil {
		return Setting{}, result.Error
	}

	return s, nil
}
