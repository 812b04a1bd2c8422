package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrBlacklistEntryExists   = errors.New("contact already blacklisted")
	ErrBlacklistEntryNotFound = errors.New("blacklist entry not found")
)

type BlacklistEntry struct {
	ID uint `gorm:"primaryKey"`

	Kind   string `gorm:"not null;uniqueIndex:idx_blacklist_kind_value,priority:1"`
	Value  string `gorm:"not null;uniqueIndex:idx_blacklist_kind_value,priority:2"`
	Reason string

	CreatedAt time.Time `gorm:"not null"`
}

type BlacklistDAO struct {
	db *gorm.DB
}

func NewBlacklistDAO(db *gorm.DB) *BlacklistDAO {
	return &BlacklistDAO{
		db: db,
	}
}

func (d *BlacklistDAO) Insert(ctx context.Context, e BlacklistEntry) (BlacklistEntry, error) {
	result := d.db.WithContext(ctx).Create(&e)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return BlacklistEntry{}, ErrBlacklistEntryExists
		}

		return BlacklistEntry{}, result.Error
	}

	return e, nil
}

func (d *BlacklistDAO) Delete(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Delete(&BlacklistEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBlacklistEntryNotFound
	}

	return nil
}

func (d *BlacklistDAO) FindAll(ctx context.Context) ([]BlacklistEntry, error) {
	var out []BlacklistEntry

	result := d.db.WithContext(ctx).Order("kind, value").Find(&out)
	if result.Error != nil {
		return nil, result.Error
	}

	return out, nil
}

// Match returns the first entry blocking any of the given (kind, value) pairs.
func (d *BlacklistDAO) Match(ctx context.Context, phone, email string) (BlacklistEntry, bool, error) {
	var out []BlacklistEntry

	result := d.db.WithContext(ctx).
		Where("(kind = ? AND value = ?) OR (kind = ? AND value = ?)", "phone", phone, "email", email).
		Limit(1).
		Find(&out)
	if result.Error != nil {
		return BlacklistEntry{}, false, result.Error
	}
	if len(out) == 0 {
		return BlacklistEntry{}, false, nil
	}

	return out[0], true, nil
}
