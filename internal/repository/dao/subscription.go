package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSubscriptionStale    = errors.New("subscription status changed concurrently")
)

type Subscription struct {
	ID uint `gorm:"primaryKey"`

	FieldID       uint      `gorm:"not null;index"`
	Weekday       int       `gorm:"not null"`
	StartMinutes  int       `gorm:"not null"`
	DurationHours float64   `gorm:"not null"`
	StartDate     time.Time `gorm:"type:date;not null"`
	EndDate       time.Time `gorm:"type:date;not null"`

	CustomerName  string `gorm:"not null"`
	CustomerPhone string `gorm:"not null"`
	CustomerEmail string `gorm:"not null"`

	Status string `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type SubscriptionDAO struct {
	db *gorm.DB
}

func NewSubscriptionDAO(db *gorm.DB) *SubscriptionDAO {
	return &SubscriptionDAO{
		db: db,
	}
}

func (d *SubscriptionDAO) Insert(ctx context.Context, s Subscription) (Subscription, error) {
	result := d.db.WithContext(ctx).Create(&s)
	if result.Error != nil {
		return Subscription{}, result.Error
	}

	return s, nil
}

func (d *SubscriptionDAO) FindByID(ctx context.Context, id uint) (Subscription, error) {
	var s Subscription

	result := d.db.WithContext(ctx).First(&s, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Subscription{}, ErrSubscriptionNotFound
		}

		return Subscription{}, result.Error
	}

	return s, nil
}

func (d *SubscriptionDAO) FindByField(ctx context.Context, fieldID uint) ([]Subscription, error) {
	var out []Subscription

	result := d.db.WithContext(ctx).Where("field_id = ?", fieldID).Order("weekday, start_minutes").Find(&out)
	if result.Error != nil {
		return nil, result.Error
	}

	return out, nil
}

func (d *SubscriptionDAO) FindAll(ctx context.Context) ([]Subscription, error) {
	var out []Subscription

	result := d.db.WithContext(ctx).Order("field_id, weekday, start_minutes").Find(&out)
	if result.Error != nil {
		return nil, result.Error
	}

	return out, nil
}

// FindActiveEndedBefore lists subscriptions still marked active whose window
// closed before date.
func (d *SubscriptionDAO) FindActiveEndedBefore(ctx context.Context, date time.Time) ([]Subscription, error) {
	var out []Subscription

	result := d.db.WithContext(ctx).Where("status = ? AND end_date < ?", "active", date).Find(&out)
	if result.Error != nil {
		return nil, result.Error
	}

	return out, nil
}

func (d *SubscriptionDAO) UpdateStatus(ctx context.Context, id uint, from, to string) (Subscription, error) {
	result := d.db.WithContext(ctx).
		Model(&Subscription{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if result.Error != nil {
		return Subscription{}, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := d.FindByID(ctx, id); err != nil {
			return Subscription{}, err
		}
		return Subscription{}, ErrSubscriptionStale
	}

	return d.FindByID(ctx, id)
}
