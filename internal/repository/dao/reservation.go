package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrReservationStale means the row was not in the expected status when
	// the conditional update ran.
	ErrReservationStale = errors.New("reservation status changed concurrently")
)

type Reservation struct {
	ID uint `gorm:"primaryKey"`

	CustomerName  string `gorm:"not null"`
	CustomerPhone string `gorm:"not null;index"`
	CustomerEmail string `gorm:"not null;index"`

	FieldID       uint      `gorm:"not null;index:idx_reservations_field_date,priority:1"`
	Date          time.Time `gorm:"type:date;not null;index:idx_reservations_field_date,priority:2"`
	StartMinutes  int       `gorm:"not null"`
	DurationHours float64   `gorm:"not null"`
	Price         float64   `gorm:"not null;default:0"`
	Status        string    `gorm:"not null;index"`

	SubscriptionID *uint   `gorm:"index"`
	Token          *string `gorm:"uniqueIndex"`
	TokenCreatedAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// CheckFunc inspects the locked field and what currently occupies it on the
// reservation's date. Returning an error aborts the insert.
type CheckFunc func(field Field, reservations []Reservation, subscriptions []Subscription) error

type ReservationDAO struct {
	db *gorm.DB
}

func NewReservationDAO(db *gorm.DB) *ReservationDAO {
	return &ReservationDAO{
		db: db,
	}
}

// lockDay locks the field row and reads what occupies it on date. Rows with
// id skip are left out.
func lockDay(tx *gorm.DB, fieldID uint, date time.Time, skip uint) (Field, []Reservation, []Subscription, error) {
	var field Field
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&field, fieldID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Field{}, nil, nil, ErrFieldNotFound
		}
		return Field{}, nil, nil, err
	}

	var existing []Reservation
	if err := tx.
		Where("field_id = ? AND date = ? AND status IN ? AND id <> ?", fieldID, date, []string{"pending", "confirmed"}, skip).
		Order("start_minutes").
		Find(&existing).Error; err != nil {
		return Field{}, nil, nil, err
	}

	var subs []Subscription
	if err := tx.Where("field_id = ?", fieldID).Find(&subs).Error; err != nil {
		return Field{}, nil, nil, err
	}

	return field, existing, subs, nil
}

// InsertIfFree runs check and insert in one serializable transaction while
// holding a row lock on the field, so two bookings of the same field are
// decided one after the other.
func (d *ReservationDAO) InsertIfFree(ctx context.Context, r Reservation, check CheckFunc) (Reservation, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		field, existing, subs, err := lockDay(tx, r.FieldID, r.Date, 0)
		if err != nil {
			return err
		}

		if err = check(field, existing, subs); err != nil {
			return err
		}

		return tx.Create(&r).Error
	}, serializable)
	if err != nil {
		if isConcurrentWrite(err) || isUniqueViolation(err) {
			return Reservation{}, ErrConcurrentWrite
		}

		return Reservation{}, err
	}

	return r, nil
}

// UpdateStatusIfFree is UpdateStatus decided under the same field lock as
// InsertIfFree. check sees the day without the row being updated.
func (d *ReservationDAO) UpdateStatusIfFree(ctx context.Context, id uint, from, to string, check CheckFunc) (Reservation, error) {
	var updated Reservation

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur Reservation
		if err := tx.First(&cur, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		field, existing, subs, err := lockDay(tx, cur.FieldID, cur.Date, cur.ID)
		if err != nil {
			return err
		}

		if err = check(field, existing, subs); err != nil {
			return err
		}

		result := tx.Model(&Reservation{}).
			Where("id = ? AND status = ?", id, from).
			Updates(map[string]any{"status": to, "updated_at": time.Now()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrReservationStale
		}

		return tx.First(&updated, id).Error
	}, serializable)
	if err != nil {
		if isConcurrentWrite(err) {
			return Reservation{}, ErrConcurrentWrite
		}

		return Reservation{}, err
	}

	return updated, nil
}

func (d *ReservationDAO) FindByID(ctx context.Context, id uint) (Reservation, error) {
	var r Reservation

	result := d.db.WithContext(ctx).First(&r, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Reservation{}, ErrReservationNotFound
		}

		return Reservation{}, result.Error
	}

	return r, nil
}

func (d *ReservationDAO) FindByToken(ctx context.Context, token string) (Reservation, error) {
	var r Reservation

	result := d.db.WithContext(ctx).First(&r, "token = ?", token)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Reservation{}, ErrReservationNotFound
		}

		return Reservation{}, result.Error
	}

	return r, nil
}

// UpdateStatus moves a row from one status to another only if it is still in
// the expected one.
func (d *ReservationDAO) UpdateStatus(ctx context.Context, id uint, from, to string) (Reservation, error) {
	result := d.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if result.Error != nil {
		return Reservation{}, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := d.FindByID(ctx, id); err != nil {
			return Reservation{}, err
		}
		return Reservation{}, ErrReservationStale
	}

	return d.FindByID(ctx, id)
}

func (d *ReservationDAO) FindByFieldAndDate(ctx context.Context, fieldID uint, date time.Time) ([]Reservation, error) {
	var out []Reservation

	result := d.db.WithContext(ctx).
		Where("field_id = ? AND date = ?", fieldID, date).
		Order("start_minutes").
		Find(&out)
	if result.Error != nil {
		return nil, result.Error
	}

	return out, nil
}

// FindFrom lists every reservation dated on or after date.
func (d *ReservationDAO) FindFrom(ctx context.Context, date time.Time) ([]Reservation, error) {
	var out []Reservation

	result := d.db.WithContext(ctx).
		Where("date >= ?", date).
		Order("date, start_minutes, field_id").
		Find(&out)
	if result.Error != nil {
		return nil, result.Error
	}

	return out, nil
}

// FindPendingIssuedBefore lists pending reservations whose token was issued
// before cutoff.
func (d *ReservationDAO) FindPendingIssuedBefore(ctx context.Context, cutoff time.Time) ([]Reservation, error) {
	var out []Reservation

	result := d.db.WithContext(ctx).
		Where("status = ? AND token IS NOT NULL AND token_created_at < ?", "pending", cutoff).
		Order("id").
		Find(&out)
	if result.Error != nil {
		return nil, result.Error
	}

	return out, nil
}

func (d *ReservationDAO) FindBySubscriptionFrom(ctx context.Context, subscriptionID uint, date time.Time) ([]Reservation, error) {
	var out []Reservation

	result := d.db.WithContext(ctx).
		Where("subscription_id = ? AND date >= ?", subscriptionID, date).
		Order("date").
		Find(&out)
	if result.Error != nil {
		return nil, result.Error
	}

	return out, nil
}
