package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrFieldNameExists = errors.New("field name already exists")
	ErrFieldNotFound   = errors.New("field not found")
)

type Field struct {
	ID uint `gorm:"primaryKey"`

	Name       string  `gorm:"unique;not null"`
	Sport      string  `gorm:"not null;index"`
	Format     string  `gorm:"not null;default:''"`
	Capacity   int     `gorm:"not null;default:0"`
	DayPrice   float64 `gorm:"not null"`
	NightPrice *float64
	Active     bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type FieldDAO struct {
	db *gorm.DB
}

func NewFieldDAO(db *gorm.DB) *FieldDAO {
	return &FieldDAO{
		db: db,
	}
}

func (d *FieldDAO) Insert(ctx context.Context, field Field) (Field, error) {
	result := d.db.WithContext(ctx).Create(&field)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Field{}, ErrFieldNameExists
		}

		return Field{}, result.Error
	}

	return field, nil
}

// Update writes every column, including a nil night price and a false active flag.
func (d *FieldDAO) Update(ctx context.Context, field Field) (Field, error) {
	result := d.db.WithContext(ctx).
		Model(&Field{ID: field.ID}).
		Select("name", "sport", "format", "capacity", "day_price", "night_price", "active", "updated_at").
		Updates(&field)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Field{}, ErrFieldNameExists
		}

		return Field{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Field{}, ErrFieldNotFound
	}

	return d.FindByID(ctx, field.ID)
}

func (d *FieldDAO) FindByID(ctx context.Context, id uint) (Field, error) {
	var field Field

	result := d.db.WithContext(ctx).First(&field, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Field{}, ErrFieldNotFound
		}

		return Field{}, result.Error
	}

	return field, nil
}

func (d *FieldDAO) FindAll(ctx context.Context, activeOnly bool) ([]Field, error) {
	var fields []Field

	query := d.db.WithContext(ctx).Order("sport, name")
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	if err := query.Find(&fields).Error; err != nil {
		return nil, err
	}

	return fields, nil
}
