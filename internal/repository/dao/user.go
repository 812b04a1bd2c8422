package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrUserEmailExists = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
)

// User is a back-office account. Email is the login key and is stored
// lowercased.
type User struct {
	ID uint `gorm:"primaryKey"`

	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
	Name     string `gorm:"not null"`
	Role     string `gorm:"not null;default:staff;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (u *User) BeforeSave(*gorm.DB) error {
	u.Email = normalizeEmail(u.Email)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{db: db}
}

func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	if err := d.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUserEmailExists
		}
		return User{}, err
	}

	return user, nil
}

func (d *UserDAO) FindByID(ctx context.Context, id uint) (User, error) {
	return d.first(ctx, "id = ?", id)
}

func (d *UserDAO) FindByEmail(ctx context.Context, email string) (User, error) {
	return d.first(ctx, "email = ?", normalizeEmail(email))
}

// FindByRole lists accounts holding one of roles, admins first and then by
// name. No roles means every account.
func (d *UserDAO) FindByRole(ctx context.Context, roles ...string) ([]User, error) {
	q := d.db.WithContext(ctx)
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}

	var users []User
	if err := q.Order("role = 'admin' DESC").Order("name").Order("id").Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (d *UserDAO) first(ctx context.Context, query string, arg any) (User, error) {
	var user User
	if err := d.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}

	return user, nil
}
