package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"store_rating/internal/domain"
)

// UserFilter narrows a user listing.
type UserFilter struct {
	Role     domain.Role // Exact role, empty for all
	Search   string      // Substring of name, email or address
	Page     int         // 1-based page
	PageSize int         // Page size, capped at 100
}

func (f *UserFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}

// UserRepository persists users.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user. A duplicate email yields domain.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := conn(ctx, r.db).Create(user).Error; err != nil {
		return emailConflict(translate(err, "user"))
	}
	return nil
}

// Save writes every column of an existing user.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	if err := conn(ctx, r.db).Save(user).Error; err != nil {
		return emailConflict(translate(err, "user"))
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := conn(ctx, r.db).First(&user, id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := conn(ctx, r.db).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// List returns one page of users and the total number of matches.
func (r *UserRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, int64, error) {
	filter.normalize()
	query := conn(ctx, r.db).Model(&domain.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(address) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	err := query.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&domain.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("user")
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.User{}).Count(&n).Error
	return n, err
}

func emailConflict(err error) error {
	if errors.Is(err, domain.ErrConflict) {
		return domain.Conflict("email already registered")
	}
	return err
}
