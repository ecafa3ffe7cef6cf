package repository

import (
	"context"
	"errors"
	"time"

	"agencyhub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	ClearTemporaryAdmin(ctx context.Context, userID uuid.UUID) error
	ListExpiredTemporaryAdmins(ctx context.Context, now time.Time) ([]entity.User, error)
	List(ctx context.Context, role *entity.Role, limit, offset int) ([]entity.User, int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("reset_password_token = ? AND reset_password_expiry > ?", tokenHash, now).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// ClearTemporaryAdmin revokes a lapsed or rescinded temporary grant. The
// write is idempotent.
func (r *userRepository) ClearTemporaryAdmin(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"is_temporary_admin":    false,
			"temporary_admin_until": nil,
		}).Error
}

func (r *userRepository) ListExpiredTemporaryAdmins(ctx context.Context, now time.Time) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_temporary_admin = true AND temporary_admin_until < ?", entity.RoleTeam, now).
		Find(&users).Error
	return users, err
}

func (r *userRepository) List(ctx context.Context, role *entity.Role, limit, offset int) ([]entity.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.User{})
	if role != nil {
		query = query.Where("role = ?", *role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var users []entity.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
