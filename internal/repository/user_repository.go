package repository

import (
	"context"

	"gorm.io/gorm"

	"room_manager/internal/models"
)

type UserRepository interface {
	// Create 建立使用者；用戶名重複時回傳 ErrDuplicateEntry
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type userRepository struct {
	baseRepository
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{baseRepository{db: db}}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translateError(r.conn(ctx).Create(user).Error, "create user")
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.conn(ctx).First(&user, id).Error; err != nil {
		return nil, translateError(err, "find user by id")
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.conn(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translateError(err, "find user by username")
	}
	return &user, nil
}
