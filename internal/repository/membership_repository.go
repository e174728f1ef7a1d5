package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"room_manager/internal/models"
)

type MembershipRepository interface {
	// Create 插入成員記錄；同一使用者已有記錄時回傳 ErrDuplicateEntry
	Create(ctx context.Context, membership *models.Membership) error
	FindByUserID(ctx context.Context, userID uint) (*models.Membership, error)
	FindByRoomID(ctx context.Context, roomID uint) ([]models.Membership, error)
	// FindInRoom 回傳指定使用者中屬於該房間的成員記錄，並在交易內加共享鎖
	FindInRoom(ctx context.Context, roomID uint, userIDs ...uint) ([]models.Membership, error)
	DeleteByUserID(ctx context.Context, userID uint) (*models.Membership, error)
}

type membershipRepository struct {
	baseRepository
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{baseRepository{db: db}}
}

func (r *membershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	return translateError(r.conn(ctx).Create(membership).Error, "create membership")
}

func (r *membershipRepository) FindByUserID(ctx context.Context, userID uint) (*models.Membership, error) {
	var membership models.Membership
	if err := r.conn(ctx).Where("user_id = ?", userID).First(&membership).Error; err != nil {
		return nil, translateError(err, "find membership by user")
	}
	return &membership, nil
}

func (r *membershipRepository) FindByRoomID(ctx context.Context, roomID uint) ([]models.Membership, error) {
	var memberships []models.Membership
	err := r.conn(ctx).Where("room_id = ?", roomID).Order("joined_at asc").Find(&memberships).Error
	return memberships, translateError(err, "list memberships by room")
}

func (r *membershipRepository) FindInRoom(ctx context.Context, roomID uint, userIDs ...uint) ([]models.Membership, error) {
	var memberships []models.Membership
	if len(userIDs) == 0 {
		return memberships, nil
	}
	err := r.forShare(ctx).
		Where("room_id = ? AND user_id IN ?", roomID, userIDs).
		Find(&memberships).Error
	return memberships, translateError(err, "find memberships in room")
}

// DeleteByUserID 刪除並回傳使用者的成員記錄
func (r *membershipRepository) DeleteByUserID(ctx context.Context, userID uint) (*models.Membership, error) {
	var deleted []models.Membership
	result := r.conn(ctx).
		Clauses(clause.Returning{}).
		Where("user_id = ?", userID).
		Delete(&deleted)
	if result.Error != nil {
		return nil, translateError(result.Error, "delete membership")
	}
	if result.RowsAffected == 0 || len(deleted) == 0 {
		return nil, ErrNotFound
	}
	return &deleted[0], nil
}
