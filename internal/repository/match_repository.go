package repository

import (
	"context"

	"gorm.io/gorm"

	"room_manager/internal/models"
)

type MatchRepository interface {
	// Create 插入配對；(user1, user2, room, round) 重複時回傳 ErrDuplicateEntry
	Create(ctx context.Context, match *models.Match) error
	// FindActiveByUser 回傳使用者在房間內最新的有效配對
	FindActiveByUser(ctx context.Context, roomID, userID uint) (*models.Match, error)
	FindByRound(ctx context.Context, roomID uint, round int) ([]models.Match, error)
	// DeactivateRound 將指定回合的配對標記為失效，回傳影響筆數
	DeactivateRound(ctx context.Context, roomID uint, round int) (int64, error)
}

type matchRepository struct {
	baseRepository
}

func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{baseRepository{db: db}}
}

func (r *matchRepository) Create(ctx context.Context, match *models.Match) error {
	return translateError(r.conn(ctx).Create(match).Error, "create match")
}

func (r *matchRepository) FindActiveByUser(ctx context.Context, roomID, userID uint) (*models.Match, error) {
	var match models.Match
	err := r.conn(ctx).
		Where("room_id = ? AND is_active = ?", roomID, true).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at DESC").
		First(&match).Error
	if err != nil {
		return nil, translateError(err, "find active match")
	}
	return &match, nil
}

func (r *matchRepository) FindByRound(ctx context.Context, roomID uint, round int) ([]models.Match, error) {
	var matches []models.Match
	err := r.conn(ctx).
		Where("room_id = ? AND round = ?", roomID, round).
		Order("id asc").
		Find(&matches).Error
	return matches, translateError(err, "list matches by round")
}

func (r *matchRepository) DeactivateRound(ctx context.Context, roomID uint, round int) (int64, error) {
	result := r.conn(ctx).Model(&models.Match{}).
		Where("room_id = ? AND round = ? AND is_active = ?", roomID, round, true).
		Update("is_active", false)
	return result.RowsAffected, translateError(result.Error, "deactivate round")
}
