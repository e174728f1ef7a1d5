package repository

import (
	"context"

	"gorm.io/gorm"

	"room_manager/internal/models"
)

type RoomRepository interface {
	// Create 插入新房間；代碼衝突時回傳 ErrDuplicateEntry
	Create(ctx context.Context, room *models.Room) error
	FindByID(ctx context.Context, id uint) (*models.Room, error)
	FindByCode(ctx context.Context, code int) (*models.Room, error)
	// FindByIDForUpdate 讀取房間並鎖定該列直到交易結束
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Room, error)
	FindAll(ctx context.Context) ([]models.Room, error)
	CodeExists(ctx context.Context, code int) (bool, error)
	// ListCodes 回傳所有存活房間的代碼
	ListCodes(ctx context.Context) ([]int, error)
	Count(ctx context.Context) (int64, error)
	UpdateName(ctx context.Context, id uint, name string) error
	// IncrementRound 將回合加一並回傳新回合
	IncrementRound(ctx context.Context, id uint) (int, error)
	// Delete 刪除房間，成員與配對隨之級聯刪除
	Delete(ctx context.Context, id uint) error
}

type roomRepository struct {
	baseRepository
}

func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{baseRepository{db: db}}
}

func (r *roomRepository) Create(ctx context.Context, room *models.Room) error {
	return translateError(r.conn(ctx).Create(room).Error, "create room")
}

func (r *roomRepository) FindByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := r.conn(ctx).First(&room, id).Error; err != nil {
		return nil, translateError(err, "find room by id")
	}
	return &room, nil
}

func (r *roomRepository) FindByCode(ctx context.Context, code int) (*models.Room, error) {
	var room models.Room
	if err := r.conn(ctx).Where("code = ?", code).First(&room).Error; err != nil {
		return nil, translateError(err, "find room by code")
	}
	return &room, nil
}

func (r *roomRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := r.forUpdate(ctx).First(&room, id).Error; err != nil {
		return nil, translateError(err, "lock room")
	}
	return &room, nil
}

// FindAll 查詢所有房間
func (r *roomRepository) FindAll(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := r.conn(ctx).Order("created_at DESC").Find(&rooms).Error
	return rooms, translateError(err, "list rooms")
}

func (r *roomRepository) CodeExists(ctx context.Context, code int) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Room{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, translateError(err, "count rooms by code")
	}
	return count > 0, nil
}

func (r *roomRepository) ListCodes(ctx context.Context) ([]int, error) {
	var codes []int
	err := r.conn(ctx).Model(&models.Room{}).Pluck("code", &codes).Error
	return codes, translateError(err, "list room codes")
}

func (r *roomRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Room{}).Count(&count).Error
	return count, translateError(err, "count rooms")
}

func (r *roomRepository) UpdateName(ctx context.Context, id uint, name string) error {
	result := r.conn(ctx).Model(&models.Room{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return translateError(result.Error, "rename room")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *roomRepository) IncrementRound(ctx context.Context, id uint) (int, error) {
	result := r.conn(ctx).Model(&models.Room{}).
		Where("id = ?", id).
		UpdateColumn("current_round", gorm.Expr("current_round + 1"))
	if result.Error != nil {
		return 0, translateError(result.Error, "increment round")
	}
	if result.RowsAffected == 0 {
		return 0, ErrNotFound
	}

	var round int
	err := r.conn(ctx).Model(&models.Room{}).Where("id = ?", id).Pluck("current_round", &round).Error
	return round, translateError(err, "read round")
}

func (r *roomRepository) Delete(ctx context.Context, id uint) error {
	result := r.conn(ctx).Delete(&models.Room{}, id)
	if result.Error != nil {
		return translateError(result.Error, "delete room")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
