package models

import (
	"time"
)

// 房間代碼的取值範圍（四位數）
const (
	MinRoomCode = 1000
	MaxRoomCode = 9999

	// RoomCodeSpace 可用房間代碼的總數
	RoomCodeSpace = MaxRoomCode - MinRoomCode + 1
)

// Room 表示一個以四位數代碼識別的房間
type Room struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Code         int       `gorm:"uniqueIndex;not null" json:"code"`
	CurrentRound int       `gorm:"not null;default:1" json:"current_round"`
	OwnerID      *uint     `json:"owner_id,omitempty"` // 建立者，帳號刪除後為 NULL
	CreatedAt    time.Time `json:"created_at"`
}

// IsOwnedBy 判斷使用者是否為房間建立者
func (r *Room) IsOwnedBy(userID uint) bool {
	return r.OwnerID != nil && *r.OwnerID == userID
}

// ValidRoomCode 判斷代碼是否落在四位數範圍內
func ValidRoomCode(code int) bool {
	return code >= MinRoomCode && code <= MaxRoomCode
}

// Membership 記錄使用者目前所在的房間，每位使用者同時最多一筆
type Membership struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	RoomID   uint      `gorm:"index;not null" json:"room_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
