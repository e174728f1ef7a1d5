package models

import (
	"time"
)

// User 表示系統中的用戶
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"` // 用戶名，必須唯一
	Password  string    `gorm:"not null" json:"-"`                    // 密碼，json 序列化時會被忽略
	Role      UserRole  `gorm:"not null" json:"role"`                 // 用戶角色
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// UserRole 定義用戶角色的類型
type UserRole string

const (
	RoleTeacher UserRole = "teacher" // 建立房間、推進回合
	RoleStudent UserRole = "student" // 以代碼加入房間
)

// Valid 判斷角色是否為已知值
func (r UserRole) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}
