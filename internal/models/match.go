package models

import "time"

// Opponent 表示對局中的第二位參與者：真人使用者或 AI。
//
// 零值即為 AI；真人對手只能由 Human 建立。
type Opponent struct {
	human  bool
	userID uint
}

// AI 回傳代表 AI 對手的 Opponent
func AI() Opponent {
	return Opponent{}
}

// Human 回傳代表真人使用者的 Opponent
func Human(userID uint) Opponent {
	return Opponent{human: true, userID: userID}
}

// IsAI 判斷對手是否為 AI
func (o Opponent) IsAI() bool {
	return !o.human
}

// UserID 回傳真人對手的使用者 ID；AI 時第二個回傳值為 false
func (o Opponent) UserID() (uint, bool) {
	return o.userID, o.human
}

// Valid 判斷對手是否可用；真人對手必須帶有使用者 ID
func (o Opponent) Valid() bool {
	return !o.human || o.userID != 0
}

// Key 回傳用於唯一性比較的鍵值，AI 固定為 0
func (o Opponent) Key() uint {
	if !o.human {
		return 0
	}
	return o.userID
}

func (o Opponent) String() string {
	if o.IsAI() {
		return "ai"
	}
	return "human"
}

// Match 表示房間內某一回合的一組配對
type Match struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"not null;index" json:"room_id"`
	User1ID   uint      `gorm:"column:user1_id;not null" json:"user1_id"`
	User2ID   *uint     `gorm:"column:user2_id" json:"user2_id"` // NULL 表示 AI 對手
	Round     int       `gorm:"not null" json:"round"`
	IsActive  bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMatch 建立一筆尚未儲存的配對
func NewMatch(roomID, user1 uint, opponent Opponent, round int) *Match {
	m := &Match{
		RoomID:   roomID,
		User1ID:  user1,
		Round:    round,
		IsActive: true,
	}
	if id, ok := opponent.UserID(); ok {
		m.User2ID = &id
	}
	return m
}

// Opponent 回傳第二位參與者
func (m *Match) Opponent() Opponent {
	if m.User2ID == nil {
		return AI()
	}
	return Human(*m.User2ID)
}

// HasUser 判斷使用者是否參與此配對
func (m *Match) HasUser(userID uint) bool {
	if m.User1ID == userID {
		return true
	}
	id, ok := m.Opponent().UserID()
	return ok && id == userID
}
