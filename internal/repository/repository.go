package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxFunc 在單一交易內執行 fn，fn 收到綁定該交易的 Repositories
type TxFunc func(ctx context.Context, fn func(tx *Repositories) error) error

type Repositories struct {
	User       UserRepository
	Room       RoomRepository
	Membership MembershipRepository
	Match      MatchRepository

	transact TxFunc
}

// New 組合各存儲庫，供非 GORM 後端使用
func New(user UserRepository, room RoomRepository, membership MembershipRepository, match MatchRepository, transact TxFunc) *Repositories {
	return &Repositories{
		User:       user,
		Room:       room,
		Membership: membership,
		Match:      match,
		transact:   transact,
	}
}

// NewRepositories 建立以 GORM 為後端的存儲庫
func NewRepositories(db *gorm.DB) *Repositories {
	repos := &Repositories{
		User:       NewUserRepository(db),
		Room:       NewRoomRepository(db),
		Membership: NewMembershipRepository(db),
		Match:      NewMatchRepository(db),
	}
	repos.transact = func(ctx context.Context, fn func(tx *Repositories) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(NewRepositories(tx))
		})
	}
	return repos
}

// Transaction 在交易內執行 fn；fn 回傳錯誤時整個交易回滾
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.transact(ctx, fn)
}
