package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"room_manager/internal/events"
	"room_manager/internal/repository"
	"room_manager/internal/utils"
)

// Options 服務層可調整的參數
type Options struct {
	MaxCodeAttempts int
}

type Services struct {
	User       *UserService
	Room       *RoomService
	Membership *MembershipService
	Match      *MatchService
	WebSocket  *WebSocketService
}

func NewServices(repos *repository.Repositories, bus events.Bus, tokens *utils.JWTManager, opts Options) *Services {
	codes := NewCodeAllocator(repos.Room, opts.MaxCodeAttempts)
	rooms := NewRoomService(repos, codes, opts.MaxCodeAttempts, bus)
	memberships := NewMembershipService(repos, rooms, bus)
	return &Services{
		User:       NewUserService(repos.User, tokens),
		Room:       rooms,
		Membership: memberships,
		Match:      NewMatchService(repos, bus),
		WebSocket:  NewWebSocketService(bus),
	}
}

// mapNotFound 將 repository.ErrNotFound 轉為指定的領域錯誤，其餘視為內部錯誤
func mapNotFound(err error, notFound error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return internalError(op, err)
}

// publish 發布事件；事件僅供通知，失敗只記錄不回傳
func publish(ctx context.Context, publisher events.Publisher, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"room_id": event.RoomID,
			"type":    event.Type,
		}).Warn("Failed to publish room event")
	}
}
