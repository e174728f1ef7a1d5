package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"room_manager/internal/events"
	"room_manager/internal/models"
	"room_manager/internal/repository"
)

const maxRoomNameLength = 100

// RoomService 管理房間的建立、查詢與刪除
type RoomService struct {
	repos       *repository.Repositories
	codes       *CodeAllocator
	maxAttempts int
	events      events.Publisher
}

func NewRoomService(repos *repository.Repositories, codes *CodeAllocator, maxAttempts int, publisher events.Publisher) *RoomService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxCodeAttempts
	}
	return &RoomService{
		repos:       repos,
		codes:       codes,
		maxAttempts: maxAttempts,
		events:      publisher,
	}
}

func validateRoomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidArgument("room name is required")
	}
	if utf8.RuneCountInString(name) > maxRoomNameLength {
		return "", invalidArgument("room name must be at most %d characters", maxRoomNameLength)
	}
	return name, nil
}

// CreateRoom 建立房間並分配代碼
//
// 插入時若代碼已被其他請求搶先使用，重新分配代碼再試，次數與取樣上限相同。
func (s *RoomService) CreateRoom(ctx context.Context, name string, ownerID uint) (*models.Room, error) {
	name, err := validateRoomName(name)
	if err != nil {
		return nil, err
	}
	logCtx := logrus.WithField("owner_id", ownerID)

	var owner *uint
	if ownerID != 0 {
		owner = &ownerID
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.codes.Allocate(ctx)
		if err != nil {
			if errors.Is(err, ErrCapacityExhausted) {
				logCtx.Warn("Room code namespace exhausted")
			}
			return nil, err
		}

		room := &models.Room{
			Name:         name,
			Code:         code,
			CurrentRound: 1,
			OwnerID:      owner,
		}
		err = s.repos.Room.Create(ctx, room)
		if err == nil {
			logCtx.WithFields(logrus.Fields{"room_id": room.ID, "code": room.Code}).Info("Room created")
			return room, nil
		}
		if !errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.WithError(err).Error("Failed to save new room")
			return nil, internalError("create room", err)
		}
		logCtx.WithFields(logrus.Fields{"code": code, "attempt": attempt}).Debug("Room code collided on insert, reallocating")
	}

	logCtx.WithField("attempts", s.maxAttempts).Warn("Gave up allocating a room code")
	return nil, ErrCapacityExhausted
}

func (s *RoomService) GetRoom(ctx context.Context, roomID uint) (*models.Room, error) {
	room, err := s.repos.Room.FindByID(ctx, roomID)
	if err != nil {
		return nil, mapNotFound(err, ErrRoomNotFound, "find room")
	}
	return room, nil
}

// GetRoomByCode 以使用者輸入的代碼查詢房間
func (s *RoomService) GetRoomByCode(ctx context.Context, rawCode string) (*models.Room, error) {
	code, err := ParseCode(rawCode)
	if err != nil {
		return nil, err
	}
	room, err := s.repos.Room.FindByCode(ctx, code)
	if err != nil {
		return nil, mapNotFound(err, ErrRoomNotFound, "find room by code")
	}
	return room, nil
}

func (s *RoomService) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.repos.Room.FindAll(ctx)
	if err != nil {
		return nil, internalError("list rooms", err)
	}
	return rooms, nil
}

func (s *RoomService) RenameRoom(ctx context.Context, roomID uint, name string) (*models.Room, error) {
	name, err := validateRoomName(name)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Room.UpdateName(ctx, roomID, name); err != nil {
		return nil, mapNotFound(err, ErrRoomNotFound, "rename room")
	}
	return s.GetRoom(ctx, roomID)
}

// DeleteRoom 刪除房間，成員與配對一併刪除
func (s *RoomService) DeleteRoom(ctx context.Context, roomID uint) error {
	if err := s.repos.Room.Delete(ctx, roomID); err != nil {
		return mapNotFound(err, ErrRoomNotFound, "delete room")
	}
	logrus.WithField("room_id", roomID).Info("Room deleted")
	publish(ctx, s.events, events.Event{Type: events.RoomDeleted, RoomID: roomID, At: time.Now()})
	return nil
}
