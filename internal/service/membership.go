package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"room_manager/internal/events"
	"room_manager/internal/models"
	"room_manager/internal/repository"
)

// MembershipService 維護「每位使用者同時最多屬於一個房間」
type MembershipService struct {
	repos  *repository.Repositories
	rooms  *RoomService
	events events.Publisher
}

func NewMembershipService(repos *repository.Repositories, rooms *RoomService, publisher events.Publisher) *MembershipService {
	return &MembershipService{repos: repos, rooms: rooms, events: publisher}
}

// Join 以房間代碼加入房間
//
// 事前檢查只是為了提早回應；兩個並發請求都通過檢查時，
// 由 memberships.user_id 的唯一約束決定誰成功，另一方得到 ErrAlreadyMember。
func (s *MembershipService) Join(ctx context.Context, userID uint, rawCode string) (*models.Membership, error) {
	if userID == 0 {
		return nil, invalidArgument("user is required")
	}
	room, err := s.rooms.GetRoomByCode(ctx, rawCode)
	if err != nil {
		return nil, err
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": room.ID, "code": room.Code})

	if _, err := s.repos.Membership.FindByUserID(ctx, userID); err == nil {
		logCtx.Info("Join rejected: user already in a room")
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, internalError("check membership", err)
	}

	membership := &models.Membership{UserID: userID, RoomID: room.ID}
	if err := s.repos.Membership.Create(ctx, membership); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEntry):
			logCtx.Info("Join rejected at insert: user already in a room")
			return nil, ErrAlreadyMember
		case errors.Is(err, repository.ErrNotFound):
			// 房間在查詢與插入之間被刪除
			return nil, ErrRoomNotFound
		default:
			logCtx.WithError(err).Error("Failed to create membership")
			return nil, internalError("create membership", err)
		}
	}

	logCtx.Info("User joined room")
	publish(ctx, s.events, events.Event{Type: events.MemberJoined, RoomID: room.ID, UserID: userID, At: time.Now()})
	s.publishMemberList(ctx, room.ID)
	return membership, nil
}

// Leave 移除使用者的成員記錄；使用者不在任何房間時回傳 ErrMembershipNotFound
func (s *MembershipService) Leave(ctx context.Context, userID uint) error {
	membership, err := s.repos.Membership.DeleteByUserID(ctx, userID)
	if err != nil {
		return mapNotFound(err, ErrMembershipNotFound, "delete membership")
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": membership.RoomID}).Info("User left room")
	publish(ctx, s.events, events.Event{Type: events.MemberLeft, RoomID: membership.RoomID, UserID: userID, At: time.Now()})
	s.publishMemberList(ctx, membership.RoomID)
	return nil
}

// publishMemberList 在成員變動後推送房間的完整成員名單
func (s *MembershipService) publishMemberList(ctx context.Context, roomID uint) {
	if s.events == nil {
		return
	}
	memberships, err := s.repos.Membership.FindByRoomID(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Warn("Failed to load member list")
		return
	}
	publish(ctx, s.events, events.Event{
		Type:    events.MemberList,
		RoomID:  roomID,
		Members: events.MembersOf(memberships),
		At:      time.Now(),
	})
}

// GetMembership 回傳使用者目前的成員記錄；不存在時回傳 ErrMembershipNotFound
func (s *MembershipService) GetMembership(ctx context.Context, userID uint) (*models.Membership, error) {
	membership, err := s.repos.Membership.FindByUserID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, ErrMembershipNotFound, "find membership")
	}
	return membership, nil
}

func (s *MembershipService) ListMembers(ctx context.Context, roomID uint) ([]models.Membership, error) {
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	memberships, err := s.repos.Membership.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, internalError("list members", err)
	}
	return memberships, nil
}
