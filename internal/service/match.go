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

// MatchService 記錄每回合的配對並推進回合
//
// 建立配對與推進回合都在鎖定房間列的交易內執行，
// 因此同一房間的回合狀態變更是嚴格序列化的。
type MatchService struct {
	repos  *repository.Repositories
	events events.Publisher
}

func NewMatchService(repos *repository.Repositories, publisher events.Publisher) *MatchService {
	return &MatchService{repos: repos, events: publisher}
}

// CreateMatch 在指定回合建立一組配對
//
// round 必須等於房間目前的回合：大於目前回合視為無效參數，
// 小於目前回合表示該回合已被推進關閉，回傳 ErrRoundClosed。
func (s *MatchService) CreateMatch(ctx context.Context, roomID, user1 uint, opponent models.Opponent, round int) (*models.Match, error) {
	if user1 == 0 {
		return nil, invalidArgument("user1 is required")
	}
	if round < 1 {
		return nil, invalidArgument("round must be at least 1")
	}
	if !opponent.Valid() {
		return nil, invalidArgument("human opponent requires a user id")
	}
	user2, human := opponent.UserID()
	if human && user2 == user1 {
		return nil, invalidArgument("a user cannot be matched with themselves")
	}

	logCtx := logrus.WithFields(logrus.Fields{
		"room_id":  roomID,
		"user1_id": user1,
		"opponent": opponent.String(),
		"round":    round,
	})

	match := models.NewMatch(roomID, user1, opponent, round)
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		room, err := tx.Room.FindByIDForUpdate(ctx, roomID)
		if err != nil {
			return mapNotFound(err, ErrRoomNotFound, "lock room")
		}
		if round > room.CurrentRound {
			return invalidArgument("round %d is ahead of current round %d", round, room.CurrentRound)
		}
		if round < room.CurrentRound {
			return ErrRoundClosed
		}

		participants := []uint{user1}
		if human {
			participants = append(participants, user2)
		}
		members, err := tx.Membership.FindInRoom(ctx, roomID, participants...)
		if err != nil {
			return internalError("check members", err)
		}
		if len(members) != len(participants) {
			return ErrNotMember
		}

		if err := tx.Match.Create(ctx, match); err != nil {
			switch {
			case errors.Is(err, repository.ErrDuplicateEntry):
				return ErrDuplicateMatch
			case errors.Is(err, repository.ErrNotFound):
				// 房間在鎖定後被刪除
				return ErrRoomNotFound
			default:
				return internalError("create match", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			logCtx.WithError(err).Error("Failed to create match")
		} else {
			logCtx.WithError(err).Info("Match rejected")
		}
		return nil, err
	}

	logCtx.WithField("match_id", match.ID).Info("Match created")
	publish(ctx, s.events, events.Event{Type: events.MatchCreated, RoomID: roomID, Match: match, At: time.Now()})
	return match, nil
}

// AdvanceRound 將房間推進到下一回合，並讓上一回合的配對失效
func (s *MatchService) AdvanceRound(ctx context.Context, roomID uint) (int, error) {
	var (
		newRound    int
		deactivated int64
	)
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		room, err := tx.Room.FindByIDForUpdate(ctx, roomID)
		if err != nil {
			return mapNotFound(err, ErrRoomNotFound, "lock room")
		}

		newRound, err = tx.Room.IncrementRound(ctx, roomID)
		if err != nil {
			return mapNotFound(err, ErrRoomNotFound, "increment round")
		}

		deactivated, err = tx.Match.DeactivateRound(ctx, roomID, room.CurrentRound)
		if err != nil {
			return internalError("deactivate matches", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"room_id":     roomID,
		"round":       newRound,
		"deactivated": deactivated,
	}).Info("Round advanced")
	publish(ctx, s.events, events.Event{Type: events.RoundStarted, RoomID: roomID, CurrentRound: newRound, At: time.Now()})
	return newRound, nil
}

// GetActiveMatch 回傳使用者在房間內目前有效的配對
func (s *MatchService) GetActiveMatch(ctx context.Context, roomID, userID uint) (*models.Match, error) {
	match, err := s.repos.Match.FindActiveByUser(ctx, roomID, userID)
	if err != nil {
		return nil, mapNotFound(err, ErrMatchNotFound, "find active match")
	}
	return match, nil
}

func (s *MatchService) ListRoundMatches(ctx context.Context, roomID uint, round int) ([]models.Match, error) {
	if round < 1 {
		return nil, invalidArgument("round must be at least 1")
	}
	if _, err := s.repos.Room.FindByID(ctx, roomID); err != nil {
		return nil, mapNotFound(err, ErrRoomNotFound, "find room")
	}
	matches, err := s.repos.Match.FindByRound(ctx, roomID, round)
	if err != nil {
		return nil, internalError("list matches", err)
	}
	return matches, nil
}
