// Package events 定義房間狀態變更事件與其傳遞方式。
//
// 事件在交易提交後才發布，只用於通知（websocket 推送），
// 不參與任何一致性判斷。
package events

import (
	"context"
	"time"

	"room_manager/internal/models"
)

type Type string

const (
	MemberJoined Type = "member_joined"
	MemberLeft   Type = "member_left"
	MemberList   Type = "member_list"
	MatchCreated Type = "match_created"
	RoundStarted Type = "round_started"
	RoomDeleted  Type = "room_deleted"
)

// Event 房間內發生的一次狀態變更
type Event struct {
	Type         Type          `json:"type"`
	RoomID       uint          `json:"room_id"`
	UserID       uint          `json:"user_id,omitempty"`
	CurrentRound int           `json:"current_round,omitempty"`
	Match        *models.Match `json:"match,omitempty"`
	Members      []Member      `json:"members,omitempty"`
	At           time.Time     `json:"at"`
}

// Member member_list 事件中的一位成員
type Member struct {
	UserID   uint      `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// MembersOf 把成員記錄轉成事件內容
func MembersOf(memberships []models.Membership) []Member {
	members := make([]Member, 0, len(memberships))
	for _, m := range memberships {
		members = append(members, Member{UserID: m.UserID, JoinedAt: m.JoinedAt})
	}
	return members
}

// Publisher 發布事件
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus 發布並訂閱事件；Subscribe 回傳的通道在 ctx 結束時關閉
type Bus interface {
	Publisher
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}
