package service

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"room_manager/internal/models"
	"room_manager/internal/repository"
)

// DefaultMaxCodeAttempts 取樣代碼與插入重試的預設上限
const DefaultMaxCodeAttempts = 300

// CodeAllocator 產生目前未被使用的房間代碼
//
// 它只保證「檢查當下未被使用」，真正的唯一性由存儲層的唯一約束保證，
// 插入衝突由 RoomService 重新分配。
type CodeAllocator struct {
	rooms       repository.RoomRepository
	maxAttempts int
	intN        func(n int) int
}

func NewCodeAllocator(rooms repository.RoomRepository, maxAttempts int) *CodeAllocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxCodeAttempts
	}
	return &CodeAllocator{
		rooms:       rooms,
		maxAttempts: maxAttempts,
		intN:        rand.IntN,
	}
}

func (a *CodeAllocator) sample() int {
	return models.MinRoomCode + a.intN(models.RoomCodeSpace)
}

// Allocate 回傳一個目前空閒的代碼
//
// 先隨機取樣最多 maxAttempts 次；若全部命中已用代碼，代表空間接近飽和，
// 改為讀取所有已用代碼並從剩餘的代碼中隨機挑選。空間已滿時回傳 ErrCapacityExhausted。
func (a *CodeAllocator) Allocate(ctx context.Context) (int, error) {
	count, err := a.rooms.Count(ctx)
	if err != nil {
		return 0, internalError("count rooms", err)
	}
	if count >= models.RoomCodeSpace {
		return 0, ErrCapacityExhausted
	}

	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		code := a.sample()
		taken, err := a.rooms.CodeExists(ctx, code)
		if err != nil {
			return 0, internalError("check room code", err)
		}
		if !taken {
			return code, nil
		}
	}

	logrus.WithField("attempts", a.maxAttempts).Warn("Random code sampling exhausted, scanning free codes")
	return a.pickFree(ctx)
}

func (a *CodeAllocator) pickFree(ctx context.Context) (int, error) {
	used, err := a.rooms.ListCodes(ctx)
	if err != nil {
		return 0, internalError("list room codes", err)
	}

	taken := make(map[int]struct{}, len(used))
	for _, code := range used {
		taken[code] = struct{}{}
	}
	free := make([]int, 0, models.RoomCodeSpace-len(taken))
	for code := models.MinRoomCode; code <= models.MaxRoomCode; code++ {
		if _, ok := taken[code]; !ok {
			free = append(free, code)
		}
	}
	if len(free) == 0 {
		return 0, ErrCapacityExhausted
	}
	return free[a.intN(len(free))], nil
}

// ParseCode 解析使用者輸入的房間代碼
func ParseCode(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalidArgument("no code provided")
	}
	code, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidArgument("code must be an integer")
	}
	if !models.ValidRoomCode(code) {
		return 0, invalidArgument("code must be between %d and %d", models.MinRoomCode, models.MaxRoomCode)
	}
	return code, nil
}
