package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"room_manager/internal/events"
	"room_manager/internal/models"
	"room_manager/internal/repository"
	"room_manager/internal/repository/memory"
	"room_manager/internal/utils"
)

type testEnv struct {
	store    *memory.Store
	repos    *repository.Repositories
	bus      *events.LocalBus
	services *Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	repos := store.Repositories()
	bus := events.NewLocalBus()
	t.Cleanup(func() { bus.Close() })

	return &testEnv{
		store:    store,
		repos:    repos,
		bus:      bus,
		services: NewServices(repos, bus, utils.NewJWTManager("test-secret", time.Hour), Options{}),
	}
}

// subscribe 回傳在測試結束時取消的事件通道
func (e *testEnv) subscribe(t *testing.T) <-chan events.Event {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch, err := e.bus.Subscribe(ctx)
	require.NoError(t, err)
	return ch
}

func (e *testEnv) createRoom(t *testing.T, name string) *models.Room {
	t.Helper()
	room, err := e.services.Room.CreateRoom(context.Background(), name, 0)
	require.NoError(t, err)
	return room
}

// join 以代碼讓多位使用者加入房間
func (e *testEnv) join(t *testing.T, room *models.Room, userIDs ...uint) {
	t.Helper()
	for _, id := range userIDs {
		_, err := e.services.Membership.Join(context.Background(), id, codeOf(room))
		require.NoError(t, err)
	}
}

func codeOf(room *models.Room) string {
	return strconv.Itoa(room.Code)
}

func nextEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return events.Event{}
	}
}
