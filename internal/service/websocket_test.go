package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room_manager/internal/events"
)

// readyBus 在訂閱建立後關閉 ready
type readyBus struct {
	*events.LocalBus
	ready chan struct{}
}

func (b *readyBus) Subscribe(ctx context.Context) (<-chan events.Event, error) {
	ch, err := b.LocalBus.Subscribe(ctx)
	close(b.ready)
	return ch, err
}

func startHub(t *testing.T) (*WebSocketService, *events.LocalBus) {
	t.Helper()

	local := events.NewLocalBus()
	bus := &readyBus{LocalBus: local, ready: make(chan struct{})}
	hub := NewWebSocketService(bus)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	select {
	case <-bus.ready:
	case <-time.After(time.Second):
		t.Fatal("hub did not subscribe")
	}
	return hub, local
}

func dialRoom(t *testing.T, hub *WebSocketService, roomID, userID uint) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.HandleConnection(conn, roomID, userID)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev events.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestWebSocketService_ForwardsRoomEvents(t *testing.T) {
	hub, bus := startHub(t)
	ctx := context.Background()

	inRoom := dialRoom(t, hub, 1, 10)
	otherRoom := dialRoom(t, hub, 2, 20)
	require.Eventually(t, func() bool {
		return hub.GetRoomClients(1) == 1 && hub.GetRoomClients(2) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(ctx, events.Event{Type: events.RoundStarted, RoomID: 1, CurrentRound: 2}))
	require.NoError(t, bus.Publish(ctx, events.Event{Type: events.MemberJoined, RoomID: 2, UserID: 21}))

	ev := readEvent(t, inRoom)
	assert.Equal(t, events.RoundStarted, ev.Type)
	assert.Equal(t, 2, ev.CurrentRound)

	ev = readEvent(t, otherRoom)
	assert.Equal(t, events.MemberJoined, ev.Type)
	assert.Equal(t, uint(21), ev.UserID)
}

func TestWebSocketService_RoomDeletedClosesConnections(t *testing.T) {
	hub, bus := startHub(t)

	conn := dialRoom(t, hub, 3, 30)
	require.Eventually(t, func() bool { return hub.GetRoomClients(3) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(context.Background(), events.Event{Type: events.RoomDeleted, RoomID: 3}))

	ev := readEvent(t, conn)
	assert.Equal(t, events.RoomDeleted, ev.Type)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.GetRoomClients(3))
}

func TestWebSocketService_ClientDisconnectUnregisters(t *testing.T) {
	hub, _ := startHub(t)

	conn := dialRoom(t, hub, 4, 40)
	require.Eventually(t, func() bool { return hub.GetRoomClients(4) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.GetRoomClients(4) == 0 }, 2*time.Second, 10*time.Millisecond)
}
