package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"room_manager/internal/events"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = 54 * time.Second
	wsMaxMessageSize = 4096
	wsSendBuffer     = 256
)

// Client 代表一個 WebSocket 客戶端連接
type Client struct {
	Conn     *websocket.Conn
	UserID   uint
	RoomID   uint
	SendChan chan events.Event // 消息發送通道，用於異步傳送事件
}

// WebSocketService 把事件匯流排上的房間事件推送給訂閱該房間的連接
type WebSocketService struct {
	bus        events.Bus
	clients    map[uint]map[*Client]bool // roomID -> client -> bool
	clientsMux sync.RWMutex
}

func NewWebSocketService(bus events.Bus) *WebSocketService {
	return &WebSocketService{
		bus:     bus,
		clients: make(map[uint]map[*Client]bool),
	}
}

// Run 訂閱事件匯流排並轉發事件，直到 ctx 結束
func (s *WebSocketService) Run(ctx context.Context) error {
	stream, err := s.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	for event := range stream {
		s.BroadcastToRoom(event.RoomID, event)
		if event.Type == events.RoomDeleted {
			s.closeRoom(event.RoomID)
		}
	}
	return nil
}

// HandleConnection 處理新的 WebSocket 連接，阻塞至連接結束
func (s *WebSocketService) HandleConnection(conn *websocket.Conn, roomID, userID uint) {
	client := &Client{
		Conn:     conn,
		UserID:   userID,
		RoomID:   roomID,
		SendChan: make(chan events.Event, wsSendBuffer),
	}

	s.addClient(client)

	done := make(chan struct{})
	go func() {
		s.writePump(client)
		close(done)
	}()
	s.readPump(client)

	s.removeClient(client)
	<-done
	conn.Close()
}

// readPump 只處理控制訊息；客戶端送來的資料一律忽略
func (s *WebSocketService) readPump(client *Client) {
	client.Conn.SetReadLimit(wsMaxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("room_id", client.RoomID).Warn("websocket unexpected close")
			}
			return
		}
	}
}

func (s *WebSocketService) writePump(client *Client) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client.SendChan:
			client.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				// 讓 readPump 結束
				client.Conn.Close()
				return
			}

			payload, err := json.Marshal(event)
			if err != nil {
				logrus.WithError(err).Error("event encoding error")
				continue
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				client.Conn.Close()
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.Conn.Close()
				return
			}
		}
	}
}

// BroadcastToRoom 向房間內的所有客戶端廣播事件
//
// 發送隊列已滿的客戶端會被移除並斷線。
func (s *WebSocketService) BroadcastToRoom(roomID uint, event events.Event) {
	var slow []*Client

	s.clientsMux.RLock()
	for client := range s.clients[roomID] {
		select {
		case client.SendChan <- event:
		default:
			slow = append(slow, client)
		}
	}
	s.clientsMux.RUnlock()

	for _, client := range slow {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": client.UserID}).Warn("websocket client too slow, disconnecting")
		s.removeClient(client)
	}
}

func (s *WebSocketService) addClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	if s.clients[client.RoomID] == nil {
		s.clients[client.RoomID] = make(map[*Client]bool)
	}
	s.clients[client.RoomID][client] = true
}

// removeClient 移除客戶端並關閉其發送通道；重複呼叫無副作用
func (s *WebSocketService) removeClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	clients, ok := s.clients[client.RoomID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.SendChan)
	if len(clients) == 0 {
		delete(s.clients, client.RoomID)
	}
}

// closeRoom 斷開房間內所有連接
func (s *WebSocketService) closeRoom(roomID uint) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	for client := range s.clients[roomID] {
		close(client.SendChan)
	}
	delete(s.clients, roomID)
}

// GetRoomClients 獲取指定房間的在線客戶端數量
func (s *WebSocketService) GetRoomClients(roomID uint) int {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()

	return len(s.clients[roomID])
}
