package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"room_manager/internal/service"
)

// WebSocketHandler 處理房間事件的 WebSocket 訂閱
type WebSocketHandler struct {
	wsService         *service.WebSocketService
	membershipService *service.MembershipService
	upgrader          websocket.Upgrader
}

// NewWebSocketHandler 建立處理器；allowedOrigins 為空時接受任何來源
func NewWebSocketHandler(wsService *service.WebSocketService, membershipService *service.MembershipService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		wsService:         wsService,
		membershipService: membershipService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// HandleWebSocket 只有房間成員可以訂閱該房間的事件
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	roomID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	membership, err := h.membershipService.GetMembership(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, service.ErrMembershipNotFound) {
		writeError(c, err)
		return
	}
	if membership == nil || membership.RoomID != roomID {
		writeError(c, service.ErrNotMember)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.wsService.HandleConnection(conn, roomID, userID)
}
