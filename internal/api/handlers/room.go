package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"room_manager/internal/models"
	"room_manager/internal/service"
)

// RoomHandler 處理房間與成員相關的請求
type RoomHandler struct {
	roomService       *service.RoomService
	membershipService *service.MembershipService
}

func NewRoomHandler(roomService *service.RoomService, membershipService *service.MembershipService) *RoomHandler {
	return &RoomHandler{roomService: roomService, membershipService: membershipService}
}

// requireOwner 取得房間並確認目前使用者為房主
func requireOwner(c *gin.Context, rooms *service.RoomService) (*models.Room, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	roomID, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	room, err := rooms.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if !room.IsOwnedBy(userID) {
		writeError(c, errNotOwner)
		return nil, false
	}
	return room, true
}

// CreateRoom 處理創建新房間的請求
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), input.Name, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.roomService.ListRooms(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// GetRoom 處理獲取房間訊息的請求
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, ok := parseID(c, "id")
	if !ok {
		return
	}
	room, err := h.roomService.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// GetRoomByCode 以四位數代碼查詢房間
func (h *RoomHandler) GetRoomByCode(c *gin.Context) {
	room, err := h.roomService.GetRoomByCode(c.Request.Context(), c.Query("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// RenameRoom 僅房主可修改房間名稱
func (h *RoomHandler) RenameRoom(c *gin.Context) {
	room, ok := requireOwner(c, h.roomService)
	if !ok {
		return
	}
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	updated, err := h.roomService.RenameRoom(c.Request.Context(), room.ID, input.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteRoom 僅房主可刪除房間，成員與配對一併移除
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	room, ok := requireOwner(c, h.roomService)
	if !ok {
		return
	}
	if err := h.roomService.DeleteRoom(c.Request.Context(), room.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// JoinRoom 以代碼加入房間；代碼可為數字或字串
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var input struct {
		Code any `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	membership, err := h.membershipService.Join(c.Request.Context(), userID, codeString(input.Code))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

func codeString(v any) string {
	switch code := v.(type) {
	case string:
		return code
	case float64:
		return strconv.FormatFloat(code, 'f', -1, 64)
	default:
		return fmt.Sprint(code)
	}
}

// LeaveRoom 離開目前所在的房間
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.membershipService.Leave(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "成功離開房間"})
}

func (h *RoomHandler) ListMembers(c *gin.Context) {
	roomID, ok := parseID(c, "id")
	if !ok {
		return
	}
	members, err := h.membershipService.ListMembers(c.Request.Context(), roomID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// MyMembership 回傳目前使用者所在的房間
func (h *RoomHandler) MyMembership(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	membership, err := h.membershipService.GetMembership(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}
