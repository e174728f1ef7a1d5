package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"room_manager/internal/models"
	"room_manager/internal/service"
)

// MatchHandler 處理回合配對相關的請求
type MatchHandler struct {
	matchService *service.MatchService
	roomService  *service.RoomService
}

func NewMatchHandler(matchService *service.MatchService, roomService *service.RoomService) *MatchHandler {
	return &MatchHandler{matchService: matchService, roomService: roomService}
}

// CreateMatch 建立配對；未提供 user2_id 時對手為 AI
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	roomID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input struct {
		User1ID uint  `json:"user1_id" binding:"required"`
		User2ID *uint `json:"user2_id"`
		Round   int   `json:"round" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	opponent := models.AI()
	if input.User2ID != nil {
		if *input.User2ID == 0 {
			badRequest(c, "無效的 user2_id；AI 對手請省略此欄位")
			return
		}
		opponent = models.Human(*input.User2ID)
	}

	match, err := h.matchService.CreateMatch(c.Request.Context(), roomID, input.User1ID, opponent, input.Round)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, match)
}

// AdvanceRound 僅房主可推進回合
func (h *MatchHandler) AdvanceRound(c *gin.Context) {
	room, ok := requireOwner(c, h.roomService)
	if !ok {
		return
	}
	round, err := h.matchService.AdvanceRound(c.Request.Context(), room.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": room.ID, "current_round": round})
}

// ActiveMatch 查詢使用者目前有效的配對；未指定 user_id 時為自己
func (h *MatchHandler) ActiveMatch(c *gin.Context) {
	roomID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			badRequest(c, "無效的 user_id")
			return
		}
		userID = uint(id)
	}

	match, err := h.matchService.GetActiveMatch(c.Request.Context(), roomID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

// ListMatches 列出某回合的配對；未指定 round 時為房間目前回合
func (h *MatchHandler) ListMatches(c *gin.Context) {
	roomID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var round int
	if raw := c.Query("round"); raw != "" {
		r, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "無效的 round")
			return
		}
		round = r
	} else {
		room, err := h.roomService.GetRoom(c.Request.Context(), roomID)
		if err != nil {
			writeError(c, err)
			return
		}
		round = room.CurrentRound
	}

	matches, err := h.matchService.ListRoundMatches(c.Request.Context(), roomID, round)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}
