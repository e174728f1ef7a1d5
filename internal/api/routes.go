package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"room_manager/internal/api/handlers"
	"room_manager/internal/middleware"
	"room_manager/internal/models"
	"room_manager/internal/service"
	"room_manager/internal/utils"
	"room_manager/pkg/config"
)

func SetupRoutes(r *gin.Engine, services *service.Services, tokens *utils.JWTManager, cfg config.CORSConfig) {
	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))

	authHandler := handlers.NewAuthHandler(services.User)
	roomHandler := handlers.NewRoomHandler(services.Room, services.Membership)
	matchHandler := handlers.NewMatchHandler(services.Match, services.Room)
	wsHandler := handlers.NewWebSocketHandler(services.WebSocket, services.Membership, cfg.AllowedOrigins)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "找不到該路徑"})
	})

	api := r.Group("/api")

	// 公開路由
	{
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware(tokens))
	{
		authorized.GET("/me", authHandler.Me)
		authorized.GET("/memberships/me", roomHandler.MyMembership)

		rooms := authorized.Group("/rooms")
		{
			rooms.GET("", roomHandler.ListRooms)
			rooms.POST("", middleware.RequireRole(string(models.RoleTeacher)), roomHandler.CreateRoom)
			rooms.GET("/by-code", roomHandler.GetRoomByCode)
			rooms.POST("/join", roomHandler.JoinRoom)
			rooms.POST("/leave", roomHandler.LeaveRoom)

			rooms.GET("/:id", roomHandler.GetRoom)
			rooms.PATCH("/:id", roomHandler.RenameRoom)
			rooms.DELETE("/:id", roomHandler.DeleteRoom)
			rooms.GET("/:id/members", roomHandler.ListMembers)

			// 回合與配對
			rooms.POST("/:id/matches", matchHandler.CreateMatch)
			rooms.GET("/:id/matches", matchHandler.ListMatches)
			rooms.GET("/:id/matches/active", matchHandler.ActiveMatch)
			rooms.POST("/:id/rounds/advance", matchHandler.AdvanceRound)

			rooms.GET("/:id/ws", wsHandler.HandleWebSocket)
		}
	}
}
