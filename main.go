package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"room_manager/internal/api"
	"room_manager/internal/events"
	"room_manager/internal/middleware"
	"room_manager/internal/repository"
	"room_manager/internal/repository/memory"
	"room_manager/internal/service"
	"room_manager/internal/storage"
	"room_manager/internal/utils"
	"room_manager/pkg/config"
)

func main() {
	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	setupLogger(cfg.Log)

	// 初始化資料儲存
	repos, closeStore, err := openRepositories(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	// 初始化事件匯流排
	bus, err := openEventBus(cfg.Redis)
	if err != nil {
		logrus.Fatalf("Failed to initialize event bus: %v", err)
	}
	defer bus.Close()

	tokens := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL)
	services := service.NewServices(repos, bus, tokens, service.Options{
		MaxCodeAttempts: cfg.Rooms.MaxCodeAttempts,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := services.WebSocket.Run(ctx); err != nil {
			logrus.WithError(err).Error("WebSocket hub stopped")
		}
	}()

	// 設置 Gin 路由
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())
	api.SetupRoutes(r, services, tokens, cfg.CORS)

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"address": cfg.Server.Address,
			"storage": cfg.Storage.Driver,
			"redis":   cfg.Redis.Enabled,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
	logrus.Info("Server stopped")
}

func setupLogger(cfg config.LogConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func openRepositories(cfg *config.Config) (*repository.Repositories, func(), error) {
	if cfg.Storage.Driver == "memory" {
		logrus.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewStore().Repositories(), func() {}, nil
	}

	db, err := storage.NewPostgresDB(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repository.NewRepositories(db.DB), func() { db.Close() }, nil
}

func openEventBus(cfg config.RedisConfig) (events.Bus, error) {
	if !cfg.Enabled {
		return events.NewLocalBus(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	logrus.WithField("addr", cfg.Addr).Info("Redis connected")
	return events.NewRedisBus(client, cfg.Channel), nil
}
