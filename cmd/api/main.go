package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"scholarline/config"
	"scholarline/internal/events"
	"scholarline/internal/handler"
	"scholarline/internal/middleware"
	"scholarline/internal/outbox"
	appredis "scholarline/internal/redis"
	"scholarline/internal/repository"
	"scholarline/internal/services"
	"scholarline/internal/storage"
	"scholarline/internal/websocket"
	"scholarline/pkg/database"
	"scholarline/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	appLogger := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(appLogger)

	database.Connect(cfg)
	defer database.Close()

	if err := database.ApplyRawMigrations("migrations"); err != nil {
		log.Fatalf("Failed to apply raw migrations: %v", err)
	}
	if err := database.Migrate(database.DB); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	appredis.Initialize(appredis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	redisClient := appredis.GetClient()

	registry := events.NewRegistry(events.NewRedisSource(redisClient), appLogger)
	defer registry.Close()
	publisher := events.NewRedisPublisher(redisClient)
	cache := appredis.NewCounterCache(redisClient, 5*time.Minute)

	conversationRepo := repository.NewConversationRepository(database.DB)
	messageRepo := repository.NewMessageRepository(database.DB)
	notificationRepo := repository.NewNotificationRepository(database.DB)
	userRepo := repository.NewUserRepository(database.DB)
	outboxRepo := repository.NewOutboxRepository(database.DB)

	worker := outbox.NewWorker(outboxRepo, publisher, appLogger)
	worker.Start()
	defer worker.Stop()

	webhook := services.NewWebhookNotifier(cfg.WebhookURL, appLogger)
	conversationService := services.NewConversationService(conversationRepo, userRepo, appLogger)
	messageService := services.NewMessageService(database.DB, messageRepo, conversationRepo, outboxRepo, cache, webhook, appLogger)
	notificationService := services.NewNotificationService(notificationRepo, outboxRepo, webhook, appLogger)
	feedSource := services.NewFeedSource(messageService, notificationService)

	hub := websocket.NewHub()
	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()
	go hub.Run(hubCtx)

	bridge := websocket.NewBridge(hub, registry)
	authorizer := websocket.NewChannelAuthorizer(conversationRepo)
	wsHandler := websocket.NewHandler(cfg.JWTSecret, bridge, authorizer)

	conversationHandler := handler.NewConversationHandler(conversationService)
	messageHandler := handler.NewMessageHandler(messageService)
	notificationHandler := handler.NewNotificationHandler(notificationService, messageService, feedSource)

	gin.SetMode(ginMode(cfg.AppMode))
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(appLogger))
	r.Use(middleware.ErrorHandler(appLogger))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/ws", wsHandler.Connect)

	api := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))
	api.POST("/conversations/resolve", conversationHandler.Resolve)
	api.GET("/conversations", conversationHandler.List)
	api.GET("/conversations/:id/messages", messageHandler.List)
	api.POST("/conversations/:id/messages", messageHandler.Send)
	api.POST("/conversations/:id/read", messageHandler.MarkAllRead)
	api.PATCH("/messages/:id", messageHandler.Edit)
	api.DELETE("/messages/:id", messageHandler.Delete)
	api.POST("/messages/:id/read", messageHandler.MarkRead)
	api.POST("/messages/read", messageHandler.MarkReadMany)
	api.GET("/feed", notificationHandler.Feed)
	api.GET("/feed/unread", notificationHandler.UnreadCounts)
	api.POST("/notifications", middleware.RequireStaff(), notificationHandler.Create)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead)
	api.POST("/notifications/read", notificationHandler.MarkReadMany)

	// Attachment uploads need a configured bucket; without one the route
	// is absent and sends are text-only.
	if cfg.S3Bucket != "" {
		blobStore, err := storage.NewClient(context.Background(), storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicBase,
			UploadTTL:  30 * time.Second,
		})
		if err != nil {
			log.Fatalf("Failed to initialize blob storage: %v", err)
		}
		uploadService := services.NewUploadService(blobStore, appLogger)
		uploadHandler := handler.NewUploadHandler(uploadService, conversationService)
		api.POST("/conversations/:id/uploads", uploadHandler.Upload)
	} else {
		appLogger.Warnf("S3_BUCKET not set, attachment uploads disabled")
	}

	appLogger.Infof("Starting server on port %s", cfg.AppPort)
	if err := r.Run(fmt.Sprintf(":%s", cfg.AppPort)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func ginMode(appMode string) string {
	if appMode == "release" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}
