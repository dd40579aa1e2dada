package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"social-service/internal/chatflow"
	"social-service/internal/config"
	"social-service/internal/db"
	"social-service/internal/handlers"
	"social-service/internal/logger"
	"social-service/internal/middleware"
	"social-service/internal/observability"
	"social-service/internal/rabbitmq"
	"social-service/internal/repositories"
	"social-service/internal/session"
	"social-service/internal/telemetry"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		zlog.Fatal("failed to connect to db", zap.Error(err))
	}
	defer database.Close()

	sessions, err := session.NewStore(cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		zlog.Fatal("failed to connect to redis", zap.Error(err))
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AuditExchange, zlog)
	defer func() { _ = publisher.Close() }()
	audit := telemetry.NewAuditEmitter(publisher, "audit.social-service", "social-service", cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	followRequestRepo := repositories.NewFollowRequestRepo(database)
	postRepo := repositories.NewPostRepo(database)
	privilegeRepo := repositories.NewPrivilegeRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	messageRequestRepo := repositories.NewMessageRequestRepo(database)
	reactivationRepo := repositories.NewReactivationRepo(database)

	txRunner := db.NewTxRunner(database)
	flow := chatflow.NewCore(txRunner, privilegeRepo, messageRepo, messageRequestRepo, reactivationRepo)

	userHandler := handlers.NewUserHandler(userRepo, followRequestRepo, sessions, txRunner, audit)
	postHandler := handlers.NewPostHandler(postRepo, audit)
	messagingHandler := handlers.NewMessagingHandler(flow, audit)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.AuthMiddleware(sessions)

	router.POST("/users", userHandler.Register)
	router.POST("/users/login", userHandler.Login)
	router.POST("/users/logout", authMiddleware, userHandler.Logout)
	router.GET("/users/session", authMiddleware, userHandler.Session)
	router.GET("/users", authMiddleware, userHandler.ListUsers)
	router.GET("/users/search", authMiddleware, userHandler.SearchUsers)
	router.GET("/users/:id", authMiddleware, userHandler.GetUser)
	router.PUT("/users/:id/bio", authMiddleware, userHandler.UpdateBio)
	router.PUT("/users/:id/name", authMiddleware, userHandler.UpdateName)
	router.PUT("/users/:id/password", authMiddleware, userHandler.UpdatePassword)
	router.PUT("/users/:id/privacy", authMiddleware, userHandler.UpdatePrivacy)
	router.POST("/users/:id/follow", authMiddleware, userHandler.ToggleFollow)

	router.POST("/users/:id/follow-request", authMiddleware, userHandler.CreateFollowRequest)
	router.GET("/follow-requests", authMiddleware, userHandler.ListFollowRequests)
	router.POST("/follow-requests/:id/accept", authMiddleware, userHandler.AcceptFollowRequest)
	router.POST("/follow-requests/:id/reject", authMiddleware, userHandler.RejectFollowRequest)

	router.POST("/posts", authMiddleware, postHandler.CreatePost)
	router.GET("/posts", authMiddleware, postHandler.ListPosts)
	router.GET("/posts/:id", authMiddleware, postHandler.GetPost)
	router.PUT("/posts/:id", authMiddleware, postHandler.UpdatePost)
	router.DELETE("/posts/:id", authMiddleware, postHandler.DeletePost)
	router.POST("/posts/:id/like", authMiddleware, postHandler.ToggleLike)
	router.GET("/posts/:id/comments", authMiddleware, postHandler.ListComments)
	router.POST("/comments", authMiddleware, postHandler.CreateComment)
	router.DELETE("/comments/:id", authMiddleware, postHandler.DeleteComment)
	router.POST("/reactions", authMiddleware, postHandler.UpsertReaction)
	router.GET("/reactions", authMiddleware, postHandler.ListReactions)

	router.POST("/messages", authMiddleware, messagingHandler.SendMessage)
	router.GET("/conversations", authMiddleware, messagingHandler.Conversations)
	router.GET("/conversations/:partner_id", authMiddleware, messagingHandler.Conversation)
	router.POST("/conversations/:partner_id/read", authMiddleware, messagingHandler.MarkRead)
	router.POST("/conversations/:partner_id/hide", authMiddleware, messagingHandler.Hide)
	router.POST("/conversations/:partner_id/confirm-delete", authMiddleware, messagingHandler.ConfirmDelete)

	router.GET("/message-requests", authMiddleware, messagingHandler.PendingRequests)
	router.POST("/message-requests/:id/approve", authMiddleware, messagingHandler.ApproveRequest)
	router.POST("/message-requests/:id/reject", authMiddleware, messagingHandler.RejectRequest)

	router.POST("/reactivation-requests", authMiddleware, messagingHandler.RequestReactivation)
	router.GET("/reactivation-requests", authMiddleware, messagingHandler.PendingReactivations)
	router.POST("/reactivation-requests/:id/accept", authMiddleware, messagingHandler.AcceptReactivation)
	router.POST("/reactivation-requests/:id/reject", authMiddleware, messagingHandler.RejectReactivation)

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
	if err := router.Run(":" + cfg.Port); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}
