package router

import (
	"context"
	"log/slog"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"github.com/pro-connect/backend/internal/handlers"
	"github.com/pro-connect/backend/internal/middleware"
	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/notify"
	"github.com/pro-connect/backend/internal/push"
	"github.com/pro-connect/backend/internal/realtime"
	"github.com/pro-connect/backend/internal/repositories"
	"github.com/pro-connect/backend/internal/social"
	"github.com/pro-connect/backend/pkg/config"
	"github.com/pro-connect/backend/pkg/firebase"
)

// conversationMembership adapts the message repository to the hub's room
// membership check.
type conversationMembership struct {
	messages repositories.MessageRepository
}

func (m conversationMembership) IsMember(ctx context.Context, conversationID string, userID uint) (bool, error) {
	conv, err := m.messages.GetConversationByID(ctx, conversationID)
	if err != nil {
		return false, err
	}
	return conv.IsParticipant(userID), nil
}

// SetupRoutes migrates the schema, wires every dependency and registers all
// application routes. It returns the websocket hub so main can manage its
// lifecycle. firebaseApp may be nil; Firebase login and device push are then
// disabled.
func SetupRoutes(e *echo.Echo, db *config.DB, firebaseApp *firebase.App, cfg *config.Config, logger *slog.Logger) (*realtime.Hub, error) {
	err := db.Postgres.AutoMigrate(
		&models.User{},
		&models.Connection{},
		&models.Comment{},
		&models.Like{},
		&models.Job{},
		&models.JobApplication{},
		&models.SavedJob{},
		&models.Notification{},
		&models.DeviceToken{},
	)
	if err != nil {
		return nil, err
	}
	logger.Info("postgres migrations completed")

	e.GET("/health", handlers.HealthCheck)

	mongoDB := db.Mongo.Database(cfg.MongoDatabase)

	// Repositories
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	connectionRepo := repositories.NewPostgresConnectionRepository(db.Postgres)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	commentRepo := repositories.NewPostgresCommentRepository(db.Postgres)
	likeRepo := repositories.NewPostgresLikeRepository(db.Postgres)
	jobRepo := repositories.NewPostgresJobRepository(db.Postgres)
	savedJobRepo := repositories.NewPostgresSavedJobRepository(db.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)
	deviceTokenRepo := repositories.NewPostgresDeviceTokenRepository(db.Postgres)
	messageRepo := repositories.NewMongoMessageRepository(mongoDB)

	// Core services
	graph := social.NewGraph(connectionRepo, userRepo)
	ledger := notify.NewLedger(notificationRepo, userRepo)

	// Realtime: session registry, delivery backbone, websocket hub
	registry := realtime.NewMemoryRegistry(logger)
	backbone := realtime.NewEventBusBackbone(logger)
	verifier := middleware.SocketTokenVerifier{Secret: cfg.JWTSecret}
	hub := realtime.NewHub(registry, backbone, verifier, conversationMembership{messages: messageRepo}, cfg.NodeID, logger)
	e.GET("/ws", hub.HandleWS)

	// Device push rides FCM when Firebase is configured
	var devicePusher notify.DevicePusher
	var firebaseAuth *auth.Client
	if firebaseApp != nil {
		firebaseAuth = firebaseApp.AuthClient
		if firebaseApp.MessagingClient != nil {
			devicePusher = push.NewSender(firebaseApp.MessagingClient, deviceTokenRepo, logger)
		}
	}

	fanout := notify.NewFanout(ledger, hub, backbone, hub.NodeID(), devicePusher, logger)

	// Unprotected routes for authentication
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuth, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(authGroup)

	// Protected routes
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	userHandler := handlers.NewUserHandler(userRepo, graph)
	userHandler.RegisterProfileRoutes(api)

	connectionHandler := handlers.NewConnectionHandler(graph, userRepo, fanout)
	connectionHandler.RegisterConnectionRoutes(api)

	postHandler := handlers.NewPostHandler(postRepo, userRepo, likeRepo, fanout)
	postHandler.RegisterPostRoutes(api)

	feedHandler := handlers.NewFeedHandler(postRepo, userRepo, likeRepo, graph)
	feedHandler.RegisterFeedRoutes(api)

	likeHandler := handlers.NewLikeHandler(likeRepo, postRepo, userRepo, fanout)
	likeHandler.RegisterLikeRoutes(api)

	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, userRepo, fanout)
	commentHandler.RegisterCommentRoutes(api)

	jobHandler := handlers.NewJobHandler(jobRepo, userRepo, fanout)
	jobHandler.RegisterJobRoutes(api)

	savedJobHandler := handlers.NewSavedJobHandler(savedJobRepo, jobRepo)
	savedJobHandler.RegisterSavedJobRoutes(api)

	messageHandler := handlers.NewMessageHandler(messageRepo, userRepo, hub, fanout)
	messageHandler.RegisterMessageRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(ledger, userRepo)
	notificationHandler.RegisterNotificationRoutes(api)

	deviceHandler := handlers.NewDeviceHandler(deviceTokenRepo)
	deviceHandler.RegisterDeviceRoutes(api)

	logger.Info("routes configured", slog.String("node_id", hub.NodeID()))
	return hub, nil
}
