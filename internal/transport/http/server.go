package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "medilens/internal/app"
	"medilens/internal/bootstrap"
	"medilens/internal/cache"
	"medilens/internal/extract"
	"medilens/internal/platform/rabbitmq"
	"medilens/internal/prefs"
	"medilens/internal/repository"
	"medilens/internal/transport/http/handler"
	"medilens/internal/transport/http/middleware"
	"medilens/internal/upload"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())
	router.MaxMultipartMemory = app.Config.Upload.MaxFileSizeBytes

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	sessionRepo := repository.NewSessionRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)
	uploadRepo := repository.NewUploadRecordRepository(app.MySQL)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	publisher := mqPublisher(app)
	prefsStore := prefs.NewStore(app.Redis)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	chatService := appsvc.NewChatService(
		sessionRepo,
		messageRepo,
		userRepo,
		publisher,
		historyCache,
		app.Webhook,
		app.Logger,
	)
	uploadService := appsvc.NewUploadService(
		upload.NewValidator(app.Config.Upload.MaxFileSizeBytes),
		extract.NewDispatcher(recognizerOrNil(app)),
		uploadRepo,
		userRepo,
		app.Config.OCR.DefaultLanguage,
		app.Logger,
	)

	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService, uploadService)
	uploadHandler := handler.NewUploadHandler(uploadService, app.Config.Upload.MaxFileSizeBytes)
	prefsHandler := handler.NewPreferenceHandler(prefsStore)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	chatGroup.POST("/sessions", chatHandler.CreateSession)
	chatGroup.GET("/sessions", chatHandler.ListSessions)
	chatGroup.DELETE("/sessions/:id", chatHandler.DeleteSession)
	chatGroup.POST("/messages", chatHandler.SendMessage)
	chatGroup.GET("/history", chatHandler.GetHistory)

	uploadGroup := v1.Group("/uploads")
	uploadGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	uploadGroup.POST("", uploadHandler.Process)
	uploadGroup.GET("", uploadHandler.List)

	prefsGroup := v1.Group("/preferences")
	prefsGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	prefsGroup.GET("/:key", prefsHandler.Get)
	prefsGroup.PUT("/:key", prefsHandler.Set)
	prefsGroup.DELETE("/:key", prefsHandler.Delete)

	return router
}

// mqPublisher returns nil when RabbitMQ is absent so the chat service can
// fall back to logging unpersisted messages.
func mqPublisher(app *bootstrap.App) appsvc.AsyncMessagePublisher {
	if app.MQConn == nil {
		return nil
	}
	return rabbitmq.NewMessagePublisher(app.MQConn, app.Config.RabbitMQ.MessagePersistQueue)
}

func recognizerOrNil(app *bootstrap.App) extract.Recognizer {
	if app.Recognizer == nil {
		return nil
	}
	return app.Recognizer
}
