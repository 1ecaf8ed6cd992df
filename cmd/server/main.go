// Package main runs the megagame event management HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pennine-megagames/backend/config"
	"github.com/pennine-megagames/backend/internal/auth"
	"github.com/pennine-megagames/backend/internal/authz"
	"github.com/pennine-megagames/backend/internal/bundle"
	"github.com/pennine-megagames/backend/internal/castlist"
	"github.com/pennine-megagames/backend/internal/convert"
	"github.com/pennine-megagames/backend/internal/dispatch"
	"github.com/pennine-megagames/backend/internal/emaillogs"
	"github.com/pennine-megagames/backend/internal/events"
	"github.com/pennine-megagames/backend/internal/mailer"
	"github.com/pennine-megagames/backend/internal/memberships"
	"github.com/pennine-megagames/backend/internal/middleware"
	"github.com/pennine-megagames/backend/internal/play"
	"github.com/pennine-megagames/backend/internal/roles"
	"github.com/pennine-megagames/backend/internal/signups"
	"github.com/pennine-megagames/backend/internal/teams"
	"github.com/pennine-megagames/backend/pkg/database"
	"github.com/pennine-megagames/backend/pkg/queue"
	"github.com/pennine-megagames/backend/pkg/redis"
	"github.com/pennine-megagames/backend/pkg/response"
	"github.com/pennine-megagames/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Cfg := storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		DocumentsBucket: cfg.AWS.DocumentsBucket,
	}
	s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	converter := convert.NewPandocConverter(cfg.Converter.PandocPath, cfg.Converter.Timeout)
	attachments := convert.NewAttachments(s3Client, converter, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Authorization
	authzRepo := authz.NewRepository(pool)
	decider := authz.NewDecider(authzRepo)

	// Repositories
	eventRepo := events.NewRepository(pool)
	teamRepo := teams.NewRepository(pool)
	roleRepo := roles.NewRepository(pool)
	signupRepo := signups.NewRepository(pool)
	membershipRepo := memberships.NewRepository(pool)
	emailLogRepo := emaillogs.NewRepository(pool)

	// Email dispatch
	sender := mailer.NewSMTPSender(cfg.Email)
	dispatcher := dispatch.NewDispatcher(sender, jobQueue, emailLogRepo, cfg.Dispatch.SyncThreshold, cfg.Server.PublicURL, logger)

	// Cast list assembly and rendering
	loader := &castlist.Loader{
		Teams:      teamRepo,
		Roles:      roleRepo,
		Signups:    signupRepo,
		Organisers: authRepo,
		Members:    membershipRepo,
	}
	castlists := castlist.NewRenderer(converter)

	// Events
	eventHandler := events.NewHandler(eventRepo, decider, s3Client, attachments, loader, castlists, logger)

	// Teams and roles
	teamHandler := teams.NewHandler(teamRepo, decider, s3Client, attachments, logger)
	roleHandler := roles.NewHandler(roleRepo, teamRepo, decider, s3Client, attachments, logger)

	// Signups, CSV import and brief emails
	importer := signups.NewImporter(signups.NewPgTxRunner(pool))
	signupHandler := signups.NewHandler(signupRepo, teamRepo, roleRepo, authRepo, decider, importer, dispatcher, logger)

	// Memberships
	membershipHandler := memberships.NewHandler(membershipRepo, authRepo, decider, sender, cfg.Server.PublicURL, logger)

	// Email logs
	emailLogHandler := emaillogs.NewHandler(emailLogRepo, decider, logger)

	// Player pages and bundles
	bundles := bundle.NewBuilder(s3Client)
	playHandler := play.NewHandler(signupRepo, eventRepo, teamRepo, roleRepo, loader, castlists, bundles, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Player pages (public; the signup UUID is the credential)
	router.GET("/players/:uuid", playHandler.Show)
	router.GET("/players/:uuid/castlist", playHandler.CastList)
	router.GET("/players/:uuid/bundle", playHandler.Bundle)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", eventHandler.Create)
		api.GET("/events/:id", eventHandler.Get)
		api.PATCH("/events/:id", eventHandler.Update)
		api.POST("/events/:id/publish", eventHandler.Publish)
		api.DELETE("/events/:id", eventHandler.Delete)
		api.POST("/events/:id/rulebook", eventHandler.UploadRulebook)
		api.POST("/events/:id/rulebook/convert", eventHandler.ConvertRulebook)
		api.GET("/events/:id/castlist", eventHandler.CastList)

		// Additional documents
		api.GET("/events/:id/documents", eventHandler.ListDocuments)
		api.POST("/events/:id/documents", eventHandler.AddDocument)
		api.DELETE("/events/:id/documents/:docID", eventHandler.DeleteDocument)
		api.POST("/events/:id/documents/:docID/convert", eventHandler.ConvertDocument)

		// Teams
		api.GET("/events/:id/teams", teamHandler.List)
		api.POST("/events/:id/teams", teamHandler.Create)
		api.GET("/events/:id/teams/:teamID", teamHandler.Get)
		api.PATCH("/events/:id/teams/:teamID", teamHandler.Update)
		api.DELETE("/events/:id/teams/:teamID", teamHandler.Delete)
		api.POST("/events/:id/teams/:teamID/image", teamHandler.UploadImage)
		api.POST("/events/:id/teams/:teamID/brief", teamHandler.UploadBrief)
		api.POST("/events/:id/teams/:teamID/brief/convert", teamHandler.ConvertBrief)

		// Roles
		api.GET("/events/:id/teams/:teamID/roles", roleHandler.ListByTeam)
		api.POST("/events/:id/roles", roleHandler.Create)
		api.GET("/events/:id/roles/:roleID", roleHandler.Get)
		api.PATCH("/events/:id/roles/:roleID", roleHandler.Update)
		api.DELETE("/events/:id/roles/:roleID", roleHandler.Delete)
		api.POST("/events/:id/roles/:roleID/brief", roleHandler.UploadBrief)
		api.POST("/events/:id/roles/:roleID/brief/convert", roleHandler.ConvertBrief)

		// Signups
		api.GET("/events/:id/signups", signupHandler.List)
		api.POST("/events/:id/signups", signupHandler.Create)
		api.GET("/events/:id/signups/:signupID", signupHandler.Get)
		api.PATCH("/events/:id/signups/:signupID", signupHandler.Update)
		api.DELETE("/events/:id/signups/:signupID", signupHandler.Delete)
		api.GET("/events/:id/signups/template", signupHandler.Template)
		api.POST("/events/:id/signups/import", signupHandler.Import)
		api.POST("/events/:id/signups/email", signupHandler.EmailAll)
		api.POST("/events/:id/signups/:signupID/email", signupHandler.EmailOne)

		// Memberships
		api.GET("/events/:id/memberships", membershipHandler.List)
		api.POST("/events/:id/memberships", membershipHandler.Create)
		api.PATCH("/events/:id/memberships/:memberID", membershipHandler.Update)
		api.DELETE("/events/:id/memberships/:memberID", membershipHandler.Delete)

		// Email logs
		api.GET("/events/:id/emails", emailLogHandler.List)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
