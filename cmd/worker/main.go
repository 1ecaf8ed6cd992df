// Package main runs the background job worker that delivers queued brief emails.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pennine-megagames/backend/config"
	"github.com/pennine-megagames/backend/internal/auth"
	"github.com/pennine-megagames/backend/internal/dispatch"
	"github.com/pennine-megagames/backend/internal/emaillogs"
	"github.com/pennine-megagames/backend/internal/events"
	"github.com/pennine-megagames/backend/internal/mailer"
	"github.com/pennine-megagames/backend/internal/signups"
	"github.com/pennine-megagames/backend/internal/worker"
	"github.com/pennine-megagames/backend/pkg/database"
	"github.com/pennine-megagames/backend/pkg/queue"
	"github.com/pennine-megagames/backend/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	eventRepo := events.NewRepository(pool)
	signupRepo := signups.NewRepository(pool)
	authRepo := auth.NewRepository(pool)
	emailLogRepo := emaillogs.NewRepository(pool)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	sender := mailer.NewSMTPSender(cfg.Email)
	dispatcher := dispatch.NewDispatcher(sender, jobQueue, emailLogRepo, cfg.Dispatch.SyncThreshold, cfg.Server.PublicURL, logger)
	processor := worker.NewBriefEmailProcessor(eventRepo, authRepo, signupRepo, dispatcher, jobQueue, cfg.Dispatch.BatchSize, cfg.Dispatch.BatchPause, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
