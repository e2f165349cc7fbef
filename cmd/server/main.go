package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"studentms/internal/config"
	"studentms/internal/db"
	"studentms/internal/docstore"
	internalhttp "studentms/internal/http"
	"studentms/internal/jobs"
	"studentms/internal/ratelimit"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("mysql connection failed", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := db.Migrate(sqlDB); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	store := db.NewStore(sqlDB)

	mongoClient, err := docstore.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("mongo connection failed", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Warn("mongo disconnect error", zap.Error(err))
		}
	}()
	docs := docstore.NewStore(mongoClient, cfg.MongoDB)
	if err := docs.EnsureIndexes(ctx); err != nil {
		logger.Fatal("mongo index init failed", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Fatal("redis ping failed", zap.Error(err))
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close error", zap.Error(err))
			}
		}()
	}
	limiter := ratelimit.New(redisClient, cfg.LoginAttemptLimit, cfg.LoginAttemptWindow)

	server := internalhttp.NewServer(cfg, store, docs, limiter, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	jobs.StartActivitySweep(ctx, docs, cfg.ActivityRetention, cfg.ActivitySweepInterval, logger)

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
}
