package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gomodule/redigo/redis"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shortmark/internal/auth"
	"shortmark/internal/cache"
	"shortmark/internal/config"
	"shortmark/internal/handler"
	"shortmark/internal/i18n"
	"shortmark/internal/mailer"
	"shortmark/internal/repository"
	"shortmark/internal/service"
	"shortmark/internal/stats"
	"shortmark/pkg/logging"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.InitLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()
	logger.Info("Application started")

	db, err := repository.InitDB(cfg.DB, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	// redis 未启用时使用空实现：不缓存，也不记录 PV/UV
	var (
		pool      *redis.Pool
		linkCache cache.LinkCache = cache.NopLinkCache{}
		recorder  stats.Recorder  = stats.NopRecorder{}
	)
	if cfg.Redis.Enabled {
		pool, err = repository.InitRedis(cfg.Redis, logger)
		if err != nil {
			logger.Fatal("Failed to initialize redis", zap.Error(err))
		}
		linkCache = cache.NewRedisLinkCache(pool, cfg.ShortLink.CacheTTL)
		recorder = stats.NewRedisRecorder(pool, logger)
	}

	translator, err := i18n.InitI18n("en")
	if err != nil {
		logger.Fatal("Failed to load i18n messages", zap.Error(err))
	}

	links := repository.NewShortLinkRepository(db)
	bookmarks := repository.NewBookmarkRepository(db)
	users := repository.NewUserRepository(db)
	whitelist := repository.NewWhitelistRepository(db)
	daily := repository.NewStatsRepository(db)

	statsService := service.NewStatsService(links, daily, recorder, logger)
	svc := handler.Services{
		Users: service.NewUserService(service.UserDeps{
			Users:        users,
			Tokens:       auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
			Mailer:       mailer.NewLogMailer(logger),
			Logger:       logger,
			BaseURL:      cfg.Server.BaseURL,
			IsAdminEmail: cfg.IsAdminEmail,
		}),
		Bookmarks: service.NewBookmarkService(bookmarks, links, logger),
		ShortLinks: service.NewShortLinkService(service.ShortLinkDeps{
			Links:            links,
			Bookmarks:        bookmarks,
			Whitelist:        whitelist,
			Stats:            daily,
			Cache:            linkCache,
			Recorder:         recorder,
			Logger:           logger,
			EnforceWhitelist: cfg.ShortLink.EnforceWhitelist,
		}),
		Whitelist: service.NewWhitelistService(whitelist, logger),
		Stats:     statsService,
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := handler.NewRouter(handler.New(svc, cfg.Server.BaseURL, logger), translator, logger)
	if err != nil {
		logger.Fatal("Failed to build router", zap.Error(err))
	}

	scheduler := cron.New()
	if recorder.Enabled() {
		_, err := scheduler.AddFunc(cfg.Stats.Cron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := statsService.SyncDailyStats(ctx); err != nil {
				logger.Error("Failed to sync daily stats via cron job", zap.Error(err))
			}
		})
		if err != nil {
			logger.Fatal("Failed to schedule cron job", zap.String("spec", cfg.Stats.Cron), zap.Error(err))
		}
		scheduler.Start()
	}

	startServer(router, cfg.Server.Addr, logger)

	<-scheduler.Stop().Done()
	closeResources(db, pool, logger)
	logger.Info("Server exiting")
}

func startServer(r *gin.Engine, addr string, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server is running on " + addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}

func closeResources(db *gorm.DB, pool *redis.Pool, logger *zap.Logger) {
	if pool != nil {
		if err := pool.Close(); err != nil {
			logger.Warn("Redis pool close failed", zap.Error(err))
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Database close failed", zap.Error(err))
		}
	}
}
