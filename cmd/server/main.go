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
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs-lzh/hotel-management/config"
	"github.com/qs-lzh/hotel-management/internal/app"
	"github.com/qs-lzh/hotel-management/internal/cache"
	"github.com/qs-lzh/hotel-management/internal/handler"
	"github.com/qs-lzh/hotel-management/internal/mq"
	"github.com/qs-lzh/hotel-management/internal/repository"
	"github.com/qs-lzh/hotel-management/internal/util"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := util.NewLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	var (
		db    *gorm.DB
		store repository.Store
	)
	if cfg.DBDriver == repository.DriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		store = repository.NewMemoryStore()
	} else {
		var err error
		db, err = repository.OpenDB(cfg.DBDriver, cfg.DatabaseDSN, logger, cfg.IsDevelopment())
		if err != nil {
			return err
		}
		store = repository.NewGormStore(db)
		logger.Info("database connected", zap.String("driver", cfg.DBDriver))
	}

	var redisCache *cache.RedisCache
	if cfg.CacheURL != "" {
		var err error
		redisCache, err = cache.NewRedisCache(ctx, cfg.CacheURL)
		if err != nil {
			return err
		}
		logger.Info("redis connected")
	}

	var mqConn *amqp.Connection
	if cfg.MQURL != "" {
		var err error
		mqConn, err = mq.NewMQConn(cfg.MQURL)
		if err != nil {
			return err
		}
		logger.Info("rabbitmq connected")
	}

	application := app.New(cfg, logger, db, store, redisCache, mqConn)
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("failed to release resources", zap.Error(err))
		}
	}()
	if err := application.Init(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.NewRouter(application),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}
