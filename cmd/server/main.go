// Точка входа сервера: конфиг, БД, Redis, S3, миграции, движок допусков, sweep, graceful shutdown.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dlnn-tech/taxi-driver-app/internal/auth"
	"github.com/dlnn-tech/taxi-driver-app/internal/config"
	"github.com/dlnn-tech/taxi-driver-app/internal/db"
	"github.com/dlnn-tech/taxi-driver-app/internal/drivers"
	"github.com/dlnn-tech/taxi-driver-app/internal/i18n"
	"github.com/dlnn-tech/taxi-driver-app/internal/migrations"
	"github.com/dlnn-tech/taxi-driver-app/internal/orderrouting"
	"github.com/dlnn-tech/taxi-driver-app/internal/permits"
	"github.com/dlnn-tech/taxi-driver-app/internal/redis"
	"github.com/dlnn-tech/taxi-driver-app/internal/router"
	"github.com/dlnn-tech/taxi-driver-app/internal/storage"
	"github.com/dlnn-tech/taxi-driver-app/internal/store"
	"github.com/dlnn-tech/taxi-driver-app/internal/sweep"
)

func main() {
	// Подгружаем .env из текущей или родительских папок (для go run без ручного export).
	config.LoadDotEnvUp(8)

	// Загрузка конфигурации из переменных окружения (секреты не в репозитории).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("zap: %v", err)
	}
	defer logger.Sync()

	// Загрузка переводов i18n (ru, en, uz) из встроенных JSON.
	if err := i18n.Load(); err != nil {
		logger.Fatal("i18n", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Подключение к PostgreSQL (пул, таймауты, graceful close при выходе).
	pool, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	defer db.Close(pool, cfg.Server.ShutdownTimeout)

	// Запуск миграций при старте (Go-код; SQL-файлы — для cmd/migrate).
	if err := migrations.NewRunner(pool).Up(ctx); err != nil {
		logger.Fatal("migrations", zap.Error(err))
	}

	// Redis: rate limit, лимиты отправки OTP, кэш статуса заказов.
	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer redis.Close(rdb)

	// S3-совместимое хранилище фотографий допуска.
	objects, err := storage.NewS3Storage(cfg.Storage)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	routing := orderrouting.NewClient(cfg.Routing)
	driverRepo := drivers.NewRepo(pool)
	permitRepo := permits.NewRepo(pool)
	engine := permits.NewService(permitRepo, driverRepo, routing, objects, permits.Config{
		MaxPhotoBytes: cfg.Uploads.MaxPhotoBytes,
		AllowedMIME:   cfg.Uploads.AllowedMIME,
	}, logger)

	// Фоновый проход: истечение допусков и досинхронизация платформы.
	sweep.Start(ctx, engine, cfg.Sweep.Interval, logger)

	validator := auth.NewStubValidator(cfg.Security)
	r := router.New(router.Dependencies{
		AuthValidator: validator,
		RateLimitRPS:  cfg.Security.RateLimitRPS,
		Redis:         rdb,
		Pool:          pool,
		Drivers:       driverRepo,
		Permits:       engine,
		Routing:       routing,
		StatusCache:   store.NewStatusCache(rdb, time.Minute),
		Security:      cfg.Security,
		Uploads:       cfg.Uploads,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// Ожидание SIGINT/SIGTERM для корректного завершения.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stop() // останавливает sweep

	// Graceful shutdown: завершение активных запросов в пределах таймаута.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
