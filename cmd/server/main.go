package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/WismutNaN/resource-queue/internal/config"
	"github.com/WismutNaN/resource-queue/internal/database"
	"github.com/WismutNaN/resource-queue/internal/engine"
	"github.com/WismutNaN/resource-queue/internal/handler"
	"github.com/WismutNaN/resource-queue/internal/history"
	"github.com/WismutNaN/resource-queue/internal/ledger"
	"github.com/WismutNaN/resource-queue/internal/middleware"
	"github.com/WismutNaN/resource-queue/internal/queue"
	"github.com/WismutNaN/resource-queue/internal/registry"
	"github.com/WismutNaN/resource-queue/internal/repository"
	"github.com/WismutNaN/resource-queue/internal/router"
	notify_publisher "github.com/WismutNaN/resource-queue/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()

	// Storage: MySQL when configured, memory otherwise.
	var (
		store registry.Store
		rec   history.Recorder
	)
	if cfg.DBHost != "" {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, database.Pool{
			MaxOpen:     cfg.DBMaxOpen,
			MaxIdle:     cfg.DBMaxIdle,
			MaxLifetime: cfg.DBMaxLifetime,
		})
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		store = repository.NewResourceRepo(db)
		rec = repository.NewHistoryRepo(db)
	} else {
		log.Println("DB_HOST not set, running with in-memory storage")
		rec = history.NewMemoryRecorder(cfg.HistoryKeep)
	}

	reg, err := registry.New(ctx, store)
	if err != nil {
		log.Fatalf("registry: %v", err)
	}

	pub := notify_publisher.New()
	defer pub.Close()

	eng := engine.New(engine.Config{
		MaxBookingMinutes:    cfg.MaxBookingMinutes,
		MaxSessionMinutes:    cfg.MaxSessionMinutes,
		MaxQueueLen:          cfg.MaxQueueLen,
		AllowQueueOnFree:     cfg.QueueOnFreeBooks,
		PurgeHistoryOnDelete: cfg.PurgeHistory,
		ExpiryWarning:        cfg.ExpiryWarning,
	}, reg, ledger.New(), ledger.NewSubscriptions(), rec, pub)

	go func() {
		if err := queue.StartNotifyConsumer(); err != nil {
			log.Printf("notify consumer: %v", err)
		}
	}()

	sweeper := engine.NewSweeper(eng, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	names := middleware.NewNameCache()

	e := echo.New()
	router.Register(e, router.Deps{
		Admin:   handler.NewAdminHandler(eng),
		Booking: handler.NewBookingHandler(eng),
		Status:  handler.NewStatusHandler(eng, names, cfg.Presets),
		Names:   names,
		Secret:  cfg.JWTSecret,
		Rdb:     config.NewRedisClient(),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	if err := e.Shutdown(context.Background()); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
