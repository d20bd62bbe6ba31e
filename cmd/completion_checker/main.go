package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/advaitbhat/tripnest/internal/config"
	kafkax "github.com/advaitbhat/tripnest/internal/kafka"
	"github.com/advaitbhat/tripnest/internal/logger"
	bookingsService "github.com/advaitbhat/tripnest/internal/service/bookings"
	"github.com/advaitbhat/tripnest/internal/store"
	storeBookings "github.com/advaitbhat/tripnest/internal/store/bookings"
	"github.com/advaitbhat/tripnest/internal/store/statscache"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.Env)
	log.Info("completion checker starting")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := store.NewDB(ctx, cfg.PostgresURL, int32(cfg.MaxDBConnections))
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	cache := statscache.New(cfg.RedisAddr)
	defer cache.Close()

	producer := kafkax.NewProducer([]string{cfg.KafkaBrokers}, "bookings")
	defer producer.Close()

	bookingsRepo := storeBookings.NewBookingsRepository(db, log)
	checker := bookingsService.NewCompletionChecker(log, bookingsRepo, producer, cache)

	interval := time.Duration(cfg.CompletionCheckIntervalMin) * time.Minute
	checker.RunPeriodicCheck(ctx, interval)

	log.Info("completion checker stopped")
}
