package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/advaitbhat/tripnest/internal/config"
	"github.com/advaitbhat/tripnest/internal/logger"
	"github.com/advaitbhat/tripnest/internal/metrics"
	statsService "github.com/advaitbhat/tripnest/internal/service/stats"
	"github.com/advaitbhat/tripnest/internal/store"
	storeBookings "github.com/advaitbhat/tripnest/internal/store/bookings"
	storeReviews "github.com/advaitbhat/tripnest/internal/store/reviews"
	"github.com/advaitbhat/tripnest/internal/store/statscache"
)

// Walks every agency and recomputes any statistics entry whose cached version
// fell behind the dirty counter. Meant to run from cron so dashboard reads
// mostly hit a warm cache.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.Env)
	log.Info("statistics reconciliation starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := store.NewDB(ctx, cfg.PostgresURL, int32(cfg.MaxDBConnections))
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	cache := statscache.New(cfg.RedisAddr)
	defer cache.Close()

	bookingsRepo := storeBookings.NewBookingsRepository(db, log)
	reviewsRepo := storeReviews.NewReviewsRepository(db, log)
	statsSvc := statsService.NewStatsService(log, bookingsRepo, reviewsRepo, cache, statsService.Options{
		VIPThreshold: cfg.VIPBookingThreshold,
		OverdueSLA:   time.Duration(cfg.OverdueSLAHours) * time.Hour,
		TrendBuckets: cfg.StatsTrendBuckets,
	}, time.Duration(cfg.StatsTimeoutMs)*time.Millisecond)

	metrics.ReconciliationRunsTotal.Inc()

	ids, err := bookingsRepo.ListAgencyIDs(ctx)
	if err != nil {
		log.Fatal("list agencies", zap.Error(err))
	}

	fixed := 0
	for _, agencyID := range ids {
		version, err := cache.Version(ctx, agencyID)
		if err != nil {
			log.Error("version read failed", zap.Error(err), zap.String("agency_id", agencyID))
			continue
		}
		entry, err := cache.Get(ctx, agencyID)
		if err != nil {
			log.Error("cache read failed", zap.Error(err), zap.String("agency_id", agencyID))
			continue
		}
		if entry != nil && entry.Version == version {
			continue
		}
		if _, err := statsSvc.GetStatistics(ctx, agencyID, nil); err != nil {
			log.Error("recompute failed", zap.Error(err), zap.String("agency_id", agencyID))
			continue
		}
		metrics.ReconciliationFixesTotal.Inc()
		fixed++
	}

	log.Info("statistics reconciliation finished", zap.Int("agencies", len(ids)), zap.Int("recomputed", fixed))
}
