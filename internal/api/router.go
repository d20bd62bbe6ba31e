package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/advaitbhat/tripnest/internal/api/agencies"
	"github.com/advaitbhat/tripnest/internal/api/auth"
	"github.com/advaitbhat/tripnest/internal/api/bookings"
	"github.com/advaitbhat/tripnest/internal/api/packages"
	"github.com/advaitbhat/tripnest/internal/api/stats"
	"github.com/advaitbhat/tripnest/internal/config"
	kafkax "github.com/advaitbhat/tripnest/internal/kafka"
	"github.com/advaitbhat/tripnest/internal/middleware"
	authService "github.com/advaitbhat/tripnest/internal/service/auth"
	bookingsService "github.com/advaitbhat/tripnest/internal/service/bookings"
	statsService "github.com/advaitbhat/tripnest/internal/service/stats"
	"github.com/advaitbhat/tripnest/internal/store"
	storeAgencies "github.com/advaitbhat/tripnest/internal/store/agencies"
	storeBookings "github.com/advaitbhat/tripnest/internal/store/bookings"
	storePackages "github.com/advaitbhat/tripnest/internal/store/packages"
	storeReviews "github.com/advaitbhat/tripnest/internal/store/reviews"
	"github.com/advaitbhat/tripnest/internal/store/statscache"
)

// RegisterRoutes wires all HTTP routes.
func RegisterRoutes(r *gin.Engine, log *zap.Logger) {
	r.Use(middleware.MetricsMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "Tripnest",
			"description": "Travel agency booking backend with a per-agency statistics engine.",
			"version":     "1.0.0",
			"endpoints":   []string{"/v1/health", "/v1/bookings", "/v1/statistics", "/v1/packages", "/v1/agencies"},
		})
	})
	r.GET("/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	cfg := config.Load()

	cache := statscache.New(cfg.RedisAddr)
	r.Use(middleware.HybridRateLimit(cache.GetClient(), 50, 100))

	db, err := store.NewDB(context.Background(), cfg.PostgresURL, int32(cfg.MaxDBConnections))
	if err != nil {
		log.Warn("db init failed", zap.Error(err))
		return
	}

	bookingsRepo := storeBookings.NewBookingsRepository(db, log)
	agenciesRepo := storeAgencies.NewAgenciesRepository(db, log)
	packagesRepo := storePackages.NewPackagesRepository(db, log)
	reviewsRepo := storeReviews.NewReviewsRepository(db, log)

	producer := kafkax.NewProducer([]string{cfg.KafkaBrokers}, "bookings")

	bookingsSvc := bookingsService.NewBookingsService(log, bookingsRepo, packagesRepo, producer, cache)
	statsSvc := statsService.NewStatsService(log, bookingsRepo, reviewsRepo, cache, statsService.Options{
		VIPThreshold: cfg.VIPBookingThreshold,
		OverdueSLA:   time.Duration(cfg.OverdueSLAHours) * time.Hour,
		TrendBuckets: cfg.StatsTrendBuckets,
	}, time.Duration(cfg.StatsTimeoutMs)*time.Millisecond)
	authSvc := authService.NewAuthService(log, agenciesRepo, cfg.JWTSigningSecret)

	auth.NewAuthHandler(log, authSvc, cfg.JWTSigningSecret).Register(r)
	agencies.NewAgenciesHandler(log, agenciesRepo, cfg.JWTSigningSecret).Register(r)
	bookings.NewBookingsHandler(bookingsSvc, cfg.JWTSigningSecret).Register(r)
	stats.NewStatsHandler(statsSvc, cfg.JWTSigningSecret).Register(r)
	packages.NewPackagesHandler(log, packagesRepo).Register(r)
}
