package bookings

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	kafkax "github.com/advaitbhat/tripnest/internal/kafka"
	"github.com/advaitbhat/tripnest/internal/metrics"
	storeBookings "github.com/advaitbhat/tripnest/internal/store/bookings"
)

// CompletionRepository is the store slice the checker needs.
type CompletionRepository interface {
	CompleteElapsed(ctx context.Context, now time.Time) ([]storeBookings.ChangedBooking, error)
}

// CompletionChecker finishes accepted bookings whose travel dates have passed.
// This is the scheduler collaborator that owns the ACCEPTED -> FINISHED edge;
// there is no dashboard action for it.
type CompletionChecker struct {
	log  *zap.Logger
	repo CompletionRepository
	prod Producer
	inv  Invalidator
}

func NewCompletionChecker(log *zap.Logger, repo CompletionRepository, prod Producer, inv Invalidator) *CompletionChecker {
	return &CompletionChecker{log: log, repo: repo, prod: prod, inv: inv}
}

// CheckOnce completes all elapsed bookings and emits one BookingChanged per row.
func (c *CompletionChecker) CheckOnce(ctx context.Context) (int, error) {
	changed, err := c.repo.CompleteElapsed(ctx, time.Now())
	if err != nil {
		c.log.Error("Failed to complete elapsed bookings", zap.Error(err))
		return 0, err
	}

	for _, b := range changed {
		metrics.BookingTransitionsTotal.WithLabelValues(string(storeBookings.StatusFinished), "ok").Inc()
		if c.inv != nil {
			if err := c.inv.Invalidate(ctx, b.AgencyID); err != nil {
				c.log.Error("stats invalidation failed", zap.Error(err), zap.String("agency_id", b.AgencyID))
			}
		}
		if c.prod != nil {
			event := kafkax.BookingChanged{
				Type:         "booking_changed",
				AgencyID:     b.AgencyID,
				BookingID:    b.ID,
				Reference:    b.Reference,
				Status:       string(storeBookings.StatusFinished),
				ContactName:  b.ContactName,
				ContactEmail: b.ContactEmail,
				PackageTitle: b.PackageTitle,
				OccurredAt:   time.Now().UTC(),
			}
			by, _ := json.Marshal(event)
			if err := c.prod.Publish(ctx, []byte(b.AgencyID), by); err != nil {
				c.log.Error("kafka publish error", zap.Error(err), zap.String("booking_id", b.ID))
			}
		}
	}

	if len(changed) > 0 {
		c.log.Info("Completed elapsed bookings", zap.Int("count", len(changed)))
	}
	return len(changed), nil
}

// RunPeriodicCheck runs CheckOnce on a fixed interval until the context ends.
func (c *CompletionChecker) RunPeriodicCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.log.Info("Starting periodic booking completion checker", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			c.log.Info("Stopping periodic booking completion checker")
			return
		case <-ticker.C:
			if _, err := c.CheckOnce(ctx); err != nil {
				c.log.Error("Periodic completion check failed", zap.Error(err))
			}
		}
	}
}
