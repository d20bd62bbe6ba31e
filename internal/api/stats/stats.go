package stats

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	jwtMiddleware "github.com/advaitbhat/tripnest/internal/middleware"
	statsService "github.com/advaitbhat/tripnest/internal/service/stats"
	storeBookings "github.com/advaitbhat/tripnest/internal/store/bookings"
)

// StatisticsUseCase is implemented by the stats service.
type StatisticsUseCase interface {
	GetStatistics(ctx context.Context, agencyID string, filter *statsService.StatsFilter) (*statsService.AgencyStatistics, error)
}

type StatsHandler struct {
	svc    StatisticsUseCase
	secret string
}

func NewStatsHandler(svc StatisticsUseCase, secret string) *StatsHandler {
	return &StatsHandler{svc: svc, secret: secret}
}

func (h *StatsHandler) Register(r *gin.Engine) {
	protected := r.Group("/v1/statistics")
	protected.Use(jwtMiddleware.Middleware(h.secret))
	{
		protected.GET("", h.get)
	}
}

func (h *StatsHandler) get(c *gin.Context) {
	agencyID := c.GetString("aid")

	var filter *statsService.StatsFilter
	if c.Query("from") != "" || c.Query("to") != "" || c.Query("status") != "" {
		filter = &statsService.StatsFilter{}
		if v := c.Query("from"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unparseable from date"})
				return
			}
			filter.From = &t
		}
		if v := c.Query("to"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unparseable to date"})
				return
			}
			filter.To = &t
		}
		if v := c.Query("status"); v != "" {
			for _, s := range strings.Split(v, ",") {
				filter.Statuses = append(filter.Statuses, storeBookings.Status(strings.ToUpper(strings.TrimSpace(s))))
			}
		}
	}

	st, err := h.svc.GetStatistics(c.Request.Context(), agencyID, filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}
