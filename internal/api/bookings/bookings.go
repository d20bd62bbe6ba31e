package bookings

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	jwtMiddleware "github.com/advaitbhat/tripnest/internal/middleware"
	bookingsService "github.com/advaitbhat/tripnest/internal/service/bookings"
	storeBookings "github.com/advaitbhat/tripnest/internal/store/bookings"
)

// BookingUseCase is implemented by the bookings service.
type BookingUseCase interface {
	Create(ctx context.Context, req bookingsService.CreateBookingRequest) (*storeBookings.Booking, error)
	Get(ctx context.Context, agencyID, bookingID string) (*storeBookings.Booking, error)
	List(ctx context.Context, agencyID string, f storeBookings.ListFilter) ([]*storeBookings.Booking, int, error)
	Accept(ctx context.Context, agencyID, bookingID string) (*storeBookings.Booking, error)
	Cancel(ctx context.Context, agencyID, bookingID, reason string) (*storeBookings.Booking, error)
}

type BookingsHandler struct {
	svc    BookingUseCase
	secret string
}

func NewBookingsHandler(svc BookingUseCase, secret string) *BookingsHandler {
	return &BookingsHandler{svc: svc, secret: secret}
}

func (h *BookingsHandler) Register(r *gin.Engine) {
	// Intake is called by the public site, not the dashboard.
	r.POST("/v1/bookings", h.create)

	protected := r.Group("/v1/bookings")
	protected.Use(jwtMiddleware.Middleware(h.secret))
	{
		protected.GET("", h.list)
		protected.GET("/:id", h.get)
		protected.POST("/:id/accept", h.accept)
		protected.POST("/:id/cancel", h.cancel)
	}
}

func (h *BookingsHandler) create(c *gin.Context) {
	var req bookingsService.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingsHandler) list(c *gin.Context) {
	agencyID := c.GetString("aid")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	f := storeBookings.ListFilter{
		Status:    storeBookings.Status(c.Query("status")),
		PackageID: c.Query("package_id"),
		Query:     c.Query("q"),
		Sort:      c.Query("sort"),
		Limit:     limit,
		Offset:    offset,
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unparseable from date"})
			return
		}
		f.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unparseable to date"})
			return
		}
		f.To = &t
	}

	items, total, err := h.svc.List(c.Request.Context(), agencyID, f)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": items, "total": total, "limit": f.Limit, "offset": f.Offset})
}

func (h *BookingsHandler) get(c *gin.Context) {
	b, err := h.svc.Get(c.Request.Context(), c.GetString("aid"), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingsHandler) accept(c *gin.Context) {
	b, err := h.svc.Accept(c.Request.Context(), c.GetString("aid"), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingsHandler) cancel(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	b, err := h.svc.Cancel(c.Request.Context(), c.GetString("aid"), c.Param("id"), req.Reason)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingsHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, bookingsService.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, bookingsService.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, bookingsService.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
