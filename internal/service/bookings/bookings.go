package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	kafkax "github.com/advaitbhat/tripnest/internal/kafka"
	"github.com/advaitbhat/tripnest/internal/metrics"
	"github.com/advaitbhat/tripnest/internal/store/bookings"
	"github.com/advaitbhat/tripnest/internal/store/packages"
)

var (
	// ErrNotFound means the booking does not exist or belongs to another agency.
	ErrNotFound = errors.New("booking not found")
	// ErrInvalidTransition means the requested status change is not legal from
	// the booking's current state. Losers of a concurrent race get this too.
	ErrInvalidTransition = errors.New("invalid booking transition")
	// ErrValidation means the request itself is malformed.
	ErrValidation = errors.New("validation error")
)

// Repository is the slice of the booking store the state machine needs.
type Repository interface {
	CreatePending(ctx context.Context, b *bookings.Booking) error
	GetForAgency(ctx context.Context, agencyID, id string) (*bookings.Booking, error)
	UpdateStatusCAS(ctx context.Context, agencyID, id string, from, to bookings.Status, reason string) (*bookings.Booking, error)
	List(ctx context.Context, agencyID string, f bookings.ListFilter) ([]*bookings.Booking, int, error)
}

// Catalog resolves travel packages at intake time.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*packages.TravelPackage, error)
}

// Producer publishes BookingChanged events.
type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Invalidator marks an agency's cached statistics as stale. This is the
// statistics cache consuming the BookingChanged signal; it happens
// synchronously so a dashboard read right after a mutation sees fresh numbers.
type Invalidator interface {
	Invalidate(ctx context.Context, agencyID string) error
}

type BookingsService struct {
	log     *zap.Logger
	repo    Repository
	catalog Catalog
	prod    Producer
	inv     Invalidator
}

func NewBookingsService(log *zap.Logger, repo Repository, catalog Catalog, prod Producer, inv Invalidator) *BookingsService {
	return &BookingsService{log: log, repo: repo, catalog: catalog, prod: prod, inv: inv}
}

type CreateBookingRequest struct {
	AgencyID     string    `json:"agency_id" binding:"required"`
	PackageID    string    `json:"package_id" binding:"required"`
	UserID       string    `json:"user_id" binding:"required"`
	ContactName  string    `json:"contact_name" binding:"required"`
	ContactEmail string    `json:"contact_email" binding:"required,email"`
	ContactPhone string    `json:"contact_phone"`
	Adults       int       `json:"adults"`
	Children     int       `json:"children"`
	TravelStart  time.Time `json:"travel_start" binding:"required"`
	TravelEnd    time.Time `json:"travel_end" binding:"required"`
}

// Create is the booking intake path: resolves the package, denormalizes its
// reporting fields onto the booking and inserts it in PENDING state. The price
// is fixed here; nothing mutates it afterwards.
func (s *BookingsService) Create(ctx context.Context, req CreateBookingRequest) (*bookings.Booking, error) {
	if req.Adults < 1 {
		return nil, fmt.Errorf("%w: at least one adult is required", ErrValidation)
	}
	if req.Children < 0 {
		return nil, fmt.Errorf("%w: children must not be negative", ErrValidation)
	}
	if req.TravelEnd.Before(req.TravelStart) {
		return nil, fmt.Errorf("%w: travel end before travel start", ErrValidation)
	}

	pkg, err := s.catalog.GetByID(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil || pkg.AgencyID != req.AgencyID {
		return nil, fmt.Errorf("%w: unknown package", ErrValidation)
	}

	b := &bookings.Booking{
		AgencyID:     req.AgencyID,
		Reference:    newReference(),
		UserID:       req.UserID,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		PackageID:    pkg.ID,
		PackageTitle: pkg.Title,
		Destination:  pkg.Destination,
		Category:     pkg.Category,
		TotalPrice:   pkg.Price * float64(req.Adults+req.Children),
		Currency:     pkg.Currency,
		Adults:       req.Adults,
		Children:     req.Children,
		TravelStart:  req.TravelStart,
		TravelEnd:    req.TravelEnd,
	}

	if err := s.repo.CreatePending(ctx, b); err != nil {
		return nil, err
	}
	s.emitChanged(ctx, b)
	return b, nil
}

// Accept moves PENDING -> ACCEPTED. Deliberately not idempotent: a second
// accept observes InvalidTransition so double submissions surface to the caller.
func (s *BookingsService) Accept(ctx context.Context, agencyID, bookingID string) (*bookings.Booking, error) {
	b, err := s.repo.UpdateStatusCAS(ctx, agencyID, bookingID, bookings.StatusPending, bookings.StatusAccepted, "")
	if err != nil {
		metrics.BookingTransitionsTotal.WithLabelValues(string(bookings.StatusAccepted), "error").Inc()
		return nil, err
	}
	if b == nil {
		return nil, s.transitionFailure(ctx, agencyID, bookingID, bookings.StatusAccepted)
	}

	metrics.BookingTransitionsTotal.WithLabelValues(string(bookings.StatusAccepted), "ok").Inc()
	s.emitChanged(ctx, b)
	return b, nil
}

// Cancel moves PENDING or ACCEPTED -> CANCELLED. The booking row stays; the
// terminal status is what keeps historical statistics reproducible.
func (s *BookingsService) Cancel(ctx context.Context, agencyID, bookingID, reason string) (*bookings.Booking, error) {
	cur, err := s.repo.GetForAgency(ctx, agencyID, bookingID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotFound
	}
	if cur.Status.Terminal() {
		return nil, fmt.Errorf("%w: booking is already %s", ErrInvalidTransition, strings.ToLower(string(cur.Status)))
	}

	b, err := s.repo.UpdateStatusCAS(ctx, agencyID, bookingID, cur.Status, bookings.StatusCancelled, reason)
	if err != nil {
		metrics.BookingTransitionsTotal.WithLabelValues(string(bookings.StatusCancelled), "error").Inc()
		return nil, err
	}
	if b == nil {
		// The booking left cur.Status between our read and the CAS.
		return nil, s.transitionFailure(ctx, agencyID, bookingID, bookings.StatusCancelled)
	}

	metrics.BookingTransitionsTotal.WithLabelValues(string(bookings.StatusCancelled), "ok").Inc()
	s.emitChanged(ctx, b)
	return b, nil
}

// Complete moves ACCEPTED -> FINISHED. Triggered by the completion checker
// when the travel date elapses, not by dashboard users.
func (s *BookingsService) Complete(ctx context.Context, agencyID, bookingID string) (*bookings.Booking, error) {
	b, err := s.repo.UpdateStatusCAS(ctx, agencyID, bookingID, bookings.StatusAccepted, bookings.StatusFinished, "")
	if err != nil {
		metrics.BookingTransitionsTotal.WithLabelValues(string(bookings.StatusFinished), "error").Inc()
		return nil, err
	}
	if b == nil {
		return nil, s.transitionFailure(ctx, agencyID, bookingID, bookings.StatusFinished)
	}

	metrics.BookingTransitionsTotal.WithLabelValues(string(bookings.StatusFinished), "ok").Inc()
	s.emitChanged(ctx, b)
	return b, nil
}

func (s *BookingsService) Get(ctx context.Context, agencyID, bookingID string) (*bookings.Booking, error) {
	b, err := s.repo.GetForAgency(ctx, agencyID, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

// List validates the filter and returns one deterministic page plus the total.
func (s *BookingsService) List(ctx context.Context, agencyID string, f bookings.ListFilter) ([]*bookings.Booking, int, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		return nil, 0, fmt.Errorf("%w: limit must be at most 200", ErrValidation)
	}
	if f.Offset < 0 {
		return nil, 0, fmt.Errorf("%w: offset must not be negative", ErrValidation)
	}
	if f.Sort == "" {
		f.Sort = bookings.SortNewest
	}
	if f.Sort != bookings.SortNewest && f.Sort != bookings.SortOldest {
		return nil, 0, fmt.Errorf("%w: sort must be %q or %q", ErrValidation, bookings.SortNewest, bookings.SortOldest)
	}
	if f.Status != "" {
		switch f.Status {
		case bookings.StatusPending, bookings.StatusAccepted, bookings.StatusCancelled, bookings.StatusFinished:
		default:
			return nil, 0, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
		}
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, 0, fmt.Errorf("%w: date range end before start", ErrValidation)
	}
	return s.repo.List(ctx, agencyID, f)
}

// transitionFailure decides whether a failed CAS was a missing booking or an
// illegal source state, and builds the caller-facing error.
func (s *BookingsService) transitionFailure(ctx context.Context, agencyID, bookingID string, to bookings.Status) error {
	metrics.BookingTransitionsTotal.WithLabelValues(string(to), "conflict").Inc()
	cur, err := s.repo.GetForAgency(ctx, agencyID, bookingID)
	if err != nil {
		return err
	}
	if cur == nil {
		return ErrNotFound
	}
	return fmt.Errorf("%w: cannot move %s booking to %s", ErrInvalidTransition, strings.ToLower(string(cur.Status)), strings.ToLower(string(to)))
}

// emitChanged publishes the BookingChanged event and bumps the agency's stats
// version. Publish failures are logged, never surfaced: the transition itself
// already committed.
func (s *BookingsService) emitChanged(ctx context.Context, b *bookings.Booking) {
	if s.inv != nil {
		if err := s.inv.Invalidate(ctx, b.AgencyID); err != nil {
			s.log.Error("stats invalidation failed", zap.Error(err), zap.String("agency_id", b.AgencyID))
		}
	}
	if s.prod == nil {
		return
	}
	event := kafkax.BookingChanged{
		Type:         "booking_changed",
		AgencyID:     b.AgencyID,
		BookingID:    b.ID,
		Reference:    b.Reference,
		Status:       string(b.Status),
		ContactName:  b.ContactName,
		ContactEmail: b.ContactEmail,
		PackageTitle: b.PackageTitle,
		OccurredAt:   time.Now().UTC(),
	}
	by, _ := json.Marshal(event)
	if err := s.prod.Publish(ctx, []byte(b.AgencyID), by); err != nil {
		s.log.Error("kafka publish error", zap.Error(err), zap.String("booking_id", b.ID))
	}
}

// newReference builds the human-readable booking reference shown on the dashboard.
func newReference() string {
	return "TN-" + strings.ToUpper(uuid.NewString()[:8])
}
