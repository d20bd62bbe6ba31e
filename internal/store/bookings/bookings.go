package bookings

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/advaitbhat/tripnest/internal/store"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusCancelled Status = "CANCELLED"
	StatusFinished  Status = "FINISHED"
)

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusFinished
}

type Booking struct {
	ID           string     `json:"id"`
	AgencyID     string     `json:"agency_id"`
	Reference    string     `json:"reference"`
	UserID       string     `json:"user_id"`
	ContactName  string     `json:"contact_name"`
	ContactEmail string     `json:"contact_email"`
	ContactPhone string     `json:"contact_phone"`
	PackageID    string     `json:"package_id"`
	PackageTitle string     `json:"package_title"`
	Destination  string     `json:"destination"`
	Category     string     `json:"category"`
	TotalPrice   float64    `json:"total_price"`
	Currency     string     `json:"currency"`
	Adults       int        `json:"adults"`
	Children     int        `json:"children"`
	Status       Status     `json:"status"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	TravelStart  time.Time  `json:"travel_start"`
	TravelEnd    time.Time  `json:"travel_end"`
	CreatedAt    time.Time  `json:"created_at"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

const bookingColumns = `id, agency_id, reference, user_id, contact_name, contact_email, contact_phone,
	       package_id, package_title, destination, category, total_price, currency,
	       adults, children, status, cancel_reason, travel_start, travel_end,
	       created_at, accepted_at, cancelled_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	b := &Booking{}
	err := row.Scan(
		&b.ID, &b.AgencyID, &b.Reference, &b.UserID, &b.ContactName, &b.ContactEmail, &b.ContactPhone,
		&b.PackageID, &b.PackageTitle, &b.Destination, &b.Category, &b.TotalPrice, &b.Currency,
		&b.Adults, &b.Children, &b.Status, &b.CancelReason, &b.TravelStart, &b.TravelEnd,
		&b.CreatedAt, &b.AcceptedAt, &b.CancelledAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

type BookingsRepository struct {
	db  *store.DB
	log *zap.Logger
}

func NewBookingsRepository(db *store.DB, log *zap.Logger) *BookingsRepository {
	return &BookingsRepository{db: db, log: log}
}

// CreatePending inserts a new booking in PENDING state. The caller fills in the
// denormalized package fields; total_price is fixed here and never updated again.
func (r *BookingsRepository) CreatePending(ctx context.Context, b *Booking) error {
	query := `
		INSERT INTO bookings (agency_id, reference, user_id, contact_name, contact_email, contact_phone,
		                      package_id, package_title, destination, category, total_price, currency,
		                      adults, children, status, travel_start, travel_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 'PENDING', $15, $16)
		RETURNING id, created_at, updated_at`

	b.Status = StatusPending
	return r.db.Pool.QueryRow(ctx, query,
		b.AgencyID, b.Reference, b.UserID, b.ContactName, b.ContactEmail, b.ContactPhone,
		b.PackageID, b.PackageTitle, b.Destination, b.Category, b.TotalPrice, b.Currency,
		b.Adults, b.Children, b.TravelStart, b.TravelEnd,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// GetForAgency returns the booking only if it belongs to the agency, nil when absent.
func (r *BookingsRepository) GetForAgency(ctx context.Context, agencyID, id string) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND agency_id = $2`

	b, err := scanBooking(r.db.Pool.QueryRow(ctx, query, id, agencyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// UpdateStatusCAS performs the compare-and-set status transition. The row is
// updated only when its current status equals `from`; nil is returned when the
// row is missing or has already left that state, so two racing callers can
// never both succeed.
func (r *BookingsRepository) UpdateStatusCAS(ctx context.Context, agencyID, id string, from, to Status, reason string) (*Booking, error) {
	var query string
	args := []any{to, id, agencyID, from}
	switch to {
	case StatusAccepted:
		query = `
			UPDATE bookings
			SET status = $1, accepted_at = now(), updated_at = now()
			WHERE id = $2 AND agency_id = $3 AND status = $4
			RETURNING ` + bookingColumns
	case StatusCancelled:
		query = `
			UPDATE bookings
			SET status = $1, cancelled_at = now(), cancel_reason = $5, updated_at = now()
			WHERE id = $2 AND agency_id = $3 AND status = $4
			RETURNING ` + bookingColumns
		args = append(args, reason)
	default:
		query = `
			UPDATE bookings
			SET status = $1, updated_at = now()
			WHERE id = $2 AND agency_id = $3 AND status = $4
			RETURNING ` + bookingColumns
	}

	b, err := scanBooking(r.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// List returns one page of bookings plus the total match count for the filter.
func (r *BookingsRepository) List(ctx context.Context, agencyID string, f ListFilter) ([]*Booking, int, error) {
	where, args := buildListWhere(agencyID, f)

	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM bookings`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := ` ORDER BY created_at DESC, id ASC`
	if f.Sort == SortOldest {
		order = ` ORDER BY created_at ASC, id ASC`
	}
	n := len(args)
	query := `SELECT ` + bookingColumns + ` FROM bookings` + where + order +
		` LIMIT $` + itoa(n+1) + ` OFFSET $` + itoa(n+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// SnapshotForAgency loads every booking of the agency, optionally limited to a
// created_at window. The aggregation engine works off this slice.
func (r *BookingsRepository) SnapshotForAgency(ctx context.Context, agencyID string, from, to *time.Time) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE agency_id = $1`
	args := []any{agencyID}
	if from != nil {
		args = append(args, *from)
		query += ` AND created_at >= $` + itoa(len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += ` AND created_at <= $` + itoa(len(args))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// ListAgencyIDs returns every agency that owns at least one booking.
func (r *BookingsRepository) ListAgencyIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT DISTINCT agency_id FROM bookings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ChangedBooking is the minimal projection returned by bulk transitions.
type ChangedBooking struct {
	ID           string
	AgencyID     string
	Reference    string
	ContactName  string
	ContactEmail string
	PackageTitle string
}

// CompleteElapsed finishes every ACCEPTED booking whose travel end date has
// passed. Used by the completion checker, not by dashboard actions.
func (r *BookingsRepository) CompleteElapsed(ctx context.Context, now time.Time) ([]ChangedBooking, error) {
	query := `
		UPDATE bookings
		SET status = 'FINISHED', updated_at = now()
		WHERE status = 'ACCEPTED' AND travel_end < $1
		RETURNING id, agency_id, reference, contact_name, contact_email, package_title`

	rows, err := r.db.Pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChangedBooking
	for rows.Next() {
		var c ChangedBooking
		if err := rows.Scan(&c.ID, &c.AgencyID, &c.Reference, &c.ContactName, &c.ContactEmail, &c.PackageTitle); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
