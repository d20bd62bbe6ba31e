package packages

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/advaitbhat/tripnest/internal/store"
)

// TravelPackage is the catalog entry bookings are made against. Title,
// destination and category are denormalized onto bookings at intake time so
// reports stay correct if the package is edited later.
type TravelPackage struct {
	ID           string    `json:"id"`
	AgencyID     string    `json:"agency_id"`
	Title        string    `json:"title"`
	Destination  string    `json:"destination"`
	Category     string    `json:"category"`
	Price        float64   `json:"price"`
	Currency     string    `json:"currency"`
	DurationDays int       `json:"duration_days"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PackagesRepository struct {
	db  *store.DB
	log *zap.Logger
}

func NewPackagesRepository(db *store.DB, log *zap.Logger) *PackagesRepository {
	return &PackagesRepository{db: db, log: log}
}

func (r *PackagesRepository) GetByID(ctx context.Context, id string) (*TravelPackage, error) {
	query := `
		SELECT id, agency_id, title, destination, category, price, currency, duration_days, active, created_at, updated_at
		FROM packages
		WHERE id = $1`

	p := &TravelPackage{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.AgencyID, &p.Title, &p.Destination, &p.Category,
		&p.Price, &p.Currency, &p.DurationDays, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *PackagesRepository) ListByAgency(ctx context.Context, agencyID string, limit, offset int) ([]*TravelPackage, error) {
	query := `
		SELECT id, agency_id, title, destination, category, price, currency, duration_days, active, created_at, updated_at
		FROM packages
		WHERE agency_id = $1 AND active = true
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Pool.Query(ctx, query, agencyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TravelPackage
	for rows.Next() {
		p := &TravelPackage{}
		err := rows.Scan(
			&p.ID, &p.AgencyID, &p.Title, &p.Destination, &p.Category,
			&p.Price, &p.Currency, &p.DurationDays, &p.Active, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
