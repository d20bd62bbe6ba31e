package agencies

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/advaitbhat/tripnest/internal/store"
)

// Agency is the tenant entity. Social links are a persisted jsonb column on
// the agency row, keyed by platform name.
type Agency struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Website      string            `json:"website,omitempty"`
	Description  string            `json:"description,omitempty"`
	SocialLinks  map[string]string `json:"social_links,omitempty"`
	PasswordHash string            `json:"-"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type AgenciesRepository struct {
	db  *store.DB
	log *zap.Logger
}

func NewAgenciesRepository(db *store.DB, log *zap.Logger) *AgenciesRepository {
	return &AgenciesRepository{db: db, log: log}
}

func (r *AgenciesRepository) Create(ctx context.Context, a *Agency) (*Agency, error) {
	query := `
		INSERT INTO agencies (name, email, phone, website, description, social_links, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.Pool.QueryRow(ctx, query, a.Name, a.Email, a.Phone, a.Website, a.Description, a.SocialLinks, a.PasswordHash).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AgenciesRepository) GetByID(ctx context.Context, id string) (*Agency, error) {
	query := `
		SELECT id, name, email, phone, website, description, social_links, password_hash, created_at, updated_at
		FROM agencies
		WHERE id = $1`

	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *AgenciesRepository) GetByEmail(ctx context.Context, email string) (*Agency, error) {
	query := `
		SELECT id, name, email, phone, website, description, social_links, password_hash, created_at, updated_at
		FROM agencies
		WHERE email = $1`

	return r.scanOne(r.db.Pool.QueryRow(ctx, query, email))
}

// UpdateProfile replaces the mutable profile fields, social links included.
func (r *AgenciesRepository) UpdateProfile(ctx context.Context, a *Agency) (*Agency, error) {
	query := `
		UPDATE agencies
		SET name = $1, phone = $2, website = $3, description = $4, social_links = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at`

	err := r.db.Pool.QueryRow(ctx, query, a.Name, a.Phone, a.Website, a.Description, a.SocialLinks, a.ID).
		Scan(&a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *AgenciesRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE agencies SET password_hash = $1, updated_at = now() WHERE id = $2`

	result, err := r.db.Pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *AgenciesRepository) scanOne(row pgx.Row) (*Agency, error) {
	a := &Agency{}
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.Phone, &a.Website, &a.Description,
		&a.SocialLinks, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}
