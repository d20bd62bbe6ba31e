package reviews

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/advaitbhat/tripnest/internal/store"
)

// Rating is one customer review of a finished booking. The feedback pipeline
// that writes these lives outside this service; the statistics engine only
// reads them.
type Rating struct {
	ID        string    `json:"id"`
	AgencyID  string    `json:"agency_id"`
	BookingID string    `json:"booking_id"`
	PackageID string    `json:"package_id"`
	UserID    string    `json:"user_id"`
	Stars     int       `json:"stars"` // 1..5
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewsRepository struct {
	db  *store.DB
	log *zap.Logger
}

func NewReviewsRepository(db *store.DB, log *zap.Logger) *ReviewsRepository {
	return &ReviewsRepository{db: db, log: log}
}

func (r *ReviewsRepository) RatingsForAgency(ctx context.Context, agencyID string) ([]Rating, error) {
	query := `
		SELECT id, agency_id, booking_id, package_id, user_id, stars, comment, created_at
		FROM reviews
		WHERE agency_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Pool.Query(ctx, query, agencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rating
	for rows.Next() {
		var rt Rating
		if err := rows.Scan(&rt.ID, &rt.AgencyID, &rt.BookingID, &rt.PackageID, &rt.UserID, &rt.Stars, &rt.Comment, &rt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}
