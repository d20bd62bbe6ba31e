package bookings

import (
	"strconv"
	"time"
)

const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// ListFilter narrows a booking listing. Zero values mean "no constraint".
// Ordering is deterministic: created_at per Sort, ties broken by id ascending.
type ListFilter struct {
	Status    Status
	From      *time.Time
	To        *time.Time
	PackageID string
	Query     string
	Sort      string
	Limit     int
	Offset    int
}

// buildListWhere renders the WHERE clause shared by the page and count queries.
// Clause order is fixed so identical filters always produce identical SQL.
func buildListWhere(agencyID string, f ListFilter) (string, []any) {
	where := ` WHERE agency_id = $1`
	args := []any{agencyID}

	if f.Status != "" {
		args = append(args, f.Status)
		where += ` AND status = $` + itoa(len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where += ` AND created_at >= $` + itoa(len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += ` AND created_at <= $` + itoa(len(args))
	}
	if f.PackageID != "" {
		args = append(args, f.PackageID)
		where += ` AND package_id = $` + itoa(len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := itoa(len(args))
		where += ` AND (contact_name ILIKE $` + n + ` OR contact_email ILIKE $` + n + `)`
	}
	return where, args
}

func itoa(n int) string { return strconv.Itoa(n) }
