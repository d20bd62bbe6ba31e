package bookings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildListWhere_AgencyOnly(t *testing.T) {
	where, args := buildListWhere("agency-1", ListFilter{})

	assert.Equal(t, ` WHERE agency_id = $1`, where)
	assert.Equal(t, []any{"agency-1"}, args)
}

func TestBuildListWhere_AllFilters(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	f := ListFilter{
		Status:    StatusPending,
		From:      &from,
		To:        &to,
		PackageID: "p1",
		Query:     "ana",
	}

	where, args := buildListWhere("agency-1", f)

	assert.Equal(t,
		` WHERE agency_id = $1 AND status = $2 AND created_at >= $3 AND created_at <= $4`+
			` AND package_id = $5 AND (contact_name ILIKE $6 OR contact_email ILIKE $6)`,
		where)
	assert.Equal(t, []any{"agency-1", StatusPending, from, to, "p1", "%ana%"}, args)
}

func TestBuildListWhere_Deterministic(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f := ListFilter{Status: StatusAccepted, From: &from, Query: "smith"}

	first, _ := buildListWhere("agency-1", f)
	second, _ := buildListWhere("agency-1", f)

	assert.Equal(t, first, second)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusAccepted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusFinished.Terminal())
}
