package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	statsService "github.com/advaitbhat/tripnest/internal/service/stats"
	storeBookings "github.com/advaitbhat/tripnest/internal/store/bookings"
)

type mockStats struct{ mock.Mock }

func (m *mockStats) GetStatistics(ctx context.Context, agencyID string, filter *statsService.StatsFilter) (*statsService.AgencyStatistics, error) {
	args := m.Called(ctx, agencyID, filter)
	var st *statsService.AgencyStatistics
	if v := args.Get(0); v != nil {
		st = v.(*statsService.AgencyStatistics)
	}
	return st, args.Error(1)
}

func testContext(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Set("aid", "agency-1")
	return c, w
}

func TestStatsHandler_Unfiltered(t *testing.T) {
	svc := new(mockStats)
	svc.On("GetStatistics", mock.Anything, "agency-1", (*statsService.StatsFilter)(nil)).
		Return(&statsService.AgencyStatistics{AgencyID: "agency-1"}, nil)

	h := NewStatsHandler(svc, "secret")
	c, w := testContext(t, "/v1/statistics")

	h.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var got statsService.AgencyStatistics
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "agency-1", got.AgencyID)
	svc.AssertExpectations(t)
}

func TestStatsHandler_ParsesStatusFilter(t *testing.T) {
	svc := new(mockStats)
	svc.On("GetStatistics", mock.Anything, "agency-1", mock.MatchedBy(func(f *statsService.StatsFilter) bool {
		return f != nil && len(f.Statuses) == 2 &&
			f.Statuses[0] == storeBookings.StatusAccepted &&
			f.Statuses[1] == storeBookings.StatusFinished
	})).Return(&statsService.AgencyStatistics{AgencyID: "agency-1"}, nil)

	h := NewStatsHandler(svc, "secret")
	c, w := testContext(t, "/v1/statistics?status=accepted,finished")

	h.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestStatsHandler_ParsesDateWindow(t *testing.T) {
	svc := new(mockStats)
	svc.On("GetStatistics", mock.Anything, "agency-1", mock.MatchedBy(func(f *statsService.StatsFilter) bool {
		return f != nil && f.From != nil && f.To != nil && f.To.After(*f.From)
	})).Return(&statsService.AgencyStatistics{AgencyID: "agency-1"}, nil)

	h := NewStatsHandler(svc, "secret")
	c, w := testContext(t, "/v1/statistics?from=2025-01-01T00:00:00Z&to=2025-06-30T00:00:00Z")

	h.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestStatsHandler_BadDateRejected(t *testing.T) {
	svc := new(mockStats)
	h := NewStatsHandler(svc, "secret")
	c, w := testContext(t, "/v1/statistics?from=lastweek")

	h.get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "GetStatistics", mock.Anything, mock.Anything, mock.Anything)
}
