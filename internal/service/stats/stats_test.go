package stats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/advaitbhat/tripnest/internal/store/bookings"
	"github.com/advaitbhat/tripnest/internal/store/reviews"
	"github.com/advaitbhat/tripnest/internal/store/statscache"
)

type mockSource struct{ mock.Mock }

func (m *mockSource) SnapshotForAgency(ctx context.Context, agencyID string, from, to *time.Time) ([]bookings.Booking, error) {
	args := m.Called(ctx, agencyID, from, to)
	var snap []bookings.Booking
	if v := args.Get(0); v != nil {
		snap = v.([]bookings.Booking)
	}
	return snap, args.Error(1)
}

type mockRatings struct{ mock.Mock }

func (m *mockRatings) RatingsForAgency(ctx context.Context, agencyID string) ([]reviews.Rating, error) {
	args := m.Called(ctx, agencyID)
	var rs []reviews.Rating
	if v := args.Get(0); v != nil {
		rs = v.([]reviews.Rating)
	}
	return rs, args.Error(1)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Version(ctx context.Context, agencyID string) (int64, error) {
	args := m.Called(ctx, agencyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCache) Get(ctx context.Context, agencyID string) (*statscache.Entry, error) {
	args := m.Called(ctx, agencyID)
	var e *statscache.Entry
	if v := args.Get(0); v != nil {
		e = v.(*statscache.Entry)
	}
	return e, args.Error(1)
}

func (m *mockCache) Put(ctx context.Context, agencyID string, e statscache.Entry) error {
	args := m.Called(ctx, agencyID, e)
	return args.Error(0)
}

func cachedEntry(t *testing.T, version int64, st AgencyStatistics) *statscache.Entry {
	t.Helper()
	payload, err := json.Marshal(st)
	assert.NoError(t, err)
	return &statscache.Entry{Version: version, ComputedAt: st.ComputedAt, Payload: payload}
}

func TestGetStatistics_CacheHit(t *testing.T) {
	source := new(mockSource)
	ratings := new(mockRatings)
	cache := new(mockCache)

	cached := AgencyStatistics{AgencyID: "agency-1"}
	cached.Bookings.Total = 7
	cache.On("Version", mock.Anything, "agency-1").Return(int64(3), nil)
	cache.On("Get", mock.Anything, "agency-1").Return(cachedEntry(t, 3, cached), nil)

	svc := NewStatsService(zap.NewNop(), source, ratings, cache, testOpts, time.Second)
	st, err := svc.GetStatistics(context.Background(), "agency-1", nil)

	assert.NoError(t, err)
	assert.Equal(t, 7, st.Bookings.Total)
	assert.False(t, st.Stale)
	// No source call was expected; the snapshot never got loaded.
	source.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestGetStatistics_VersionMismatchRecomputes(t *testing.T) {
	source := new(mockSource)
	ratings := new(mockRatings)
	cache := new(mockCache)

	stale := AgencyStatistics{AgencyID: "agency-1"}
	stale.Bookings.Total = 7
	cache.On("Version", mock.Anything, "agency-1").Return(int64(4), nil)
	cache.On("Get", mock.Anything, "agency-1").Return(cachedEntry(t, 3, stale), nil)

	snapshot := []bookings.Booking{
		booking("b1", "u1", bookings.StatusFinished, 100, time.Now().UTC().Add(-time.Hour)),
	}
	source.On("SnapshotForAgency", mock.Anything, "agency-1", (*time.Time)(nil), (*time.Time)(nil)).Return(snapshot, nil)
	ratings.On("RatingsForAgency", mock.Anything, "agency-1").Return(nil, nil)

	// The stored entry carries the version read before the snapshot, so a
	// mutation landing mid-compute still forces the next read to recompute.
	cache.On("Put", mock.Anything, "agency-1", mock.MatchedBy(func(e statscache.Entry) bool {
		return e.Version == 4
	})).Return(nil)

	svc := NewStatsService(zap.NewNop(), source, ratings, cache, testOpts, time.Second)
	st, err := svc.GetStatistics(context.Background(), "agency-1", nil)

	assert.NoError(t, err)
	assert.Equal(t, 1, st.Bookings.Total)
	assert.False(t, st.Stale)
	cache.AssertExpectations(t)
	source.AssertExpectations(t)
}

func TestGetStatistics_VersionReadFailureSkipsCacheWrite(t *testing.T) {
	source := new(mockSource)
	ratings := new(mockRatings)
	cache := new(mockCache)

	cache.On("Version", mock.Anything, "agency-1").Return(int64(0), assert.AnError)
	cache.On("Get", mock.Anything, "agency-1").Return(nil, assert.AnError)
	source.On("SnapshotForAgency", mock.Anything, "agency-1", (*time.Time)(nil), (*time.Time)(nil)).Return(nil, nil)
	ratings.On("RatingsForAgency", mock.Anything, "agency-1").Return(nil, nil)

	svc := NewStatsService(zap.NewNop(), source, ratings, cache, testOpts, time.Second)
	st, err := svc.GetStatistics(context.Background(), "agency-1", nil)

	assert.NoError(t, err)
	assert.Equal(t, 0, st.Bookings.Total)
	// Put must not be called when the version is unknown.
	cache.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetStatistics_TimeoutServesStaleCache(t *testing.T) {
	source := new(mockSource)
	ratings := new(mockRatings)
	cache := new(mockCache)

	cached := AgencyStatistics{AgencyID: "agency-1"}
	cached.Bookings.Total = 7
	cache.On("Version", mock.Anything, "agency-1").Return(int64(5), nil)
	cache.On("Get", mock.Anything, "agency-1").Return(cachedEntry(t, 4, cached), nil)

	source.On("SnapshotForAgency", mock.Anything, "agency-1", (*time.Time)(nil), (*time.Time)(nil)).
		Run(func(args mock.Arguments) { time.Sleep(60 * time.Millisecond) }).
		Return(nil, context.DeadlineExceeded)

	svc := NewStatsService(zap.NewNop(), source, ratings, cache, testOpts, 20*time.Millisecond)
	st, err := svc.GetStatistics(context.Background(), "agency-1", nil)

	assert.NoError(t, err)
	assert.True(t, st.Stale)
	assert.Equal(t, 7, st.Bookings.Total)
	cache.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetStatistics_TimeoutWithEmptyCacheServesZeroes(t *testing.T) {
	source := new(mockSource)
	ratings := new(mockRatings)
	cache := new(mockCache)

	cache.On("Version", mock.Anything, "agency-1").Return(int64(0), nil)
	cache.On("Get", mock.Anything, "agency-1").Return(nil, nil)
	source.On("SnapshotForAgency", mock.Anything, "agency-1", (*time.Time)(nil), (*time.Time)(nil)).
		Run(func(args mock.Arguments) { time.Sleep(60 * time.Millisecond) }).
		Return(nil, context.DeadlineExceeded)

	svc := NewStatsService(zap.NewNop(), source, ratings, cache, testOpts, 20*time.Millisecond)
	st, err := svc.GetStatistics(context.Background(), "agency-1", nil)

	assert.NoError(t, err)
	assert.True(t, st.Stale)
	assert.Equal(t, 0, st.Bookings.Total)
}

func TestGetStatistics_FilteredBypassesCache(t *testing.T) {
	source := new(mockSource)
	ratings := new(mockRatings)
	cache := new(mockCache)

	from := time.Now().UTC().Add(-30 * 24 * time.Hour)
	snapshot := []bookings.Booking{
		booking("b1", "u1", bookings.StatusFinished, 100, time.Now().UTC().Add(-time.Hour)),
		booking("b2", "u2", bookings.StatusPending, 100, time.Now().UTC().Add(-2*time.Hour)),
	}
	source.On("SnapshotForAgency", mock.Anything, "agency-1", &from, (*time.Time)(nil)).Return(snapshot, nil)
	ratings.On("RatingsForAgency", mock.Anything, "agency-1").Return(nil, nil)

	svc := NewStatsService(zap.NewNop(), source, ratings, cache, testOpts, time.Second)
	st, err := svc.GetStatistics(context.Background(), "agency-1", &StatsFilter{
		From:     &from,
		Statuses: []bookings.Status{bookings.StatusFinished},
	})

	assert.NoError(t, err)
	// The status filter dropped the pending booking in memory.
	assert.Equal(t, 1, st.Bookings.Total)
	cache.AssertNotCalled(t, "Version", mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetStatistics_RatingsFailureIsNonFatal(t *testing.T) {
	source := new(mockSource)
	ratings := new(mockRatings)
	cache := new(mockCache)

	cache.On("Version", mock.Anything, "agency-1").Return(int64(1), nil)
	cache.On("Get", mock.Anything, "agency-1").Return(nil, nil)
	cache.On("Put", mock.Anything, "agency-1", mock.Anything).Return(nil)
	snapshot := []bookings.Booking{
		booking("b1", "u1", bookings.StatusFinished, 100, time.Now().UTC().Add(-time.Hour)),
	}
	source.On("SnapshotForAgency", mock.Anything, "agency-1", (*time.Time)(nil), (*time.Time)(nil)).Return(snapshot, nil)
	ratings.On("RatingsForAgency", mock.Anything, "agency-1").Return(nil, assert.AnError)

	svc := NewStatsService(zap.NewNop(), source, ratings, cache, testOpts, time.Second)
	st, err := svc.GetStatistics(context.Background(), "agency-1", nil)

	assert.NoError(t, err)
	assert.Equal(t, 1, st.Bookings.Total)
	assert.Equal(t, 0, st.Feedback.TotalRatings)
}

func TestGetStatistics_RejectsInvertedDateRange(t *testing.T) {
	svc := NewStatsService(zap.NewNop(), new(mockSource), new(mockRatings), new(mockCache), testOpts, time.Second)

	from := time.Now().UTC()
	to := from.Add(-time.Hour)
	_, err := svc.GetStatistics(context.Background(), "agency-1", &StatsFilter{From: &from, To: &to})

	assert.Error(t, err)
}
