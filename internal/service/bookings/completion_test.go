package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	storeBookings "github.com/advaitbhat/tripnest/internal/store/bookings"
)

type mockCompletionRepo struct{ mock.Mock }

func (m *mockCompletionRepo) CompleteElapsed(ctx context.Context, now time.Time) ([]storeBookings.ChangedBooking, error) {
	args := m.Called(ctx, now)
	var cs []storeBookings.ChangedBooking
	if v := args.Get(0); v != nil {
		cs = v.([]storeBookings.ChangedBooking)
	}
	return cs, args.Error(1)
}

func TestCheckOnce_CompletesAndNotifies(t *testing.T) {
	repo := new(mockCompletionRepo)
	prod := new(mockProducer)
	inv := new(mockInvalidator)

	repo.On("CompleteElapsed", mock.Anything, mock.Anything).Return([]storeBookings.ChangedBooking{
		{ID: "b1", AgencyID: "agency-1", Reference: "TN-AAAA1111"},
		{ID: "b2", AgencyID: "agency-2", Reference: "TN-BBBB2222"},
	}, nil)
	inv.On("Invalidate", mock.Anything, "agency-1").Return(nil)
	inv.On("Invalidate", mock.Anything, "agency-2").Return(nil)
	prod.On("Publish", mock.Anything, []byte("agency-1"), mock.Anything).Return(nil)
	prod.On("Publish", mock.Anything, []byte("agency-2"), mock.Anything).Return(nil)

	checker := NewCompletionChecker(zap.NewNop(), repo, prod, inv)
	n, err := checker.CheckOnce(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	inv.AssertExpectations(t)
	prod.AssertExpectations(t)
}

func TestCheckOnce_NothingElapsed(t *testing.T) {
	repo := new(mockCompletionRepo)
	repo.On("CompleteElapsed", mock.Anything, mock.Anything).Return(nil, nil)

	checker := NewCompletionChecker(zap.NewNop(), repo, nil, nil)
	n, err := checker.CheckOnce(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCheckOnce_RepoErrorSurfaces(t *testing.T) {
	repo := new(mockCompletionRepo)
	repo.On("CompleteElapsed", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	checker := NewCompletionChecker(zap.NewNop(), repo, nil, nil)
	_, err := checker.CheckOnce(context.Background())

	assert.Error(t, err)
}
