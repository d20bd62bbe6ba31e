package stats

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/advaitbhat/tripnest/internal/metrics"
	"github.com/advaitbhat/tripnest/internal/store/bookings"
	"github.com/advaitbhat/tripnest/internal/store/reviews"
	"github.com/advaitbhat/tripnest/internal/store/statscache"
)

// ErrAggregationTimeout is internal: GetStatistics recovers from it by serving
// the last cached aggregate with the stale flag set.
var ErrAggregationTimeout = errors.New("statistics aggregation timed out")

// BookingSource supplies the booking snapshot for one agency.
type BookingSource interface {
	SnapshotForAgency(ctx context.Context, agencyID string, from, to *time.Time) ([]bookings.Booking, error)
}

// RatingSource supplies review data from the feedback collaborator.
type RatingSource interface {
	RatingsForAgency(ctx context.Context, agencyID string) ([]reviews.Rating, error)
}

// Cache is the per-agency statistics cache with its dirty counter.
type Cache interface {
	Version(ctx context.Context, agencyID string) (int64, error)
	Get(ctx context.Context, agencyID string) (*statscache.Entry, error)
	Put(ctx context.Context, agencyID string, e statscache.Entry) error
}

type StatsService struct {
	log     *zap.Logger
	source  BookingSource
	ratings RatingSource
	cache   Cache
	opts    Options
	timeout time.Duration
}

func NewStatsService(log *zap.Logger, source BookingSource, ratings RatingSource, cache Cache, opts Options, timeout time.Duration) *StatsService {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &StatsService{log: log, source: source, ratings: ratings, cache: cache, opts: opts, timeout: timeout}
}

// GetStatistics returns the agency aggregate. The unfiltered request is served
// from the cache when no booking changed since the last compute; filtered
// requests are always computed fresh. A recompute that blows its budget
// degrades to the last cached value with Stale set, never a hard failure.
func (s *StatsService) GetStatistics(ctx context.Context, agencyID string, filter *StatsFilter) (*AgencyStatistics, error) {
	if filter != nil && filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, errors.New("date range end before start")
	}

	if !filter.empty() {
		st, err := s.compute(ctx, agencyID, filter)
		if err != nil {
			if errors.Is(err, ErrAggregationTimeout) {
				return s.degrade(ctx, agencyID)
			}
			return nil, err
		}
		return st, nil
	}

	// Read the dirty counter before anything else: if a mutation lands while
	// we compute, the stored version is already behind the counter and the
	// next read recomputes.
	version, err := s.cache.Version(ctx, agencyID)
	if err != nil {
		s.log.Warn("stats version read failed, recomputing", zap.Error(err), zap.String("agency_id", agencyID))
		version = -1
	}

	entry, err := s.cache.Get(ctx, agencyID)
	if err != nil {
		s.log.Warn("stats cache read failed", zap.Error(err), zap.String("agency_id", agencyID))
		entry = nil
	}
	if entry != nil && version >= 0 && entry.Version == version {
		var cached AgencyStatistics
		if err := json.Unmarshal(entry.Payload, &cached); err == nil {
			metrics.StatsCacheTotal.WithLabelValues("hit").Inc()
			return &cached, nil
		}
	}
	metrics.StatsCacheTotal.WithLabelValues("miss").Inc()

	st, err := s.compute(ctx, agencyID, nil)
	if err != nil {
		if errors.Is(err, ErrAggregationTimeout) {
			return s.degradeWith(entry, agencyID)
		}
		return nil, err
	}

	if version >= 0 {
		payload, merr := json.Marshal(st)
		if merr == nil {
			if perr := s.cache.Put(ctx, agencyID, statscache.Entry{Version: version, ComputedAt: st.ComputedAt, Payload: payload}); perr != nil {
				s.log.Warn("stats cache write failed", zap.Error(perr), zap.String("agency_id", agencyID))
			}
		}
	}
	return st, nil
}

// compute loads the snapshot under the timeout budget and runs the engine.
// The engine itself is in-memory; the snapshot read is what can stall.
func (s *StatsService) compute(ctx context.Context, agencyID string, filter *StatsFilter) (*AgencyStatistics, error) {
	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var from, to *time.Time
	window := StatsFilter{}
	if filter != nil {
		from, to = filter.From, filter.To
		window = *filter
	}

	snapshot, err := s.source.SnapshotForAgency(cctx, agencyID, from, to)
	if err != nil {
		if cctx.Err() != nil {
			metrics.StatsRecomputeTotal.WithLabelValues("timeout").Inc()
			return nil, ErrAggregationTimeout
		}
		metrics.StatsRecomputeTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if filter != nil && len(filter.Statuses) > 0 {
		keep := map[bookings.Status]bool{}
		for _, st := range filter.Statuses {
			keep[st] = true
		}
		filtered := snapshot[:0]
		for _, b := range snapshot {
			if keep[b.Status] {
				filtered = append(filtered, b)
			}
		}
		snapshot = filtered
	}

	ratings, err := s.ratings.RatingsForAgency(cctx, agencyID)
	if err != nil {
		if cctx.Err() != nil {
			metrics.StatsRecomputeTotal.WithLabelValues("timeout").Inc()
			return nil, ErrAggregationTimeout
		}
		// Feedback is an external collaborator; its failure should not take
		// the whole aggregate down.
		s.log.Warn("ratings read failed, serving statistics without feedback", zap.Error(err), zap.String("agency_id", agencyID))
		ratings = nil
	}

	st := Compute(agencyID, snapshot, ratings, time.Now().UTC(), window, s.opts)
	metrics.StatsRecomputeTotal.WithLabelValues("ok").Inc()
	metrics.StatsRecomputeDuration.Observe(time.Since(start).Seconds())
	return &st, nil
}

func (s *StatsService) degrade(ctx context.Context, agencyID string) (*AgencyStatistics, error) {
	entry, err := s.cache.Get(ctx, agencyID)
	if err != nil {
		entry = nil
	}
	return s.degradeWith(entry, agencyID)
}

// degradeWith serves the last cached aggregate marked stale, or an all-zero
// aggregate when nothing was ever cached.
func (s *StatsService) degradeWith(entry *statscache.Entry, agencyID string) (*AgencyStatistics, error) {
	metrics.StatsCacheTotal.WithLabelValues("stale").Inc()
	if entry != nil {
		var cached AgencyStatistics
		if err := json.Unmarshal(entry.Payload, &cached); err == nil {
			cached.Stale = true
			s.log.Warn("serving stale statistics after aggregation timeout", zap.String("agency_id", agencyID))
			return &cached, nil
		}
	}
	st := Compute(agencyID, nil, nil, time.Now().UTC(), StatsFilter{}, s.opts)
	st.Stale = true
	return &st, nil
}
