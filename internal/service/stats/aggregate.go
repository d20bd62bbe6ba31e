package stats

import (
	"math"
	"sort"
	"time"

	"github.com/advaitbhat/tripnest/internal/store/bookings"
	"github.com/advaitbhat/tripnest/internal/store/reviews"
)

// Options tune the aggregation thresholds. Zero values fall back to defaults.
type Options struct {
	VIPThreshold int           // booking count at which a customer becomes VIP
	OverdueSLA   time.Duration // pending older than this counts as overdue
	TrendBuckets int           // fixed sparkline length
}

func (o Options) withDefaults() Options {
	if o.VIPThreshold <= 0 {
		o.VIPThreshold = 5
	}
	if o.OverdueSLA <= 0 {
		o.OverdueSLA = 48 * time.Hour
	}
	if o.TrendBuckets <= 0 {
		o.TrendBuckets = 8
	}
	return o
}

// revenueCounts reports whether a booking contributes to revenue aggregates.
// Policy: only money the agency has actually committed to (accepted) or earned
// (finished). Cancelled and still-pending bookings are excluded.
func revenueCounts(s bookings.Status) bool {
	return s == bookings.StatusAccepted || s == bookings.StatusFinished
}

// Compute derives the full agency aggregate from one booking snapshot plus
// ratings. Pure: same inputs, same output. Trend bucketing is daily when the
// window spans at most 60 days, monthly otherwise.
func Compute(agencyID string, snapshot []bookings.Booking, ratings []reviews.Rating, now time.Time, window StatsFilter, opts Options) AgencyStatistics {
	opts = opts.withDefaults()

	out := AgencyStatistics{
		AgencyID:   agencyID,
		ComputedAt: now,
		Seasonal:   make([]MonthBucket, 0, 12),
	}

	total := len(snapshot)
	out.Bookings.Total = total

	// Status distribution from integer counts; percentages rounded to one
	// decimal so the counts always sum exactly to the total.
	statusOrder := []bookings.Status{bookings.StatusPending, bookings.StatusAccepted, bookings.StatusCancelled, bookings.StatusFinished}
	statusCounts := map[bookings.Status]int{}
	for _, b := range snapshot {
		statusCounts[b.Status]++
	}
	for _, st := range statusOrder {
		out.Bookings.StatusDistribution = append(out.Bookings.StatusDistribution, StatusCount{
			Status:     st,
			Count:      statusCounts[st],
			Percentage: percent(statusCounts[st], total),
		})
	}

	// Destination and category breakdowns, revenue included per item.
	out.Bookings.ByDestination = breakdown(snapshot, total, func(b bookings.Booking) string { return b.Destination })
	out.Bookings.ByCategory = breakdown(snapshot, total, func(b bookings.Booking) string { return b.Category })
	out.Bookings.TopDestinations = topN(out.Bookings.ByDestination, 5)

	// Revenue rollups.
	var revenue float64
	revenueBookings := 0
	for _, b := range snapshot {
		if revenueCounts(b.Status) {
			revenue += b.TotalPrice
			revenueBookings++
		}
	}
	out.Revenue.Total = revenue
	out.Revenue.AveragePerBooking = ratio(revenue, revenueBookings)
	out.Revenue.ByDestination = revenueBreakdown(snapshot, func(b bookings.Booking) string { return b.Destination })
	out.Revenue.ByCategory = revenueBreakdown(snapshot, func(b bookings.Booking) string { return b.Category })

	// Per-customer rollups drive segmentation, top customers and LTV.
	type customer struct {
		userID   string
		name     string
		email    string
		count    int
		spent    float64
		earliest time.Time
	}
	customers := map[string]*customer{}
	for _, b := range snapshot {
		c := customers[b.UserID]
		if c == nil {
			c = &customer{userID: b.UserID, name: b.ContactName, email: b.ContactEmail, earliest: b.CreatedAt}
			customers[b.UserID] = c
		}
		c.count++
		if b.CreatedAt.Before(c.earliest) {
			c.earliest = b.CreatedAt
		}
		if revenueCounts(b.Status) {
			c.spent += b.TotalPrice
		}
	}
	out.Customers.Total = len(customers)
	out.Revenue.AveragePerCustomer = ratio(revenue, len(customers))
	out.Customers.AverageLifetimeValue = out.Revenue.AveragePerCustomer

	repeat := 0
	for _, c := range customers {
		switch {
		case c.count >= opts.VIPThreshold:
			out.Customers.VIP++
			repeat++
		case c.count > 1:
			out.Customers.Returning++
			repeat++
		default:
			out.Customers.New++
		}
	}
	out.Customers.RepeatRate = percent(repeat, len(customers))

	// Top customers by spend; ties go to the longer-standing customer.
	ranked := make([]*customer, 0, len(customers))
	for _, c := range customers {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].spent != ranked[j].spent {
			return ranked[i].spent > ranked[j].spent
		}
		if !ranked[i].earliest.Equal(ranked[j].earliest) {
			return ranked[i].earliest.Before(ranked[j].earliest)
		}
		return ranked[i].userID < ranked[j].userID
	})
	for i, c := range ranked {
		if i == 5 {
			break
		}
		out.Revenue.TopCustomers = append(out.Revenue.TopCustomers, TopCustomer{
			UserID:         c.userID,
			Name:           c.name,
			Email:          c.email,
			Bookings:       c.count,
			TotalSpent:     round2(c.spent),
			FirstBookingAt: c.earliest,
		})
	}

	// Booking metrics and operational counters.
	cancelled := statusCounts[bookings.StatusCancelled]
	pending := statusCounts[bookings.StatusPending]
	overdue := 0
	var decisionHours float64
	decided := 0
	for _, b := range snapshot {
		if b.Status == bookings.StatusPending && now.Sub(b.CreatedAt) > opts.OverdueSLA {
			overdue++
		}
		if b.AcceptedAt != nil {
			decisionHours += b.AcceptedAt.Sub(b.CreatedAt).Hours()
			decided++
		} else if b.CancelledAt != nil {
			decisionHours += b.CancelledAt.Sub(b.CreatedAt).Hours()
			decided++
		}
	}
	out.Bookings.Metrics = BookingMetrics{
		AverageValue:     ratio(revenue, revenueBookings),
		CancellationRate: percent(cancelled, total),
		PendingCount:     pending,
		OverdueCount:     overdue,
	}
	out.Operations = OperationalStats{
		PendingCount:     pending,
		OverdueCount:     overdue,
		AvgDecisionHours: roundRate(ratio(decisionHours, decided)),
	}

	// Performance rates over bookings that left PENDING.
	decidedTotal := total - pending
	out.Performance = PerformanceStats{
		AcceptanceRate:   percent(statusCounts[bookings.StatusAccepted]+statusCounts[bookings.StatusFinished], decidedTotal),
		CancellationRate: percent(cancelled, decidedTotal),
		CompletionRate:   percent(statusCounts[bookings.StatusFinished], decidedTotal),
	}

	// Trends: fixed-length recent window ending at now; buckets with no
	// bookings stay zero-valued rather than being dropped.
	granularity := trendGranularity(snapshot, now, window)
	out.Bookings.Trend = trend(snapshot, now, granularity, opts.TrendBuckets, false)
	out.Revenue.Trend = trend(snapshot, now, granularity, opts.TrendBuckets, true)

	// Seasonal: calendar-month profile across the whole snapshot.
	seasonCount := [13]int{}
	seasonRevenue := [13]float64{}
	for _, b := range snapshot {
		m := b.CreatedAt.Month()
		seasonCount[m]++
		if revenueCounts(b.Status) {
			seasonRevenue[m] += b.TotalPrice
		}
	}
	for m := time.January; m <= time.December; m++ {
		out.Seasonal = append(out.Seasonal, MonthBucket{Month: m, Count: seasonCount[m], Revenue: round2(seasonRevenue[m])})
	}

	// Recent bookings, newest first.
	recent := make([]bookings.Booking, len(snapshot))
	copy(recent, snapshot)
	sort.Slice(recent, func(i, j int) bool {
		if !recent[i].CreatedAt.Equal(recent[j].CreatedAt) {
			return recent[i].CreatedAt.After(recent[j].CreatedAt)
		}
		return recent[i].ID < recent[j].ID
	})
	for i, b := range recent {
		if i == 5 {
			break
		}
		out.Bookings.Recent = append(out.Bookings.Recent, RecentBooking{
			ID:           b.ID,
			Reference:    b.Reference,
			ContactName:  b.ContactName,
			PackageTitle: b.PackageTitle,
			TotalPrice:   b.TotalPrice,
			Status:       b.Status,
			CreatedAt:    b.CreatedAt,
		})
	}

	// Feedback from the external review data.
	out.Feedback = feedback(ratings)

	return out
}

func feedback(ratings []reviews.Rating) FeedbackStats {
	fs := FeedbackStats{Distribution: make([]RatingCount, 0, 5)}
	counts := [6]int{}
	sum := 0
	for _, r := range ratings {
		if r.Stars < 1 || r.Stars > 5 {
			continue
		}
		counts[r.Stars]++
		sum += r.Stars
		fs.TotalRatings++
	}
	for stars := 1; stars <= 5; stars++ {
		fs.Distribution = append(fs.Distribution, RatingCount{Stars: stars, Count: counts[stars]})
	}
	if fs.TotalRatings > 0 {
		fs.AverageRating = roundRate(float64(sum) / float64(fs.TotalRatings))
	}
	return fs
}

func breakdown(snapshot []bookings.Booking, total int, key func(bookings.Booking) string) []BreakdownItem {
	counts := map[string]int{}
	revenues := map[string]float64{}
	for _, b := range snapshot {
		k := key(b)
		counts[k]++
		if revenueCounts(b.Status) {
			revenues[k] += b.TotalPrice
		}
	}
	items := make([]BreakdownItem, 0, len(counts))
	for k, c := range counts {
		items = append(items, BreakdownItem{Name: k, Count: c, Percentage: percent(c, total), Revenue: round2(revenues[k])})
	}
	sortBreakdown(items)
	return items
}

func revenueBreakdown(snapshot []bookings.Booking, key func(bookings.Booking) string) []BreakdownItem {
	revenues := map[string]float64{}
	counts := map[string]int{}
	var totalRevenue float64
	for _, b := range snapshot {
		if !revenueCounts(b.Status) {
			continue
		}
		k := key(b)
		revenues[k] += b.TotalPrice
		counts[k]++
		totalRevenue += b.TotalPrice
	}
	items := make([]BreakdownItem, 0, len(revenues))
	for k, r := range revenues {
		pct := 0.0
		if totalRevenue > 0 {
			pct = math.Round(r/totalRevenue*1000) / 10
		}
		items = append(items, BreakdownItem{Name: k, Count: counts[k], Percentage: pct, Revenue: round2(r)})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Revenue != items[j].Revenue {
			return items[i].Revenue > items[j].Revenue
		}
		return items[i].Name < items[j].Name
	})
	return items
}

func sortBreakdown(items []BreakdownItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Name < items[j].Name
	})
}

func topN(items []BreakdownItem, n int) []BreakdownItem {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

type granularity int

const (
	granularityDaily granularity = iota
	granularityMonthly
)

// trendGranularity picks daily buckets for windows up to 60 days, monthly
// beyond. The window comes from the filter when set, otherwise from the
// snapshot's own span.
func trendGranularity(snapshot []bookings.Booking, now time.Time, window StatsFilter) granularity {
	var from, to time.Time
	if window.From != nil {
		from = *window.From
	}
	if window.To != nil {
		to = *window.To
	} else {
		to = now
	}
	if from.IsZero() {
		for _, b := range snapshot {
			if from.IsZero() || b.CreatedAt.Before(from) {
				from = b.CreatedAt
			}
		}
	}
	if from.IsZero() || to.Sub(from) <= 60*24*time.Hour {
		return granularityDaily
	}
	return granularityMonthly
}

func bucketStart(t time.Time, g granularity) time.Time {
	t = t.UTC()
	if g == granularityDaily {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func prevBucket(t time.Time, g granularity) time.Time {
	if g == granularityDaily {
		return t.AddDate(0, 0, -1)
	}
	return t.AddDate(0, -1, 0)
}

// trend builds the fixed-length recent series ending at now's bucket. Missing
// buckets are zero-valued; the series length never varies with the data.
func trend(snapshot []bookings.Booking, now time.Time, g granularity, buckets int, revenueOnly bool) []TrendPoint {
	byBucket := map[time.Time]*TrendPoint{}
	for _, b := range snapshot {
		if revenueOnly && !revenueCounts(b.Status) {
			continue
		}
		key := bucketStart(b.CreatedAt, g)
		p := byBucket[key]
		if p == nil {
			p = &TrendPoint{Bucket: key}
			byBucket[key] = p
		}
		p.Count++
		if revenueCounts(b.Status) {
			p.Revenue += b.TotalPrice
		}
	}

	series := make([]TrendPoint, buckets)
	cursor := bucketStart(now, g)
	for i := buckets - 1; i >= 0; i-- {
		point := TrendPoint{Bucket: cursor}
		if p := byBucket[cursor]; p != nil {
			point.Count = p.Count
			point.Revenue = round2(p.Revenue)
		}
		series[i] = point
		cursor = prevBucket(cursor, g)
	}
	return series
}

// percent returns count/total as a percentage rounded to one decimal,
// zero when the denominator is zero.
func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

func ratio(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundRate(v float64) float64 {
	return math.Round(v*10) / 10
}
