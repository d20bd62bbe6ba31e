package stats

import (
	"time"

	"github.com/advaitbhat/tripnest/internal/store/bookings"
)

// AgencyStatistics is the full derived aggregate served to the dashboard.
// All fields are computed from the booking snapshot (plus ratings); nothing
// here is ever persisted back, so counts and percentages cannot drift apart.
type AgencyStatistics struct {
	AgencyID    string           `json:"agency_id"`
	Bookings    BookingStats     `json:"bookings"`
	Revenue     RevenueStats     `json:"revenue"`
	Customers   CustomerStats    `json:"customers"`
	Feedback    FeedbackStats    `json:"feedback"`
	Operations  OperationalStats `json:"operations"`
	Performance PerformanceStats `json:"performance"`
	Seasonal    []MonthBucket    `json:"seasonal"`
	ComputedAt  time.Time        `json:"computed_at"`
	Stale       bool             `json:"stale"`
}

type StatusCount struct {
	Status     bookings.Status `json:"status"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
}

// BreakdownItem is one row of a group-by (destination, category).
type BreakdownItem struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Revenue    float64 `json:"revenue"`
}

type TrendPoint struct {
	Bucket  time.Time `json:"bucket"`
	Count   int       `json:"count"`
	Revenue float64   `json:"revenue"`
}

type RecentBooking struct {
	ID           string          `json:"id"`
	Reference    string          `json:"reference"`
	ContactName  string          `json:"contact_name"`
	PackageTitle string          `json:"package_title"`
	TotalPrice   float64         `json:"total_price"`
	Status       bookings.Status `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

type BookingMetrics struct {
	AverageValue     float64 `json:"average_value"`
	CancellationRate float64 `json:"cancellation_rate"`
	PendingCount     int     `json:"pending_count"`
	OverdueCount     int     `json:"overdue_count"`
}

type BookingStats struct {
	Total              int             `json:"total"`
	StatusDistribution []StatusCount   `json:"status_distribution"`
	ByDestination      []BreakdownItem `json:"by_destination"`
	ByCategory         []BreakdownItem `json:"by_category"`
	TopDestinations    []BreakdownItem `json:"top_destinations"`
	Trend              []TrendPoint    `json:"trend"`
	Recent             []RecentBooking `json:"recent"`
	Metrics            BookingMetrics  `json:"metrics"`
}

type TopCustomer struct {
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Bookings       int       `json:"bookings"`
	TotalSpent     float64   `json:"total_spent"`
	FirstBookingAt time.Time `json:"first_booking_at"`
}

type RevenueStats struct {
	Total              float64         `json:"total"`
	AveragePerBooking  float64         `json:"average_per_booking"`
	AveragePerCustomer float64         `json:"average_per_customer"`
	ByDestination      []BreakdownItem `json:"by_destination"`
	ByCategory         []BreakdownItem `json:"by_category"`
	Trend              []TrendPoint    `json:"trend"`
	TopCustomers       []TopCustomer   `json:"top_customers"`
}

type CustomerStats struct {
	Total                int     `json:"total"`
	New                  int     `json:"new"`
	Returning            int     `json:"returning"`
	VIP                  int     `json:"vip"`
	RepeatRate           float64 `json:"repeat_rate"`
	AverageLifetimeValue float64 `json:"average_lifetime_value"`
}

type RatingCount struct {
	Stars int `json:"stars"`
	Count int `json:"count"`
}

type FeedbackStats struct {
	AverageRating float64       `json:"average_rating"`
	TotalRatings  int           `json:"total_ratings"`
	Distribution  []RatingCount `json:"distribution"`
}

type OperationalStats struct {
	PendingCount     int     `json:"pending_count"`
	OverdueCount     int     `json:"overdue_count"`
	AvgDecisionHours float64 `json:"avg_decision_hours"`
}

// PerformanceStats are rates over decided bookings (those that left PENDING).
type PerformanceStats struct {
	AcceptanceRate   float64 `json:"acceptance_rate"`
	CancellationRate float64 `json:"cancellation_rate"`
	CompletionRate   float64 `json:"completion_rate"`
}

type MonthBucket struct {
	Month   time.Month `json:"month"`
	Count   int        `json:"count"`
	Revenue float64    `json:"revenue"`
}

// StatsFilter narrows the statistics window. A nil filter means the cached
// all-time aggregate.
type StatsFilter struct {
	From     *time.Time
	To       *time.Time
	Statuses []bookings.Status
}

func (f *StatsFilter) empty() bool {
	return f == nil || (f.From == nil && f.To == nil && len(f.Statuses) == 0)
}
