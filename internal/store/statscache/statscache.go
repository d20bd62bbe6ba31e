package statscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Entry is one cached aggregate. Version is the agency's dirty counter value
// at the time the payload was computed; the payload is opaque JSON so the
// store stays independent of the statistics types.
type Entry struct {
	Version    int64           `json:"version"`
	ComputedAt time.Time       `json:"computed_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Cache keeps one statistics entry per agency in Redis alongside a per-agency
// version counter. Booking mutations bump the counter; a read whose cached
// version no longer matches the counter must recompute.
type Cache struct {
	client *redis.Client
}

func New(addr string) *Cache {
	c := redis.NewClient(&redis.Options{Addr: addr})
	return &Cache{client: c}
}

func (c *Cache) versionKey(agencyID string) string { return fmt.Sprintf("agency_stats_version:%s", agencyID) }
func (c *Cache) entryKey(agencyID string) string   { return fmt.Sprintf("agency_stats:%s", agencyID) }

// Invalidate bumps the agency's dirty counter. Called on every BookingChanged.
func (c *Cache) Invalidate(ctx context.Context, agencyID string) error {
	return c.client.Incr(ctx, c.versionKey(agencyID)).Err()
}

// Version returns the current dirty counter, zero when no mutation was ever seen.
func (c *Cache) Version(ctx context.Context, agencyID string) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(agencyID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// Get returns the cached entry or nil when none exists.
func (c *Cache) Get(ctx context.Context, agencyID string) (*Entry, error) {
	raw, err := c.client.Get(ctx, c.entryKey(agencyID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Put stores the freshly computed entry.
func (c *Cache) Put(ctx context.Context, agencyID string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.entryKey(agencyID), raw, 0).Err()
}

// GetClient exposes the underlying client for middleware that shares the connection.
func (c *Cache) GetClient() *redis.Client { return c.client }

func (c *Cache) Close() { _ = c.client.Close() }
