package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ReportCache stores computed reports in Redis. Keys carry a stamp taken
// from the ledger itself, so a sale recorded after an entry was computed
// changes the key and the old entry is never read again; it simply expires.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache returns a cache; a nil client or ttl <= 0 disables caching.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

func (c *ReportCache) Enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Key composes "report:{kind}:{owner}:{part}:{stamp}".
func (c *ReportCache) Key(kind string, ownerID uuid.UUID, part, stamp string) string {
	return fmt.Sprintf("report:%s:%s:%s:%s", kind, ownerID, part, stamp)
}

// Get decodes a cached value into dest. found is false on a miss.
func (c *ReportCache) Get(ctx context.Context, key string, dest interface{}) (found bool, err error) {
	if !c.Enabled() {
		return false, nil
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *ReportCache) Set(ctx context.Context, key string, value interface{}) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}
