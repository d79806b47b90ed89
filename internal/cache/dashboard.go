package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/soportek/helpdesk/internal/domain"
)

const (
	countsKeyPrefix = "helpdesk:dashboard:counts:"
	countsTTL       = 30 * time.Second
)

// DashboardCache keeps per-user ticket status counts in Redis for the
// dashboard header. It is strictly best-effort: any Redis failure is
// logged and treated as a miss.
type DashboardCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewDashboardCache wraps a redis client. A nil client disables caching.
func NewDashboardCache(client *redis.Client, logger *zap.Logger) *DashboardCache {
	return &DashboardCache{client: client, logger: logger}
}

// GetCounts returns cached counts for the user, or ok=false on a miss.
func (c *DashboardCache) GetCounts(ctx context.Context, userID string) (map[domain.TicketStatus]int64, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, countsKeyPrefix+userID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("dashboard cache get failed", zap.Error(err))
		}
		return nil, false
	}
	var counts map[domain.TicketStatus]int64
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, false
	}
	return counts, true
}

// SetCounts stores counts with a short TTL.
func (c *DashboardCache) SetCounts(ctx context.Context, userID string, counts map[domain.TicketStatus]int64) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, countsKeyPrefix+userID, raw, countsTTL).Err(); err != nil {
		c.logger.Debug("dashboard cache set failed", zap.Error(err))
	}
}

// Invalidate drops cached counts for the given users after a mutation.
func (c *DashboardCache) Invalidate(ctx context.Context, userIDs ...string) {
	if c == nil || c.client == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		keys = append(keys, countsKeyPrefix+id)
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Debug("dashboard cache invalidate failed", zap.Error(err))
	}
}
