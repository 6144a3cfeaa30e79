package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/bimcheck/bimcheck/internal/ports"
)

const statsKey = "bimcheck:dashboard:stats"

// RedisStatsCache caches the dashboard summary in Redis so the polling UI
// does not hammer the database. Cache failures degrade to a recompute, never
// to a request failure.
type RedisStatsCache struct {
	client *redis.Client
	log    *logrus.Logger
}

// NewRedisStatsCache connects to Redis and returns a stats cache. When the
// cache is disabled or unreachable a noop cache is returned instead.
func NewRedisStatsCache(redisURL string, enabled bool, log *logrus.Logger) (ports.StatsCache, error) {
	if !enabled {
		log.Info("stats cache disabled")
		return &noopStatsCache{}, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.WithField("redis_url", redisURL).Info("stats cache initialized")
	return &RedisStatsCache{client: client, log: log}, nil
}

// Get returns the cached stats, if present and decodable.
func (c *RedisStatsCache) Get(ctx context.Context) (*ports.DashboardStats, bool) {
	data, err := c.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Warn("stats cache read failed")
		}
		return nil, false
	}

	var stats ports.DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		c.log.WithError(err).Warn("stats cache entry corrupt")
		return nil, false
	}
	return &stats, true
}

// Set stores the stats with the given TTL.
func (c *RedisStatsCache) Set(ctx context.Context, stats *ports.DashboardStats, ttl time.Duration) {
	data, err := json.Marshal(stats)
	if err != nil {
		c.log.WithError(err).Warn("failed to marshal stats for cache")
		return
	}
	if err := c.client.Set(ctx, statsKey, data, ttl).Err(); err != nil {
		c.log.WithError(err).Warn("stats cache write failed")
	}
}

type noopStatsCache struct{}

func (n *noopStatsCache) Get(ctx context.Context) (*ports.DashboardStats, bool) {
	return nil, false
}

func (n *noopStatsCache) Set(ctx context.Context, stats *ports.DashboardStats, ttl time.Duration) {
}
