package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/goalstats"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL keeps fixture history long enough to absorb repeated analyses
const DefaultTTL = 10 * time.Minute

// FixtureCache stores a team's recent match results keyed by team id and window
type FixtureCache interface {
	Get(ctx context.Context, teamID, window int) ([]goalstats.MatchResult, bool, error)
	Set(ctx context.Context, teamID, window int, matches []goalstats.MatchResult) error
}

// FixtureKey returns the cache key for a team's last-n fixtures
func FixtureKey(teamID, window int) string {
	return fmt.Sprintf("goalanalysis:fixtures:%d:last%d", teamID, window)
}

// RedisCache handles reading and writing fixture history in Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis fixture cache
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns cached matches; ok is false on a miss
func (c *RedisCache) Get(ctx context.Context, teamID, window int) ([]goalstats.MatchResult, bool, error) {
	data, err := c.client.Get(ctx, FixtureKey(teamID, window)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading fixtures for team %d: %w", teamID, err)
	}

	var matches []goalstats.MatchResult
	if err := json.Unmarshal(data, &matches); err != nil {
		return nil, false, fmt.Errorf("unmarshaling fixtures: %w", err)
	}
	return matches, true, nil
}

// Set stores matches with the cache TTL
func (c *RedisCache) Set(ctx context.Context, teamID, window int, matches []goalstats.MatchResult) error {
	data, err := json.Marshal(matches)
	if err != nil {
		return fmt.Errorf("marshaling fixtures: %w", err)
	}
	return c.client.Set(ctx, FixtureKey(teamID, window), data, c.ttl).Err()
}

// NopCache is used when no cache is configured: every Get misses
type NopCache struct{}

func (NopCache) Get(context.Context, int, int) ([]goalstats.MatchResult, bool, error) {
	return nil, false, nil
}

func (NopCache) Set(context.Context, int, int, []goalstats.MatchResult) error { return nil }
