// Package redis implements the Redis caching layer.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/michi-haensler/EcoTrack/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// Stores a computed board per scope in a sorted set keyed by rank, with
// the serialized rows in a companion hash. Rank is the sort score, not
// points: ranks are assigned once at compute time, so equal point totals
// keep their deterministic order through the cache.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache implements leaderboard.Cache on Redis sorted sets.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

func rankKey(scope leaderboard.Scope) string {
	return LeaderboardKey(scope.ClassID.String()) + ":rank"
}

func entriesKey(scope leaderboard.Scope) string {
	return LeaderboardKey(scope.ClassID.String()) + ":entries"
}

func completeKey(scope leaderboard.Scope) string {
	return LeaderboardKey(scope.ClassID.String()) + ":complete"
}

// GetTop returns up to limit cached entries for a scope, or nil on miss.
// A board stored with fewer than limit entries only counts as a hit when it
// was marked complete, so a small query cannot shrink a later larger one.
func (c *LeaderboardCache) GetTop(ctx context.Context, scope leaderboard.Scope, limit int) ([]leaderboard.Entry, error) {
	client := c.cache.Client()

	ids, err := client.ZRange(ctx, rankKey(scope), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard_cache: read ranks: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) < limit {
		complete, err := client.Get(ctx, completeKey(scope)).Result()
		if err == redis.Nil || (err == nil && complete != "1") {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("leaderboard_cache: read completeness: %w", err)
		}
	}

	raw, err := client.HMGet(ctx, entriesKey(scope), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard_cache: read entries: %w", err)
	}

	entries := make([]leaderboard.Entry, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			// Hash expired between the two reads; treat as a miss.
			return nil, nil
		}
		var e leaderboard.Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// SetTop replaces the cached entries for a scope. complete records whether
// entries cover the scope's whole population.
func (c *LeaderboardCache) SetTop(ctx context.Context, scope leaderboard.Scope, entries []leaderboard.Entry, complete bool, ttl time.Duration) error {
	client := c.cache.Client()
	rk := rankKey(scope)
	ek := entriesKey(scope)
	ck := completeKey(scope)

	members := make([]redis.Z, 0, len(entries))
	fields := make(map[string]interface{}, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}
		members = append(members, redis.Z{Score: float64(e.Rank), Member: e.EcoUserID.String()})
		fields[e.EcoUserID.String()] = data
	}

	flag := "0"
	if complete {
		flag = "1"
	}

	pipe := client.TxPipeline()
	pipe.Del(ctx, rk, ek)
	if len(members) > 0 {
		pipe.ZAdd(ctx, rk, members...)
		pipe.HSet(ctx, ek, fields)
	}
	pipe.Set(ctx, ck, flag, ttl)
	pipe.Expire(ctx, rk, ttl)
	pipe.Expire(ctx, ek, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard_cache: write board: %w", err)
	}
	return nil
}

// Invalidate drops the cached entries for a scope.
func (c *LeaderboardCache) Invalidate(ctx context.Context, scope leaderboard.Scope) error {
	return c.cache.Delete(ctx, rankKey(scope), entriesKey(scope), completeKey(scope))
}
