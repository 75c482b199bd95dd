package leaderboard

import (
	"context"
	"time"
)

// Cache is a read-through cache of ranked entries per scope.
// Implementations must treat a miss as (nil, nil), not as an error; the
// query layer falls back to recomputing from profiles.
type Cache interface {
	// GetTop returns up to limit cached entries for a scope, or nil on miss.
	// A stored board that was truncated at fewer than limit entries is a
	// miss too: a non-nil result is always the true top of the ranking,
	// never a shorter board padded out or served as-is.
	GetTop(ctx context.Context, scope Scope, limit int) ([]Entry, error)

	// SetTop replaces the cached entries for a scope. complete marks the
	// board as covering the scope's entire population, so GetTop may serve
	// requests for any limit from it. An incomplete board only serves
	// requests for limit <= len(entries).
	SetTop(ctx context.Context, scope Scope, entries []Entry, complete bool, ttl time.Duration) error

	// Invalidate drops the cached entries for a scope.
	Invalidate(ctx context.Context, scope Scope) error
}
