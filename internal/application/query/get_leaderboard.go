// Package query contains read operations following CQRS pattern.
// Queries never modify state. Each query is a self-contained use case
// with its own request/response types.
package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/michi-haensler/EcoTrack/internal/domain/leaderboard"
	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Ranks users by total points, globally or per class. Served from the
// cache when warm, recomputed from profiles otherwise. Rank is always
// derived, never stored on the profile.
// ═══════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery selects the scope and size of the leaderboard.
type GetLeaderboardQuery struct {
	// ClassID scopes the board to one class; empty means global.
	ClassID shared.ClassID

	// Limit is the number of rows (default 20, max 100).
	Limit int
}

// Validate normalizes and checks the query parameters.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return shared.NewDomainError("query", "GetLeaderboard", shared.ErrInvalidInput, "limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// GetLeaderboardResult is the ranked board.
type GetLeaderboardResult struct {
	Entries     []leaderboard.Entry `json:"entries"`
	ClassID     shared.ClassID      `json:"class_id,omitempty"`
	FromCache   bool                `json:"-"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	profileRepo profile.Repository
	cache       leaderboard.Cache
	cacheTTL    time.Duration
	logger      *slog.Logger
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
// cache may be nil; every query then recomputes from profiles.
func NewGetLeaderboardHandler(
	profileRepo profile.Repository,
	cache leaderboard.Cache,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *GetLeaderboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &GetLeaderboardHandler{
		profileRepo: profileRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With("query", "get_leaderboard"),
	}
}

// Handle executes the query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	scope := leaderboard.ScopeGlobal
	if query.ClassID.IsValid() {
		scope = leaderboard.ScopeClass(query.ClassID)
	}

	if h.cache != nil {
		cached, err := h.cache.GetTop(ctx, scope, query.Limit)
		if err != nil {
			h.logger.Warn("leaderboard cache read failed", "error", err)
		} else if cached != nil {
			return &GetLeaderboardResult{
				Entries:     cached,
				ClassID:     query.ClassID,
				FromCache:   true,
				GeneratedAt: time.Now().UTC(),
			}, nil
		}
	}

	var (
		users []*profile.EcoUser
		err   error
	)
	if scope.IsGlobal() {
		users, err = h.profileRepo.ListTop(ctx, query.Limit)
	} else {
		users, err = h.profileRepo.ListByClass(ctx, query.ClassID, query.Limit)
	}
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrInvalidEntity, "load profiles", err)
	}

	entries := leaderboard.Rank(users, query.Limit)

	if h.cache != nil {
		// Fewer rows than asked for means the whole population fit, so the
		// cached board can answer any limit. A full board is only good for
		// queries up to its own size.
		complete := len(entries) < query.Limit
		if err := h.cache.SetTop(ctx, scope, entries, complete, h.cacheTTL); err != nil {
			h.logger.Warn("leaderboard cache write failed", "error", err)
		}
	}

	return &GetLeaderboardResult{
		Entries:     entries,
		ClassID:     query.ClassID,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
