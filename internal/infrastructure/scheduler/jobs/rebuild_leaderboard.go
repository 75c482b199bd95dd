package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/michi-haensler/EcoTrack/internal/domain/leaderboard"
	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// Warms the leaderboard cache so reads rarely fall through to a full
// profile scan. Purely derived state: a failed or skipped run only means
// the next query recomputes.
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob recomputes the global and per-class boards into
// the cache.
type RebuildLeaderboardJob struct {
	profileRepo profile.Repository
	cache       leaderboard.Cache
	logger      *slog.Logger

	config RebuildLeaderboardConfig
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// TopN is the board depth to precompute.
	TopN int

	// CacheTTL is the TTL for the cached boards. Must outlast the rebuild
	// interval or readers hit cold caches between runs.
	CacheTTL time.Duration

	// Timeout is the maximum duration for one rebuild.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		TopN:     100,
		CacheTTL: 2 * time.Minute,
		Timeout:  time.Minute,
	}
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(
	profileRepo profile.Repository,
	cache leaderboard.Cache,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RebuildLeaderboardJob{
		profileRepo: profileRepo,
		cache:       cache,
		logger:      logger,
		config:      config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Precomputes the global and per-class leaderboards into the cache"
}

// Run executes one rebuild.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}
	start := time.Now()

	users, err := j.profileRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	entries := leaderboard.Rank(users, j.config.TopN)
	complete := len(entries) < j.config.TopN
	if err := j.cache.SetTop(ctx, leaderboard.ScopeGlobal, entries, complete, j.config.CacheTTL); err != nil {
		return fmt.Errorf("cache global board: %w", err)
	}

	byClass := make(map[shared.ClassID][]*profile.EcoUser)
	for _, u := range users {
		if u.ClassID.IsValid() {
			byClass[u.ClassID] = append(byClass[u.ClassID], u)
		}
	}

	boards := 1
	for classID, members := range byClass {
		classEntries := leaderboard.Rank(members, j.config.TopN)
		classComplete := len(classEntries) < j.config.TopN
		if err := j.cache.SetTop(ctx, leaderboard.ScopeClass(classID), classEntries, classComplete, j.config.CacheTTL); err != nil {
			return fmt.Errorf("cache class board %s: %w", classID, err)
		}
		boards++
	}

	j.logger.Info("leaderboard rebuild completed",
		"profiles", len(users),
		"boards", boards,
		"duration", time.Since(start),
	)
	return nil
}
