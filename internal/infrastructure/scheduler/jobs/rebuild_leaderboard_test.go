package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michi-haensler/EcoTrack/internal/domain/leaderboard"
	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

func classUser(id shared.EcoUserID, classID shared.ClassID, points int64) *profile.EcoUser {
	u := trackedUser(id, points)
	u.ClassID = classID
	return u
}

func TestRebuildLeaderboard_WarmsGlobalBoard(t *testing.T) {
	profiles := newFakeProfileRepo(
		trackedUser("u-1", 300),
		trackedUser("u-2", 500),
		trackedUser("u-3", 100),
	)
	cache := newFakeBoardCache()
	job := NewRebuildLeaderboardJob(profiles, cache, nil, DefaultRebuildLeaderboardConfig())

	require.NoError(t, job.Run(context.Background()))

	board, ok := cache.board(leaderboard.ScopeGlobal)
	require.True(t, ok)
	require.Len(t, board.entries, 3)
	assert.Equal(t, shared.EcoUserID("u-2"), board.entries[0].EcoUserID)
	assert.Equal(t, 1, board.entries[0].Rank)
	assert.Equal(t, shared.EcoUserID("u-3"), board.entries[2].EcoUserID)

	// Everyone fit, so any limit may be served from this board.
	assert.True(t, board.complete)
}

func TestRebuildLeaderboard_WarmsPerClassBoards(t *testing.T) {
	profiles := newFakeProfileRepo(
		classUser("u-1", "class-7a", 300),
		classUser("u-2", "class-7a", 150),
		classUser("u-3", "class-7b", 500),
		trackedUser("u-4", 900), // no class, global board only
	)
	cache := newFakeBoardCache()
	job := NewRebuildLeaderboardJob(profiles, cache, nil, DefaultRebuildLeaderboardConfig())

	require.NoError(t, job.Run(context.Background()))

	global, ok := cache.board(leaderboard.ScopeGlobal)
	require.True(t, ok)
	assert.Len(t, global.entries, 4)

	classA, ok := cache.board(leaderboard.ScopeClass("class-7a"))
	require.True(t, ok)
	require.Len(t, classA.entries, 2)
	assert.Equal(t, shared.EcoUserID("u-1"), classA.entries[0].EcoUserID)

	classB, ok := cache.board(leaderboard.ScopeClass("class-7b"))
	require.True(t, ok)
	assert.Len(t, classB.entries, 1)
}

func TestRebuildLeaderboard_TruncatedBoardMarkedIncomplete(t *testing.T) {
	profiles := newFakeProfileRepo(
		trackedUser("u-1", 300),
		trackedUser("u-2", 200),
		trackedUser("u-3", 100),
	)
	cache := newFakeBoardCache()
	config := DefaultRebuildLeaderboardConfig()
	config.TopN = 2
	job := NewRebuildLeaderboardJob(profiles, cache, nil, config)

	require.NoError(t, job.Run(context.Background()))

	board, ok := cache.board(leaderboard.ScopeGlobal)
	require.True(t, ok)
	require.Len(t, board.entries, 2)
	assert.False(t, board.complete)
}

func TestRebuildLeaderboard_AppliesConfiguredTTL(t *testing.T) {
	profiles := newFakeProfileRepo(trackedUser("u-1", 100))
	cache := newFakeBoardCache()
	config := DefaultRebuildLeaderboardConfig()
	job := NewRebuildLeaderboardJob(profiles, cache, nil, config)

	require.NoError(t, job.Run(context.Background()))

	board, _ := cache.board(leaderboard.ScopeGlobal)
	assert.Equal(t, config.CacheTTL, board.ttl)
}
