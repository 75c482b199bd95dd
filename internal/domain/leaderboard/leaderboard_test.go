package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

func user(id shared.EcoUserID, points int64) *profile.EcoUser {
	return &profile.EcoUser{
		ID:          id,
		UserID:      shared.UserID("ext-" + id),
		TotalPoints: points,
		Level:       profile.LevelFromPoints(points),
	}
}

func TestRank_OrdersByPointsThenID(t *testing.T) {
	users := []*profile.EcoUser{
		user("c", 100),
		user("a", 300),
		user("b", 200),
	}

	entries := Rank(users, 0)
	require.Len(t, entries, 3)

	assert.Equal(t, shared.EcoUserID("a"), entries[0].EcoUserID)
	assert.Equal(t, shared.EcoUserID("b"), entries[1].EcoUserID)
	assert.Equal(t, shared.EcoUserID("c"), entries[2].EcoUserID)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestRank_TiedScoresAreDeterministic(t *testing.T) {
	users := []*profile.EcoUser{
		user("z", 100),
		user("a", 100),
		user("m", 100),
	}

	first := Rank(users, 0)
	require.Len(t, first, 3)

	// Ties break by ID ascending and get distinct sequential ranks.
	assert.Equal(t, shared.EcoUserID("a"), first[0].EcoUserID)
	assert.Equal(t, shared.EcoUserID("m"), first[1].EcoUserID)
	assert.Equal(t, shared.EcoUserID("z"), first[2].EcoUserID)
	assert.Equal(t, []int{1, 2, 3}, []int{first[0].Rank, first[1].Rank, first[2].Rank})

	// Re-running over unchanged data yields the identical order.
	second := Rank(users, 0)
	assert.Equal(t, first, second)
}

func TestRank_Limit(t *testing.T) {
	users := []*profile.EcoUser{
		user("a", 300),
		user("b", 200),
		user("c", 100),
	}

	entries := Rank(users, 2)
	require.Len(t, entries, 2)
	assert.Equal(t, shared.EcoUserID("a"), entries[0].EcoUserID)
	assert.Equal(t, shared.EcoUserID("b"), entries[1].EcoUserID)

	// Limit larger than the input returns everything.
	assert.Len(t, Rank(users, 10), 3)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	users := []*profile.EcoUser{
		user("c", 100),
		user("a", 300),
	}

	Rank(users, 0)
	assert.Equal(t, shared.EcoUserID("c"), users[0].ID)
	assert.Equal(t, shared.EcoUserID("a"), users[1].ID)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil, 0))
}

func TestScope(t *testing.T) {
	assert.True(t, ScopeGlobal.IsGlobal())
	assert.False(t, ScopeClass("class-7a").IsGlobal())
}
