package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromPoints(t *testing.T) {
	assert.Equal(t, LevelSeedling, LevelFromPoints(-50))
	assert.Equal(t, LevelSeedling, LevelFromPoints(0))
	assert.Equal(t, LevelSeedling, LevelFromPoints(199))
	assert.Equal(t, LevelSapling, LevelFromPoints(200))
	assert.Equal(t, LevelSapling, LevelFromPoints(499))
	assert.Equal(t, LevelTree, LevelFromPoints(500))
	assert.Equal(t, LevelTree, LevelFromPoints(999))
	assert.Equal(t, LevelAncientTree, LevelFromPoints(1000))
	assert.Equal(t, LevelAncientTree, LevelFromPoints(100000))
}

func TestNextLevelAt(t *testing.T) {
	assert.Equal(t, int64(200), NextLevelAt(LevelSeedling))
	assert.Equal(t, int64(500), NextLevelAt(LevelSapling))
	assert.Equal(t, int64(1000), NextLevelAt(LevelTree))
	assert.Equal(t, int64(0), NextLevelAt(LevelAncientTree))
}

func TestEcoUser_AddPoints_RecomputesLevel(t *testing.T) {
	u, err := NewEcoUser("user-1", "class-7a")
	require.NoError(t, err)
	assert.Equal(t, LevelSeedling, u.Level)

	u.AddPoints(150)
	assert.Equal(t, int64(150), u.TotalPoints)
	assert.Equal(t, LevelSeedling, u.Level)

	u.AddPoints(50)
	assert.Equal(t, int64(200), u.TotalPoints)
	assert.Equal(t, LevelSapling, u.Level)

	u.AddPoints(800)
	assert.Equal(t, LevelAncientTree, u.Level)
}

func TestEcoUser_AdjustPoints_MovesLevelDown(t *testing.T) {
	u, err := NewEcoUser("user-1", "")
	require.NoError(t, err)

	u.AddPoints(600)
	assert.Equal(t, LevelTree, u.Level)

	// A negative correction recomputes the level downward too.
	u.AdjustPoints(-450)
	assert.Equal(t, int64(150), u.TotalPoints)
	assert.Equal(t, LevelSeedling, u.Level)
}

func TestEcoUser_UnlockMilestone(t *testing.T) {
	u, err := NewEcoUser("user-1", "class-7a")
	require.NoError(t, err)

	m, err := NewMilestone("First hundred", 100, "badge-100.svg", "")
	require.NoError(t, err)

	// Below the threshold: not unlocked.
	u.AddPoints(99)
	assert.False(t, u.UnlockMilestone(m))
	assert.False(t, u.HasMilestone(m.ID))

	u.AddPoints(1)
	assert.True(t, u.UnlockMilestone(m))
	assert.True(t, u.HasMilestone(m.ID))

	// Unlocking again is a no-op, never an error.
	assert.False(t, u.UnlockMilestone(m))
	assert.True(t, u.HasMilestone(m.ID))
	assert.Len(t, u.Milestones, 1)
}

func TestEcoUser_MilestoneSurvivesPointLoss(t *testing.T) {
	u, err := NewEcoUser("user-1", "")
	require.NoError(t, err)

	m, err := NewMilestone("First hundred", 100, "badge-100.svg", "")
	require.NoError(t, err)

	u.AddPoints(150)
	require.True(t, u.UnlockMilestone(m))

	// Milestones are not revoked when points drop back under the threshold.
	u.AdjustPoints(-100)
	assert.True(t, u.HasMilestone(m.ID))
}

func TestNewEcoUser_RequiresUserID(t *testing.T) {
	_, err := NewEcoUser("", "class-7a")
	assert.Error(t, err)
}
