package eventhandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michi-haensler/EcoTrack/internal/domain/challenge"
	"github.com/michi-haensler/EcoTrack/internal/domain/scoring"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

func newActiveChallenge(t *testing.T, goalValue float64, goalUnit challenge.GoalUnit) *challenge.Challenge {
	t.Helper()
	c, err := challenge.NewChallenge(
		"March Cycling", "",
		goalValue, goalUnit,
		shared.NewDate(2026, 3, 1), shared.NewDate(2026, 3, 31),
		"class-7a", "teacher-1", 50,
	)
	require.NoError(t, err)
	require.NoError(t, c.Activate())
	return c
}

func taggedEvent(challengeID shared.ChallengeID, points int) shared.Event {
	return shared.NewActivityLoggedEvent("activity-1", "user-1", points, shared.NewDate(2026, 3, 10), challengeID)
}

func TestOnChallengeProgress_PointsGoalUsesEventPoints(t *testing.T) {
	c := newActiveChallenge(t, 100, challenge.GoalUnitPoints)
	repo := newFakeChallengeRepo(c)
	handler := NewOnChallengeProgressHandler(repo, newFakeActivityRepo(), &fakePublisher{}, nil)

	require.NoError(t, handler.Handle(taggedEvent(c.ID, 60)))

	p := repo.participation(c.ID, "user-1")
	require.NotNil(t, p)
	assert.Equal(t, 60.0, p.CurrentValue)
	assert.False(t, p.GoalReached)
}

func TestOnChallengeProgress_QuantityGoalUsesActivityEntry(t *testing.T) {
	c := newActiveChallenge(t, 30, challenge.GoalUnitKilometers)
	repo := newFakeChallengeRepo(c)

	action, err := scoring.NewActionDefinition("Cycling to school", "", scoring.CategoryMobility, scoring.UnitKilometers, 10)
	require.NoError(t, err)
	entry, err := scoring.NewActivityEntry("user-1", action, 7.5, shared.NewDate(2026, 3, 10), scoring.SourceApp, c.ID)
	require.NoError(t, err)

	handler := NewOnChallengeProgressHandler(repo, newFakeActivityRepo(entry), &fakePublisher{}, nil)

	event := shared.NewActivityLoggedEvent(entry.ID, "user-1", entry.Points, entry.ActivityDate, c.ID)
	require.NoError(t, handler.Handle(event))

	p := repo.participation(c.ID, "user-1")
	require.NotNil(t, p)
	assert.Equal(t, 7.5, p.CurrentValue)
}

func TestOnChallengeProgress_GoalReachedFiresOnce(t *testing.T) {
	c := newActiveChallenge(t, 100, challenge.GoalUnitPoints)
	repo := newFakeChallengeRepo(c)
	publisher := &fakePublisher{}
	handler := NewOnChallengeProgressHandler(repo, newFakeActivityRepo(), publisher, nil)

	require.NoError(t, handler.Handle(taggedEvent(c.ID, 60)))
	assert.Empty(t, publisher.events)

	require.NoError(t, handler.Handle(taggedEvent(c.ID, 45)))
	require.Len(t, publisher.events, 1)

	e, ok := publisher.events[0].(shared.ChallengeGoalReachedEvent)
	require.True(t, ok)
	assert.Equal(t, c.ID, e.ChallengeID)
	assert.Equal(t, shared.EcoUserID("user-1"), e.EcoUserID)
	assert.Equal(t, c.BonusPoints, e.BonusPoints)

	// Further contributions accumulate without firing again.
	require.NoError(t, handler.Handle(taggedEvent(c.ID, 20)))
	assert.Len(t, publisher.events, 1)
	assert.Equal(t, 125.0, repo.participation(c.ID, "user-1").CurrentValue)
}

func TestOnChallengeProgress_UntaggedActivityIsIgnored(t *testing.T) {
	c := newActiveChallenge(t, 100, challenge.GoalUnitPoints)
	repo := newFakeChallengeRepo(c)
	handler := NewOnChallengeProgressHandler(repo, newFakeActivityRepo(), &fakePublisher{}, nil)

	require.NoError(t, handler.Handle(taggedEvent("", 60)))
	assert.Nil(t, repo.participation(c.ID, "user-1"))
}

func TestOnChallengeProgress_DraftChallengeRejectsContribution(t *testing.T) {
	c, err := challenge.NewChallenge(
		"March Cycling", "",
		100, challenge.GoalUnitPoints,
		shared.NewDate(2026, 3, 1), shared.NewDate(2026, 3, 31),
		"class-7a", "teacher-1", 50,
	)
	require.NoError(t, err)
	repo := newFakeChallengeRepo(c)
	handler := NewOnChallengeProgressHandler(repo, newFakeActivityRepo(), &fakePublisher{}, nil)

	require.NoError(t, handler.Handle(taggedEvent(c.ID, 60)))
	assert.Nil(t, repo.participation(c.ID, "user-1"))
}

func TestOnChallengeProgress_OutOfWindowActivityIsIgnored(t *testing.T) {
	c := newActiveChallenge(t, 100, challenge.GoalUnitPoints)
	repo := newFakeChallengeRepo(c)
	handler := NewOnChallengeProgressHandler(repo, newFakeActivityRepo(), &fakePublisher{}, nil)

	event := shared.NewActivityLoggedEvent("activity-1", "user-1", 60, shared.NewDate(2026, 4, 1), c.ID)
	require.NoError(t, handler.Handle(event))
	assert.Nil(t, repo.participation(c.ID, "user-1"))
}

func TestOnChallengeProgress_UnknownChallengeIsIgnored(t *testing.T) {
	repo := newFakeChallengeRepo()
	handler := NewOnChallengeProgressHandler(repo, newFakeActivityRepo(), &fakePublisher{}, nil)

	require.NoError(t, handler.Handle(taggedEvent("missing", 60)))
}

func TestOnChallengeProgress_RetriesOnOptimisticLock(t *testing.T) {
	c := newActiveChallenge(t, 100, challenge.GoalUnitPoints)
	repo := newFakeChallengeRepo(c)
	handler := NewOnChallengeProgressHandler(repo, newFakeActivityRepo(), &fakePublisher{}, nil)

	require.NoError(t, handler.Handle(taggedEvent(c.ID, 30)))

	repo.failSaveNext = shared.ErrOptimisticLock
	require.NoError(t, handler.Handle(taggedEvent(c.ID, 30)))

	assert.Equal(t, 60.0, repo.participation(c.ID, "user-1").CurrentValue)
}

func TestOnChallengeProgress_RetriesOnLostInsertRace(t *testing.T) {
	c := newActiveChallenge(t, 100, challenge.GoalUnitPoints)
	repo := newFakeChallengeRepo(c)
	handler := NewOnChallengeProgressHandler(repo, newFakeActivityRepo(), &fakePublisher{}, nil)

	// First save fails as if a concurrent handler inserted the row; the
	// retry loads whatever is stored and updates it.
	repo.failSaveNext = shared.ErrAlreadyExists
	require.NoError(t, handler.Handle(taggedEvent(c.ID, 30)))

	p := repo.participation(c.ID, "user-1")
	require.NotNil(t, p)
	assert.Equal(t, 30.0, p.CurrentValue)
}
