package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

func TestNewActionDefinition_Validation(t *testing.T) {
	_, err := NewActionDefinition("", "", CategoryMobility, UnitKilometers, 10)
	assert.Error(t, err)

	_, err = NewActionDefinition("Cycling", "", Category("sports"), UnitKilometers, 10)
	assert.Error(t, err)

	_, err = NewActionDefinition("Cycling", "", CategoryMobility, Unit("miles"), 10)
	assert.Error(t, err)

	_, err = NewActionDefinition("Cycling", "", CategoryMobility, UnitKilometers, 0)
	assert.ErrorIs(t, err, shared.ErrInvalidBasePoints)

	action, err := NewActionDefinition("Cycling to school", "bike instead of car", CategoryMobility, UnitKilometers, 10)
	require.NoError(t, err)
	assert.True(t, action.Active)
	assert.True(t, action.ID.IsValid())
	assert.Equal(t, 10, action.BasePoints)
}

func TestCalculatePoints(t *testing.T) {
	action, err := NewActionDefinition("Cycling to school", "", CategoryMobility, UnitKilometers, 10)
	require.NoError(t, err)

	points, err := action.CalculatePoints(5)
	require.NoError(t, err)
	assert.Equal(t, 50, points)

	// Half-up rounding: 0.25 * 10 = 2.5 rounds to 3.
	points, err = action.CalculatePoints(0.25)
	require.NoError(t, err)
	assert.Equal(t, 3, points)

	points, err = action.CalculatePoints(0.24)
	require.NoError(t, err)
	assert.Equal(t, 2, points)
}

func TestCalculatePoints_Guards(t *testing.T) {
	action, err := NewActionDefinition("Recycling glass", "", CategoryRecycling, UnitKilograms, 5)
	require.NoError(t, err)

	_, err = action.CalculatePoints(0)
	assert.ErrorIs(t, err, shared.ErrInvalidQuantity)

	_, err = action.CalculatePoints(-1)
	assert.ErrorIs(t, err, shared.ErrInvalidQuantity)

	action.Deactivate()
	_, err = action.CalculatePoints(1)
	assert.ErrorIs(t, err, shared.ErrActionInactive)

	action.Activate()
	points, err := action.CalculatePoints(2)
	require.NoError(t, err)
	assert.Equal(t, 10, points)
}

func TestUpdateBasePoints(t *testing.T) {
	action, err := NewActionDefinition("Meat-free day", "", CategoryNutrition, UnitPiece, 15)
	require.NoError(t, err)

	assert.ErrorIs(t, action.UpdateBasePoints(0), shared.ErrInvalidBasePoints)
	assert.ErrorIs(t, action.UpdateBasePoints(-3), shared.ErrInvalidBasePoints)

	require.NoError(t, action.UpdateBasePoints(20))
	assert.Equal(t, 20, action.BasePoints)
}

func TestNewActivityEntry(t *testing.T) {
	action, err := NewActionDefinition("Cycling to school", "", CategoryMobility, UnitKilometers, 10)
	require.NoError(t, err)

	date := shared.NewDate(2026, time.March, 5)
	entry, err := NewActivityEntry("user-1", action, 5, date, SourceApp, "")
	require.NoError(t, err)

	assert.True(t, entry.ID.IsValid())
	assert.Equal(t, shared.EcoUserID("user-1"), entry.EcoUserID)
	assert.Equal(t, action.ID, entry.ActionID)
	assert.Equal(t, 50, entry.Points)
	assert.Equal(t, date, entry.ActivityDate)
	assert.False(t, entry.ChallengeID.IsValid())
}

func TestNewActivityEntry_Validation(t *testing.T) {
	action, err := NewActionDefinition("Cycling to school", "", CategoryMobility, UnitKilometers, 10)
	require.NoError(t, err)
	date := shared.NewDate(2026, time.March, 5)

	_, err = NewActivityEntry("", action, 5, date, SourceApp, "")
	assert.Error(t, err)

	_, err = NewActivityEntry("user-1", action, 5, shared.Date{}, SourceApp, "")
	assert.Error(t, err)

	_, err = NewActivityEntry("user-1", action, 5, date, Source("sms"), "")
	assert.Error(t, err)

	_, err = NewActivityEntry("user-1", action, 0, date, SourceApp, "")
	assert.ErrorIs(t, err, shared.ErrInvalidQuantity)

	action.Deactivate()
	_, err = NewActivityEntry("user-1", action, 5, date, SourceApp, "")
	assert.ErrorIs(t, err, shared.ErrActionInactive)
}

func TestActivityEntry_LoggedEvent(t *testing.T) {
	action, err := NewActionDefinition("Cycling to school", "", CategoryMobility, UnitKilometers, 10)
	require.NoError(t, err)

	date := shared.NewDate(2026, time.March, 5)
	entry, err := NewActivityEntry("user-1", action, 3, date, SourceApp, "challenge-1")
	require.NoError(t, err)

	event := entry.LoggedEvent()
	assert.Equal(t, shared.EventActivityLogged, event.EventType())
	assert.Equal(t, entry.ID.String(), event.AggregateID())
	assert.Equal(t, entry.Points, event.Points)
	assert.Equal(t, shared.ChallengeID("challenge-1"), event.ChallengeID)
	assert.Equal(t, date, event.ActivityDate)
}

func TestLedgerEntryConstructors(t *testing.T) {
	activity := LedgerEntryForActivity("user-1", "activity-1", 50)
	assert.Equal(t, TransactionActivityLogged, activity.TransactionType)
	assert.Equal(t, shared.Points(50), activity.Points)
	assert.Equal(t, ReferenceActivityEntry, activity.ReferenceType)
	assert.Equal(t, "activity-1", activity.ReferenceID)

	bonus := LedgerEntryForChallengeBonus("user-1", "challenge-1", 100)
	assert.Equal(t, TransactionChallengeBonus, bonus.TransactionType)
	assert.Equal(t, shared.Points(100), bonus.Points)
	assert.Equal(t, ReferenceChallenge, bonus.ReferenceType)

	adjustment := LedgerEntryForAdjustment("user-1", -30, "")
	assert.Equal(t, TransactionManualAdjustment, adjustment.TransactionType)
	assert.Equal(t, shared.Points(-30), adjustment.Points)
	assert.Equal(t, "manual adjustment", adjustment.Description)
	assert.Equal(t, ReferenceManual, adjustment.ReferenceType)
}
