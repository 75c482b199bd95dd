package scoring

import (
	"time"

	"github.com/google/uuid"

	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// Source is the channel an activity was recorded through.
type Source string

const (
	SourceApp    Source = "app"
	SourceManual Source = "manual"
	SourceImport Source = "import"
)

// IsValid checks that the source is one of the known values.
func (s Source) IsValid() bool {
	switch s {
	case SourceApp, SourceManual, SourceImport:
		return true
	}
	return false
}

// ActivityEntry is an immutable record of a single performed action.
// Created once; there is no update path.
// Invariant: Points == round(Quantity * action.BasePoints) at creation time,
// Quantity > 0, and the referenced action was active at creation time.
type ActivityEntry struct {
	ID           shared.ActivityID
	EcoUserID    shared.EcoUserID
	ActionID     shared.ActionID
	Quantity     float64
	Points       int
	Source       Source
	ActivityDate shared.Date
	ChallengeID  shared.ChallengeID // empty when not tied to a challenge
	CreatedAt    time.Time
}

// NewActivityEntry creates an activity entry, computing points from the
// action definition. The action's active flag and the quantity are checked
// here so an invalid request never produces an entry.
func NewActivityEntry(
	ecoUserID shared.EcoUserID,
	action *ActionDefinition,
	quantity float64,
	activityDate shared.Date,
	source Source,
	challengeID shared.ChallengeID,
) (*ActivityEntry, error) {
	if !ecoUserID.IsValid() {
		return nil, shared.NewDomainError("scoring", "NewActivityEntry", shared.ErrInvalidID, "eco user id is required")
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError("scoring", "NewActivityEntry", shared.ErrInvalidInput, "unknown activity source")
	}
	if activityDate.IsZero() {
		return nil, shared.NewDomainError("scoring", "NewActivityEntry", shared.ErrEmptyValue, "activity date is required")
	}

	points, err := action.CalculatePoints(quantity)
	if err != nil {
		return nil, err
	}

	return &ActivityEntry{
		ID:           shared.ActivityID(uuid.NewString()),
		EcoUserID:    ecoUserID,
		ActionID:     action.ID,
		Quantity:     quantity,
		Points:       points,
		Source:       source,
		ActivityDate: activityDate,
		ChallengeID:  challengeID,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// LoggedEvent builds the domain event announcing this entry.
// Publish it only after the entry and its ledger entry have committed.
func (e *ActivityEntry) LoggedEvent() shared.ActivityLoggedEvent {
	return shared.NewActivityLoggedEvent(e.ID, e.EcoUserID, e.Points, e.ActivityDate, e.ChallengeID)
}
