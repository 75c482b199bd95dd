package scoring

import (
	"time"

	"github.com/google/uuid"

	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// TransactionType classifies a ledger movement.
type TransactionType string

const (
	TransactionActivityLogged   TransactionType = "activity_logged"
	TransactionChallengeBonus   TransactionType = "challenge_bonus"
	TransactionManualAdjustment TransactionType = "manual_adjustment"
	TransactionPointsExpired    TransactionType = "points_expired"
)

// IsValid checks that the transaction type is one of the known values.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionActivityLogged, TransactionChallengeBonus,
		TransactionManualAdjustment, TransactionPointsExpired:
		return true
	}
	return false
}

// Reference types recorded alongside ledger entries.
const (
	ReferenceActivityEntry = "ActivityEntry"
	ReferenceChallenge     = "Challenge"
	ReferenceManual        = "Manual"
)

// LedgerEntry records a single point movement for audit and reconciliation.
// Append-only: entries are never updated or deleted. The sum of a user's
// ledger entries must equal the totalPoints maintained by the gamification
// aggregator; the reconcile job enforces this.
type LedgerEntry struct {
	ID              string
	EcoUserID       shared.EcoUserID
	Points          shared.Points // signed delta
	TransactionType TransactionType
	ReferenceID     string
	ReferenceType   string
	Description     string
	CreatedAt       time.Time
}

// LedgerEntryForActivity records the points earned by an activity entry.
func LedgerEntryForActivity(ecoUserID shared.EcoUserID, activityID shared.ActivityID, points int) *LedgerEntry {
	return &LedgerEntry{
		ID:              uuid.NewString(),
		EcoUserID:       ecoUserID,
		Points:          shared.Points(points),
		TransactionType: TransactionActivityLogged,
		ReferenceID:     activityID.String(),
		ReferenceType:   ReferenceActivityEntry,
		Description:     "points for logged activity",
		CreatedAt:       time.Now().UTC(),
	}
}

// LedgerEntryForChallengeBonus records a bonus for a completed challenge.
func LedgerEntryForChallengeBonus(ecoUserID shared.EcoUserID, challengeID shared.ChallengeID, bonusPoints int) *LedgerEntry {
	return &LedgerEntry{
		ID:              uuid.NewString(),
		EcoUserID:       ecoUserID,
		Points:          shared.Points(bonusPoints),
		TransactionType: TransactionChallengeBonus,
		ReferenceID:     challengeID.String(),
		ReferenceType:   ReferenceChallenge,
		Description:     "bonus for completed challenge",
		CreatedAt:       time.Now().UTC(),
	}
}

// LedgerEntryForAdjustment records a manual correction by an administrator.
// The delta may be negative.
func LedgerEntryForAdjustment(ecoUserID shared.EcoUserID, points int, description string) *LedgerEntry {
	if description == "" {
		description = "manual adjustment"
	}
	return &LedgerEntry{
		ID:              uuid.NewString(),
		EcoUserID:       ecoUserID,
		Points:          shared.Points(points),
		TransactionType: TransactionManualAdjustment,
		ReferenceType:   ReferenceManual,
		Description:     description,
		CreatedAt:       time.Now().UTC(),
	}
}
