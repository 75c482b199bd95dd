package challenge

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// Participation tracks one user's progress in one challenge.
// Created lazily on the first contributing activity; the (ChallengeID,
// EcoUserID) pair is unique. Mutated only by the progress tracker, under
// optimistic concurrency (Version).
type Participation struct {
	ID           string
	ChallengeID  shared.ChallengeID
	EcoUserID    shared.EcoUserID
	CurrentValue float64
	GoalReached  bool
	BonusAwarded bool
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewParticipation creates an empty participation for a user.
func NewParticipation(challengeID shared.ChallengeID, ecoUserID shared.EcoUserID) *Participation {
	now := time.Now().UTC()
	return &Participation{
		ID:          uuid.NewString(),
		ChallengeID: challengeID,
		EcoUserID:   ecoUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddProgress accumulates a contribution towards the goal. It returns true
// only on the call that first pushes CurrentValue over the goal, so the
// goal-reached event fires exactly once per participation.
func (p *Participation) AddProgress(value, goalValue float64) bool {
	p.CurrentValue += value
	p.UpdatedAt = time.Now().UTC()

	if p.GoalReached || p.CurrentValue < goalValue {
		return false
	}
	p.GoalReached = true
	return true
}

// AwardBonus marks the completion bonus as paid out. Guarded so the bonus
// is issued at most once even when the goal-reached path runs twice.
func (p *Participation) AwardBonus() error {
	if !p.GoalReached {
		return shared.ErrGoalNotReached
	}
	if p.BonusAwarded {
		return shared.ErrBonusAlreadyAwarded
	}
	p.BonusAwarded = true
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ProgressPercent returns the progress as a whole percentage, floored and
// capped at 100.
func (p *Participation) ProgressPercent(goalValue float64) int {
	if goalValue <= 0 {
		return 0
	}
	pct := int(math.Floor(p.CurrentValue / goalValue * 100))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}
