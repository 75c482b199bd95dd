package profile

import (
	"time"

	"github.com/google/uuid"

	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// Milestone is a badge unlocked when a user's total points reach its
// threshold. Static reference data.
type Milestone struct {
	ID             shared.MilestoneID
	Name           string
	RequiredPoints int64
	BadgeAsset     string
	Description    string
}

// NewMilestone creates a milestone definition.
func NewMilestone(name string, requiredPoints int64, badgeAsset, description string) (*Milestone, error) {
	if name == "" {
		return nil, shared.NewDomainError("profile", "NewMilestone", shared.ErrEmptyValue, "name is required")
	}
	if requiredPoints < 0 {
		return nil, shared.NewDomainError("profile", "NewMilestone", shared.ErrNegativeValue, "required points cannot be negative")
	}
	return &Milestone{
		ID:             shared.MilestoneID(uuid.NewString()),
		Name:           name,
		RequiredPoints: requiredPoints,
		BadgeAsset:     badgeAsset,
		Description:    description,
	}, nil
}

// EcoUser is the gamification profile of a user: cumulative points, the
// derived level and the set of unlocked milestones. Mutated only by the
// gamification aggregator, under optimistic concurrency (Version) because
// concurrent activity handlers race on the same row.
type EcoUser struct {
	ID          shared.EcoUserID
	UserID      shared.UserID
	ClassID     shared.ClassID // empty when the user is not in a class
	TotalPoints int64
	Level       Level
	Milestones  map[shared.MilestoneID]struct{}
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewEcoUser creates a profile for an externally managed identity.
func NewEcoUser(userID shared.UserID, classID shared.ClassID) (*EcoUser, error) {
	if !userID.IsValid() {
		return nil, shared.NewDomainError("profile", "NewEcoUser", shared.ErrInvalidID, "user id is required")
	}
	now := time.Now().UTC()
	return &EcoUser{
		ID:         shared.EcoUserID(uuid.NewString()),
		UserID:     userID,
		ClassID:    classID,
		Level:      LevelSeedling,
		Milestones: make(map[shared.MilestoneID]struct{}),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// AddPoints adds earned points and recomputes the level.
func (u *EcoUser) AddPoints(points int) {
	u.adjust(int64(points))
}

// AdjustPoints applies a signed manual correction and recomputes the level;
// a negative delta moves the level down consistently.
func (u *EcoUser) AdjustPoints(delta int) {
	u.adjust(int64(delta))
}

func (u *EcoUser) adjust(delta int64) {
	u.TotalPoints += delta
	u.Level = LevelFromPoints(u.TotalPoints)
	u.UpdatedAt = time.Now().UTC()
}

// UnlockMilestone adds a milestone to the unlocked set if its threshold is
// met. Set semantics: unlocking an already-present milestone is a no-op,
// never an error. Returns true when the set changed.
func (u *EcoUser) UnlockMilestone(m *Milestone) bool {
	if u.TotalPoints < m.RequiredPoints {
		return false
	}
	if u.Milestones == nil {
		u.Milestones = make(map[shared.MilestoneID]struct{})
	}
	if _, ok := u.Milestones[m.ID]; ok {
		return false
	}
	u.Milestones[m.ID] = struct{}{}
	u.UpdatedAt = time.Now().UTC()
	return true
}

// HasMilestone reports whether a milestone is unlocked.
func (u *EcoUser) HasMilestone(id shared.MilestoneID) bool {
	_, ok := u.Milestones[id]
	return ok
}
