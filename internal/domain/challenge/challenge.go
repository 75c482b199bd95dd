// Package challenge contains the challenge context: time-boxed class
// competitions and per-user participation progress.
package challenge

import (
	"time"

	"github.com/google/uuid"

	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// Status is the lifecycle state of a challenge.
// Transitions: DRAFT --activate--> ACTIVE --close--> CLOSED (terminal).
type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// IsValid checks that the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusClosed:
		return true
	}
	return false
}

// GoalUnit is the dimension a challenge goal is expressed in.
// Points goals consume the event's points; quantity goals consume the
// contributing activity's quantity.
type GoalUnit string

const (
	GoalUnitPoints     GoalUnit = "points"
	GoalUnitKilometers GoalUnit = "km"
	GoalUnitKilograms  GoalUnit = "kg"
	GoalUnitCount      GoalUnit = "count"
)

// IsValid checks that the goal unit is one of the known values.
func (u GoalUnit) IsValid() bool {
	switch u {
	case GoalUnitPoints, GoalUnitKilometers, GoalUnitKilograms, GoalUnitCount:
		return true
	}
	return false
}

// Challenge is a time-boxed competition owned by a class.
// Mutable only through guarded state transitions.
type Challenge struct {
	ID          shared.ChallengeID
	Title       string
	Description string
	GoalValue   float64
	GoalUnit    GoalUnit
	Status      Status
	StartDate   shared.Date
	EndDate     shared.Date
	ClassID     shared.ClassID
	CreatedBy   shared.UserID
	BonusPoints int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewChallenge creates a challenge in DRAFT state.
func NewChallenge(
	title, description string,
	goalValue float64,
	goalUnit GoalUnit,
	startDate, endDate shared.Date,
	classID shared.ClassID,
	createdBy shared.UserID,
	bonusPoints int,
) (*Challenge, error) {
	if title == "" {
		return nil, shared.NewDomainError("challenge", "Create", shared.ErrEmptyValue, "title is required")
	}
	if !goalUnit.IsValid() {
		return nil, shared.NewDomainError("challenge", "Create", shared.ErrInvalidInput, "unknown goal unit")
	}
	if goalValue <= 0 {
		return nil, shared.ErrInvalidGoalValue
	}
	if endDate.Before(startDate) {
		return nil, shared.ErrInvalidPeriod
	}
	if !classID.IsValid() {
		return nil, shared.NewDomainError("challenge", "Create", shared.ErrInvalidID, "class id is required")
	}
	if bonusPoints < 0 {
		return nil, shared.NewDomainError("challenge", "Create", shared.ErrNegativeValue, "bonus points cannot be negative")
	}

	now := time.Now().UTC()
	return &Challenge{
		ID:          shared.ChallengeID(uuid.NewString()),
		Title:       title,
		Description: description,
		GoalValue:   goalValue,
		GoalUnit:    goalUnit,
		Status:      StatusDraft,
		StartDate:   startDate,
		EndDate:     endDate,
		ClassID:     classID,
		CreatedBy:   createdBy,
		BonusPoints: bonusPoints,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Activate transitions DRAFT -> ACTIVE.
func (c *Challenge) Activate() error {
	if c.Status != StatusDraft {
		return shared.ErrChallengeNotDraft
	}
	c.Status = StatusActive
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Close transitions ACTIVE -> CLOSED. CLOSED is terminal.
func (c *Challenge) Close() error {
	if c.Status != StatusActive {
		return shared.ErrChallengeNotActive
	}
	c.Status = StatusClosed
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// IsActive reports whether the challenge currently accepts progress.
func (c *Challenge) IsActive() bool {
	return c.Status == StatusActive
}

// IsWithinPeriod reports whether a date falls inside [StartDate, EndDate].
func (c *Challenge) IsWithinPeriod(date shared.Date) bool {
	return !date.Before(c.StartDate) && !date.After(c.EndDate)
}

// Accepts reports whether an activity on the given date may contribute.
func (c *Challenge) Accepts(date shared.Date) bool {
	return c.IsActive() && c.IsWithinPeriod(date)
}
