package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the cross-module propagation.
// Each event represents something significant that happened in one module
// and is consumed by the independent downstream modules.
const (
	// Scoring events
	EventActivityLogged EventType = "scoring.activity_logged"

	// Challenge events
	EventChallengeGoalReached EventType = "challenge.goal_reached"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Scoring Events
// ═══════════════════════════════════════════════════════════════════════════

// ActivityLoggedEvent is emitted after an activity entry and its ledger
// entry have been committed. It drives the challenge progress tracker and
// the gamification aggregator.
type ActivityLoggedEvent struct {
	BaseEvent
	ActivityID   ActivityID  `json:"activity_id"`
	EcoUserID    EcoUserID   `json:"eco_user_id"`
	Points       int         `json:"points"`
	ActivityDate Date        `json:"activity_date"`
	ChallengeID  ChallengeID `json:"challenge_id,omitempty"`
}

// Payload implements Event interface.
func (e ActivityLoggedEvent) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"activity_id":   e.ActivityID.String(),
		"eco_user_id":   e.EcoUserID.String(),
		"points":        e.Points,
		"activity_date": e.ActivityDate.String(),
	}
	if e.ChallengeID.IsValid() {
		p["challenge_id"] = e.ChallengeID.String()
	}
	return p
}

// NewActivityLoggedEvent creates a new ActivityLoggedEvent.
// challengeID may be empty when the activity is not tied to a challenge.
func NewActivityLoggedEvent(activityID ActivityID, ecoUserID EcoUserID, points int, activityDate Date, challengeID ChallengeID) ActivityLoggedEvent {
	return ActivityLoggedEvent{
		BaseEvent:    NewBaseEvent(EventActivityLogged, activityID.String()),
		ActivityID:   activityID,
		EcoUserID:    ecoUserID,
		Points:       points,
		ActivityDate: activityDate,
		ChallengeID:  challengeID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Challenge Events
// ═══════════════════════════════════════════════════════════════════════════

// ChallengeGoalReachedEvent is emitted exactly once per participation when
// its accumulated value first reaches the challenge goal.
type ChallengeGoalReachedEvent struct {
	BaseEvent
	ChallengeID ChallengeID `json:"challenge_id"`
	EcoUserID   EcoUserID   `json:"eco_user_id"`
	BonusPoints int         `json:"bonus_points"`
}

// Payload implements Event interface.
func (e ChallengeGoalReachedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"challenge_id": e.ChallengeID.String(),
		"eco_user_id":  e.EcoUserID.String(),
		"bonus_points": e.BonusPoints,
	}
}

// NewChallengeGoalReachedEvent creates a new ChallengeGoalReachedEvent.
func NewChallengeGoalReachedEvent(challengeID ChallengeID, ecoUserID EcoUserID, bonusPoints int) ChallengeGoalReachedEvent {
	return ChallengeGoalReachedEvent{
		BaseEvent:   NewBaseEvent(EventChallengeGoalReached, challengeID.String()),
		ChallengeID: challengeID,
		EcoUserID:   ecoUserID,
		BonusPoints: bonusPoints,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
