package query

import (
	"context"

	"github.com/michi-haensler/EcoTrack/internal/domain/scoring"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// GET USER ACTIVITIES QUERY
// Returns a user's activity history in a date window, newest first.
// ═══════════════════════════════════════════════════════════════════════════

// GetUserActivitiesQuery selects a user's activities in [From, To].
// Zero dates default to the last 30 days ending today. A positive Limit
// switches to recency mode: the newest Limit entries regardless of window.
type GetUserActivitiesQuery struct {
	EcoUserID shared.EcoUserID
	From      shared.Date
	To        shared.Date
	Limit     int
}

// Validate normalizes and checks the query parameters.
func (q *GetUserActivitiesQuery) Validate() error {
	if !q.EcoUserID.IsValid() {
		return shared.NewDomainError("query", "GetUserActivities", shared.ErrInvalidID, "eco user id is required")
	}
	if q.Limit < 0 {
		return shared.NewDomainError("query", "GetUserActivities", shared.ErrInvalidInput, "limit cannot be negative")
	}
	if q.Limit > 0 {
		return nil
	}
	if q.To.IsZero() {
		q.To = shared.Today()
	}
	if q.From.IsZero() {
		q.From = q.To.AddDays(-30)
	}
	if q.To.Before(q.From) {
		return shared.NewDomainError("query", "GetUserActivities", shared.ErrInvalidInput, "to date precedes from date")
	}
	return nil
}

// ActivityDTO is one logged activity.
type ActivityDTO struct {
	ID           shared.ActivityID  `json:"id"`
	ActionID     shared.ActionID    `json:"action_id"`
	Quantity     float64            `json:"quantity"`
	Points       int                `json:"points"`
	Source       scoring.Source     `json:"source"`
	ActivityDate shared.Date        `json:"activity_date"`
	ChallengeID  shared.ChallengeID `json:"challenge_id,omitempty"`
}

// GetUserActivitiesResult is the activity history page.
type GetUserActivitiesResult struct {
	EcoUserID   shared.EcoUserID `json:"eco_user_id"`
	From        shared.Date      `json:"from"`
	To          shared.Date      `json:"to"`
	Activities  []ActivityDTO    `json:"activities"`
	TotalPoints int              `json:"total_points"`
}

// GetUserActivitiesHandler handles the GetUserActivitiesQuery.
type GetUserActivitiesHandler struct {
	activityRepo scoring.ActivityRepository
}

// NewGetUserActivitiesHandler creates a new GetUserActivitiesHandler.
func NewGetUserActivitiesHandler(activityRepo scoring.ActivityRepository) *GetUserActivitiesHandler {
	return &GetUserActivitiesHandler{activityRepo: activityRepo}
}

// Handle executes the query.
func (h *GetUserActivitiesHandler) Handle(ctx context.Context, query GetUserActivitiesQuery) (*GetUserActivitiesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		entries []*scoring.ActivityEntry
		err     error
	)
	if query.Limit > 0 {
		entries, err = h.activityRepo.ListRecent(ctx, query.EcoUserID, query.Limit)
	} else {
		entries, err = h.activityRepo.ListByUser(ctx, query.EcoUserID, query.From, query.To)
	}
	if err != nil {
		return nil, shared.WrapError("query", "GetUserActivities", shared.ErrInvalidEntity, "load activities", err)
	}

	result := &GetUserActivitiesResult{
		EcoUserID:  query.EcoUserID,
		From:       query.From,
		To:         query.To,
		Activities: make([]ActivityDTO, 0, len(entries)),
	}
	for _, e := range entries {
		result.Activities = append(result.Activities, ActivityDTO{
			ID:           e.ID,
			ActionID:     e.ActionID,
			Quantity:     e.Quantity,
			Points:       e.Points,
			Source:       e.Source,
			ActivityDate: e.ActivityDate,
			ChallengeID:  e.ChallengeID,
		})
		result.TotalPoints += e.Points
	}
	return result, nil
}
