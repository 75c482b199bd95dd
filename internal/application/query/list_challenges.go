package query

import (
	"context"

	"github.com/michi-haensler/EcoTrack/internal/domain/challenge"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// LIST CHALLENGES QUERY
// Lists a class's challenges, optionally restricted to active ones.
// ═══════════════════════════════════════════════════════════════════════════

// ListChallengesQuery selects the challenges of a class.
type ListChallengesQuery struct {
	ClassID    shared.ClassID
	ActiveOnly bool
}

// Validate checks the query parameters.
func (q ListChallengesQuery) Validate() error {
	if !q.ClassID.IsValid() {
		return shared.NewDomainError("query", "ListChallenges", shared.ErrInvalidID, "class id is required")
	}
	return nil
}

// ChallengeDTO is one challenge row.
type ChallengeDTO struct {
	ID          shared.ChallengeID `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	GoalValue   float64            `json:"goal_value"`
	GoalUnit    challenge.GoalUnit `json:"goal_unit"`
	Status      challenge.Status   `json:"status"`
	StartDate   shared.Date        `json:"start_date"`
	EndDate     shared.Date        `json:"end_date"`
	BonusPoints int                `json:"bonus_points"`
}

// ListChallengesHandler handles the ListChallengesQuery.
type ListChallengesHandler struct {
	challengeRepo challenge.Repository
}

// NewListChallengesHandler creates a new ListChallengesHandler.
func NewListChallengesHandler(challengeRepo challenge.Repository) *ListChallengesHandler {
	return &ListChallengesHandler{challengeRepo: challengeRepo}
}

// Handle executes the query.
func (h *ListChallengesHandler) Handle(ctx context.Context, query ListChallengesQuery) ([]ChallengeDTO, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		challenges []*challenge.Challenge
		err        error
	)
	if query.ActiveOnly {
		challenges, err = h.challengeRepo.ListActiveByClass(ctx, query.ClassID)
	} else {
		challenges, err = h.challengeRepo.ListByClass(ctx, query.ClassID)
	}
	if err != nil {
		return nil, shared.WrapError("query", "ListChallenges", shared.ErrInvalidEntity, "load challenges", err)
	}

	dtos := make([]ChallengeDTO, 0, len(challenges))
	for _, c := range challenges {
		dtos = append(dtos, ChallengeDTO{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			GoalValue:   c.GoalValue,
			GoalUnit:    c.GoalUnit,
			Status:      c.Status,
			StartDate:   c.StartDate,
			EndDate:     c.EndDate,
			BonusPoints: c.BonusPoints,
		})
	}
	return dtos, nil
}
