package query

import (
	"context"

	"github.com/michi-haensler/EcoTrack/internal/domain/challenge"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// GET CHALLENGE PROGRESS QUERY
// Returns one user's progress in a challenge. A user who has not
// contributed yet gets a zero-progress row, not an error.
// ═══════════════════════════════════════════════════════════════════════════

// GetChallengeProgressQuery selects a (challenge, user) pair.
type GetChallengeProgressQuery struct {
	ChallengeID shared.ChallengeID
	EcoUserID   shared.EcoUserID
}

// Validate checks the query parameters.
func (q GetChallengeProgressQuery) Validate() error {
	if !q.ChallengeID.IsValid() {
		return shared.NewDomainError("query", "GetChallengeProgress", shared.ErrInvalidID, "challenge id is required")
	}
	if !q.EcoUserID.IsValid() {
		return shared.NewDomainError("query", "GetChallengeProgress", shared.ErrInvalidID, "eco user id is required")
	}
	return nil
}

// ChallengeProgressDTO is the progress view.
type ChallengeProgressDTO struct {
	ChallengeID     shared.ChallengeID `json:"challenge_id"`
	Title           string             `json:"title"`
	Status          challenge.Status   `json:"status"`
	GoalValue       float64            `json:"goal_value"`
	GoalUnit        challenge.GoalUnit `json:"goal_unit"`
	CurrentValue    float64            `json:"current_value"`
	ProgressPercent int                `json:"progress_percent"`
	GoalReached     bool               `json:"goal_reached"`
	BonusAwarded    bool               `json:"bonus_awarded"`
	BonusPoints     int                `json:"bonus_points"`
}

// GetChallengeProgressHandler handles the GetChallengeProgressQuery.
type GetChallengeProgressHandler struct {
	challengeRepo challenge.Repository
}

// NewGetChallengeProgressHandler creates a new GetChallengeProgressHandler.
func NewGetChallengeProgressHandler(challengeRepo challenge.Repository) *GetChallengeProgressHandler {
	return &GetChallengeProgressHandler{challengeRepo: challengeRepo}
}

// Handle executes the query.
func (h *GetChallengeProgressHandler) Handle(ctx context.Context, query GetChallengeProgressQuery) (*ChallengeProgressDTO, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ch, err := h.challengeRepo.GetByID(ctx, query.ChallengeID)
	if err != nil {
		return nil, err
	}

	dto := &ChallengeProgressDTO{
		ChallengeID: ch.ID,
		Title:       ch.Title,
		Status:      ch.Status,
		GoalValue:   ch.GoalValue,
		GoalUnit:    ch.GoalUnit,
		BonusPoints: ch.BonusPoints,
	}

	p, err := h.challengeRepo.GetParticipation(ctx, query.ChallengeID, query.EcoUserID)
	switch {
	case shared.IsNotFound(err):
		// No contribution yet.
		return dto, nil
	case err != nil:
		return nil, err
	}

	dto.CurrentValue = p.CurrentValue
	dto.ProgressPercent = p.ProgressPercent(ch.GoalValue)
	dto.GoalReached = p.GoalReached
	dto.BonusAwarded = p.BonusAwarded
	return dto, nil
}
