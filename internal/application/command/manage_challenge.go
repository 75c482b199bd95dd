package command

import (
	"context"
	"log/slog"

	"github.com/michi-haensler/EcoTrack/internal/domain/challenge"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MANAGE CHALLENGE COMMANDS
// Create / activate / close. Progress accumulation lives in the event
// handlers, not here.
// ══════════════════════════════════════════════════════════════════════════════

// CreateChallengeCommand contains the data to create a draft challenge.
type CreateChallengeCommand struct {
	Title       string
	Description string
	GoalValue   float64
	GoalUnit    challenge.GoalUnit
	StartDate   shared.Date
	EndDate     shared.Date
	ClassID     shared.ClassID
	CreatedBy   shared.UserID
	BonusPoints int
}

// ManageChallengeHandler handles challenge lifecycle commands.
type ManageChallengeHandler struct {
	challengeRepo challenge.Repository
	logger        *slog.Logger
}

// NewManageChallengeHandler creates a new ManageChallengeHandler.
func NewManageChallengeHandler(challengeRepo challenge.Repository, logger *slog.Logger) *ManageChallengeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ManageChallengeHandler{
		challengeRepo: challengeRepo,
		logger:        logger.With("command", "manage_challenge"),
	}
}

// Create creates a challenge in DRAFT state.
func (h *ManageChallengeHandler) Create(ctx context.Context, cmd CreateChallengeCommand) (*challenge.Challenge, error) {
	c, err := challenge.NewChallenge(
		cmd.Title,
		cmd.Description,
		cmd.GoalValue,
		cmd.GoalUnit,
		cmd.StartDate,
		cmd.EndDate,
		cmd.ClassID,
		cmd.CreatedBy,
		cmd.BonusPoints,
	)
	if err != nil {
		return nil, err
	}
	if err := h.challengeRepo.Save(ctx, c); err != nil {
		return nil, shared.WrapError("challenge", "Create", shared.ErrInvalidEntity, "persist challenge", err)
	}
	h.logger.Info("challenge created", "challenge_id", c.ID, "class_id", c.ClassID)
	return c, nil
}

// Activate transitions a challenge from DRAFT to ACTIVE.
func (h *ManageChallengeHandler) Activate(ctx context.Context, id shared.ChallengeID) (*challenge.Challenge, error) {
	return h.transition(ctx, id, (*challenge.Challenge).Activate)
}

// Close transitions a challenge from ACTIVE to CLOSED.
func (h *ManageChallengeHandler) Close(ctx context.Context, id shared.ChallengeID) (*challenge.Challenge, error) {
	return h.transition(ctx, id, (*challenge.Challenge).Close)
}

func (h *ManageChallengeHandler) transition(ctx context.Context, id shared.ChallengeID, apply func(*challenge.Challenge) error) (*challenge.Challenge, error) {
	c, err := h.challengeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(c); err != nil {
		return nil, err
	}
	if err := h.challengeRepo.Save(ctx, c); err != nil {
		return nil, shared.WrapError("challenge", "Transition", shared.ErrInvalidEntity, "persist challenge", err)
	}
	h.logger.Info("challenge status changed", "challenge_id", c.ID, "status", c.Status)
	return c, nil
}
