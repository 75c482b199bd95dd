package command

import (
	"context"
	"log/slog"

	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// RegisterUserCommand creates the gamification profile for an externally
// managed identity. Profiles must exist before activities reference them:
// the aggregator treats a missing profile as a handler failure.
type RegisterUserCommand struct {
	// UserID is the external identity (unique per profile).
	UserID shared.UserID

	// ClassID optionally places the user in a class.
	ClassID shared.ClassID
}

// RegisterUserHandler handles the RegisterUserCommand.
type RegisterUserHandler struct {
	profileRepo profile.Repository
	logger      *slog.Logger
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
func NewRegisterUserHandler(profileRepo profile.Repository, logger *slog.Logger) *RegisterUserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegisterUserHandler{
		profileRepo: profileRepo,
		logger:      logger.With("command", "register_user"),
	}
}

// Handle creates the profile.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*profile.EcoUser, error) {
	u, err := profile.NewEcoUser(cmd.UserID, cmd.ClassID)
	if err != nil {
		return nil, err
	}
	if err := h.profileRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	h.logger.Info("eco user registered", "eco_user_id", u.ID, "user_id", u.UserID)
	return u, nil
}
