package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/scoring"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
	"github.com/michi-haensler/EcoTrack/pkg/retry"
)

// AdjustPointsCommand applies a signed manual correction to a user's points.
// The delta is written to the ledger first so the audit trail stays the
// source of truth, then the aggregate catches up in the same call.
type AdjustPointsCommand struct {
	EcoUserID   shared.EcoUserID
	Delta       int
	Description string
}

// Validate validates the command.
func (c AdjustPointsCommand) Validate() error {
	if !c.EcoUserID.IsValid() {
		return shared.NewDomainError("scoring", "AdjustPoints", shared.ErrInvalidID, "eco user id is required")
	}
	if c.Delta == 0 {
		return shared.NewDomainError("scoring", "AdjustPoints", shared.ErrInvalidInput, "delta cannot be zero")
	}
	return nil
}

// AdjustPointsHandler handles the AdjustPointsCommand.
type AdjustPointsHandler struct {
	ledgerRepo  scoring.LedgerRepository
	profileRepo profile.Repository
	retrier     *retry.Retrier
	logger      *slog.Logger
}

// NewAdjustPointsHandler creates a new AdjustPointsHandler.
func NewAdjustPointsHandler(
	ledgerRepo scoring.LedgerRepository,
	profileRepo profile.Repository,
	logger *slog.Logger,
) *AdjustPointsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdjustPointsHandler{
		ledgerRepo:  ledgerRepo,
		profileRepo: profileRepo,
		retrier: retry.New(
			retry.WithMaxAttempts(5),
			retry.WithInitialDelay(10*time.Millisecond),
			retry.WithRetryIf(shared.IsConflict),
		),
		logger: logger.With("command", "adjust_points"),
	}
}

// Handle appends a manual-adjustment ledger entry and updates the profile.
// A negative delta lowers totalPoints and the level recomputes downward
// consistently; unlocked milestones are kept (badges are write-once).
func (h *AdjustPointsHandler) Handle(ctx context.Context, cmd AdjustPointsCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	// Profile must exist before the ledger entry is written.
	if _, err := h.profileRepo.GetByID(ctx, cmd.EcoUserID); err != nil {
		return err
	}

	entry := scoring.LedgerEntryForAdjustment(cmd.EcoUserID, cmd.Delta, cmd.Description)
	if err := h.ledgerRepo.Append(ctx, entry); err != nil {
		return shared.WrapError("scoring", "AdjustPoints", shared.ErrInvalidEntity, "append ledger entry", err)
	}

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		u, err := h.profileRepo.GetByID(ctx, cmd.EcoUserID)
		if err != nil {
			return retry.Permanent(err)
		}
		u.AdjustPoints(cmd.Delta)
		return h.profileRepo.Update(ctx, u)
	})
	if err != nil {
		// Ledger entry is durable; the reconcile sweep repairs the aggregate.
		h.logger.Error("failed to apply adjustment to profile",
			"eco_user_id", cmd.EcoUserID,
			"delta", cmd.Delta,
			"error", err,
		)
		return err
	}

	h.logger.Info("points adjusted", "eco_user_id", cmd.EcoUserID, "delta", cmd.Delta)
	return nil
}
