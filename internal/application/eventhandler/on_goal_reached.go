package eventhandler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/michi-haensler/EcoTrack/internal/domain/challenge"
	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/scoring"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
	"github.com/michi-haensler/EcoTrack/pkg/retry"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON GOAL REACHED — BONUS AWARD
// Pays out the completion bonus: marks the participation awarded, appends
// the ledger entry and folds the bonus into the profile. The participation
// guard makes the payout at most-once even when the event fires twice.
// ═══════════════════════════════════════════════════════════════════════════

// OnGoalReachedHandler awards the challenge completion bonus.
type OnGoalReachedHandler struct {
	challengeRepo challenge.Repository
	ledgerRepo    scoring.LedgerRepository
	profileRepo   profile.Repository
	milestoneRepo profile.MilestoneRepository
	retrier       *retry.Retrier
	logger        *slog.Logger
}

// NewOnGoalReachedHandler creates the handler.
func NewOnGoalReachedHandler(
	challengeRepo challenge.Repository,
	ledgerRepo scoring.LedgerRepository,
	profileRepo profile.Repository,
	milestoneRepo profile.MilestoneRepository,
	logger *slog.Logger,
) *OnGoalReachedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnGoalReachedHandler{
		challengeRepo: challengeRepo,
		ledgerRepo:    ledgerRepo,
		profileRepo:   profileRepo,
		milestoneRepo: milestoneRepo,
		retrier: retry.New(
			retry.WithMaxAttempts(5),
			retry.WithInitialDelay(10*time.Millisecond),
			retry.WithRetryIf(shared.IsConflict),
		),
		logger: logger.With("handler", "on_goal_reached"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnGoalReachedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	e, ok := event.(shared.ChallengeGoalReachedEvent)
	if !ok {
		h.logger.Warn("received non-ChallengeGoalReachedEvent", "event_type", event.EventType())
		return nil
	}

	// Claim the payout first. The BonusAwarded flag on the participation is
	// the single source of truth for "was the bonus already paid".
	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		p, err := h.challengeRepo.GetParticipation(ctx, e.ChallengeID, e.EcoUserID)
		if err != nil {
			return retry.Permanent(err)
		}
		if err := p.AwardBonus(); err != nil {
			return retry.Permanent(err)
		}
		return h.challengeRepo.SaveParticipation(ctx, p)
	})
	if err != nil {
		if errors.Is(err, shared.ErrBonusAlreadyAwarded) {
			h.logger.Debug("bonus already awarded",
				"challenge_id", e.ChallengeID,
				"eco_user_id", e.EcoUserID,
			)
			return nil
		}
		h.logger.Error("failed to claim challenge bonus",
			"challenge_id", e.ChallengeID,
			"eco_user_id", e.EcoUserID,
			"error", err,
		)
		return err
	}

	if e.BonusPoints <= 0 {
		return nil
	}

	entry := scoring.LedgerEntryForChallengeBonus(e.EcoUserID, e.ChallengeID, e.BonusPoints)
	if err := h.ledgerRepo.Append(ctx, entry); err != nil {
		h.logger.Error("failed to append bonus ledger entry",
			"challenge_id", e.ChallengeID,
			"eco_user_id", e.EcoUserID,
			"error", err,
		)
		return err
	}

	err = h.retrier.Do(ctx, func(ctx context.Context) error {
		u, err := h.profileRepo.GetByID(ctx, e.EcoUserID)
		if err != nil {
			return retry.Permanent(err)
		}
		u.AddPoints(e.BonusPoints)

		reachable, err := h.milestoneRepo.ListReachable(ctx, u.TotalPoints)
		if err != nil {
			return retry.Permanent(err)
		}
		for _, m := range reachable {
			u.UnlockMilestone(m)
		}

		return h.profileRepo.Update(ctx, u)
	})
	if err != nil {
		// The ledger entry is durable; the reconcile sweep closes the gap.
		h.logger.Error("failed to apply bonus to profile",
			"eco_user_id", e.EcoUserID,
			"bonus_points", e.BonusPoints,
			"error", err,
		)
		return err
	}

	h.logger.Info("challenge bonus awarded",
		"challenge_id", e.ChallengeID,
		"eco_user_id", e.EcoUserID,
		"bonus_points", e.BonusPoints,
	)
	return nil
}
