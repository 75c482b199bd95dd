package eventhandler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/michi-haensler/EcoTrack/internal/domain/challenge"
	"github.com/michi-haensler/EcoTrack/internal/domain/scoring"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
	"github.com/michi-haensler/EcoTrack/pkg/retry"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON CHALLENGE PROGRESS — CHALLENGE PROGRESS TRACKER
// Folds a challenge-tagged activity into the user's participation.
// The participation is created lazily on the first contribution; two
// handlers racing on the same (challenge, user) pair are resolved by the
// unique constraint plus optimistic-lock retry.
// ═══════════════════════════════════════════════════════════════════════════

// OnChallengeProgressHandler advances participation progress and emits the
// goal-reached event on the first crossing.
type OnChallengeProgressHandler struct {
	challengeRepo challenge.Repository
	activityRepo  scoring.ActivityRepository
	publisher     shared.EventPublisher
	retrier       *retry.Retrier
	logger        *slog.Logger
}

// NewOnChallengeProgressHandler creates the handler.
func NewOnChallengeProgressHandler(
	challengeRepo challenge.Repository,
	activityRepo scoring.ActivityRepository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *OnChallengeProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnChallengeProgressHandler{
		challengeRepo: challengeRepo,
		activityRepo:  activityRepo,
		publisher:     publisher,
		retrier: retry.New(
			retry.WithMaxAttempts(5),
			retry.WithInitialDelay(10*time.Millisecond),
			// A lost insert race surfaces as ErrAlreadyExists; the next
			// attempt loads the winner's row and updates it.
			retry.WithRetryIf(func(err error) bool {
				return shared.IsConflict(err) || shared.IsAlreadyExists(err)
			}),
		),
		logger: logger.With("handler", "on_challenge_progress"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnChallengeProgressHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	e, ok := event.(shared.ActivityLoggedEvent)
	if !ok {
		h.logger.Warn("received non-ActivityLoggedEvent", "event_type", event.EventType())
		return nil
	}

	// Untagged activities never touch challenge state.
	if !e.ChallengeID.IsValid() {
		return nil
	}

	ch, err := h.challengeRepo.GetByID(ctx, e.ChallengeID)
	if err != nil {
		if shared.IsNotFound(err) {
			h.logger.Warn("activity references unknown challenge",
				"challenge_id", e.ChallengeID,
				"activity_id", e.ActivityID,
			)
			return nil
		}
		return err
	}

	// Closed or out-of-period challenges silently ignore contributions.
	if !ch.Accepts(e.ActivityDate) {
		h.logger.Debug("challenge does not accept activity",
			"challenge_id", ch.ID,
			"status", ch.Status,
			"activity_date", e.ActivityDate,
		)
		return nil
	}

	value, err := h.contribution(ctx, ch, e)
	if err != nil {
		return err
	}
	if value <= 0 {
		return nil
	}

	var reached bool
	err = h.retrier.Do(ctx, func(ctx context.Context) error {
		p, err := h.challengeRepo.GetParticipation(ctx, ch.ID, e.EcoUserID)
		switch {
		case shared.IsNotFound(err):
			p = challenge.NewParticipation(ch.ID, e.EcoUserID)
		case err != nil:
			return retry.Permanent(err)
		}

		reached = p.AddProgress(value, ch.GoalValue)

		// ErrAlreadyExists means a concurrent first contribution won the
		// insert race; the next attempt loads the winner's row.
		return h.challengeRepo.SaveParticipation(ctx, p)
	})
	if err != nil {
		h.logger.Error("failed to record challenge progress",
			"challenge_id", ch.ID,
			"eco_user_id", e.EcoUserID,
			"error", err,
		)
		return err
	}

	if reached {
		h.logger.Info("challenge goal reached",
			"challenge_id", ch.ID,
			"eco_user_id", e.EcoUserID,
			"bonus_points", ch.BonusPoints,
		)
		goalEvent := shared.NewChallengeGoalReachedEvent(ch.ID, e.EcoUserID, ch.BonusPoints)
		if err := h.publisher.Publish(goalEvent); err != nil {
			// Progress is durable; only the bonus payout is delayed until
			// the award path is triggered again.
			h.logger.Error("failed to publish goal reached event",
				"challenge_id", ch.ID,
				"eco_user_id", e.EcoUserID,
				"error", err,
			)
		}
	}
	return nil
}

// contribution maps the event onto the challenge's goal unit. Points goals
// consume the event's points; quantity goals need the activity entry, since
// the event only carries points.
func (h *OnChallengeProgressHandler) contribution(ctx context.Context, ch *challenge.Challenge, e shared.ActivityLoggedEvent) (float64, error) {
	if ch.GoalUnit == challenge.GoalUnitPoints {
		return float64(e.Points), nil
	}

	entry, err := h.activityRepo.GetEntry(ctx, e.ActivityID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.logger.Warn("activity entry missing for challenge progress",
				"activity_id", e.ActivityID,
			)
			return 0, nil
		}
		return 0, err
	}

	return entry.Quantity, nil
}
