// Package eventhandler contains the domain event handlers.
// They are the propagation half of the system: each handler consumes one
// event type and updates its own module's state, so a failure in one never
// blocks the others.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
	"github.com/michi-haensler/EcoTrack/pkg/retry"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ACTIVITY LOGGED — GAMIFICATION AGGREGATOR
// Folds earned points into the user's profile: total, level, milestones.
// Concurrent activity handlers race on the same profile row, so the whole
// load-mutate-store cycle runs under optimistic-lock retry.
// ═══════════════════════════════════════════════════════════════════════════

// OnActivityLoggedHandler applies logged activity points to the profile.
type OnActivityLoggedHandler struct {
	profileRepo   profile.Repository
	milestoneRepo profile.MilestoneRepository
	retrier       *retry.Retrier
	logger        *slog.Logger
}

// NewOnActivityLoggedHandler creates the handler.
func NewOnActivityLoggedHandler(
	profileRepo profile.Repository,
	milestoneRepo profile.MilestoneRepository,
	logger *slog.Logger,
) *OnActivityLoggedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnActivityLoggedHandler{
		profileRepo:   profileRepo,
		milestoneRepo: milestoneRepo,
		retrier: retry.New(
			retry.WithMaxAttempts(5),
			retry.WithInitialDelay(10*time.Millisecond),
			retry.WithRetryIf(shared.IsConflict),
		),
		logger: logger.With("handler", "on_activity_logged"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnActivityLoggedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	e, ok := event.(shared.ActivityLoggedEvent)
	if !ok {
		h.logger.Warn("received non-ActivityLoggedEvent", "event_type", event.EventType())
		return nil
	}

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		u, err := h.profileRepo.GetByID(ctx, e.EcoUserID)
		if err != nil {
			return retry.Permanent(err)
		}

		u.AddPoints(e.Points)

		// Milestones unlock as a consequence of the new total. The set is
		// idempotent, so re-delivery of the same points is harmless.
		reachable, err := h.milestoneRepo.ListReachable(ctx, u.TotalPoints)
		if err != nil {
			return retry.Permanent(err)
		}
		for _, m := range reachable {
			if u.UnlockMilestone(m) {
				h.logger.Info("milestone unlocked",
					"eco_user_id", u.ID,
					"milestone_id", m.ID,
					"milestone", m.Name,
				)
			}
		}

		return h.profileRepo.Update(ctx, u)
	})
	if err != nil {
		h.logger.Error("failed to apply activity points to profile",
			"eco_user_id", e.EcoUserID,
			"activity_id", e.ActivityID,
			"points", e.Points,
			"error", err,
		)
		return err
	}

	h.logger.Debug("profile updated from activity",
		"eco_user_id", e.EcoUserID,
		"points", e.Points,
	)
	return nil
}
