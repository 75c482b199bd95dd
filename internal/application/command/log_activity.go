// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"log/slog"

	"github.com/michi-haensler/EcoTrack/internal/domain/scoring"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOG ACTIVITY COMMAND
// The sole mutation entry point into the scoring core. Persists the activity
// entry and its ledger entry atomically, then publishes ActivityLogged so the
// challenge and profile modules catch up in their own units of work.
// ══════════════════════════════════════════════════════════════════════════════

// LogActivityCommand contains the data to record an activity.
type LogActivityCommand struct {
	// EcoUserID is the acting user's profile ID.
	EcoUserID shared.EcoUserID

	// ActionID references an action definition in the catalog.
	ActionID shared.ActionID

	// Quantity is the performed amount in the action's unit. Must be > 0.
	Quantity float64

	// ActivityDate is the civil date the action was performed on.
	// Defaults to today when zero.
	ActivityDate shared.Date

	// Source is the recording channel. Defaults to the app.
	Source scoring.Source

	// ChallengeID optionally ties the activity to a challenge.
	ChallengeID shared.ChallengeID
}

// Validate validates the command.
func (c LogActivityCommand) Validate() error {
	if !c.EcoUserID.IsValid() {
		return shared.NewDomainError("scoring", "LogActivity", shared.ErrInvalidID, "eco user id is required")
	}
	if !c.ActionID.IsValid() {
		return shared.NewDomainError("scoring", "LogActivity", shared.ErrInvalidID, "action id is required")
	}
	if c.Quantity <= 0 {
		return shared.ErrInvalidQuantity
	}
	return nil
}

// ActivityEntryView is the caller-facing projection of a recorded activity.
type ActivityEntryView struct {
	ID           shared.ActivityID  `json:"id"`
	EcoUserID    shared.EcoUserID   `json:"eco_user_id"`
	ActionID     shared.ActionID    `json:"action_id"`
	ActionName   string             `json:"action_name"`
	Quantity     float64            `json:"quantity"`
	Points       int                `json:"points"`
	Source       scoring.Source     `json:"source"`
	ActivityDate shared.Date        `json:"activity_date"`
	ChallengeID  shared.ChallengeID `json:"challenge_id,omitempty"`
}

// LogActivityHandler handles the LogActivityCommand.
type LogActivityHandler struct {
	actionRepo   scoring.ActionDefinitionRepository
	activityRepo scoring.ActivityRepository
	publisher    shared.EventPublisher
	logger       *slog.Logger
}

// NewLogActivityHandler creates a new LogActivityHandler.
func NewLogActivityHandler(
	actionRepo scoring.ActionDefinitionRepository,
	activityRepo scoring.ActivityRepository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *LogActivityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogActivityHandler{
		actionRepo:   actionRepo,
		activityRepo: activityRepo,
		publisher:    publisher,
		logger:       logger.With("command", "log_activity"),
	}
}

// Handle executes the log activity command.
//
// Order matters: the entry and its ledger entry commit in one unit of work
// first, and only then is ActivityLogged published. Consumers never observe
// an event for data that failed to persist, and a consumer failure never
// rolls back the recorder's write.
func (h *LogActivityHandler) Handle(ctx context.Context, cmd LogActivityCommand) (*ActivityEntryView, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	action, err := h.actionRepo.GetByID(ctx, cmd.ActionID)
	if err != nil {
		return nil, err
	}

	activityDate := cmd.ActivityDate
	if activityDate.IsZero() {
		activityDate = shared.Today()
	}
	source := cmd.Source
	if source == "" {
		source = scoring.SourceApp
	}

	entry, err := scoring.NewActivityEntry(cmd.EcoUserID, action, cmd.Quantity, activityDate, source, cmd.ChallengeID)
	if err != nil {
		return nil, err
	}

	ledger := scoring.LedgerEntryForActivity(entry.EcoUserID, entry.ID, entry.Points)
	if err := h.activityRepo.SaveWithLedger(ctx, entry, ledger); err != nil {
		return nil, shared.WrapError("scoring", "LogActivity", shared.ErrInvalidEntity, "persist activity", err)
	}

	if err := h.publisher.Publish(entry.LoggedEvent()); err != nil {
		// The write is already durable; consumers catch up via the
		// reconciliation sweep.
		h.logger.Error("failed to publish activity logged event",
			"activity_id", entry.ID,
			"eco_user_id", entry.EcoUserID,
			"error", err,
		)
	}

	return &ActivityEntryView{
		ID:           entry.ID,
		EcoUserID:    entry.EcoUserID,
		ActionID:     entry.ActionID,
		ActionName:   action.Name,
		Quantity:     entry.Quantity,
		Points:       entry.Points,
		Source:       entry.Source,
		ActivityDate: entry.ActivityDate,
		ChallengeID:  entry.ChallengeID,
	}, nil
}
