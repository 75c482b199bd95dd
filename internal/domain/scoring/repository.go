package scoring

import (
	"context"

	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ActionDefinitionRepository persists the action catalog.
type ActionDefinitionRepository interface {
	// GetByID returns an action definition by ID.
	// Returns shared.ErrNotFound if absent.
	GetByID(ctx context.Context, id shared.ActionID) (*ActionDefinition, error)

	// ListActive returns all active action definitions.
	ListActive(ctx context.Context) ([]*ActionDefinition, error)

	// ListByCategory returns active action definitions in a category.
	ListByCategory(ctx context.Context, category Category) ([]*ActionDefinition, error)

	// Save inserts or updates an action definition.
	Save(ctx context.Context, action *ActionDefinition) error
}

// ActivityRepository persists immutable activity entries.
type ActivityRepository interface {
	// SaveWithLedger persists the entry and its ledger entry in one atomic
	// unit of work. Either both are durable or neither is.
	SaveWithLedger(ctx context.Context, entry *ActivityEntry, ledger *LedgerEntry) error

	// GetEntry returns an activity entry by ID.
	// Returns shared.ErrNotFound if absent.
	GetEntry(ctx context.Context, id shared.ActivityID) (*ActivityEntry, error)

	// ListByUser returns a user's entries with activity dates in [from, to].
	ListByUser(ctx context.Context, ecoUserID shared.EcoUserID, from, to shared.Date) ([]*ActivityEntry, error)

	// ListRecent returns a user's most recent entries, newest first.
	ListRecent(ctx context.Context, ecoUserID shared.EcoUserID, limit int) ([]*ActivityEntry, error)
}

// LedgerRepository persists the append-only points ledger.
type LedgerRepository interface {
	// Append adds a ledger entry. Entries are never updated or deleted.
	Append(ctx context.Context, entry *LedgerEntry) error

	// ListByUser returns a user's ledger entries, newest first.
	ListByUser(ctx context.Context, ecoUserID shared.EcoUserID, limit int) ([]*LedgerEntry, error)

	// SumByUser returns the sum of all ledger deltas for a user.
	SumByUser(ctx context.Context, ecoUserID shared.EcoUserID) (int, error)

	// SumsByUser returns the per-user ledger sums for all users with at
	// least one entry. Used by the reconciliation sweep.
	SumsByUser(ctx context.Context) (map[shared.EcoUserID]int, error)
}
