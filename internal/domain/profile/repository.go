package profile

import (
	"context"

	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// Repository persists EcoUser profiles and milestone reference data.
type Repository interface {
	// GetByID returns a profile by its ID.
	// Returns shared.ErrNotFound if absent.
	GetByID(ctx context.Context, id shared.EcoUserID) (*EcoUser, error)

	// GetByUserID returns a profile by its external user ID.
	// Returns shared.ErrNotFound if absent.
	GetByUserID(ctx context.Context, userID shared.UserID) (*EcoUser, error)

	// Create inserts a new profile. Returns shared.ErrAlreadyExists when a
	// profile for the external user ID is already present.
	Create(ctx context.Context, u *EcoUser) error

	// Update persists a modified profile with a version check. Returns
	// shared.ErrOptimisticLock when the stored version no longer matches;
	// callers reload and retry.
	Update(ctx context.Context, u *EcoUser) error

	// ListByClass returns the profiles of a class ordered by total points
	// descending, ID ascending, limited to limit entries.
	ListByClass(ctx context.Context, classID shared.ClassID, limit int) ([]*EcoUser, error)

	// ListTop returns profiles across all classes in the same order.
	ListTop(ctx context.Context, limit int) ([]*EcoUser, error)

	// ListAll streams every profile; used by the reconciliation sweep.
	ListAll(ctx context.Context) ([]*EcoUser, error)
}

// MilestoneRepository persists milestone reference data.
type MilestoneRepository interface {
	// GetByID returns a milestone by ID.
	// Returns shared.ErrNotFound if absent.
	GetByID(ctx context.Context, id shared.MilestoneID) (*Milestone, error)

	// ListReachable returns milestones whose threshold is <= totalPoints.
	ListReachable(ctx context.Context, totalPoints int64) ([]*Milestone, error)

	// ListAll returns every milestone.
	ListAll(ctx context.Context) ([]*Milestone, error)

	// Save inserts or updates a milestone.
	Save(ctx context.Context, m *Milestone) error
}
