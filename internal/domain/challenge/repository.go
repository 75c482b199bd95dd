package challenge

import (
	"context"

	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// Repository persists challenges and participations.
type Repository interface {
	// GetByID returns a challenge by ID.
	// Returns shared.ErrNotFound if absent.
	GetByID(ctx context.Context, id shared.ChallengeID) (*Challenge, error)

	// Save inserts or updates a challenge.
	Save(ctx context.Context, c *Challenge) error

	// ListByClass returns all challenges owned by a class.
	ListByClass(ctx context.Context, classID shared.ClassID) ([]*Challenge, error)

	// ListActiveByClass returns a class's challenges in ACTIVE status.
	ListActiveByClass(ctx context.Context, classID shared.ClassID) ([]*Challenge, error)

	// GetParticipation returns the participation for (challengeID, ecoUserID).
	// Returns shared.ErrNotFound if the user has not contributed yet.
	GetParticipation(ctx context.Context, challengeID shared.ChallengeID, ecoUserID shared.EcoUserID) (*Participation, error)

	// ListParticipations returns all participations of a challenge.
	ListParticipations(ctx context.Context, challengeID shared.ChallengeID) ([]*Participation, error)

	// SaveParticipation inserts a new participation or updates an existing
	// one with a version check. Returns shared.ErrOptimisticLock when the
	// stored version no longer matches, shared.ErrAlreadyExists when a
	// concurrent insert won the unique (challenge_id, eco_user_id) race.
	SaveParticipation(ctx context.Context, p *Participation) error
}
