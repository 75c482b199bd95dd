package query

import (
	"context"
	"sort"

	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// GET USER PROFILE QUERY
// Returns the gamification profile: points, level, level progress and the
// unlocked milestones with their definitions.
// ═══════════════════════════════════════════════════════════════════════════

// GetUserProfileQuery selects a profile by internal or external ID.
// Exactly one of EcoUserID and UserID must be set.
type GetUserProfileQuery struct {
	EcoUserID shared.EcoUserID
	UserID    shared.UserID
}

// Validate checks the query parameters.
func (q GetUserProfileQuery) Validate() error {
	if !q.EcoUserID.IsValid() && !q.UserID.IsValid() {
		return shared.NewDomainError("query", "GetUserProfile", shared.ErrInvalidID, "eco user id or user id is required")
	}
	return nil
}

// MilestoneDTO is one unlocked badge.
type MilestoneDTO struct {
	ID             shared.MilestoneID `json:"id"`
	Name           string             `json:"name"`
	RequiredPoints int64              `json:"required_points"`
	BadgeAsset     string             `json:"badge_asset,omitempty"`
}

// UserProfileDTO is the profile view.
type UserProfileDTO struct {
	EcoUserID      shared.EcoUserID `json:"eco_user_id"`
	UserID         shared.UserID    `json:"user_id"`
	ClassID        shared.ClassID   `json:"class_id,omitempty"`
	TotalPoints    int64            `json:"total_points"`
	Level          string           `json:"level"`
	NextLevelAt    int64            `json:"next_level_at,omitempty"`
	Milestones     []MilestoneDTO   `json:"milestones"`
	MilestoneCount int              `json:"milestone_count"`
}

// GetUserProfileHandler handles the GetUserProfileQuery.
type GetUserProfileHandler struct {
	profileRepo   profile.Repository
	milestoneRepo profile.MilestoneRepository
}

// NewGetUserProfileHandler creates a new GetUserProfileHandler.
func NewGetUserProfileHandler(profileRepo profile.Repository, milestoneRepo profile.MilestoneRepository) *GetUserProfileHandler {
	return &GetUserProfileHandler{profileRepo: profileRepo, milestoneRepo: milestoneRepo}
}

// Handle executes the query.
func (h *GetUserProfileHandler) Handle(ctx context.Context, query GetUserProfileQuery) (*UserProfileDTO, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		u   *profile.EcoUser
		err error
	)
	if query.EcoUserID.IsValid() {
		u, err = h.profileRepo.GetByID(ctx, query.EcoUserID)
	} else {
		u, err = h.profileRepo.GetByUserID(ctx, query.UserID)
	}
	if err != nil {
		return nil, err
	}

	dto := &UserProfileDTO{
		EcoUserID:      u.ID,
		UserID:         u.UserID,
		ClassID:        u.ClassID,
		TotalPoints:    u.TotalPoints,
		Level:          u.Level.DisplayName(),
		NextLevelAt:    profile.NextLevelAt(u.Level),
		Milestones:     make([]MilestoneDTO, 0, len(u.Milestones)),
		MilestoneCount: len(u.Milestones),
	}

	if len(u.Milestones) > 0 {
		all, err := h.milestoneRepo.ListAll(ctx)
		if err != nil {
			return nil, shared.WrapError("query", "GetUserProfile", shared.ErrInvalidEntity, "load milestones", err)
		}
		for _, m := range all {
			if u.HasMilestone(m.ID) {
				dto.Milestones = append(dto.Milestones, MilestoneDTO{
					ID:             m.ID,
					Name:           m.Name,
					RequiredPoints: m.RequiredPoints,
					BadgeAsset:     m.BadgeAsset,
				})
			}
		}
		sort.Slice(dto.Milestones, func(i, j int) bool {
			return dto.Milestones[i].RequiredPoints < dto.Milestones[j].RequiredPoints
		})
	}
	return dto, nil
}
