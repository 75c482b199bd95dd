package query

import (
	"context"

	"github.com/michi-haensler/EcoTrack/internal/domain/scoring"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// GET ACTION CATALOG QUERY
// Lists the active action definitions users can log, optionally filtered
// by category.
// ═══════════════════════════════════════════════════════════════════════════

// GetActionCatalogQuery selects the action catalog.
type GetActionCatalogQuery struct {
	// Category filters the catalog; empty returns all active actions.
	Category scoring.Category
}

// Validate checks the query parameters.
func (q GetActionCatalogQuery) Validate() error {
	if q.Category != "" && !q.Category.IsValid() {
		return shared.NewDomainError("query", "GetActionCatalog", shared.ErrInvalidInput, "unknown category")
	}
	return nil
}

// ActionDTO is one catalog row.
type ActionDTO struct {
	ID          shared.ActionID  `json:"id"`
	Name        string           `json:"name"`
	Category    scoring.Category `json:"category"`
	Unit        scoring.Unit     `json:"unit"`
	BasePoints  int              `json:"base_points"`
	Description string           `json:"description,omitempty"`
}

// GetActionCatalogHandler handles the GetActionCatalogQuery.
type GetActionCatalogHandler struct {
	actionRepo scoring.ActionDefinitionRepository
}

// NewGetActionCatalogHandler creates a new GetActionCatalogHandler.
func NewGetActionCatalogHandler(actionRepo scoring.ActionDefinitionRepository) *GetActionCatalogHandler {
	return &GetActionCatalogHandler{actionRepo: actionRepo}
}

// Handle executes the query.
func (h *GetActionCatalogHandler) Handle(ctx context.Context, query GetActionCatalogQuery) ([]ActionDTO, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		actions []*scoring.ActionDefinition
		err     error
	)
	if query.Category != "" {
		actions, err = h.actionRepo.ListByCategory(ctx, query.Category)
	} else {
		actions, err = h.actionRepo.ListActive(ctx)
	}
	if err != nil {
		return nil, shared.WrapError("query", "GetActionCatalog", shared.ErrInvalidEntity, "load actions", err)
	}

	dtos := make([]ActionDTO, 0, len(actions))
	for _, a := range actions {
		dtos = append(dtos, ActionDTO{
			ID:          a.ID,
			Name:        a.Name,
			Category:    a.Category,
			Unit:        a.Unit,
			BasePoints:  a.BasePoints,
			Description: a.Description,
		})
	}
	return dtos, nil
}
