package query

import (
	"context"
	"time"

	"github.com/michi-haensler/EcoTrack/internal/domain/scoring"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// GET POINTS LEDGER QUERY
// Returns a user's ledger entries, newest first, plus the running total.
// The total comes from the ledger itself, so this view is exact even while
// the profile aggregate lags behind.
// ═══════════════════════════════════════════════════════════════════════════

// GetPointsLedgerQuery selects a user's ledger page.
type GetPointsLedgerQuery struct {
	EcoUserID shared.EcoUserID

	// Limit is the number of entries (default 50, max 200).
	Limit int
}

// Validate normalizes and checks the query parameters.
func (q *GetPointsLedgerQuery) Validate() error {
	if !q.EcoUserID.IsValid() {
		return shared.NewDomainError("query", "GetPointsLedger", shared.ErrInvalidID, "eco user id is required")
	}
	if q.Limit < 0 {
		return shared.NewDomainError("query", "GetPointsLedger", shared.ErrInvalidInput, "limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 50
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	return nil
}

// LedgerEntryDTO is one ledger row.
type LedgerEntryDTO struct {
	ID            string                  `json:"id"`
	Type          scoring.TransactionType `json:"type"`
	Points        int                     `json:"points"`
	ReferenceType string                  `json:"reference_type,omitempty"`
	ReferenceID   string                  `json:"reference_id,omitempty"`
	Description   string                  `json:"description,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

// GetPointsLedgerResult is the ledger page.
type GetPointsLedgerResult struct {
	EcoUserID shared.EcoUserID `json:"eco_user_id"`
	Entries   []LedgerEntryDTO `json:"entries"`
	Total     int              `json:"total"`
}

// GetPointsLedgerHandler handles the GetPointsLedgerQuery.
type GetPointsLedgerHandler struct {
	ledgerRepo scoring.LedgerRepository
}

// NewGetPointsLedgerHandler creates a new GetPointsLedgerHandler.
func NewGetPointsLedgerHandler(ledgerRepo scoring.LedgerRepository) *GetPointsLedgerHandler {
	return &GetPointsLedgerHandler{ledgerRepo: ledgerRepo}
}

// Handle executes the query.
func (h *GetPointsLedgerHandler) Handle(ctx context.Context, query GetPointsLedgerQuery) (*GetPointsLedgerResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	entries, err := h.ledgerRepo.ListByUser(ctx, query.EcoUserID, query.Limit)
	if err != nil {
		return nil, shared.WrapError("query", "GetPointsLedger", shared.ErrInvalidEntity, "load ledger", err)
	}
	total, err := h.ledgerRepo.SumByUser(ctx, query.EcoUserID)
	if err != nil {
		return nil, shared.WrapError("query", "GetPointsLedger", shared.ErrInvalidEntity, "sum ledger", err)
	}

	result := &GetPointsLedgerResult{
		EcoUserID: query.EcoUserID,
		Entries:   make([]LedgerEntryDTO, 0, len(entries)),
		Total:     total,
	}
	for _, e := range entries {
		result.Entries = append(result.Entries, LedgerEntryDTO{
			ID:            e.ID,
			Type:          e.TransactionType,
			Points:        int(e.Points),
			ReferenceType: e.ReferenceType,
			ReferenceID:   e.ReferenceID,
			Description:   e.Description,
			CreatedAt:     e.CreatedAt,
		})
	}
	return result, nil
}
