// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/michi-haensler/EcoTrack/internal/domain/scoring"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTION DEFINITION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ActionDefinitionRepository implements scoring.ActionDefinitionRepository.
type ActionDefinitionRepository struct {
	conn *Connection
}

// NewActionDefinitionRepository creates a new ActionDefinitionRepository.
func NewActionDefinitionRepository(conn *Connection) *ActionDefinitionRepository {
	return &ActionDefinitionRepository{conn: conn}
}

const actionColumns = `id, name, description, category, unit, base_points, active, created_at, updated_at`

// GetByID returns an action definition by ID.
func (r *ActionDefinitionRepository) GetByID(ctx context.Context, id shared.ActionID) (*scoring.ActionDefinition, error) {
	query := `SELECT ` + actionColumns + ` FROM action_definitions WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id.String())
	return r.scanAction(row)
}

// ListActive returns all active action definitions.
func (r *ActionDefinitionRepository) ListActive(ctx context.Context) ([]*scoring.ActionDefinition, error) {
	query := `SELECT ` + actionColumns + ` FROM action_definitions WHERE active ORDER BY category, name`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	return r.scanActions(rows)
}

// ListByCategory returns active action definitions in a category.
func (r *ActionDefinitionRepository) ListByCategory(ctx context.Context, category scoring.Category) ([]*scoring.ActionDefinition, error) {
	query := `SELECT ` + actionColumns + ` FROM action_definitions WHERE active AND category = $1 ORDER BY name`

	rows, err := r.conn.Query(ctx, query, string(category))
	if err != nil {
		return nil, fmt.Errorf("failed to query actions by category: %w", err)
	}
	defer rows.Close()

	return r.scanActions(rows)
}

// Save inserts or updates an action definition.
func (r *ActionDefinitionRepository) Save(ctx context.Context, action *scoring.ActionDefinition) error {
	query := `
		INSERT INTO action_definitions (id, name, description, category, unit, base_points, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			unit = EXCLUDED.unit,
			base_points = EXCLUDED.base_points,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		action.ID.String(),
		action.Name,
		action.Description,
		string(action.Category),
		string(action.Unit),
		action.BasePoints,
		action.Active,
		action.CreatedAt,
		action.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save action: %w", err)
	}
	return nil
}

func (r *ActionDefinitionRepository) scanAction(row pgx.Row) (*scoring.ActionDefinition, error) {
	var (
		a        scoring.ActionDefinition
		id       string
		category string
		unit     string
	)
	err := row.Scan(&id, &a.Name, &a.Description, &category, &unit, &a.BasePoints, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrActionNotFound
		}
		return nil, fmt.Errorf("failed to scan action: %w", err)
	}
	a.ID = shared.ActionID(id)
	a.Category = scoring.Category(category)
	a.Unit = scoring.Unit(unit)
	return &a, nil
}

func (r *ActionDefinitionRepository) scanActions(rows pgx.Rows) ([]*scoring.ActionDefinition, error) {
	actions := make([]*scoring.ActionDefinition, 0)
	for rows.Next() {
		a, err := r.scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ActivityRepository implements scoring.ActivityRepository.
type ActivityRepository struct {
	conn *Connection
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(conn *Connection) *ActivityRepository {
	return &ActivityRepository{conn: conn}
}

const activityColumns = `id, eco_user_id, action_id, quantity, points, source, activity_date, challenge_id, created_at`

// SaveWithLedger persists the activity entry and its ledger entry in one
// transaction. The event is published only after this commits, so a
// consumer never observes an activity without its ledger movement.
func (r *ActivityRepository) SaveWithLedger(ctx context.Context, entry *scoring.ActivityEntry, ledger *scoring.LedgerEntry) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var challengeID *string
		if entry.ChallengeID.IsValid() {
			v := entry.ChallengeID.String()
			challengeID = &v
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO activity_entries (id, eco_user_id, action_id, quantity, points, source, activity_date, challenge_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			entry.ID.String(),
			entry.EcoUserID.String(),
			entry.ActionID.String(),
			entry.Quantity,
			entry.Points,
			string(entry.Source),
			entry.ActivityDate.Time(),
			challengeID,
			entry.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert activity entry: %w", err)
		}

		if err := insertLedgerEntry(ctx, tx, ledger); err != nil {
			return err
		}
		return nil
	})
}

// GetEntry returns an activity entry by ID.
func (r *ActivityRepository) GetEntry(ctx context.Context, id shared.ActivityID) (*scoring.ActivityEntry, error) {
	query := `SELECT ` + activityColumns + ` FROM activity_entries WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id.String())
	return r.scanEntry(row)
}

// ListByUser returns a user's entries with activity dates in [from, to].
func (r *ActivityRepository) ListByUser(ctx context.Context, ecoUserID shared.EcoUserID, from, to shared.Date) ([]*scoring.ActivityEntry, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activity_entries
		WHERE eco_user_id = $1 AND activity_date BETWEEN $2 AND $3
		ORDER BY activity_date DESC, created_at DESC
	`

	rows, err := r.conn.Query(ctx, query, ecoUserID.String(), from.Time(), to.Time())
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// ListRecent returns a user's most recent entries, newest first.
func (r *ActivityRepository) ListRecent(ctx context.Context, ecoUserID shared.EcoUserID, limit int) ([]*scoring.ActivityEntry, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activity_entries
		WHERE eco_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, ecoUserID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent activities: %w", err)
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

func (r *ActivityRepository) scanEntry(row pgx.Row) (*scoring.ActivityEntry, error) {
	var (
		e            scoring.ActivityEntry
		id           string
		ecoUserID    string
		actionID     string
		source       string
		activityDate time.Time
		challengeID  *string
	)
	err := row.Scan(&id, &ecoUserID, &actionID, &e.Quantity, &e.Points, &source, &activityDate, &challengeID, &e.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to scan activity entry: %w", err)
	}
	e.ID = shared.ActivityID(id)
	e.EcoUserID = shared.EcoUserID(ecoUserID)
	e.ActionID = shared.ActionID(actionID)
	e.Source = scoring.Source(source)
	e.ActivityDate = shared.DateOf(activityDate)
	if challengeID != nil {
		e.ChallengeID = shared.ChallengeID(*challengeID)
	}
	return &e, nil
}

func (r *ActivityRepository) scanEntries(rows pgx.Rows) ([]*scoring.ActivityEntry, error) {
	entries := make([]*scoring.ActivityEntry, 0)
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LedgerRepository implements scoring.LedgerRepository.
type LedgerRepository struct {
	conn *Connection
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(conn *Connection) *LedgerRepository {
	return &LedgerRepository{conn: conn}
}

// Append adds a ledger entry.
func (r *LedgerRepository) Append(ctx context.Context, entry *scoring.LedgerEntry) error {
	return insertLedgerEntry(ctx, r.conn, entry)
}

// ListByUser returns a user's ledger entries, newest first.
func (r *LedgerRepository) ListByUser(ctx context.Context, ecoUserID shared.EcoUserID, limit int) ([]*scoring.LedgerEntry, error) {
	query := `
		SELECT id, eco_user_id, points, transaction_type, reference_id, reference_type, description, created_at
		FROM points_ledger
		WHERE eco_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, ecoUserID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	entries := make([]*scoring.LedgerEntry, 0)
	for rows.Next() {
		var (
			e               scoring.LedgerEntry
			ecoUser         string
			points          int
			transactionType string
			referenceID     *string
		)
		err := rows.Scan(&e.ID, &ecoUser, &points, &transactionType, &referenceID, &e.ReferenceType, &e.Description, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.EcoUserID = shared.EcoUserID(ecoUser)
		e.Points = shared.Points(points)
		e.TransactionType = scoring.TransactionType(transactionType)
		if referenceID != nil {
			e.ReferenceID = *referenceID
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// SumByUser returns the sum of all ledger deltas for a user.
func (r *LedgerRepository) SumByUser(ctx context.Context, ecoUserID shared.EcoUserID) (int, error) {
	var sum int
	err := r.conn.QueryRow(ctx,
		`SELECT COALESCE(SUM(points), 0) FROM points_ledger WHERE eco_user_id = $1`,
		ecoUserID.String(),
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger: %w", err)
	}
	return sum, nil
}

// SumsByUser returns the per-user ledger sums for all users with at least
// one entry.
func (r *LedgerRepository) SumsByUser(ctx context.Context) (map[shared.EcoUserID]int, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT eco_user_id, COALESCE(SUM(points), 0) FROM points_ledger GROUP BY eco_user_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger by user: %w", err)
	}
	defer rows.Close()

	sums := make(map[shared.EcoUserID]int)
	for rows.Next() {
		var (
			ecoUserID string
			sum       int
		)
		if err := rows.Scan(&ecoUserID, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan ledger sum: %w", err)
		}
		sums[shared.EcoUserID(ecoUserID)] = sum
	}
	return sums, rows.Err()
}

// insertLedgerEntry writes one ledger row through any Querier, so the same
// statement serves both standalone appends and the activity transaction.
func insertLedgerEntry(ctx context.Context, q Querier, entry *scoring.LedgerEntry) error {
	var referenceID *string
	if entry.ReferenceID != "" {
		v := entry.ReferenceID
		referenceID = &v
	}

	_, err := q.Exec(ctx, `
		INSERT INTO points_ledger (id, eco_user_id, points, transaction_type, reference_id, reference_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		entry.ID,
		entry.EcoUserID.String(),
		int(entry.Points),
		string(entry.TransactionType),
		referenceID,
		entry.ReferenceType,
		entry.Description,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}
