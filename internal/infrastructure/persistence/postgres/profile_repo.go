// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ECO USER REPOSITORY IMPLEMENTATION
// Optimistic locking: every UPDATE carries the version the caller loaded
// and bumps it. Zero rows affected means either the row vanished or a
// concurrent writer got there first; the two are distinguished by a
// follow-up existence check.
// ══════════════════════════════════════════════════════════════════════════════

// EcoUserRepository implements profile.Repository.
type EcoUserRepository struct {
	conn *Connection
}

// NewEcoUserRepository creates a new EcoUserRepository.
func NewEcoUserRepository(conn *Connection) *EcoUserRepository {
	return &EcoUserRepository{conn: conn}
}

const ecoUserColumns = `id, user_id, class_id, total_points, level, version, created_at, updated_at`

// GetByID returns a profile by its ID.
func (r *EcoUserRepository) GetByID(ctx context.Context, id shared.EcoUserID) (*profile.EcoUser, error) {
	query := `SELECT ` + ecoUserColumns + ` FROM eco_users WHERE id = $1`

	u, err := r.scanEcoUser(r.conn.QueryRow(ctx, query, id.String()))
	if err != nil {
		return nil, err
	}
	if err := r.loadMilestones(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByUserID returns a profile by its external user ID.
func (r *EcoUserRepository) GetByUserID(ctx context.Context, userID shared.UserID) (*profile.EcoUser, error) {
	query := `SELECT ` + ecoUserColumns + ` FROM eco_users WHERE user_id = $1`

	u, err := r.scanEcoUser(r.conn.QueryRow(ctx, query, userID.String()))
	if err != nil {
		return nil, err
	}
	if err := r.loadMilestones(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new profile.
func (r *EcoUserRepository) Create(ctx context.Context, u *profile.EcoUser) error {
	query := `
		INSERT INTO eco_users (id, user_id, class_id, total_points, level, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		u.ID.String(),
		u.UserID.String(),
		u.ClassID.String(),
		u.TotalPoints,
		string(u.Level),
		u.Version,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrEcoUserExists
		}
		return fmt.Errorf("failed to create eco user: %w", err)
	}
	return nil
}

// Update persists a modified profile with a version check. On success the
// in-memory version is bumped to match the stored row.
func (r *EcoUserRepository) Update(ctx context.Context, u *profile.EcoUser) error {
	query := `
		UPDATE eco_users SET
			class_id = $1,
			total_points = $2,
			level = $3,
			version = version + 1,
			updated_at = $4
		WHERE id = $5 AND version = $6
	`

	result, err := r.conn.Exec(ctx, query,
		u.ClassID.String(),
		u.TotalPoints,
		string(u.Level),
		u.UpdatedAt,
		u.ID.String(),
		u.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update eco user: %w", err)
	}

	if result.RowsAffected() == 0 {
		exists, err := r.exists(ctx, u.ID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrEcoUserNotFound
		}
		return shared.ErrOptimisticLock
	}

	if err := r.saveMilestones(ctx, u); err != nil {
		return err
	}

	u.Version++
	return nil
}

// ListByClass returns the profiles of a class ordered by total points
// descending, ID ascending.
func (r *EcoUserRepository) ListByClass(ctx context.Context, classID shared.ClassID, limit int) ([]*profile.EcoUser, error) {
	query := `
		SELECT ` + ecoUserColumns + `
		FROM eco_users
		WHERE class_id = $1
		ORDER BY total_points DESC, id ASC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, classID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query eco users by class: %w", err)
	}
	defer rows.Close()

	return r.scanEcoUsers(rows)
}

// ListTop returns profiles across all classes in ranking order.
func (r *EcoUserRepository) ListTop(ctx context.Context, limit int) ([]*profile.EcoUser, error) {
	query := `
		SELECT ` + ecoUserColumns + `
		FROM eco_users
		ORDER BY total_points DESC, id ASC
		LIMIT $1
	`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top eco users: %w", err)
	}
	defer rows.Close()

	return r.scanEcoUsers(rows)
}

// ListAll streams every profile; used by the reconciliation sweep.
func (r *EcoUserRepository) ListAll(ctx context.Context) ([]*profile.EcoUser, error) {
	query := `SELECT ` + ecoUserColumns + ` FROM eco_users ORDER BY id`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query eco users: %w", err)
	}
	defer rows.Close()

	return r.scanEcoUsers(rows)
}

func (r *EcoUserRepository) exists(ctx context.Context, id shared.EcoUserID) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM eco_users WHERE id = $1)`,
		id.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check eco user existence: %w", err)
	}
	return exists, nil
}

func (r *EcoUserRepository) scanEcoUser(row pgx.Row) (*profile.EcoUser, error) {
	var (
		u       profile.EcoUser
		id      string
		userID  string
		classID string
		level   string
	)
	err := row.Scan(&id, &userID, &classID, &u.TotalPoints, &level, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrEcoUserNotFound
		}
		return nil, fmt.Errorf("failed to scan eco user: %w", err)
	}
	u.ID = shared.EcoUserID(id)
	u.UserID = shared.UserID(userID)
	u.ClassID = shared.ClassID(classID)
	u.Level = profile.Level(level)
	u.Milestones = make(map[shared.MilestoneID]struct{})
	return &u, nil
}

func (r *EcoUserRepository) scanEcoUsers(rows pgx.Rows) ([]*profile.EcoUser, error) {
	users := make([]*profile.EcoUser, 0)
	for rows.Next() {
		u, err := r.scanEcoUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// loadMilestones fills the unlocked milestone set of one user.
func (r *EcoUserRepository) loadMilestones(ctx context.Context, u *profile.EcoUser) error {
	rows, err := r.conn.Query(ctx,
		`SELECT milestone_id FROM eco_user_milestones WHERE eco_user_id = $1`,
		u.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to query user milestones: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan user milestone: %w", err)
		}
		u.Milestones[shared.MilestoneID(id)] = struct{}{}
	}
	return rows.Err()
}

// saveMilestones persists newly unlocked milestones. The table is
// insert-only; ON CONFLICT DO NOTHING keeps re-saves idempotent.
func (r *EcoUserRepository) saveMilestones(ctx context.Context, u *profile.EcoUser) error {
	for id := range u.Milestones {
		_, err := r.conn.Exec(ctx, `
			INSERT INTO eco_user_milestones (eco_user_id, milestone_id)
			VALUES ($1, $2)
			ON CONFLICT (eco_user_id, milestone_id) DO NOTHING
		`, u.ID.String(), id.String())
		if err != nil {
			return fmt.Errorf("failed to save user milestone: %w", err)
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MilestoneRepository implements profile.MilestoneRepository.
type MilestoneRepository struct {
	conn *Connection
}

// NewMilestoneRepository creates a new MilestoneRepository.
func NewMilestoneRepository(conn *Connection) *MilestoneRepository {
	return &MilestoneRepository{conn: conn}
}

const milestoneColumns = `id, name, required_points, badge_asset, description`

// GetByID returns a milestone by ID.
func (r *MilestoneRepository) GetByID(ctx context.Context, id shared.MilestoneID) (*profile.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = $1`

	return r.scanMilestone(r.conn.QueryRow(ctx, query, id.String()))
}

// ListReachable returns milestones whose threshold is <= totalPoints.
func (r *MilestoneRepository) ListReachable(ctx context.Context, totalPoints int64) ([]*profile.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE required_points <= $1 ORDER BY required_points`

	rows, err := r.conn.Query(ctx, query, totalPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to query reachable milestones: %w", err)
	}
	defer rows.Close()

	return r.scanMilestones(rows)
}

// ListAll returns every milestone.
func (r *MilestoneRepository) ListAll(ctx context.Context) ([]*profile.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones ORDER BY required_points`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query milestones: %w", err)
	}
	defer rows.Close()

	return r.scanMilestones(rows)
}

// Save inserts or updates a milestone.
func (r *MilestoneRepository) Save(ctx context.Context, m *profile.Milestone) error {
	query := `
		INSERT INTO milestones (id, name, required_points, badge_asset, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			required_points = EXCLUDED.required_points,
			badge_asset = EXCLUDED.badge_asset,
			description = EXCLUDED.description
	`

	_, err := r.conn.Exec(ctx, query,
		m.ID.String(),
		m.Name,
		m.RequiredPoints,
		m.BadgeAsset,
		m.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to save milestone: %w", err)
	}
	return nil
}

func (r *MilestoneRepository) scanMilestone(row pgx.Row) (*profile.Milestone, error) {
	var (
		m  profile.Milestone
		id string
	)
	err := row.Scan(&id, &m.Name, &m.RequiredPoints, &m.BadgeAsset, &m.Description)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrMilestoneNotFound
		}
		return nil, fmt.Errorf("failed to scan milestone: %w", err)
	}
	m.ID = shared.MilestoneID(id)
	return &m, nil
}

func (r *MilestoneRepository) scanMilestones(rows pgx.Rows) ([]*profile.Milestone, error) {
	milestones := make([]*profile.Milestone, 0)
	for rows.Next() {
		m, err := r.scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}
