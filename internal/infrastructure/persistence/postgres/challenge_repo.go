// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/michi-haensler/EcoTrack/internal/domain/challenge"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHALLENGE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ChallengeRepository implements challenge.Repository.
type ChallengeRepository struct {
	conn *Connection
}

// NewChallengeRepository creates a new ChallengeRepository.
func NewChallengeRepository(conn *Connection) *ChallengeRepository {
	return &ChallengeRepository{conn: conn}
}

const challengeColumns = `id, title, description, goal_value, goal_unit, status, start_date, end_date, class_id, created_by, bonus_points, created_at, updated_at`

// GetByID returns a challenge by ID.
func (r *ChallengeRepository) GetByID(ctx context.Context, id shared.ChallengeID) (*challenge.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`

	return r.scanChallenge(r.conn.QueryRow(ctx, query, id.String()))
}

// Save inserts or updates a challenge.
func (r *ChallengeRepository) Save(ctx context.Context, c *challenge.Challenge) error {
	query := `
		INSERT INTO challenges (id, title, description, goal_value, goal_unit, status, start_date, end_date, class_id, created_by, bonus_points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			goal_value = EXCLUDED.goal_value,
			goal_unit = EXCLUDED.goal_unit,
			status = EXCLUDED.status,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			bonus_points = EXCLUDED.bonus_points,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		c.ID.String(),
		c.Title,
		c.Description,
		c.GoalValue,
		string(c.GoalUnit),
		string(c.Status),
		c.StartDate.Time(),
		c.EndDate.Time(),
		c.ClassID.String(),
		c.CreatedBy.String(),
		c.BonusPoints,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save challenge: %w", err)
	}
	return nil
}

// ListByClass returns all challenges owned by a class.
func (r *ChallengeRepository) ListByClass(ctx context.Context, classID shared.ClassID) ([]*challenge.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE class_id = $1 ORDER BY start_date DESC, created_at DESC`

	rows, err := r.conn.Query(ctx, query, classID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	return r.scanChallenges(rows)
}

// ListActiveByClass returns a class's challenges in ACTIVE status.
func (r *ChallengeRepository) ListActiveByClass(ctx context.Context, classID shared.ClassID) ([]*challenge.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE class_id = $1 AND status = 'active' ORDER BY end_date ASC`

	rows, err := r.conn.Query(ctx, query, classID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query active challenges: %w", err)
	}
	defer rows.Close()

	return r.scanChallenges(rows)
}

func (r *ChallengeRepository) scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	var (
		c         challenge.Challenge
		id        string
		goalUnit  string
		status    string
		startDate time.Time
		endDate   time.Time
		classID   string
		createdBy string
	)
	err := row.Scan(&id, &c.Title, &c.Description, &c.GoalValue, &goalUnit, &status, &startDate, &endDate, &classID, &createdBy, &c.BonusPoints, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to scan challenge: %w", err)
	}
	c.ID = shared.ChallengeID(id)
	c.GoalUnit = challenge.GoalUnit(goalUnit)
	c.Status = challenge.Status(status)
	c.StartDate = shared.DateOf(startDate)
	c.EndDate = shared.DateOf(endDate)
	c.ClassID = shared.ClassID(classID)
	c.CreatedBy = shared.UserID(createdBy)
	return &c, nil
}

func (r *ChallengeRepository) scanChallenges(rows pgx.Rows) ([]*challenge.Challenge, error) {
	challenges := make([]*challenge.Challenge, 0)
	for rows.Next() {
		c, err := r.scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Participations
// ─────────────────────────────────────────────────────────────────────────────

const participationColumns = `id, challenge_id, eco_user_id, current_value, goal_reached, bonus_awarded, version, created_at, updated_at`

// GetParticipation returns the participation for (challengeID, ecoUserID).
func (r *ChallengeRepository) GetParticipation(ctx context.Context, challengeID shared.ChallengeID, ecoUserID shared.EcoUserID) (*challenge.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM challenge_participations WHERE challenge_id = $1 AND eco_user_id = $2`

	return r.scanParticipation(r.conn.QueryRow(ctx, query, challengeID.String(), ecoUserID.String()))
}

// ListParticipations returns all participations of a challenge.
func (r *ChallengeRepository) ListParticipations(ctx context.Context, challengeID shared.ChallengeID) ([]*challenge.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM challenge_participations WHERE challenge_id = $1 ORDER BY current_value DESC`

	rows, err := r.conn.Query(ctx, query, challengeID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query participations: %w", err)
	}
	defer rows.Close()

	participations := make([]*challenge.Participation, 0)
	for rows.Next() {
		p, err := r.scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		participations = append(participations, p)
	}
	return participations, rows.Err()
}

// SaveParticipation inserts a new participation or updates an existing one
// with a version check. A version-checked UPDATE that hits nothing falls
// through to INSERT; a unique violation there means a concurrent first
// contribution won the race, an existing row means a concurrent update did.
func (r *ChallengeRepository) SaveParticipation(ctx context.Context, p *challenge.Participation) error {
	updateQuery := `
		UPDATE challenge_participations SET
			current_value = $1,
			goal_reached = $2,
			bonus_awarded = $3,
			version = version + 1,
			updated_at = $4
		WHERE id = $5 AND version = $6
	`

	result, err := r.conn.Exec(ctx, updateQuery,
		p.CurrentValue,
		p.GoalReached,
		p.BonusAwarded,
		p.UpdatedAt,
		p.ID,
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update participation: %w", err)
	}
	if result.RowsAffected() > 0 {
		p.Version++
		return nil
	}

	insertQuery := `
		INSERT INTO challenge_participations (id, challenge_id, eco_user_id, current_value, goal_reached, bonus_awarded, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.conn.Exec(ctx, insertQuery,
		p.ID,
		p.ChallengeID.String(),
		p.EcoUserID.String(),
		p.CurrentValue,
		p.GoalReached,
		p.BonusAwarded,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			// Same id: the version check failed. Same (challenge, user)
			// pair with a fresh id: the lazy-create race was lost.
			exists, exErr := r.participationExists(ctx, p.ID)
			if exErr != nil {
				return exErr
			}
			if exists {
				return shared.ErrOptimisticLock
			}
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert participation: %w", err)
	}
	return nil
}

func (r *ChallengeRepository) participationExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM challenge_participations WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check participation existence: %w", err)
	}
	return exists, nil
}

func (r *ChallengeRepository) scanParticipation(row pgx.Row) (*challenge.Participation, error) {
	var (
		p           challenge.Participation
		challengeID string
		ecoUserID   string
	)
	err := row.Scan(&p.ID, &challengeID, &ecoUserID, &p.CurrentValue, &p.GoalReached, &p.BonusAwarded, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrParticipationNotFound
		}
		return nil, fmt.Errorf("failed to scan participation: %w", err)
	}
	p.ChallengeID = shared.ChallengeID(challengeID)
	p.EcoUserID = shared.EcoUserID(ecoUserID)
	return &p, nil
}
