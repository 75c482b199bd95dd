// Embedded schema migrations, applied by the Migrator in version order.

package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE SCORING
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create scoring tables
-- Version: 001

-- Catalog of sustainable actions with their base points
CREATE TABLE IF NOT EXISTS action_definitions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(100) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category VARCHAR(20) NOT NULL,
    unit VARCHAR(20) NOT NULL,
    base_points INTEGER NOT NULL,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_category CHECK (category IN ('mobility', 'consumption', 'recycling', 'energy', 'nutrition', 'other')),
    CONSTRAINT valid_unit CHECK (unit IN ('piece', 'km', 'minutes', 'kg', 'liters')),
    CONSTRAINT positive_base_points CHECK (base_points > 0)
);

CREATE INDEX IF NOT EXISTS idx_action_definitions_category ON action_definitions(category) WHERE active;
CREATE INDEX IF NOT EXISTS idx_action_definitions_active ON action_definitions(active);

-- Immutable record of performed actions. Points are frozen at logging time,
-- so later base-point changes never rewrite history.
CREATE TABLE IF NOT EXISTS activity_entries (
    id UUID PRIMARY KEY,
    eco_user_id UUID NOT NULL,
    action_id UUID NOT NULL REFERENCES action_definitions(id),
    quantity DOUBLE PRECISION NOT NULL,
    points INTEGER NOT NULL,
    source VARCHAR(10) NOT NULL,
    activity_date DATE NOT NULL,
    challenge_id UUID,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT positive_quantity CHECK (quantity > 0),
    CONSTRAINT valid_source CHECK (source IN ('app', 'manual', 'import'))
);

CREATE INDEX IF NOT EXISTS idx_activity_entries_user_date ON activity_entries(eco_user_id, activity_date DESC);
CREATE INDEX IF NOT EXISTS idx_activity_entries_challenge ON activity_entries(challenge_id) WHERE challenge_id IS NOT NULL;

-- Append-only points ledger. The per-user sum must equal the profile's
-- total_points; the reconcile job audits and repairs drift.
CREATE TABLE IF NOT EXISTS points_ledger (
    id UUID PRIMARY KEY,
    eco_user_id UUID NOT NULL,
    points INTEGER NOT NULL,
    transaction_type VARCHAR(30) NOT NULL,
    reference_id UUID,
    reference_type VARCHAR(30) NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_transaction_type CHECK (transaction_type IN ('activity_logged', 'challenge_bonus', 'manual_adjustment', 'points_expired'))
);

CREATE INDEX IF NOT EXISTS idx_points_ledger_user ON points_ledger(eco_user_id, created_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS points_ledger;
DROP TABLE IF EXISTS activity_entries;
DROP TABLE IF EXISTS action_definitions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create profile tables
-- Version: 002

-- Gamification profile. version backs optimistic locking: concurrent
-- handlers read-modify-write the same row and the loser retries.
CREATE TABLE IF NOT EXISTS eco_users (
    id UUID PRIMARY KEY,
    user_id VARCHAR(100) NOT NULL UNIQUE,
    class_id VARCHAR(100) NOT NULL DEFAULT '',
    total_points BIGINT NOT NULL DEFAULT 0,
    level VARCHAR(20) NOT NULL DEFAULT 'seedling',
    version INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_level CHECK (level IN ('seedling', 'sapling', 'tree', 'ancient_tree'))
);

CREATE INDEX IF NOT EXISTS idx_eco_users_points ON eco_users(total_points DESC, id ASC);
CREATE INDEX IF NOT EXISTS idx_eco_users_class_points ON eco_users(class_id, total_points DESC, id ASC);

-- Milestone reference data
CREATE TABLE IF NOT EXISTS milestones (
    id UUID PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    required_points BIGINT NOT NULL,
    badge_asset VARCHAR(200) NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',

    CONSTRAINT non_negative_required_points CHECK (required_points >= 0)
);

CREATE INDEX IF NOT EXISTS idx_milestones_required_points ON milestones(required_points);

-- Unlocked milestones per user. Insert-only set; the primary key gives the
-- idempotence.
CREATE TABLE IF NOT EXISTS eco_user_milestones (
    eco_user_id UUID NOT NULL REFERENCES eco_users(id) ON DELETE CASCADE,
    milestone_id UUID NOT NULL REFERENCES milestones(id),
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (eco_user_id, milestone_id)
);
`

const migration002Down = `
DROP TABLE IF EXISTS eco_user_milestones;
DROP TABLE IF EXISTS milestones;
DROP TABLE IF EXISTS eco_users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE CHALLENGES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create challenge tables
-- Version: 003

CREATE TABLE IF NOT EXISTS challenges (
    id UUID PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    goal_value DOUBLE PRECISION NOT NULL,
    goal_unit VARCHAR(10) NOT NULL,
    status VARCHAR(10) NOT NULL DEFAULT 'draft',
    start_date DATE NOT NULL,
    end_date DATE NOT NULL,
    class_id VARCHAR(100) NOT NULL,
    created_by VARCHAR(100) NOT NULL DEFAULT '',
    bonus_points INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_status CHECK (status IN ('draft', 'active', 'closed')),
    CONSTRAINT valid_goal_unit CHECK (goal_unit IN ('points', 'km', 'kg', 'count')),
    CONSTRAINT positive_goal CHECK (goal_value > 0),
    CONSTRAINT valid_period CHECK (end_date >= start_date),
    CONSTRAINT non_negative_bonus CHECK (bonus_points >= 0)
);

CREATE INDEX IF NOT EXISTS idx_challenges_class ON challenges(class_id);
CREATE INDEX IF NOT EXISTS idx_challenges_class_status ON challenges(class_id, status);

-- Per-user progress. The unique pair resolves the lazy-creation race:
-- exactly one of two concurrent first contributions inserts, the other
-- retries as an update.
CREATE TABLE IF NOT EXISTS challenge_participations (
    id UUID PRIMARY KEY,
    challenge_id UUID NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
    eco_user_id UUID NOT NULL,
    current_value DOUBLE PRECISION NOT NULL DEFAULT 0,
    goal_reached BOOLEAN NOT NULL DEFAULT FALSE,
    bonus_awarded BOOLEAN NOT NULL DEFAULT FALSE,
    version INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_participation UNIQUE (challenge_id, eco_user_id)
);

CREATE INDEX IF NOT EXISTS idx_participations_challenge ON challenge_participations(challenge_id);
CREATE INDEX IF NOT EXISTS idx_participations_user ON challenge_participations(eco_user_id);
`

const migration003Down = `
DROP TABLE IF EXISTS challenge_participations;
DROP TABLE IF EXISTS challenges;
`
