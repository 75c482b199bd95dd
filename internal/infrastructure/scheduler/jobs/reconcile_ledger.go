// Package jobs contains implementations of scheduled jobs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/scoring"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
	"github.com/michi-haensler/EcoTrack/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILE LEDGER JOB
// Audits the consistency invariant between the append-only ledger and the
// profile aggregates: for every user, sum(ledger deltas) must equal the
// profile's total points. The ledger wins every dispute; a drifted profile
// is repaired to the ledger sum, never the other way around.
// ══════════════════════════════════════════════════════════════════════════════

// ReconcileLedgerJob detects and repairs drift between ledger and profiles.
type ReconcileLedgerJob struct {
	ledgerRepo  scoring.LedgerRepository
	profileRepo profile.Repository
	retrier     *retry.Retrier
	logger      *slog.Logger

	config ReconcileLedgerConfig

	lastStats atomic.Value // *ReconcileStats
}

// ReconcileLedgerConfig contains configuration for the reconcile job.
type ReconcileLedgerConfig struct {
	// Repair writes corrected totals back; false means detect-and-log only.
	Repair bool

	// Timeout is the maximum duration for one sweep.
	Timeout time.Duration
}

// DefaultReconcileLedgerConfig returns sensible defaults.
func DefaultReconcileLedgerConfig() ReconcileLedgerConfig {
	return ReconcileLedgerConfig{
		Repair:  true,
		Timeout: 2 * time.Minute,
	}
}

// ReconcileStats contains statistics from a reconcile run.
type ReconcileStats struct {
	StartedAt       time.Time
	CompletedAt     time.Time
	Duration        time.Duration
	ProfilesChecked int
	DriftsFound     int
	DriftsRepaired  int
	Orphans         int
	Errors          []error
}

// NewReconcileLedgerJob creates a new reconcile ledger job.
func NewReconcileLedgerJob(
	ledgerRepo scoring.LedgerRepository,
	profileRepo profile.Repository,
	logger *slog.Logger,
	config ReconcileLedgerConfig,
) *ReconcileLedgerJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileLedgerJob{
		ledgerRepo:  ledgerRepo,
		profileRepo: profileRepo,
		retrier:     retry.OptimisticLockRetrier(),
		logger:      logger,
		config:      config,
	}
}

// Name returns the job name.
func (j *ReconcileLedgerJob) Name() string {
	return "reconcile_ledger"
}

// Description returns a human-readable description.
func (j *ReconcileLedgerJob) Description() string {
	return "Repairs profile point totals that drifted from the points ledger"
}

// Run executes one reconciliation sweep.
func (j *ReconcileLedgerJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	stats := &ReconcileStats{StartedAt: time.Now()}
	defer func() {
		stats.CompletedAt = time.Now()
		stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
		j.lastStats.Store(stats)
	}()

	sums, err := j.ledgerRepo.SumsByUser(ctx)
	if err != nil {
		return fmt.Errorf("load ledger sums: %w", err)
	}

	users, err := j.profileRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	for _, u := range users {
		stats.ProfilesChecked++
		want := int64(sums[u.ID])
		delete(sums, u.ID)

		if u.TotalPoints == want {
			continue
		}

		stats.DriftsFound++
		j.logger.Warn("ledger drift detected",
			"eco_user_id", u.ID,
			"profile_total", u.TotalPoints,
			"ledger_total", want,
		)
		if !j.config.Repair {
			continue
		}

		if err := j.repair(ctx, u.ID, want); err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Error("failed to repair drifted profile", "eco_user_id", u.ID, "error", err)
			continue
		}
		stats.DriftsRepaired++
	}

	// Ledger entries without a profile. Nothing to repair; flag them.
	for id := range sums {
		stats.Orphans++
		j.logger.Error("ledger entries without profile", "eco_user_id", id, "ledger_total", sums[id])
	}

	j.logger.Info("ledger reconciliation completed",
		"profiles_checked", stats.ProfilesChecked,
		"drifts_found", stats.DriftsFound,
		"drifts_repaired", stats.DriftsRepaired,
		"orphans", stats.Orphans,
		"duration", stats.Duration,
	)
	if len(stats.Errors) > 0 {
		return fmt.Errorf("reconcile finished with %d errors, first: %w", len(stats.Errors), stats.Errors[0])
	}
	return nil
}

// repair reloads the profile and snaps its total to the ledger sum. The
// reload inside the retry keeps the correction exact when a legitimate
// write lands between sweep and repair.
func (j *ReconcileLedgerJob) repair(ctx context.Context, id shared.EcoUserID, want int64) error {
	return j.retrier.Do(ctx, func(ctx context.Context) error {
		u, err := j.profileRepo.GetByID(ctx, id)
		if err != nil {
			return retry.Permanent(err)
		}
		current, err := j.ledgerRepo.SumByUser(ctx, id)
		if err != nil {
			return retry.Permanent(err)
		}
		want = int64(current)
		if u.TotalPoints == want {
			return nil
		}
		u.AdjustPoints(int(want - u.TotalPoints))
		if err := j.profileRepo.Update(ctx, u); err != nil {
			if shared.IsConflict(err) {
				return retry.Retryable(err)
			}
			return err
		}
		return nil
	})
}

// LastStats returns the statistics of the most recent run, or nil.
func (j *ReconcileLedgerJob) LastStats() *ReconcileStats {
	v, _ := j.lastStats.Load().(*ReconcileStats)
	return v
}
