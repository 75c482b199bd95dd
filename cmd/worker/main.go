// Package main is the entry point for the EcoTrack background worker.
//
// The worker runs the periodic maintenance jobs:
//   - reconciling profile totals against the points ledger
//   - rebuilding the leaderboard cache
//
// The API server stays correct without the worker; the jobs only bound
// how long drift and cold caches can persist.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/michi-haensler/EcoTrack/config"
	"github.com/michi-haensler/EcoTrack/internal/infrastructure/persistence/postgres"
	"github.com/michi-haensler/EcoTrack/internal/infrastructure/persistence/redis"
	"github.com/michi-haensler/EcoTrack/internal/infrastructure/scheduler"
	"github.com/michi-haensler/EcoTrack/internal/infrastructure/scheduler/jobs"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION & LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting EcoTrack worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled, nothing to run")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := connectPostgres(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if cfg.Database.RunMigrations {
		if err := postgres.NewMigrator(dbConn).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (required for the leaderboard rebuild job)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		redisCache, err = redis.NewCache(redisConfig(cfg))
		if err != nil {
			log.Warn("failed to connect to Redis, leaderboard rebuild disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REPOSITORIES & JOBS
	// ─────────────────────────────────────────────────────────────────────────
	ledgerRepo := postgres.NewLedgerRepository(dbConn)
	profileRepo := postgres.NewEcoUserRepository(dbConn)

	schedConfig := scheduler.DefaultSchedulerConfig()
	schedConfig.Logger = log
	sched := scheduler.NewScheduler(schedConfig)

	reconcileSchedule, err := buildSchedule(cfg.Scheduler.ReconcileLedgerCron, cfg.Scheduler.ReconcileLedgerInterval)
	if err != nil {
		return fmt.Errorf("invalid reconcile schedule: %w", err)
	}

	reconcileConfig := jobs.DefaultReconcileLedgerConfig()
	reconcileConfig.Timeout = cfg.Scheduler.JobTimeout
	reconcileJob := jobs.NewReconcileLedgerJob(ledgerRepo, profileRepo, log, reconcileConfig)
	if err := sched.Register(reconcileJob, reconcileSchedule); err != nil {
		return fmt.Errorf("failed to register reconcile job: %w", err)
	}

	if redisCache != nil {
		rebuildSchedule, err := buildSchedule(cfg.Scheduler.RebuildLeaderboardCron, cfg.Scheduler.RebuildLeaderboardInterval)
		if err != nil {
			return fmt.Errorf("invalid rebuild schedule: %w", err)
		}

		rebuildConfig := jobs.DefaultRebuildLeaderboardConfig()
		// The cache must outlive the rebuild interval or readers go cold
		// between runs.
		if ttl := 2 * cfg.Scheduler.RebuildLeaderboardInterval; ttl > rebuildConfig.CacheTTL {
			rebuildConfig.CacheTTL = ttl
		}
		rebuildJob := jobs.NewRebuildLeaderboardJob(
			profileRepo,
			redis.NewLeaderboardCache(redisCache),
			log,
			rebuildConfig,
		)
		if err := sched.Register(rebuildJob, rebuildSchedule); err != nil {
			return fmt.Errorf("failed to register rebuild job: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. RUN & GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	if cfg.Scheduler.RunOnStart {
		for _, info := range sched.ListJobs() {
			if err := sched.RunNow(ctx, info.Name); err != nil {
				log.Warn("startup run failed", "job", info.Name, "error", err)
			}
		}
	}

	for _, info := range sched.ListJobs() {
		log.Info("scheduled job",
			"job", info.Name,
			"schedule", info.Schedule,
			"next_run", info.NextRun.Format(time.RFC3339),
		)
	}

	log.Info("EcoTrack worker is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	if err := sched.Stop(); err != nil {
		return fmt.Errorf("scheduler stop failed: %w", err)
	}

	snap := sched.Metrics()
	log.Info("job execution summary",
		"executions", snap.TotalExecutions,
		"failures", snap.TotalFailures,
		"avg_duration", snap.AverageDuration.String(),
	)

	log.Info("shutdown completed successfully")
	return nil
}

// buildSchedule prefers the cron expression when one is configured and
// falls back to the fixed interval otherwise.
func buildSchedule(cronExpr string, interval time.Duration) (scheduler.Schedule, error) {
	if cronExpr != "" {
		return scheduler.ParseCronExpression(cronExpr)
	}
	return scheduler.NewIntervalSchedule(interval), nil
}

// connectPostgres connects via DATABASE_URL when set, otherwise from the
// individual settings.
func connectPostgres(ctx context.Context, cfg *config.Config) (*postgres.Connection, error) {
	if cfg.Database.URL != "" {
		return postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.Host = cfg.Database.Host
	pgCfg.Port = cfg.Database.Port
	pgCfg.Database = cfg.Database.Name
	pgCfg.User = cfg.Database.User
	pgCfg.Password = cfg.Database.Password
	pgCfg.SSLMode = cfg.Database.SSLMode
	pgCfg.MaxConns = int32(cfg.Database.MaxConns)
	pgCfg.MinConns = int32(cfg.Database.MinConns)
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	return postgres.NewConnection(ctx, pgCfg)
}

// redisConfig maps the application config to the Redis client config.
func redisConfig(cfg *config.Config) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	return rc
}

// setupLogger configures structured logging.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug || cfg.Observability.LogLevel == "debug" {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" || cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
