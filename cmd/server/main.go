// Package main is the entry point for the EcoTrack API server.
//
// The server exposes the REST API, runs the in-process event bus that
// propagates activity events to the challenge and profile modules, and
// serves reads from the leaderboard cache when Redis is available.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/michi-haensler/EcoTrack/config"
	"github.com/michi-haensler/EcoTrack/internal/application/command"
	"github.com/michi-haensler/EcoTrack/internal/application/eventhandler"
	"github.com/michi-haensler/EcoTrack/internal/application/query"
	"github.com/michi-haensler/EcoTrack/internal/domain/leaderboard"
	"github.com/michi-haensler/EcoTrack/internal/infrastructure/messaging"
	"github.com/michi-haensler/EcoTrack/internal/infrastructure/persistence/postgres"
	"github.com/michi-haensler/EcoTrack/internal/infrastructure/persistence/redis"
	httpapi "github.com/michi-haensler/EcoTrack/internal/interface/http"
	"github.com/michi-haensler/EcoTrack/internal/interface/http/handlers"
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
	log.Info("starting EcoTrack API server",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

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
	log.Info("database connection established")

	if cfg.Database.RunMigrations {
		log.Info("checking database migrations...")
		if err := postgres.NewMigrator(dbConn).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (optional, leaderboard cache only)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var lbCache leaderboard.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err = redis.NewCache(redisConfig(cfg))
		if err != nil {
			log.Warn("failed to connect to Redis, leaderboard caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			lbCache = redis.NewLeaderboardCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	actionRepo := postgres.NewActionDefinitionRepository(dbConn)
	activityRepo := postgres.NewActivityRepository(dbConn)
	ledgerRepo := postgres.NewLedgerRepository(dbConn)
	profileRepo := postgres.NewEcoUserRepository(dbConn)
	milestoneRepo := postgres.NewMilestoneRepository(dbConn)
	challengeRepo := postgres.NewChallengeRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS & HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	busConfig.AsyncMode = cfg.EventBus.Async
	busConfig.WorkerPoolSize = cfg.EventBus.WorkerCount
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() { _ = eventBus.Close() }()

	err = eventhandler.Register(
		eventBus,
		eventhandler.NewOnActivityLoggedHandler(profileRepo, milestoneRepo, log),
		eventhandler.NewOnChallengeProgressHandler(challengeRepo, activityRepo, eventBus, log),
		eventhandler.NewOnGoalReachedHandler(challengeRepo, ledgerRepo, profileRepo, milestoneRepo, log),
	)
	if err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeChecker().Require("postgres", dbConn)
	if redisCache != nil {
		healthChecker.Optional("redis", redisCache)
	}

	deps := httpapi.Dependencies{
		RegisterUserHandler:    command.NewRegisterUserHandler(profileRepo, log),
		LogActivityHandler:     command.NewLogActivityHandler(actionRepo, activityRepo, eventBus, log),
		AdjustPointsHandler:    command.NewAdjustPointsHandler(ledgerRepo, profileRepo, log),
		ManageChallengeHandler: command.NewManageChallengeHandler(challengeRepo, log),

		GetLeaderboardHandler:       query.NewGetLeaderboardHandler(profileRepo, lbCache, 0, log),
		GetUserProfileHandler:       query.NewGetUserProfileHandler(profileRepo, milestoneRepo),
		GetUserActivitiesHandler:    query.NewGetUserActivitiesHandler(activityRepo),
		GetPointsLedgerHandler:      query.NewGetPointsLedgerHandler(ledgerRepo),
		GetActionCatalogHandler:     query.NewGetActionCatalogHandler(actionRepo),
		ListChallengesHandler:       query.NewListChallengesHandler(challengeRepo),
		GetChallengeProgressHandler: query.NewGetChallengeProgressHandler(challengeRepo),

		Logger:        log,
		HealthChecker: healthChecker,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER & GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	serverConfig := httpapi.DefaultConfig()
	serverConfig.Host = cfg.HTTP.Host
	serverConfig.Port = cfg.HTTP.Port
	serverConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	serverConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	serverConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	serverConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverConfig.AdminKeyHash = []byte(cfg.HTTP.AdminKeyHash)

	server := httpapi.NewServer(serverConfig, deps)
	errCh := server.StartAsync()

	log.Info("EcoTrack API server is running", "address", server.Address())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
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
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Observability.LogLevel)}
	if cfg.App.Debug {
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

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
