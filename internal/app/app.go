package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-co-op/gocron/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/cstatsentry/backend/external/jobqueue"
	"github.com/cstatsentry/backend/external/leetify"
	"github.com/cstatsentry/backend/external/steamweb"
	"github.com/cstatsentry/backend/internal/config"
	"github.com/cstatsentry/backend/internal/domain/match"
	"github.com/cstatsentry/backend/internal/domain/player"
	"github.com/cstatsentry/backend/internal/domain/syncrun"
	"github.com/cstatsentry/backend/internal/domain/teammate"
	"github.com/cstatsentry/backend/internal/domain/user"
	cacherepo "github.com/cstatsentry/backend/internal/infrastructure/repository/cache"
	"github.com/cstatsentry/backend/internal/infrastructure/repository/memory"
	"github.com/cstatsentry/backend/internal/infrastructure/repository/postgres"
	"github.com/cstatsentry/backend/internal/interfaces/httpapi"
	"github.com/cstatsentry/backend/internal/platform/cache"
	"github.com/cstatsentry/backend/internal/platform/logging"
	"github.com/cstatsentry/backend/internal/usecase"
)

// App bundles the HTTP server with the background pieces that share its
// lifecycle: the optional sweep scheduler and the database handle.
type App struct {
	Server *http.Server

	db        *sqlx.DB
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

type repositories struct {
	users     user.Repository
	players   player.Repository
	matches   match.Repository
	teammates teammate.Repository
	runs      syncrun.Repository
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	svcLogger := logging.NewJSON(cfg.LogLevel)

	db, repos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.CacheEnabled {
		store := cache.NewStore(cfg.CacheTTL)
		repos.matches = cacherepo.NewMatchRepository(repos.matches, store)
		repos.teammates = cacherepo.NewTeammateRepository(repos.teammates, store)
	}

	providers := buildProviders(cfg, svcLogger, logger)

	var queue usecase.JobQueue
	queueEnabled := false
	if cfg.QStashEnabled {
		queue = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker:   cfg.QStashCircuit,
		}, logger)
		queueEnabled = true
	}

	syncSvc := usecase.NewSyncService(
		usecase.SyncConfig{
			Enabled:     cfg.SyncEnabled,
			MatchLimit:  cfg.SyncMatchLimit,
			MaxWorkers:  cfg.SyncMaxWorkers,
			JoinTimeout: cfg.SyncJoinTimeout,
		},
		repos.users, repos.matches, repos.players, repos.teammates,
		providers,
		svcLogger,
	)
	sweepSvc := usecase.NewSweepService(
		usecase.SweepConfig{Enabled: cfg.SweepEnabled, MaxConcurrency: cfg.SweepMaxConcurrency},
		repos.users, syncSvc, svcLogger,
	)
	handler := httpapi.NewHandler(
		usecase.NewUserService(repos.users, svcLogger),
		usecase.NewStatsService(repos.users, repos.matches, repos.teammates, svcLogger),
		usecase.NewSyncJobService(repos.users, repos.runs, syncSvc, queue, queueEnabled, svcLogger),
		sweepSvc,
		logger,
	)

	router := httpapi.NewRouter(handler, logger, cfg.MetricsEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	app := &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		db:     db,
		logger: logger,
	}

	if cfg.SweepEnabled {
		scheduler, err := buildSweepScheduler(cfg, sweepSvc, logger)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.scheduler = scheduler
	}

	return app, nil
}

func buildRepositories(cfg config.Config, logger *slog.Logger) (*sqlx.DB, repositories, error) {
	if cfg.DBURL == "" {
		logger.Info("database not configured, using in-memory repositories")
		return nil, repositories{
			users:     memory.NewUserRepository(),
			players:   memory.NewPlayerRepository(),
			matches:   memory.NewMatchRepository(),
			teammates: memory.NewTeammateRepository(),
			runs:      memory.NewSyncRunRepository(),
		}, nil
	}

	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, repositories{}, fmt.Errorf("connect database: %w", err)
	}

	return db, repositories{
		users:     postgres.NewUserRepository(db),
		players:   postgres.NewPlayerRepository(db),
		matches:   postgres.NewMatchRepository(db),
		teammates: postgres.NewTeammateRepository(db),
		runs:      postgres.NewSyncRunRepository(db),
	}, nil
}

func buildProviders(cfg config.Config, svcLogger *logging.Logger, logger *slog.Logger) []usecase.MatchProvider {
	providers := make([]usecase.MatchProvider, 0, 2)

	if cfg.LeetifyEnabled {
		providers = append(providers, leetify.NewClient(leetify.ClientConfig{
			BaseURL:        cfg.LeetifyBaseURL,
			Timeout:        cfg.LeetifyTimeout,
			MaxRetries:     cfg.LeetifyMaxRetries,
			Logger:         svcLogger,
			CircuitBreaker: cfg.LeetifyCircuit,
		}))
	}

	if cfg.SteamEnabled && cfg.SteamAPIKey != "" {
		client := steamweb.NewClient(steamweb.ClientConfig{
			BaseURL:        cfg.SteamBaseURL,
			APIKey:         cfg.SteamAPIKey,
			Timeout:        cfg.SteamTimeout,
			MaxRetries:     cfg.SteamMaxRetries,
			Logger:         svcLogger,
			CircuitBreaker: cfg.SteamCircuit,
		})
		providers = append(providers, steamweb.NewProvider(client, svcLogger))
	} else if cfg.SteamEnabled {
		logger.Warn("steam provider disabled", "reason", "STEAM_API_KEY is empty")
	}

	return providers
}

// buildSweepScheduler drives the periodic all-users sync. It shares the
// SweepService with the internal sync-all job route, so a QStash-triggered
// sweep and a scheduled one run the same code.
func buildSweepScheduler(cfg config.Config, sweepSvc *usecase.SweepService, logger *slog.Logger) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create sweep scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.SweepInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.SweepInterval)
			defer cancel()
			if _, err := sweepSvc.SyncAllUsers(ctx); err != nil {
				logger.Error("scheduled sweep failed", "error", err)
			}
		}),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("register sweep job: %w", err)
	}

	logger.Info("sweep scheduler configured", "interval", cfg.SweepInterval.String())

	return scheduler, nil
}

// Start launches the background scheduler. The HTTP server is started by
// the caller so it controls the listen error path.
func (a *App) Start() {
	if a.scheduler != nil {
		a.scheduler.Start()
	}
}

func (a *App) Close() error {
	var firstErr error
	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Shutdown stops the HTTP server then the background pieces.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.Server.Shutdown(ctx); err != nil {
		return err
	}

	return a.Close()
}
