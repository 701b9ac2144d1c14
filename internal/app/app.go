package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/cueclub/league-night/external/leaguehub"
	"github.com/cueclub/league-night/external/scorepush"
	"github.com/cueclub/league-night/internal/config"
	"github.com/cueclub/league-night/internal/domain/match"
	"github.com/cueclub/league-night/internal/domain/roster"
	"github.com/cueclub/league-night/internal/infrastructure/authority"
	repocache "github.com/cueclub/league-night/internal/infrastructure/repository/cache"
	"github.com/cueclub/league-night/internal/infrastructure/repository/memory"
	"github.com/cueclub/league-night/internal/infrastructure/repository/postgres"
	"github.com/cueclub/league-night/internal/interfaces/httpapi"
	"github.com/cueclub/league-night/internal/platform/cache"
	idgen "github.com/cueclub/league-night/internal/platform/id"
	"github.com/cueclub/league-night/internal/platform/resilience"
	"github.com/cueclub/league-night/internal/usecase"
)

// NewHTTPServer assembles the service graph behind a ready-to-serve
// *http.Server: the match store selected by config, the league hub client
// when enabled, and the score push notifier. ctx bounds background work
// such as the Postgres change feed; cancelling it stops the listeners.
// The returned cleanup releases everything the wiring opened, in reverse
// order of construction.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*http.Server, func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var cleanups []func(context.Context) error
	cleanup := func(shutdownCtx context.Context) error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*http.Server, func(context.Context) error, error) {
		if cerr := cleanup(context.Background()); cerr != nil {
			logger.Error("cleanup after failed startup", "error", cerr)
		}
		return nil, nil, err
	}

	var notifier *usecase.EventNotifier
	if cfg.ScorePushEnabled {
		publisher := scorepush.NewPublisher(scorepush.PublisherConfig{
			WebhookURL: cfg.ScorePushWebhookURL,
			Token:      cfg.ScorePushToken,
			Retries:    cfg.ScorePushRetries,
			Timeout:    cfg.ScorePushTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.ScorePushCircuitEnabled,
				FailureThreshold: cfg.ScorePushCircuitFailureCount,
				OpenTimeout:      cfg.ScorePushCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.ScorePushCircuitHalfOpenMaxReq,
			},
		}, logger)

		n, err := usecase.NewEventNotifier(publisher, cfg.NotifierWorkers, logger)
		if err != nil {
			return fail(fmt.Errorf("build event notifier: %w", err))
		}
		notifier = n
		cleanups = append(cleanups, func(context.Context) error {
			notifier.Close()
			return nil
		})
	}

	var (
		verifier httpapi.TokenVerifier = authority.NewStaticVerifier()
		rosters  roster.Provider
	)
	if cfg.LeagueHubEnabled {
		hub := leaguehub.NewClient(leaguehub.ClientConfig{
			BaseURL:    cfg.LeagueHubBaseURL,
			ServiceKey: cfg.LeagueHubServiceKey,
			Timeout:    cfg.LeagueHubTimeout,
			MaxRetries: cfg.LeagueHubMaxRetries,
			VerdictTTL: cfg.LeagueHubVerdictTTL,
			RosterTTL:  cfg.LeagueHubRosterTTL,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.LeagueHubCircuitEnabled,
				FailureThreshold: cfg.LeagueHubCircuitFailureCount,
				OpenTimeout:      cfg.LeagueHubCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.LeagueHubCircuitHalfOpenMaxReq,
			},
		})
		verifier = hub
		rosters = hub
	} else if cfg.AppEnv == config.EnvProd {
		logger.Warn("league hub disabled; bearer tokens are accepted as plain user ids")
	}

	var (
		matchRepo match.Repository
		seeder    httpapi.DemoSeeder
	)
	if cfg.DBURL == "" {
		memRepo := memory.NewMatchRepository()
		matchRepo = memRepo
		if rosters == nil {
			memRosters := memory.NewRosterProvider()
			rosters = memRosters
			seeder = memory.NewSeeder(memRepo, memRosters)
		} else {
			logger.Info("demo seeding disabled; rosters come from the league hub")
		}
		logger.Info("storage configured", "mode", "memory")
	} else {
		dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
		db, err := otelsqlx.Connect("postgres", dsn,
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
			otelsql.WithQueryFormatter(formatDBQueryForTrace),
		)
		if err != nil {
			return fail(fmt.Errorf("connect postgres: %w", err))
		}
		cleanups = append(cleanups, func(context.Context) error {
			return db.Close()
		})

		pgRepo := postgres.NewMatchRepository(db, logger)
		if err := pgRepo.StartChangeFeed(ctx, dsn); err != nil {
			return fail(fmt.Errorf("start match change feed: %w", err))
		}
		matchRepo = pgRepo
		if cfg.CacheEnabled {
			matchRepo = repocache.NewMatchRepository(pgRepo, cache.NewStore(cfg.CacheTTL))
		}
		if rosters == nil {
			rosters = memory.NewRosterProvider()
			logger.Warn("no roster source configured; matches cannot start until the league hub is enabled")
		}
		logger.Info("storage configured", "mode", "postgres", "db", dbNameFromURL(cfg.DBURL), "cache", cfg.CacheEnabled)
	}

	resolver := authority.NewRecordResolver()
	matchSvc := usecase.NewMatchService(matchRepo, rosters, resolver, idgen.NewRandomGenerator(), notifier, logger)
	scoringSvc := usecase.NewScoringService(matchRepo, resolver, notifier, logger)
	substitutionSvc := usecase.NewSubstitutionService(matchRepo, resolver, logger)
	confirmationSvc := usecase.NewConfirmationService(matchRepo, resolver, notifier, logger)

	handler := httpapi.NewHandler(matchSvc, scoringSvc, substitutionSvc, confirmationSvc, seeder, logger)
	router := httpapi.NewRouter(handler, verifier, logger, httpapi.RouterConfig{
		SwaggerEnabled:      cfg.SwaggerEnabled,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		InternalOpsToken:    cfg.InternalOpsToken,
		CaptureRequestBody:  cfg.UptraceCaptureRequestBody,
		RequestBodyMaxBytes: cfg.UptraceRequestBodyMaxBytes,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return fail(fmt.Errorf("http server addr cannot be empty"))
	}

	return server, cleanup, nil
}
