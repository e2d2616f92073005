// Package app wires configuration, storage, services, and the HTTP router
// into a runnable server.
package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fantamercato/trade-engine/internal/config"
	"github.com/fantamercato/trade-engine/internal/domain/audit"
	"github.com/fantamercato/trade-engine/internal/domain/market"
	"github.com/fantamercato/trade-engine/internal/domain/player"
	"github.com/fantamercato/trade-engine/internal/domain/renewal"
	"github.com/fantamercato/trade-engine/internal/domain/stats"
	"github.com/fantamercato/trade-engine/internal/domain/team"
	"github.com/fantamercato/trade-engine/internal/domain/trade"
	"github.com/fantamercato/trade-engine/internal/infrastructure/account/memberauth"
	"github.com/fantamercato/trade-engine/internal/infrastructure/notify"
	"github.com/fantamercato/trade-engine/internal/infrastructure/repository/memory"
	"github.com/fantamercato/trade-engine/internal/infrastructure/repository/postgres"
	"github.com/fantamercato/trade-engine/internal/interfaces/httpapi"
	idgen "github.com/fantamercato/trade-engine/internal/platform/id"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
	"github.com/fantamercato/trade-engine/internal/platform/resilience"
	"github.com/fantamercato/trade-engine/internal/usecase"
)

// App owns the HTTP server plus the background scheduler and any resources
// that need closing on shutdown.
type App struct {
	Server    *http.Server
	Scheduler *usecase.MarketScheduler

	db *sqlx.DB
}

type repositories struct {
	teams       team.Repository
	players     player.Repository
	proposals   trade.Repository
	obligations renewal.Repository
	markets     market.Repository
	stats       stats.Repository
	audits      audit.Repository
	settlements trade.SettlementRepository
}

// New builds the whole engine. An empty DB_URL selects the in-memory seeded
// store, which is the local development mode; anything else is Postgres.
func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var (
		repos repositories
		db    *sqlx.DB
		err   error
	)
	if cfg.DBURL == "" {
		logger.Info("storage backend selected", "backend", "memory")
		repos = newMemoryRepositories()
	} else {
		logger.Info("storage backend selected", "backend", "postgres", "db_name", dbNameFromURL(cfg.DBURL))
		db, err = openDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		repos = newPostgresRepositories(db)
	}

	gen := idgen.NewRandomGenerator()
	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	proposalSvc := usecase.NewProposalService(repos.proposals, repos.teams, repos.players, repos.obligations, repos.markets, gen, repos.audits, logger)
	approvalSvc := usecase.NewApprovalService(repos.proposals, notifier, repos.audits, logger)
	settlementSvc := usecase.NewSettlementService(repos.proposals, repos.settlements, repos.teams, repos.players, gen, notifier, repos.audits, resilience.RetryConfig{
		MaxAttempts:  cfg.SettlementMaxAttempts,
		InitialDelay: cfg.SettlementInitialDelay,
		MaxDelay:     cfg.SettlementMaxDelay,
	}, logger)
	renewalSvc := usecase.NewRenewalService(repos.players, repos.obligations, repos.markets, repos.audits, logger)
	marketSvc := usecase.NewMarketService(repos.markets, notifier, repos.audits, cfg.NotifyDedupWindow, logger)
	scheduler := usecase.NewMarketScheduler(marketSvc, usecase.MarketSchedulerConfig{
		TickInterval: cfg.MarketTickInterval,
	}, logger)
	revaluationSvc := usecase.NewRevaluationService(repos.players, repos.teams, repos.stats, repos.audits, logger)
	teamSvc := usecase.NewTeamService(repos.teams, repos.players, logger)

	verifier := memberauth.NewClient(
		&http.Client{Timeout: cfg.MemberAuthTimeout},
		memberauth.ClientConfig{
			BaseURL:        cfg.MemberAuthBaseURL,
			IntrospectPath: cfg.MemberAuthIntrospectPath,
			AdminKey:       cfg.MemberAuthAdminKey,
			Timeout:        cfg.MemberAuthTimeout,
			Circuit: resilience.CircuitBreakerConfig{
				Enabled:          cfg.MemberAuthCircuitEnabled,
				FailureThreshold: cfg.MemberAuthCircuitFailureCount,
				OpenTimeout:      cfg.MemberAuthCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.MemberAuthCircuitHalfOpenMaxReq,
			},
		},
		logger,
	)

	handler := httpapi.NewHandler(proposalSvc, approvalSvc, settlementSvc, renewalSvc, marketSvc, scheduler, revaluationSvc, teamSvc, repos.audits, logger)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		closeDB(db)
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:    server,
		Scheduler: scheduler,
		db:        db,
	}, nil
}

// Close releases resources other than the HTTP server, which the caller
// shuts down separately.
func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func newMemoryRepositories() repositories {
	teamRepo := memory.NewTeamRepository(memory.SeedTeams())
	playerRepo := memory.NewPlayerRepository(memory.SeedPlayers())
	proposalRepo := memory.NewProposalRepository()
	obligationRepo := memory.NewObligationRepository()

	return repositories{
		teams:       teamRepo,
		players:     playerRepo,
		proposals:   proposalRepo,
		obligations: obligationRepo,
		markets:     memory.NewMarketRepository(),
		stats:       memory.NewStatsRepository(memory.SeedStats()),
		audits:      memory.NewAuditRepository(),
		settlements: memory.NewSettlementRepository(proposalRepo, teamRepo, playerRepo, obligationRepo),
	}
}

func newPostgresRepositories(db *sqlx.DB) repositories {
	return repositories{
		teams:       postgres.NewTeamRepository(db),
		players:     postgres.NewPlayerRepository(db),
		proposals:   postgres.NewProposalRepository(db),
		obligations: postgres.NewObligationRepository(db),
		markets:     postgres.NewMarketRepository(db),
		stats:       postgres.NewStatsRepository(db),
		audits:      postgres.NewAuditRepository(db),
		settlements: postgres.NewSettlementRepository(db),
	}
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func closeDB(db *sqlx.DB) {
	if db != nil {
		_ = db.Close()
	}
}

func newNotifier(cfg config.Config, logger *logging.Logger) (usecase.Notifier, error) {
	if !cfg.WebhookEnabled {
		return usecase.NewNoopNotifier(), nil
	}

	hook, err := notify.NewWebhook(notify.WebhookConfig{
		Endpoint: cfg.WebhookEndpoint,
		Token:    cfg.WebhookToken,
		Timeout:  cfg.WebhookTimeout,
		Retry: resilience.RetryConfig{
			MaxAttempts: cfg.WebhookMaxRetries,
		},
		Circuit: resilience.CircuitBreakerConfig{
			Enabled:          cfg.WebhookCircuitEnabled,
			FailureThreshold: cfg.WebhookCircuitFailureCount,
			OpenTimeout:      cfg.WebhookCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.WebhookCircuitHalfOpenMaxReq,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("configure webhook notifier: %w", err)
	}

	return hook, nil
}
