package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/slabtrack/cardstock/external/cardcatalog"
	"github.com/slabtrack/cardstock/external/jobqueue"
	"github.com/slabtrack/cardstock/internal/config"
	"github.com/slabtrack/cardstock/internal/domain/card"
	"github.com/slabtrack/cardstock/internal/domain/player"
	"github.com/slabtrack/cardstock/internal/domain/playerteam"
	"github.com/slabtrack/cardstock/internal/domain/team"
	"github.com/slabtrack/cardstock/internal/infrastructure/repository/memory"
	"github.com/slabtrack/cardstock/internal/infrastructure/repository/postgres"
	"github.com/slabtrack/cardstock/internal/interfaces/httpapi"
	"github.com/slabtrack/cardstock/internal/platform/cache"
	idgen "github.com/slabtrack/cardstock/internal/platform/id"
	"github.com/slabtrack/cardstock/internal/platform/logging"
	"github.com/slabtrack/cardstock/internal/platform/resilience"
	"github.com/slabtrack/cardstock/internal/usecase"
)

type repositories struct {
	players player.Repository
	teams   team.Repository
	links   playerteam.Repository
	cards   card.Repository
}

func NewHTTPServer(cfg config.Config, logger *slog.Logger) (*http.Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}

	provider := buildCatalogProvider(cfg)
	publisher := buildImportPublisher(cfg, logger)

	importSvc := usecase.NewImportService(
		provider,
		repos.cards,
		publisher,
		idgen.NewRandomGenerator(),
		logger,
	)
	importSvc.SetLinkWorkers(cfg.ImportLinkWorkers)

	cacheTTL := cfg.CacheTTL
	if !cfg.CacheEnabled {
		cacheTTL = -1
	}
	directorySvc := usecase.NewDirectoryService(
		repos.players,
		repos.teams,
		repos.links,
		repos.cards,
		cache.NewStore(cacheTTL),
		logger,
	)

	handler := httpapi.NewHandler(importSvc, directorySvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

// buildRepositories picks the storage backend: postgres when DB_URL is set,
// otherwise the seeded in-memory fixtures for DB-less runs.
func buildRepositories(cfg config.Config, logger *slog.Logger) (repositories, error) {
	if strings.TrimSpace(cfg.DBURL) == "" {
		logger.Info("storage backend selected", "backend", "memory", "reason", "DB_URL empty")
		seed := memory.DefaultSeed()
		return repositories{
			players: memory.NewPlayerRepository(seed.PlayersByCatalog),
			teams:   memory.NewTeamRepository(seed.TeamsByOrganization),
			links:   memory.NewPlayerTeamRepository(seed.Links),
			cards:   memory.NewCardRepository(nil),
		}, nil
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return repositories{}, err
	}

	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := postgres.BootstrapSeed(seedCtx, db); err != nil {
		return repositories{}, fmt.Errorf("bootstrap seed: %w", err)
	}

	logger.Info("storage backend selected", "backend", "postgres", "db_name", dbNameFromURL(cfg.DBURL))
	return repositories{
		players: postgres.NewPlayerRepository(db),
		teams:   postgres.NewTeamRepository(db),
		links:   postgres.NewPlayerTeamRepository(db),
		cards:   postgres.NewCardRepository(db),
	}, nil
}

func openDatabase(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	opts := []otelsql.Option{
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	}
	if name := dbNameFromURL(cfg.DBURL); name != "" {
		opts = append(opts, otelsql.WithDBName(name))
	}

	db, err := otelsqlx.Open("postgres", dsn, opts...)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func buildCatalogProvider(cfg config.Config) usecase.CatalogProvider {
	if !cfg.CatalogEnabled {
		return memory.NewCatalogProvider(memory.DefaultSeed())
	}

	return cardcatalog.NewClient(cardcatalog.ClientConfig{
		BaseURL:    cfg.CatalogBaseURL,
		Token:      cfg.CatalogToken,
		Timeout:    cfg.CatalogTimeout,
		MaxRetries: cfg.CatalogMaxRetries,
		Logger:     logging.Default(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.CatalogCircuitEnabled,
			FailureThreshold: cfg.CatalogCircuitFailureCount,
			OpenTimeout:      cfg.CatalogCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.CatalogCircuitHalfOpenMaxReq,
		},
	})
}

// buildImportPublisher returns nil when QStash is disabled; the import
// service treats a nil publisher as "no post-commit announcements".
func buildImportPublisher(cfg config.Config, logger *slog.Logger) usecase.ImportPublisher {
	if !cfg.QStashEnabled {
		logger.Info("export job publisher disabled", "reason", "QSTASH_ENABLED=false")
		return nil
	}

	queue := jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.QStashCircuitEnabled,
			FailureThreshold: cfg.QStashCircuitFailureCount,
			OpenTimeout:      cfg.QStashCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
		},
	}, logger)

	return jobqueue.NewExportPublisher(queue, cfg.ExportJobDelay)
}
