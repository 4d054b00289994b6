package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/ashryn/docschat/db"
	"github.com/ashryn/docschat/internal/chat"
	"github.com/ashryn/docschat/internal/config"
	"github.com/ashryn/docschat/internal/docstore"
	"github.com/ashryn/docschat/internal/genai"
	"github.com/ashryn/docschat/internal/ingest"
	"github.com/ashryn/docschat/internal/log"
	"github.com/ashryn/docschat/internal/observability"
	"github.com/ashryn/docschat/internal/respond"
	"github.com/ashryn/docschat/internal/retrieve"
	"github.com/ashryn/docschat/internal/route"
	"github.com/ashryn/docschat/internal/session"
)

// Setup builds the App. On any failure everything already initialized is
// released before the error returns.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing first: the span processor must exist before genkit.Init.
	otelCleanup, err := observability.SetupTracing(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.otelCleanup = otelCleanup

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	g, err := provideGenkit(ctx)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	client := genai.New(g, cfg.ModelName, cfg.EmbedderModel, logger.With("component", "genai"))

	a.Docs = docstore.New(pool, logger.With("component", "docstore"))
	a.Sessions = session.New(pool, logger.With("component", "session"))
	a.Ingestor = ingest.New(client, a.Docs, logger.With("component", "ingest"))

	retriever := retrieve.New(client, a.Docs, cfg.RetrieveTopK, logger.With("component", "retrieve"))
	policy := route.NewPolicy(cfg.RouteThreshold)
	kbOnly := respond.NewKBOnly(client, logger.With("component", "respond"))
	augmented := respond.NewAugmented(client, logger.With("component", "respond"))

	a.Pipeline = chat.New(retriever, policy, kbOnly, augmented, a.Sessions,
		logger.With("component", "chat"))

	return a, nil
}

// provideGenkit initializes Genkit with the Google AI plugin. The plugin
// reads GEMINI_API_KEY from the environment; config.Validate has already
// checked it is set.
func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit")
	}
	return g, nil
}

// provideDBPool runs migrations and creates the connection pool with
// pgvector types registered on every connection.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		//nolint:wrapcheck // pgx calls this hook directly
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}
