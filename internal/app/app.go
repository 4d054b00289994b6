// Package app assembles the application: configuration, database, Genkit,
// and the query pipeline, with cleanup-on-error setup.
package app

import (
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashryn/docschat/internal/chat"
	"github.com/ashryn/docschat/internal/config"
	"github.com/ashryn/docschat/internal/docstore"
	"github.com/ashryn/docschat/internal/ingest"
	"github.com/ashryn/docschat/internal/log"
	"github.com/ashryn/docschat/internal/session"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Pool     *pgxpool.Pool
	Docs     *docstore.Store
	Sessions *session.Store
	Pipeline *chat.Pipeline
	Ingestor *ingest.Ingestor

	otelCleanup func()
}

// Close releases resources in reverse construction order.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")

	if a.Pool != nil {
		a.Pool.Close()
		a.Logger.Debug("database pool closed")
	}

	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}
