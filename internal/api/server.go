// Package api exposes the query pipeline and conversation read API over
// HTTP.
package api

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashryn/docschat/internal/log"
)

// ServerConfig configures the API server.
type ServerConfig struct {
	Logger      log.Logger
	Pipeline    TurnHandler   // required
	Sessions    SessionReader // required
	Pool        *pgxpool.Pool // optional: nil skips the DB ping in /ready
	CORSOrigins []string
	TrustProxy  bool
	RateRPS     float64 // tokens per second per IP (0 = 5)
	RateBurst   int     // bucket size per IP (0 = 10)

	// AugmentDefault is used for chat requests that omit "augment".
	AugmentDefault bool
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer wires routes and middleware.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ch := &chatHandler{pipeline: cfg.Pipeline, logger: logger, augmentDefault: cfg.AugmentDefault}
	sh := &sessionHandler{store: cfg.Sessions, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", ch.send)
	mux.HandleFunc("GET /api/sessions", sh.listSessions)
	mux.HandleFunc("GET /api/sessions/{id}/turns", sh.getTurns)

	rps := cfg.RateRPS
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 10
	}
	rl := newRateLimiter(rps, burst)

	// Outermost first: recovery → logging → CORS → rate limit → routes.
	// CORS sits before the rate limiter so preflight responses always carry
	// the headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(logger))
	topMux.Handle("GET /ready", readiness(cfg.Pool, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
