package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/marketview/internal/domain"
	"github.com/alanyoungcy/marketview/internal/server/handler"
	"github.com/alanyoungcy/marketview/internal/server/middleware"
	"github.com/alanyoungcy/marketview/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port          int
	CORSOrigins   []string
	APIKey        string // admin routes accept this key; empty means admin users only
	SessionCookie string

	// RateLimit caps requests per client IP per RateWindow. Zero disables it.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health   *handler.HealthHandler
	Events   *handler.EventHandler
	Orders   *handler.OrderHandler
	Accounts *handler.AccountHandler
	Admin    *handler.AdminHandler
}

// Deps are the request-scoped collaborators of the middleware chain.
// Limiter may be nil.
type Deps struct {
	Sessions middleware.UserResolver
	Limiter  domain.RateLimiter
}

// Server is the HTTP + WebSocket front of the market view layer.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (CORS, logging, rate limit, session) and attaches
// the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, deps Deps, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// --- Register routes ---

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Read models.
	mux.HandleFunc("GET /api/home", handlers.Events.GetHome)
	mux.HandleFunc("GET /api/events/{id}", handlers.Events.GetEvent)
	mux.HandleFunc("GET /api/profile", handlers.Accounts.GetProfile)
	mux.HandleFunc("GET /api/account", handlers.Accounts.GetAccount)
	mux.HandleFunc("GET /api/leaderboard", handlers.Accounts.GetLeaderboard)

	// Commands.
	mux.HandleFunc("POST /api/orders", handlers.Orders.PlaceOrder)
	mux.HandleFunc("POST /api/orders/{id}/cancel", handlers.Orders.CancelOrder)

	// Admin.
	if handlers.Admin != nil {
		admin := middleware.AdminOnly(cfg.APIKey)
		mux.Handle("GET /api/admin/audit", admin(http.HandlerFunc(handlers.Admin.ListAudit)))
		mux.Handle("GET /api/admin/snapshots", admin(http.HandlerFunc(handlers.Admin.ListSnapshots)))
		mux.Handle("GET /api/admin/snapshots/{key...}", admin(http.HandlerFunc(handlers.Admin.GetSnapshot)))
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Session(deps.Sessions, cfg.SessionCookie)(h)
	if deps.Limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(deps.Limiter, cfg.RateLimit, cfg.RateWindow, logger)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Handler returns the fully wrapped handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
