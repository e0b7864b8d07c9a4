package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketview/internal/server"
	"github.com/alanyoungcy/marketview/internal/server/handler"
	"github.com/alanyoungcy/marketview/internal/server/ws"
	"github.com/alanyoungcy/marketview/internal/service"
)

// services holds the domain services shared by every mode.
type services struct {
	events   *service.EventViewService
	home     *service.HomeViewService
	profile  *service.ProfileViewService
	accounts *service.AccountService
	orders   *service.OrderCommandService
	sessions *service.SessionService
	archiver *service.SnapshotArchiver // nil without blob storage
}

// buildServices constructs the services and attaches whichever optional
// side channels were wired.
func (a *App) buildServices(deps *Dependencies) *services {
	backend := deps.Backend

	svc := &services{
		events:   service.NewEventViewService(backend, a.logger).WithMaxFanout(a.cfg.Views.MaxFanout),
		home:     service.NewHomeViewService(backend, a.logger),
		profile:  service.NewProfileViewService(backend, backend, a.logger),
		accounts: service.NewAccountService(backend, a.logger),
		orders:   service.NewOrderCommandService(backend, a.logger),
		sessions: service.NewSessionService(backend, a.logger),
	}

	if deps.RateLimiter != nil && a.cfg.Orders.RateLimit > 0 {
		svc.orders.WithRateLimiter(deps.RateLimiter, a.cfg.Orders.RateLimit, a.cfg.Orders.RateWindow.Duration)
	}
	if deps.SignalBus != nil {
		svc.orders.WithSignalBus(deps.SignalBus)
	}
	if deps.AuditStore != nil {
		svc.orders.WithAudit(deps.AuditStore)
	}
	if deps.Notifier.Enabled() {
		svc.orders.WithAlerter(deps.Notifier)
	}
	if deps.UserCache != nil {
		svc.sessions.WithCache(deps.UserCache)
	}

	if deps.BlobWriter != nil {
		svc.archiver = service.NewSnapshotArchiver(svc.home, svc.events, deps.BlobWriter, a.cfg.Archive.Prefix, a.logger)
		if deps.LockManager != nil {
			svc.archiver.WithLockManager(deps.LockManager)
		}
		if deps.Notifier.Enabled() {
			svc.archiver.WithAlerter(deps.Notifier)
		}
	}

	return svc
}

// ServerMode serves the HTTP API and websocket push.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies, svc *services) error {
	a.logger.InfoContext(ctx, "entering server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, svc)
	return g.Wait()
}

// ArchiveMode periodically writes view snapshots to object storage.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies, svc *services) error {
	a.logger.InfoContext(ctx, "entering archive mode")

	if svc.archiver == nil {
		return errors.New("archive mode: object storage is not configured")
	}

	g, ctx := errgroup.WithContext(ctx)
	a.startArchiver(ctx, g, svc)
	return g.Wait()
}

// FullMode runs the HTTP server and, when enabled, the snapshot archiver.
func (a *App) FullMode(ctx context.Context, deps *Dependencies, svc *services) error {
	a.logger.InfoContext(ctx, "entering full mode")

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Archive.Enabled {
		if svc.archiver == nil {
			a.logger.WarnContext(ctx, "archive enabled but object storage is not configured, skipping")
		} else {
			a.startArchiver(ctx, g, svc)
		}
	}

	a.startHTTPServer(ctx, g, deps, svc)
	return g.Wait()
}

func (a *App) startArchiver(ctx context.Context, g *errgroup.Group, svc *services) {
	g.Go(func() error {
		return svc.archiver.Run(ctx, a.cfg.Archive.Interval.Duration, a.cfg.Archive.LockTTL.Duration)
	})
}

// startHTTPServer adds the HTTP server and, when a signal bus is wired, the
// websocket hub to the given errgroup. The server is shut down gracefully
// when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svc *services) {
	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger, ws.Config{
			Channels:       []string{service.ViewsChannel},
			AllowedOrigins: a.cfg.Server.CORSOrigins,
			StartedAt:      time.Now().UTC(),
		})
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	var admin *handler.AdminHandler
	if deps.AuditStore != nil || deps.BlobReader != nil {
		admin = handler.NewAdminHandler(deps.AuditStore, deps.BlobReader, a.cfg.Archive.Prefix, a.logger)
	}

	srv := server.NewServer(
		server.Config{
			Port:          a.cfg.Server.Port,
			CORSOrigins:   a.cfg.Server.CORSOrigins,
			APIKey:        a.cfg.Server.APIKey,
			SessionCookie: a.cfg.Backend.SessionCookie,
			RateLimit:     a.cfg.Server.RateLimit,
			RateWindow:    a.cfg.Server.RateWindow.Duration,
		},
		server.Handlers{
			Health:   handler.NewHealthHandler(deps.Pingers, a.logger),
			Events:   handler.NewEventHandler(svc.events, svc.home, a.logger),
			Orders:   handler.NewOrderHandler(svc.orders, a.logger),
			Accounts: handler.NewAccountHandler(svc.profile, svc.accounts, a.logger),
			Admin:    admin,
		},
		server.Deps{
			Sessions: svc.sessions,
			Limiter:  deps.RateLimiter,
		},
		hub,
		a.logger,
	)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening", slog.Int("port", a.cfg.Server.Port))
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
