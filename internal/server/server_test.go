package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alanyoungcy/marketview/internal/domain"
	"github.com/alanyoungcy/marketview/internal/server/handler"
)

type stubResolver map[string]*domain.User

func (s stubResolver) Resolve(_ context.Context, id string) *domain.User { return s[id] }

func (s stubResolver) Forget(context.Context, string) {}

type stubEvents struct{}

func (stubEvents) Assemble(_ context.Context, id, _ string) (domain.EventView, error) {
	if id != "e1" {
		return domain.EventView{}, domain.ErrNotFound
	}
	return domain.EventView{Event: domain.Event{ID: id}}, nil
}

type stubHome struct{}

func (stubHome) Assemble(context.Context) domain.HomeView { return domain.HomeView{} }

type stubOrders struct{}

func (stubOrders) Place(_ context.Context, u *domain.User, _ domain.PlaceOrderInput) domain.CommandResult {
	if u == nil {
		return domain.Rejected(domain.RejectUnauthorized, http.StatusUnauthorized, "no session")
	}
	return domain.Accepted(nil)
}

func (stubOrders) Cancel(_ context.Context, u *domain.User, _ string) domain.CommandResult {
	if u == nil {
		return domain.Rejected(domain.RejectUnauthorized, http.StatusUnauthorized, "no session")
	}
	return domain.Accepted(nil)
}

type stubProfile struct{}

func (stubProfile) Assemble(_ context.Context, u *domain.User) (domain.ProfileView, error) {
	if u == nil {
		return domain.ProfileView{}, domain.ErrUnauthorized
	}
	return domain.ProfileView{}, nil
}

type stubAccounts struct{}

func (stubAccounts) Summarize(_ context.Context, u *domain.User) domain.AccountSummary {
	return domain.AccountSummary{User: u}
}

func (stubAccounts) Leaderboard(context.Context) []domain.LeaderboardEntry { return nil }

type stubAudit struct{}

func (stubAudit) Log(context.Context, string, map[string]any) error { return nil }

func (stubAudit) List(context.Context, domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

func newTestServer() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handlers := Handlers{
		Health:   handler.NewHealthHandler(nil, logger),
		Events:   handler.NewEventHandler(stubEvents{}, stubHome{}, logger),
		Orders:   handler.NewOrderHandler(stubOrders{}, logger),
		Accounts: handler.NewAccountHandler(stubProfile{}, stubAccounts{}, logger),
		Admin:    handler.NewAdminHandler(stubAudit{}, nil, "snapshots", logger),
	}
	deps := Deps{Sessions: stubResolver{
		"s-user":  {ID: "u1"},
		"s-admin": {ID: "u0", IsAdmin: true},
	}}
	srv := NewServer(Config{Port: 0, APIKey: "k"}, handlers, deps, nil, logger)
	return srv.Handler()
}

func TestRoutes(t *testing.T) {
	h := newTestServer()

	tests := []struct {
		name    string
		method  string
		path    string
		session string
		header  [2]string
		code    int
	}{
		{"health", http.MethodGet, "/api/health", "", [2]string{}, http.StatusOK},
		{"home", http.MethodGet, "/api/home", "", [2]string{}, http.StatusOK},
		{"event", http.MethodGet, "/api/events/e1", "", [2]string{}, http.StatusOK},
		{"missing event", http.MethodGet, "/api/events/zz", "", [2]string{}, http.StatusNotFound},
		{"profile anonymous", http.MethodGet, "/api/profile", "", [2]string{}, http.StatusUnauthorized},
		{"profile signed in", http.MethodGet, "/api/profile", "s-user", [2]string{}, http.StatusOK},
		{"unknown session is anonymous", http.MethodGet, "/api/profile", "s-gone", [2]string{}, http.StatusUnauthorized},
		{"place anonymous", http.MethodPost, "/api/orders", "", [2]string{}, http.StatusUnauthorized},
		{"place signed in", http.MethodPost, "/api/orders", "s-user", [2]string{}, http.StatusOK},
		{"cancel signed in", http.MethodPost, "/api/orders/o1/cancel", "s-user", [2]string{}, http.StatusOK},
		{"cancel wrong method", http.MethodDelete, "/api/orders/o1/cancel", "s-user", [2]string{}, http.StatusMethodNotAllowed},
		{"admin anonymous", http.MethodGet, "/api/admin/audit", "", [2]string{}, http.StatusUnauthorized},
		{"admin non-admin", http.MethodGet, "/api/admin/audit", "s-user", [2]string{}, http.StatusForbidden},
		{"admin user", http.MethodGet, "/api/admin/audit", "s-admin", [2]string{}, http.StatusOK},
		{"admin api key", http.MethodGet, "/api/admin/audit", "", [2]string{"X-API-Key", "k"}, http.StatusOK},
		{"snapshots unconfigured", http.MethodGet, "/api/admin/snapshots", "s-admin", [2]string{}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.session != "" {
				req.AddCookie(&http.Cookie{Name: "sessionId", Value: tt.session})
			}
			if tt.header[0] != "" {
				req.Header.Set(tt.header[0], tt.header[1])
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.code {
				t.Errorf("%s %s = %d, want %d (body %s)", tt.method, tt.path, rec.Code, tt.code, rec.Body.String())
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
		})
	}
}
