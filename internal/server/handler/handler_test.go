package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/marketview/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeEvents struct {
	view     domain.EventView
	err      error
	gotEvent string
	gotUser  string
}

func (f *fakeEvents) Assemble(_ context.Context, eventID, userID string) (domain.EventView, error) {
	f.gotEvent, f.gotUser = eventID, userID
	return f.view, f.err
}

type fakeHome struct{ view domain.HomeView }

func (f fakeHome) Assemble(context.Context) domain.HomeView { return f.view }

type fakeOrders struct {
	result   domain.CommandResult
	gotUser  *domain.User
	gotInput domain.PlaceOrderInput
	gotID    string
}

func (f *fakeOrders) Place(_ context.Context, u *domain.User, in domain.PlaceOrderInput) domain.CommandResult {
	f.gotUser, f.gotInput = u, in
	return f.result
}

func (f *fakeOrders) Cancel(_ context.Context, u *domain.User, id string) domain.CommandResult {
	f.gotUser, f.gotID = u, id
	return f.result
}

type fakeProfile struct{}

func (fakeProfile) Assemble(_ context.Context, u *domain.User) (domain.ProfileView, error) {
	if u == nil {
		return domain.ProfileView{}, domain.ErrUnauthorized
	}
	return domain.ProfileView{BalanceCents: 1500}, nil
}

type fakeAccounts struct{}

func (fakeAccounts) Summarize(_ context.Context, u *domain.User) domain.AccountSummary {
	return domain.AccountSummary{User: u}
}

func (fakeAccounts) Leaderboard(context.Context) []domain.LeaderboardEntry {
	return []domain.LeaderboardEntry{{UserID: "u1", Username: "ana", RealizedProfitCents: 900}}
}

type fakeAudit struct {
	entries []domain.AuditEntry
	gotOpts domain.ListOpts
}

func (f *fakeAudit) Log(context.Context, string, map[string]any) error { return nil }

func (f *fakeAudit) List(_ context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	f.gotOpts = opts
	return f.entries, nil
}

type fakeBlobs struct {
	objects   map[string]string
	gotPrefix string
}

func (f *fakeBlobs) Get(_ context.Context, path string) (io.ReadCloser, error) {
	body, ok := f.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeBlobs) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	f.gotPrefix = prefix
	var out []domain.BlobInfo
	for k, v := range f.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, domain.BlobInfo{Path: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

// serve routes a single request through a mux so path values are set.
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func withUser(req *http.Request, u *domain.User) *http.Request {
	return req.WithContext(domain.WithUser(req.Context(), u))
}

func TestEventHandler_GetEvent(t *testing.T) {
	t.Run("passes the signed-in user", func(t *testing.T) {
		events := &fakeEvents{view: domain.EventView{Event: domain.Event{ID: "e1"}}}
		h := NewEventHandler(events, fakeHome{}, discardLogger())

		req := withUser(httptest.NewRequest(http.MethodGet, "/api/events/e1", nil), &domain.User{ID: "u1"})
		rec := serve("GET /api/events/{id}", h.GetEvent, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if events.gotEvent != "e1" || events.gotUser != "u1" {
			t.Errorf("Assemble(%q, %q), want (e1, u1)", events.gotEvent, events.gotUser)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		events := &fakeEvents{}
		h := NewEventHandler(events, fakeHome{}, discardLogger())
		serve("GET /api/events/{id}", h.GetEvent, httptest.NewRequest(http.MethodGet, "/api/events/e1", nil))
		if events.gotUser != "" {
			t.Errorf("user = %q, want empty", events.gotUser)
		}
	})

	t.Run("not found", func(t *testing.T) {
		events := &fakeEvents{err: domain.ErrNotFound}
		h := NewEventHandler(events, fakeHome{}, discardLogger())
		rec := serve("GET /api/events/{id}", h.GetEvent, httptest.NewRequest(http.MethodGet, "/api/events/nope", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if got := decodeBody(t, rec)["error"]; got != MsgEventNotFound {
			t.Errorf("error = %v, want %q", got, MsgEventNotFound)
		}
	})

	t.Run("unexpected error", func(t *testing.T) {
		events := &fakeEvents{err: errors.New("boom")}
		h := NewEventHandler(events, fakeHome{}, discardLogger())
		rec := serve("GET /api/events/{id}", h.GetEvent, httptest.NewRequest(http.MethodGet, "/api/events/e1", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
	})
}

func TestEventHandler_GetHome(t *testing.T) {
	home := fakeHome{view: domain.HomeView{
		Events:         []domain.Event{{ID: "e1"}},
		AllPercentages: map[string]map[string]domain.Percentages{},
	}}
	h := NewEventHandler(&fakeEvents{}, home, discardLogger())

	rec := httptest.NewRecorder()
	h.GetHome(rec, httptest.NewRequest(http.MethodGet, "/api/home", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	events, _ := decodeBody(t, rec)["events"].([]any)
	if len(events) != 1 {
		t.Errorf("events = %v, want one", events)
	}
}

func TestOrderHandler_PlaceOrder(t *testing.T) {
	user := &domain.User{ID: "u1"}

	t.Run("accepted", func(t *testing.T) {
		orders := &fakeOrders{result: domain.Accepted([]string{"tx1"})}
		h := NewOrderHandler(orders, discardLogger())

		body := `{"marketId":"m1","shares":10,"pricePerShare":40,"option":"optionA"}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)), user)
		rec := httptest.NewRecorder()
		h.PlaceOrder(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		want := domain.PlaceOrderInput{MarketID: "m1", Shares: 10, PricePerShare: 40, Option: domain.OptionA}
		if orders.gotInput != want {
			t.Errorf("input = %+v, want %+v", orders.gotInput, want)
		}
		if orders.gotUser != user {
			t.Errorf("user not forwarded")
		}
		got := decodeBody(t, rec)
		if got["ok"] != true {
			t.Errorf("ok = %v, want true", got["ok"])
		}
		refs, _ := got["confirmationRefs"].([]any)
		if len(refs) != 1 || refs[0] != "tx1" {
			t.Errorf("confirmationRefs = %v", got["confirmationRefs"])
		}
	})

	t.Run("accepted without refs", func(t *testing.T) {
		orders := &fakeOrders{result: domain.Accepted(nil)}
		h := NewOrderHandler(orders, discardLogger())
		rec := httptest.NewRecorder()
		h.PlaceOrder(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{}`)), user))

		if !strings.Contains(rec.Body.String(), `"confirmationRefs":[]`) {
			t.Errorf("body = %s, want empty refs array", rec.Body.String())
		}
	})

	t.Run("rejected", func(t *testing.T) {
		orders := &fakeOrders{result: domain.Rejected(domain.RejectBackend, http.StatusBadRequest, "Saldo insuficiente")}
		h := NewOrderHandler(orders, discardLogger())
		rec := httptest.NewRecorder()
		h.PlaceOrder(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{}`)), user))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		got := decodeBody(t, rec)
		if got["ok"] != false || got["kind"] != string(domain.RejectBackend) || got["error"] != "Saldo insuficiente" {
			t.Errorf("body = %v", got)
		}
	})

	t.Run("undecodable body reaches the command as empty input", func(t *testing.T) {
		orders := &fakeOrders{result: domain.Rejected(domain.RejectInvalidInput, http.StatusBadRequest, "Dados inválidos.")}
		h := NewOrderHandler(orders, discardLogger())
		rec := httptest.NewRecorder()
		h.PlaceOrder(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{not json`)), user))

		if orders.gotInput != (domain.PlaceOrderInput{}) {
			t.Errorf("input = %+v, want zero", orders.gotInput)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestOrderHandler_CancelOrder(t *testing.T) {
	orders := &fakeOrders{result: domain.Accepted(nil)}
	h := NewOrderHandler(orders, discardLogger())

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/orders/o-7/cancel", nil), &domain.User{ID: "u1"})
	rec := serve("POST /api/orders/{id}/cancel", h.CancelOrder, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if orders.gotID != "o-7" {
		t.Errorf("order id = %q, want o-7", orders.gotID)
	}
}

func TestAccountHandler(t *testing.T) {
	h := NewAccountHandler(fakeProfile{}, fakeAccounts{}, discardLogger())

	t.Run("profile requires a user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetProfile(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("profile", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetProfile(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/profile", nil), &domain.User{ID: "u1"}))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got := decodeBody(t, rec)["balanceCents"]; got != float64(1500) {
			t.Errorf("balanceCents = %v, want 1500", got)
		}
	})

	t.Run("anonymous account is all null", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetAccount(rec, httptest.NewRequest(http.MethodGet, "/api/account", nil))
		got := decodeBody(t, rec)
		for _, k := range []string{"user", "balanceCents", "airdropAvailableAt"} {
			if v, ok := got[k]; !ok || v != nil {
				t.Errorf("%s = %v, want null", k, v)
			}
		}
	})

	t.Run("leaderboard", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetLeaderboard(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
		entries, _ := decodeBody(t, rec)["entries"].([]any)
		if len(entries) != 1 {
			t.Errorf("entries = %v, want one", entries)
		}
	})
}

func TestAdminHandler_ListAudit(t *testing.T) {
	audit := &fakeAudit{entries: []domain.AuditEntry{{ID: 1, Event: "order_placed", CreatedAt: time.Unix(0, 0)}}}
	h := NewAdminHandler(audit, nil, "snapshots", discardLogger())

	rec := httptest.NewRecorder()
	h.ListAudit(rec, httptest.NewRequest(http.MethodGet, "/api/admin/audit?event=order_placed&limit=900&offset=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if audit.gotOpts.Event != "order_placed" || audit.gotOpts.Limit != 500 || audit.gotOpts.Offset != 5 {
		t.Errorf("opts = %+v", audit.gotOpts)
	}
}

func TestAdminHandler_Unconfigured(t *testing.T) {
	h := NewAdminHandler(nil, nil, "snapshots", discardLogger())

	for name, fn := range map[string]http.HandlerFunc{
		"audit":     h.ListAudit,
		"snapshots": h.ListSnapshots,
		"snapshot":  h.GetSnapshot,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			fn(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != http.StatusServiceUnavailable {
				t.Errorf("status = %d, want 503", rec.Code)
			}
		})
	}
}

func TestAdminHandler_Snapshots(t *testing.T) {
	blobs := &fakeBlobs{objects: map[string]string{
		"snapshots/2025/03/01/120000.json": `{"takenAt":"2025-03-01T12:00:00Z"}`,
		"private/secret.json":              `{}`,
	}}
	h := NewAdminHandler(nil, blobs, "snapshots", discardLogger())

	t.Run("list by day", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ListSnapshots(rec, httptest.NewRequest(http.MethodGet, "/api/admin/snapshots?day=2025/03/01", nil))
		if blobs.gotPrefix != "snapshots/2025/03/01/" {
			t.Errorf("prefix = %q", blobs.gotPrefix)
		}
		list, _ := decodeBody(t, rec)["snapshots"].([]any)
		if len(list) != 1 {
			t.Errorf("snapshots = %v, want one", list)
		}
	})

	t.Run("day outside the prefix", func(t *testing.T) {
		blobs.gotPrefix = ""
		rec := httptest.NewRecorder()
		h.ListSnapshots(rec, httptest.NewRequest(http.MethodGet, "/api/admin/snapshots?day=../private", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if blobs.gotPrefix != "" {
			t.Errorf("listed %q outside the archive prefix", blobs.gotPrefix)
		}
	})

	tests := []struct {
		name string
		path string
		code int
	}{
		{"existing", "/api/admin/snapshots/snapshots/2025/03/01/120000.json", http.StatusOK},
		{"missing", "/api/admin/snapshots/snapshots/2025/03/01/130000.json", http.StatusNotFound},
		{"outside prefix", "/api/admin/snapshots/private/secret.json", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.URL.Path = tt.path
			rec := serve("GET /api/admin/snapshots/{key...}", h.GetSnapshot, req)
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.code, rec.Body.String())
			}
		})
	}

	t.Run("traversal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetPathValue("key", "snapshots/../private/secret.json")
		rec := httptest.NewRecorder()
		h.GetSnapshot(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

type pinger func(context.Context) error

func (p pinger) Ping(ctx context.Context) error { return p(ctx) }

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(map[string]Pinger{
		"redis":    pinger(func(context.Context) error { return nil }),
		"postgres": pinger(func(context.Context) error { return errors.New("refused") }),
	}, discardLogger())

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	got := decodeBody(t, rec)
	if got["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", got["status"])
	}
	checks, _ := got["checks"].(map[string]any)
	if checks["redis"] != "ok" || checks["postgres"] != "refused" {
		t.Errorf("checks = %v", checks)
	}
}
