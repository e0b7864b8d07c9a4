package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/marketview/internal/domain"
	"github.com/alanyoungcy/marketview/internal/platform/exchange"
)

// User-facing messages of order commands.
const (
	MsgNotSignedIn   = "Tens de ter sessão iniciada."
	MsgInvalidData   = "Dados inválidos."
	MsgInvalidOption = "Opção inválida."
	MsgInvalidOrder  = "Ordem inválida."
	MsgPlaceFailed   = "Erro ao criar a ordem de compra."
	MsgCancelFailed  = "Erro ao cancelar a ordem."
	MsgRateLimited   = "Demasiados pedidos. Tenta novamente dentro de momentos."
)

// ViewsChannel is the signal bus channel that announces stale views.
const ViewsChannel = "views"

// OrderBackend submits order commands to the backend.
type OrderBackend interface {
	PlaceBuyOrder(ctx context.Context, req domain.BuyOrderRequest) ([]string, error)
	CancelBuyOrder(ctx context.Context, orderID string) ([]string, error)
}

// Alerter notifies operators.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Alert event names.
const (
	alertOrderBackendError = "order_backend_error"
	alertArchiveFailed     = "archive_failed"
)

// OrderCommandService validates and forwards order commands. Validation
// happens before any network call; optional side channels (rate limiter,
// signal bus, audit log, alerter) never change a command's result.
type OrderCommandService struct {
	backend OrderBackend
	limiter domain.RateLimiter
	limit   int
	window  time.Duration
	bus     domain.SignalBus
	audit   domain.AuditStore
	alerter Alerter
	logger  *slog.Logger
}

// NewOrderCommandService creates an OrderCommandService.
func NewOrderCommandService(backend OrderBackend, logger *slog.Logger) *OrderCommandService {
	return &OrderCommandService{
		backend: backend,
		logger:  logger.With(slog.String("component", "order_command")),
	}
}

// WithRateLimiter caps each user at limit commands per window.
func (s *OrderCommandService) WithRateLimiter(l domain.RateLimiter, limit int, window time.Duration) *OrderCommandService {
	if limit > 0 && window > 0 {
		s.limiter = l
		s.limit = limit
		s.window = window
	}
	return s
}

// WithSignalBus publishes a view_stale message after every accepted command.
func (s *OrderCommandService) WithSignalBus(bus domain.SignalBus) *OrderCommandService {
	s.bus = bus
	return s
}

// WithAudit records every command outcome.
func (s *OrderCommandService) WithAudit(audit domain.AuditStore) *OrderCommandService {
	s.audit = audit
	return s
}

// WithAlerter notifies operators when the backend fails with a 5xx.
func (s *OrderCommandService) WithAlerter(a Alerter) *OrderCommandService {
	s.alerter = a
	return s
}

// Place submits a buy order on behalf of user. A nil user is rejected.
func (s *OrderCommandService) Place(ctx context.Context, user *domain.User, in domain.PlaceOrderInput) domain.CommandResult {
	if user == nil {
		return domain.Rejected(domain.RejectUnauthorized, http.StatusUnauthorized, MsgNotSignedIn)
	}
	if in.MarketID == "" || in.Shares < 1 ||
		in.PricePerShare < domain.MinPricePerShare || in.PricePerShare > domain.MaxPricePerShare {
		return domain.Rejected(domain.RejectInvalidInput, http.StatusBadRequest, MsgInvalidData)
	}
	if !in.Option.Valid() {
		return domain.Rejected(domain.RejectInvalidInput, http.StatusBadRequest, MsgInvalidOption)
	}
	if res, limited := s.rateLimited(ctx, user); limited {
		return res
	}

	refs, err := s.backend.PlaceBuyOrder(ctx, domain.BuyOrderRequest{
		MarketID:      in.MarketID,
		UserID:        user.ID,
		Shares:        in.Shares,
		PricePerShare: in.PricePerShare,
		Option:        in.Option,
	})
	detail := map[string]any{
		"user_id":         user.ID,
		"market_id":       in.MarketID,
		"shares":          in.Shares,
		"price_per_share": in.PricePerShare,
		"option":          string(in.Option),
	}
	if err != nil {
		return s.rejectBackend(ctx, "place", err, MsgPlaceFailed, detail)
	}

	s.afterAccepted(ctx, "order_placed", map[string]string{
		"type":     "view_stale",
		"marketId": in.MarketID,
	}, detail, refs)

	s.logger.InfoContext(ctx, "order placed",
		slog.String("user_id", user.ID),
		slog.String("market_id", in.MarketID),
		slog.Int64("shares", in.Shares),
		slog.Int64("price_per_share", in.PricePerShare),
		slog.String("option", string(in.Option)),
		slog.Int("refs", len(refs)),
	)
	return domain.Accepted(refs)
}

// Cancel cancels one of user's resting orders.
func (s *OrderCommandService) Cancel(ctx context.Context, user *domain.User, orderID string) domain.CommandResult {
	if user == nil {
		return domain.Rejected(domain.RejectUnauthorized, http.StatusUnauthorized, MsgNotSignedIn)
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Rejected(domain.RejectInvalidInput, http.StatusBadRequest, MsgInvalidOrder)
	}
	if res, limited := s.rateLimited(ctx, user); limited {
		return res
	}

	refs, err := s.backend.CancelBuyOrder(ctx, orderID)
	detail := map[string]any{
		"user_id":  user.ID,
		"order_id": orderID,
	}
	if err != nil {
		return s.rejectBackend(ctx, "cancel", err, MsgCancelFailed, detail)
	}

	s.afterAccepted(ctx, "order_cancelled", map[string]string{
		"type":    "view_stale",
		"orderId": orderID,
	}, detail, refs)

	s.logger.InfoContext(ctx, "order cancelled",
		slog.String("user_id", user.ID),
		slog.String("order_id", orderID),
		slog.Int("refs", len(refs)),
	)
	return domain.Accepted(refs)
}

// rateLimited consults the limiter. A limiter failure lets the command
// through.
func (s *OrderCommandService) rateLimited(ctx context.Context, user *domain.User) (domain.CommandResult, bool) {
	if s.limiter == nil {
		return domain.CommandResult{}, false
	}
	allowed, err := s.limiter.Allow(ctx, "orders:"+user.ID, s.limit, s.window)
	if err != nil {
		s.logger.WarnContext(ctx, "rate limiter unavailable",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return domain.CommandResult{}, false
	}
	if allowed {
		return domain.CommandResult{}, false
	}
	s.logger.WarnContext(ctx, "order command rate limited", slog.String("user_id", user.ID))
	return domain.Rejected(domain.RejectRateLimited, http.StatusTooManyRequests, MsgRateLimited), true
}

// rejectBackend converts a backend failure into a rejection. The backend's
// own text is used when it sent one; a failure without a response becomes a
// 502 with the generic message.
func (s *OrderCommandService) rejectBackend(ctx context.Context, op string, err error, generic string, detail map[string]any) domain.CommandResult {
	status := http.StatusBadGateway
	reason := generic
	if se, ok := exchange.AsStatusError(err); ok {
		status = se.StatusCode
		if msg := se.Message(); msg != "" {
			reason = msg
		}
	}
	res := domain.Rejected(domain.RejectBackend, status, reason)

	s.logger.WarnContext(ctx, "order command rejected",
		slog.String("op", op),
		slog.Int("status", status),
		slog.String("reason", reason),
		slog.String("error", err.Error()),
	)

	detail["op"] = op
	detail["status"] = status
	detail["reason"] = reason
	s.auditLog(ctx, "order_rejected", detail)

	if s.alerter != nil && (status >= 500 || errors.Is(err, domain.ErrBackendUnavailable)) {
		msg := fmt.Sprintf("op=%s status=%d error=%v", op, status, err)
		if aErr := s.alerter.Notify(ctx, alertOrderBackendError, "Order backend failure", msg); aErr != nil {
			s.logger.WarnContext(ctx, "alert failed", slog.String("error", aErr.Error()))
		}
	}
	return res
}

func (s *OrderCommandService) afterAccepted(ctx context.Context, event string, signal map[string]string, detail map[string]any, refs []string) {
	if s.bus != nil {
		payload, _ := json.Marshal(signal)
		if err := s.bus.Publish(ctx, ViewsChannel, payload); err != nil {
			s.logger.WarnContext(ctx, "publish view_stale failed",
				slog.String("error", err.Error()),
			)
		}
	}
	detail["confirmation_refs"] = refs
	s.auditLog(ctx, event, detail)
}

func (s *OrderCommandService) auditLog(ctx context.Context, event string, detail map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, event, detail); err != nil {
		s.logger.WarnContext(ctx, "audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
