package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// maxOrderBody caps the size of an order request body.
const maxOrderBody = 4 << 10

// OrderCommander places and cancels orders.
type OrderCommander interface {
	Place(ctx context.Context, user *domain.User, in domain.PlaceOrderInput) domain.CommandResult
	Cancel(ctx context.Context, user *domain.User, orderID string) domain.CommandResult
}

// OrderHandler serves the order commands.
type OrderHandler struct {
	orders OrderCommander
	logger *slog.Logger
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(orders OrderCommander, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// commandResponse is the wire form of a command result.
type commandResponse struct {
	OK               bool                 `json:"ok"`
	ConfirmationRefs []string             `json:"confirmationRefs,omitempty"`
	Kind             domain.RejectionKind `json:"kind,omitempty"`
	Error            string               `json:"error,omitempty"`
}

func writeCommandResult(w http.ResponseWriter, res domain.CommandResult) {
	if res.Rejection != nil {
		writeJSON(w, res.Rejection.Status, commandResponse{
			Kind:  res.Rejection.Kind,
			Error: res.Rejection.Reason,
		})
		return
	}
	refs := res.ConfirmationRefs
	if refs == nil {
		refs = []string{}
	}
	writeJSON(w, http.StatusOK, struct {
		OK               bool     `json:"ok"`
		ConfirmationRefs []string `json:"confirmationRefs"`
	}{OK: true, ConfirmationRefs: refs})
}

// PlaceOrder submits a buy order. A body that cannot be decoded is handed
// on as an empty input so the command applies its own checks in order.
// POST /api/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var in domain.PlaceOrderInput
	if err := json.NewDecoder(io.LimitReader(r.Body, maxOrderBody)).Decode(&in); err != nil {
		h.logger.DebugContext(r.Context(), "handler: undecodable order body",
			slog.String("error", err.Error()),
		)
		in = domain.PlaceOrderInput{}
	}

	writeCommandResult(w, h.orders.Place(r.Context(), domain.UserFromContext(r.Context()), in))
}

// CancelOrder cancels a resting order.
// POST /api/orders/{id}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	res := h.orders.Cancel(r.Context(), domain.UserFromContext(r.Context()), pathParam(r, "id"))
	writeCommandResult(w, res)
}
