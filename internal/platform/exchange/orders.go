package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// IdempotencyHeader carries a per-attempt key so the backend can drop
// duplicate submissions of the same order.
const IdempotencyHeader = "Idempotency-Key"

func newIdempotencyKey() string {
	return uuid.NewString()
}

// PlaceBuyOrder submits a buy order and returns the confirmation references
// the backend reported. A successful response with an empty or unexpected
// body yields no references.
func (c *Client) PlaceBuyOrder(ctx context.Context, req domain.BuyOrderRequest) ([]string, error) {
	header := http.Header{}
	header.Set(IdempotencyHeader, c.newKey())

	body, err := c.doPost(ctx, "/event/buyorder", req, header)
	if err != nil {
		return nil, fmt.Errorf("exchange: place buy order: %w", err)
	}

	return parseConfirmationRefs(body), nil
}

// CancelBuyOrder cancels a resting buy order.
func (c *Client) CancelBuyOrder(ctx context.Context, orderID string) ([]string, error) {
	body, err := c.doPost(ctx, "/event/buyorder/cancel/"+url.PathEscape(orderID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("exchange: cancel buy order %s: %w", orderID, err)
	}

	return parseConfirmationRefs(body), nil
}
