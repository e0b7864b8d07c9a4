package domain

// MinPricePerShare and MaxPricePerShare bound a buy order price in
// percentage points. A price is an implied probability, so 0 and 100 are
// excluded.
const (
	MinPricePerShare = 1
	MaxPricePerShare = 99
)

// BuyOrder is a resting, not yet matched order in a market's order book.
type BuyOrder struct {
	ID            string       `json:"id"`
	MarketID      string       `json:"marketId"`
	UserID        string       `json:"userId"`
	Shares        int64        `json:"shares"`
	PricePerShare int64        `json:"pricePerShare"`
	Option        MarketOption `json:"option"`
}

// Position is a settled holding, distinct from open orders.
type Position struct {
	ID       string       `json:"id"`
	MarketID string       `json:"marketId"`
	UserID   string       `json:"userId"`
	Option   MarketOption `json:"option"`
	Shares   int64        `json:"shares"`
	// PricePerShare is only reported by some backend versions.
	PricePerShare *int64 `json:"pricePerShare,omitempty"`
}

// PlaceOrderInput is what a user submits to buy shares.
type PlaceOrderInput struct {
	MarketID      string       `json:"marketId"`
	Shares        int64        `json:"shares"`
	PricePerShare int64        `json:"pricePerShare"`
	Option        MarketOption `json:"option"`
}

// BuyOrderRequest is the body sent to the backend to place an order.
type BuyOrderRequest struct {
	MarketID      string       `json:"marketId"`
	UserID        string       `json:"userId"`
	Shares        int64        `json:"shares"`
	PricePerShare int64        `json:"pricePerShare"`
	Option        MarketOption `json:"option"`
}
