package domain

import "time"

// EventView is everything an event page shows, assembled from one pass of
// backend reads. It is rebuilt on every request and never persisted.
type EventView struct {
	Event Event `json:"event"`
	// Positions and BuyOrders belong to the requesting user and are empty
	// for anonymous requests.
	Positions []Position `json:"positions"`
	BuyOrders []BuyOrder `json:"buyOrders"`
	// AllMarketOrders is the full order book keyed by market id.
	AllMarketOrders   map[string][]BuyOrder  `json:"allMarketOrders"`
	MarketPercentages map[string]Percentages `json:"marketPercentages"`
	Chart             []ChartPoint           `json:"chart"`
}

// HomeView is the event catalog with percentages keyed by event id, then
// market id.
type HomeView struct {
	Events         []Event                           `json:"events"`
	AllPercentages map[string]map[string]Percentages `json:"allPercentages"`
}

// ProfileView is the signed-in user's portfolio page.
type ProfileView struct {
	Positions      []Position                        `json:"positions"`
	Events         []Event                           `json:"events"`
	BalanceCents   int64                             `json:"balanceCents"`
	AllPercentages map[string]map[string]Percentages `json:"allPercentages"`
}

// AccountSummary is the per-page header data for the current user. Fields
// are nil when there is no user or the backend could not answer.
type AccountSummary struct {
	User               *User      `json:"user"`
	BalanceCents       *int64     `json:"balanceCents"`
	AirdropAvailableAt *time.Time `json:"airdropAvailableAt"`
}
