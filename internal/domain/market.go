package domain

// MarketOption is one of the two outcomes of a binary market.
type MarketOption string

const (
	OptionA MarketOption = "optionA"
	OptionB MarketOption = "optionB"
)

// Valid reports whether o is one of the two recognised option tags.
func (o MarketOption) Valid() bool {
	return o == OptionA || o == OptionB
}

// Market is a single binary question inside an event.
type Market struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	ImageURL    *string `json:"imageUrl"`
	OptionAName string  `json:"optionAName"`
	OptionBName string  `json:"optionBName"`
	Rules       string  `json:"rules"`
	// ResolvedOption is nil while the market is open. Once set it never
	// changes.
	ResolvedOption *MarketOption `json:"resolvedOption"`
}

// Resolved reports whether the market has a final outcome.
func (m Market) Resolved() bool {
	return m.ResolvedOption != nil
}

// Event groups one or more markets under a single page.
type Event struct {
	ID               string   `json:"id"`
	DisplayName      string   `json:"displayName"`
	ImageURL         *string  `json:"imageUrl"`
	URL              string   `json:"url"`
	Pubkey           string   `json:"pubkey"`
	Markets          []Market `json:"markets"`
	PendingBuyOrders int64    `json:"pendingBuyOrders"`
}

// MarketIDs returns the ids of the event's markets in event order.
func (e Event) MarketIDs() []string {
	ids := make([]string, 0, len(e.Markets))
	for _, m := range e.Markets {
		ids = append(ids, m.ID)
	}
	return ids
}
