package exchange

import (
	"encoding/json"
	"time"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// eventResponse is the body of GET /event/{id}. A missing event is reported
// as {"event": null} with a 200 status.
type eventResponse struct {
	Event *domain.Event `json:"event"`
}

type eventsResponse struct {
	Events []domain.Event `json:"events"`
}

type eventPercentagesResponse struct {
	Percentages map[string]domain.Percentages `json:"percentages"`
}

type allPercentagesResponse struct {
	Percentages map[string]domain.EventPercentages `json:"percentages"`
}

// APIChartPoint is a chart point as serialised by the backend, where the
// timestamp is an RFC 3339 string.
type APIChartPoint struct {
	RecordedAt  string            `json:"recordedAt"`
	Percentages map[string]*int64 `json:"percentages"`
}

// ToDomain converts the point, reporting false when the timestamp cannot be
// parsed.
func (p APIChartPoint) ToDomain() (domain.ChartPoint, bool) {
	ts, err := time.Parse(time.RFC3339Nano, p.RecordedAt)
	if err != nil {
		return domain.ChartPoint{}, false
	}
	pcts := p.Percentages
	if pcts == nil {
		pcts = map[string]*int64{}
	}
	return domain.ChartPoint{RecordedAt: ts.UTC(), Percentages: pcts}, true
}

type chartResponse struct {
	Points []APIChartPoint `json:"points"`
}

// commandResponse is the body of a successful place or cancel call. Older
// backends name the field transactionUrls.
type commandResponse struct {
	ConfirmationRefs []string `json:"confirmationRefs"`
	TransactionURLs  []string `json:"transactionUrls"`
}

// parseConfirmationRefs extracts confirmation references from a command
// response. Anything that is not the expected shape yields no refs.
func parseConfirmationRefs(body []byte) []string {
	var resp commandResponse
	if len(body) == 0 || json.Unmarshal(body, &resp) != nil {
		return []string{}
	}
	refs := resp.ConfirmationRefs
	if len(refs) == 0 {
		refs = resp.TransactionURLs
	}
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type balanceResponse struct {
	BalanceCents int64 `json:"balanceCents"`
}

// APIAirdropStatus mirrors GET /user/airdrop.
type APIAirdropStatus struct {
	LastAirdrop           *string `json:"lastAirdrop"`
	SecondsUntilAvailable int64   `json:"secondsUntilAvailable"`
	Available             bool    `json:"available"`
}

// ToDomain converts the status. An unparseable lastAirdrop is dropped.
func (a APIAirdropStatus) ToDomain() domain.AirdropStatus {
	out := domain.AirdropStatus{
		SecondsUntilAvailable: a.SecondsUntilAvailable,
		Available:             a.Available,
	}
	if a.LastAirdrop != nil {
		if ts, err := time.Parse(time.RFC3339Nano, *a.LastAirdrop); err == nil {
			ts = ts.UTC()
			out.LastAirdrop = &ts
		}
	}
	return out
}

type leaderboardResponse struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}
