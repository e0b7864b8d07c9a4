package domain

import "time"

// Percentages holds the implied probability, in whole percentage points, of
// each option of one market. Both nil means there is no data yet. The two
// values are independent and are not required to sum to 100.
type Percentages struct {
	OptionA *int64 `json:"optionAPercentage"`
	OptionB *int64 `json:"optionBPercentage"`
}

// Empty reports whether neither option has a percentage.
func (p Percentages) Empty() bool {
	return p.OptionA == nil && p.OptionB == nil
}

// EventPercentages is the per-market percentage map of one event.
type EventPercentages struct {
	Percentages map[string]Percentages `json:"percentages"`
}

// ChartPoint is one snapshot of the percentage history of an event, keyed by
// market id. A nil value means the market had no percentage at that instant.
type ChartPoint struct {
	RecordedAt  time.Time         `json:"recordedAt"`
	Percentages map[string]*int64 `json:"percentages"`
}

// ImpliedPercentages derives option percentages from resting buy orders the
// same way the backend does: the best bid on A and the complement of the
// best bid on B are averaged (rounding half up) when both sides exist.
func ImpliedPercentages(orders []BuyOrder) Percentages {
	var bestA, bestB int64
	for _, o := range orders {
		switch o.Option {
		case OptionA:
			bestA = max(bestA, o.PricePerShare)
		case OptionB:
			bestB = max(bestB, o.PricePerShare)
		}
	}

	var a int64
	switch {
	case bestA > 0 && bestB > 0:
		a = (bestA + (100 - bestB) + 1) / 2
	case bestA > 0:
		a = bestA
	case bestB > 0:
		a = 100 - bestB
	default:
		return Percentages{}
	}

	b := 100 - a
	return Percentages{OptionA: &a, OptionB: &b}
}
