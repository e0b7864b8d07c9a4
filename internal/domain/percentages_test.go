package domain

import "testing"

func TestImpliedPercentages(t *testing.T) {
	tests := []struct {
		name   string
		orders []BuyOrder
		wantA  int64
		wantB  int64
		empty  bool
	}{
		{name: "no orders", empty: true},
		{
			name: "both sides",
			orders: []BuyOrder{
				{Option: OptionA, PricePerShare: 40},
				{Option: OptionA, PricePerShare: 55},
				{Option: OptionB, PricePerShare: 30},
			},
			// (55 + 70 + 1) / 2
			wantA: 63, wantB: 37,
		},
		{
			name:   "only option a",
			orders: []BuyOrder{{Option: OptionA, PricePerShare: 20}},
			wantA:  20, wantB: 80,
		},
		{
			name:   "only option b",
			orders: []BuyOrder{{Option: OptionB, PricePerShare: 25}},
			wantA:  75, wantB: 25,
		},
		{
			name:   "unknown option ignored",
			orders: []BuyOrder{{Option: "optionC", PricePerShare: 50}},
			empty:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ImpliedPercentages(tt.orders)
			if tt.empty {
				if !got.Empty() {
					t.Fatalf("expected empty percentages, got %v/%v", got.OptionA, got.OptionB)
				}
				return
			}
			if got.OptionA == nil || *got.OptionA != tt.wantA {
				t.Fatalf("expected optionA %d, got %v", tt.wantA, got.OptionA)
			}
			if got.OptionB == nil || *got.OptionB != tt.wantB {
				t.Fatalf("expected optionB %d, got %v", tt.wantB, got.OptionB)
			}
		})
	}
}

func TestMarketOptionValid(t *testing.T) {
	for _, o := range []MarketOption{OptionA, OptionB} {
		if !o.Valid() {
			t.Fatalf("expected %q to be valid", o)
		}
	}
	for _, o := range []MarketOption{"", "optionC", "OptionA"} {
		if o.Valid() {
			t.Fatalf("expected %q to be invalid", o)
		}
	}
}

func TestUserContext(t *testing.T) {
	ctx := t.Context()
	if UserFromContext(ctx) != nil {
		t.Fatal("expected no user on a bare context")
	}
	u := &User{ID: "u1", Username: "ana"}
	if got := UserFromContext(WithUser(ctx, u)); got != u {
		t.Fatalf("expected user %v, got %v", u, got)
	}
}

func TestEventMarketIDs(t *testing.T) {
	e := Event{Markets: []Market{{ID: "m2"}, {ID: "m1"}}}
	got := e.MarketIDs()
	if len(got) != 2 || got[0] != "m2" || got[1] != "m1" {
		t.Fatalf("MarketIDs() = %v, want [m2 m1]", got)
	}
	if ids := (Event{}).MarketIDs(); ids == nil || len(ids) != 0 {
		t.Fatalf("MarketIDs() of an empty event = %v, want empty", ids)
	}
}
