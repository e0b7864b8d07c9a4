package service

import (
	"testing"

	"github.com/alanyoungcy/marketview/internal/domain"
)

func TestHomeView(t *testing.T) {
	events := []domain.Event{{ID: "e1"}, {ID: "e2"}}
	all := map[string]domain.EventPercentages{
		"e1": {Percentages: map[string]domain.Percentages{"m1": {OptionA: pct(70), OptionB: pct(30)}}},
		"e2": {},
	}

	tests := []struct {
		name       string
		backend    *fakeBackend
		wantEvents int
		wantPct    int
	}{
		{
			name:       "all ok",
			backend:    &fakeBackend{events: events, allPercentages: all},
			wantEvents: 2,
			wantPct:    2,
		},
		{
			name:       "catalog failure",
			backend:    &fakeBackend{eventsErr: errBoom, allPercentages: all},
			wantEvents: 0,
			wantPct:    0,
		},
		{
			name:       "percentages failure",
			backend:    &fakeBackend{events: events, allPctErr: errBoom},
			wantEvents: 2,
			wantPct:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewHomeViewService(tt.backend, discardLogger()).Assemble(t.Context())
			if view.Events == nil || len(view.Events) != tt.wantEvents {
				t.Fatalf("expected %d events, got %v", tt.wantEvents, view.Events)
			}
			if view.AllPercentages == nil || len(view.AllPercentages) != tt.wantPct {
				t.Fatalf("expected %d percentage entries, got %v", tt.wantPct, view.AllPercentages)
			}
		})
	}
}

func TestHomeViewFlattensPercentages(t *testing.T) {
	f := &fakeBackend{
		events: []domain.Event{{ID: "e1"}},
		allPercentages: map[string]domain.EventPercentages{
			"e1": {Percentages: map[string]domain.Percentages{"m1": {OptionA: pct(70)}}},
			"e2": {},
		},
	}
	view := NewHomeViewService(f, discardLogger()).Assemble(t.Context())

	if p := view.AllPercentages["e1"]["m1"]; p.OptionA == nil || *p.OptionA != 70 || p.OptionB != nil {
		t.Fatalf("unexpected e1/m1 percentages: %+v", p)
	}
	if m, ok := view.AllPercentages["e2"]; !ok || m == nil {
		t.Fatal("event without markets must map to an empty map")
	}
}
