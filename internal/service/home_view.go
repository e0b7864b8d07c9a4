package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// CatalogSource lists events and their percentages.
type CatalogSource interface {
	ListEvents(ctx context.Context) ([]domain.Event, error)
	AllPercentages(ctx context.Context) (map[string]domain.EventPercentages, error)
}

// HomeViewService assembles the catalog page.
type HomeViewService struct {
	source CatalogSource
	logger *slog.Logger
}

// NewHomeViewService creates a HomeViewService.
func NewHomeViewService(source CatalogSource, logger *slog.Logger) *HomeViewService {
	return &HomeViewService{
		source: source,
		logger: logger.With(slog.String("component", "home_view")),
	}
}

// Assemble never fails. Without a catalog the page is empty, even when
// percentages were available.
func (s *HomeViewService) Assemble(ctx context.Context) domain.HomeView {
	var (
		events      []domain.Event
		eventsOK    bool
		percentages map[string]map[string]domain.Percentages
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		events, err = s.source.ListEvents(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "branch degraded",
				slog.String("branch", "catalog"),
				slog.String("error", err.Error()),
			)
			return nil
		}
		eventsOK = true
		return nil
	})
	g.Go(func() error {
		percentages = allPercentages(ctx, s.source, s.logger)
		return nil
	})
	_ = g.Wait()

	if !eventsOK {
		return emptyHomeView()
	}
	if events == nil {
		events = []domain.Event{}
	}
	return domain.HomeView{Events: events, AllPercentages: percentages}
}

func emptyHomeView() domain.HomeView {
	return domain.HomeView{
		Events:         []domain.Event{},
		AllPercentages: map[string]map[string]domain.Percentages{},
	}
}

// allPercentages fetches and flattens the all-events percentages to
// eventID -> marketID -> Percentages, degrading to an empty map.
func allPercentages(ctx context.Context, source CatalogSource, logger *slog.Logger) map[string]map[string]domain.Percentages {
	raw := tolerate(ctx, logger, "all_percentages", map[string]domain.EventPercentages{},
		func() (map[string]domain.EventPercentages, error) {
			return source.AllPercentages(ctx)
		})

	out := make(map[string]map[string]domain.Percentages, len(raw))
	for eventID, ep := range raw {
		markets := ep.Percentages
		if markets == nil {
			markets = map[string]domain.Percentages{}
		}
		out[eventID] = markets
	}
	return out
}
