package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// EventSource is the slice of the backend an event page is built from.
type EventSource interface {
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	EventPercentages(ctx context.Context, eventID string) (map[string]domain.Percentages, error)
	EventChart(ctx context.Context, eventID string) ([]domain.ChartPoint, error)
	MarketBuyOrders(ctx context.Context, marketID string) ([]domain.BuyOrder, error)
	EventPositions(ctx context.Context, eventID string) ([]domain.Position, error)
}

// EventViewService assembles the aggregate view of one event page.
type EventViewService struct {
	source    EventSource
	maxFanout int
	logger    *slog.Logger
}

// NewEventViewService creates an EventViewService.
func NewEventViewService(source EventSource, logger *slog.Logger) *EventViewService {
	return &EventViewService{
		source: source,
		logger: logger.With(slog.String("component", "event_view")),
	}
}

// WithMaxFanout bounds the number of concurrent order-book fetches. Zero or
// negative means unbounded.
func (s *EventViewService) WithMaxFanout(n int) *EventViewService {
	s.maxFanout = n
	return s
}

// Assemble builds the view of eventID for userID (empty for anonymous
// callers). Only a missing event is an error; every other read degrades to
// an empty value.
func (s *EventViewService) Assemble(ctx context.Context, eventID, userID string) (domain.EventView, error) {
	event, err := s.source.GetEvent(ctx, eventID)
	if err != nil {
		s.logger.InfoContext(ctx, "event lookup failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		return domain.EventView{}, fmt.Errorf("event_view: get event %s: %w", eventID, domain.ErrNotFound)
	}

	var (
		percentages map[string]domain.Percentages
		chart       []domain.ChartPoint
		positions   = []domain.Position{}
		books       = make([][]domain.BuyOrder, len(event.Markets))
	)
	evAttr := slog.String("event_id", eventID)

	var g errgroup.Group
	g.Go(func() error {
		percentages = tolerate(ctx, s.logger, "percentages", map[string]domain.Percentages{},
			func() (map[string]domain.Percentages, error) {
				return s.source.EventPercentages(ctx, eventID)
			}, evAttr)
		return nil
	})
	g.Go(func() error {
		chart = tolerate(ctx, s.logger, "chart", []domain.ChartPoint{},
			func() ([]domain.ChartPoint, error) {
				return s.source.EventChart(ctx, eventID)
			}, evAttr)
		return nil
	})
	if userID != "" {
		g.Go(func() error {
			positions = tolerate(ctx, s.logger, "positions", []domain.Position{},
				func() ([]domain.Position, error) {
					return s.source.EventPositions(ctx, eventID)
				}, evAttr)
			return nil
		})
	}
	g.Go(func() error {
		s.fetchBooks(ctx, event, books)
		return nil
	})
	// Branches never return an error.
	_ = g.Wait()

	allOrders := make(map[string][]domain.BuyOrder, len(event.Markets))
	buyOrders := []domain.BuyOrder{}
	for i, m := range event.Markets {
		allOrders[m.ID] = books[i]
		if userID == "" {
			continue
		}
		for _, o := range books[i] {
			if o.UserID == userID {
				buyOrders = append(buyOrders, o)
			}
		}
	}

	return domain.EventView{
		Event:             event,
		Positions:         positions,
		BuyOrders:         buyOrders,
		AllMarketOrders:   allOrders,
		MarketPercentages: percentages,
		Chart:             chart,
	}, nil
}

// fetchBooks loads the order book of every market into books, indexed like
// event.Markets. A failed market gets an empty book.
func (s *EventViewService) fetchBooks(ctx context.Context, event domain.Event, books [][]domain.BuyOrder) {
	var g errgroup.Group
	if s.maxFanout > 0 {
		g.SetLimit(s.maxFanout)
	}
	for i, marketID := range event.MarketIDs() {
		g.Go(func() error {
			books[i] = tolerate(ctx, s.logger, "order_book", []domain.BuyOrder{},
				func() ([]domain.BuyOrder, error) {
					return s.source.MarketBuyOrders(ctx, marketID)
				},
				slog.String("event_id", event.ID),
				slog.String("market_id", marketID),
			)
			return nil
		})
	}
	_ = g.Wait()
}
