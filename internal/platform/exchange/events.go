package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// GetEvent returns a single event. A null event is reported as
// domain.ErrNotFound.
func (c *Client) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	body, err := c.doGet(ctx, "/event/"+url.PathEscape(eventID))
	if err != nil {
		return domain.Event{}, fmt.Errorf("exchange: get event %s: %w", eventID, err)
	}

	var resp eventResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Event{}, fmt.Errorf("exchange: decode event: %w", err)
	}
	if resp.Event == nil {
		return domain.Event{}, fmt.Errorf("exchange: get event %s: %w", eventID, domain.ErrNotFound)
	}

	return *resp.Event, nil
}

// ListEvents returns the event catalog.
func (c *Client) ListEvents(ctx context.Context) ([]domain.Event, error) {
	body, err := c.doGet(ctx, "/event")
	if err != nil {
		return nil, fmt.Errorf("exchange: list events: %w", err)
	}

	var resp eventsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("exchange: decode events: %w", err)
	}
	if resp.Events == nil {
		resp.Events = []domain.Event{}
	}

	return resp.Events, nil
}

// EventPercentages returns the current percentages of every market of an
// event, keyed by market id.
func (c *Client) EventPercentages(ctx context.Context, eventID string) (map[string]domain.Percentages, error) {
	body, err := c.doGet(ctx, "/event/percentages/"+url.PathEscape(eventID))
	if err != nil {
		return nil, fmt.Errorf("exchange: event percentages %s: %w", eventID, err)
	}

	var resp eventPercentagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("exchange: decode event percentages: %w", err)
	}
	if resp.Percentages == nil {
		resp.Percentages = map[string]domain.Percentages{}
	}

	return resp.Percentages, nil
}

// AllPercentages returns the percentages of every event, keyed by event id.
func (c *Client) AllPercentages(ctx context.Context) (map[string]domain.EventPercentages, error) {
	body, err := c.doGet(ctx, "/event/percentages")
	if err != nil {
		return nil, fmt.Errorf("exchange: all percentages: %w", err)
	}

	var resp allPercentagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("exchange: decode all percentages: %w", err)
	}
	if resp.Percentages == nil {
		resp.Percentages = map[string]domain.EventPercentages{}
	}

	return resp.Percentages, nil
}

// EventChart returns the percentage history of an event in time order.
// Points with an unreadable timestamp are skipped.
func (c *Client) EventChart(ctx context.Context, eventID string) ([]domain.ChartPoint, error) {
	body, err := c.doGet(ctx, "/event/chart/"+url.PathEscape(eventID))
	if err != nil {
		return nil, fmt.Errorf("exchange: event chart %s: %w", eventID, err)
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("exchange: decode chart: %w", err)
	}

	points := make([]domain.ChartPoint, 0, len(resp.Points))
	for _, p := range resp.Points {
		if dp, ok := p.ToDomain(); ok {
			points = append(points, dp)
		}
	}

	return points, nil
}

// MarketBuyOrders returns the resting buy orders of one market.
func (c *Client) MarketBuyOrders(ctx context.Context, marketID string) ([]domain.BuyOrder, error) {
	body, err := c.doGet(ctx, "/event/buyorder/"+url.PathEscape(marketID))
	if err != nil {
		return nil, fmt.Errorf("exchange: buy orders %s: %w", marketID, err)
	}

	var orders []domain.BuyOrder
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("exchange: decode buy orders: %w", err)
	}
	if orders == nil {
		orders = []domain.BuyOrder{}
	}

	return orders, nil
}

// EventPositions returns the caller's positions in an event. The backend
// identifies the caller from the forwarded session.
func (c *Client) EventPositions(ctx context.Context, eventID string) ([]domain.Position, error) {
	body, err := c.doGet(ctx, "/event/position/"+url.PathEscape(eventID))
	if err != nil {
		return nil, fmt.Errorf("exchange: event positions %s: %w", eventID, err)
	}

	return decodePositions(body)
}

func decodePositions(body []byte) ([]domain.Position, error) {
	var positions []domain.Position
	if err := json.Unmarshal(body, &positions); err != nil {
		return nil, fmt.Errorf("exchange: decode positions: %w", err)
	}
	if positions == nil {
		positions = []domain.Position{}
	}
	return positions, nil
}
