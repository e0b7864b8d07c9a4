package exchange

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// CurrentUser resolves the session in ctx to a user. An anonymous or
// expired session is reported as domain.ErrUnauthorized.
func (c *Client) CurrentUser(ctx context.Context) (domain.User, error) {
	if SessionFromContext(ctx) == "" {
		return domain.User{}, fmt.Errorf("exchange: current user: %w", domain.ErrUnauthorized)
	}

	body, err := c.doGet(ctx, "/user/me")
	if err != nil {
		return domain.User{}, fmt.Errorf("exchange: current user: %w", err)
	}

	var resp userResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.User{}, fmt.Errorf("exchange: decode user: %w", err)
	}
	if resp.User == nil || resp.User.ID == "" {
		return domain.User{}, fmt.Errorf("exchange: current user: %w", domain.ErrUnauthorized)
	}

	return *resp.User, nil
}

// UserPositions returns every position of the session's user.
func (c *Client) UserPositions(ctx context.Context) ([]domain.Position, error) {
	body, err := c.doGet(ctx, "/user/positions")
	if err != nil {
		return nil, fmt.Errorf("exchange: user positions: %w", err)
	}

	return decodePositions(body)
}

// Balance returns the session user's balance in cents.
func (c *Client) Balance(ctx context.Context) (int64, error) {
	body, err := c.doGet(ctx, "/user/balance")
	if err != nil {
		return 0, fmt.Errorf("exchange: balance: %w", err)
	}

	var resp balanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("exchange: decode balance: %w", err)
	}

	return resp.BalanceCents, nil
}

// AirdropStatus reports when the session user may next claim an airdrop.
func (c *Client) AirdropStatus(ctx context.Context) (domain.AirdropStatus, error) {
	body, err := c.doGet(ctx, "/user/airdrop")
	if err != nil {
		return domain.AirdropStatus{}, fmt.Errorf("exchange: airdrop status: %w", err)
	}

	var resp APIAirdropStatus
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.AirdropStatus{}, fmt.Errorf("exchange: decode airdrop status: %w", err)
	}

	return resp.ToDomain(), nil
}

// Leaderboard returns users ranked by realized profit.
func (c *Client) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	body, err := c.doGet(ctx, "/user/leaderboard")
	if err != nil {
		return nil, fmt.Errorf("exchange: leaderboard: %w", err)
	}

	var resp leaderboardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("exchange: decode leaderboard: %w", err)
	}
	if resp.Entries == nil {
		resp.Entries = []domain.LeaderboardEntry{}
	}

	return resp.Entries, nil
}
