package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// AccountSource reads per-user account data and the public leaderboard.
type AccountSource interface {
	Balance(ctx context.Context) (int64, error)
	AirdropStatus(ctx context.Context) (domain.AirdropStatus, error)
	Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// AccountService serves the page header and the leaderboard.
type AccountService struct {
	source AccountSource
	now    func() time.Time
	logger *slog.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(source AccountSource, logger *slog.Logger) *AccountService {
	return &AccountService{
		source: source,
		now:    time.Now,
		logger: logger.With(slog.String("component", "account")),
	}
}

// Summarize returns the header data for user. Fields the backend could not
// provide stay nil, as do all fields for an anonymous caller.
func (s *AccountService) Summarize(ctx context.Context, user *domain.User) domain.AccountSummary {
	if user == nil {
		return domain.AccountSummary{}
	}

	summary := domain.AccountSummary{User: user}
	userAttr := slog.String("user_id", user.ID)

	var g errgroup.Group
	g.Go(func() error {
		summary.BalanceCents = tolerate(ctx, s.logger, "balance", (*int64)(nil),
			func() (*int64, error) {
				b, err := s.source.Balance(ctx)
				if err != nil {
					return nil, err
				}
				return &b, nil
			}, userAttr)
		return nil
	})
	g.Go(func() error {
		summary.AirdropAvailableAt = tolerate(ctx, s.logger, "airdrop", (*time.Time)(nil),
			func() (*time.Time, error) {
				st, err := s.source.AirdropStatus(ctx)
				if err != nil {
					return nil, err
				}
				at := s.now().UTC().Add(time.Duration(st.SecondsUntilAvailable) * time.Second)
				if st.Available {
					at = s.now().UTC()
				}
				return &at, nil
			}, userAttr)
		return nil
	})
	_ = g.Wait()

	return summary
}

// Leaderboard returns the ranking, or an empty list when it is unavailable.
func (s *AccountService) Leaderboard(ctx context.Context) []domain.LeaderboardEntry {
	return tolerate(ctx, s.logger, "leaderboard", []domain.LeaderboardEntry{},
		func() ([]domain.LeaderboardEntry, error) { return s.source.Leaderboard(ctx) })
}
