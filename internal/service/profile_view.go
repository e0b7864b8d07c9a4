package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// PortfolioSource reads the signed-in user's holdings.
type PortfolioSource interface {
	UserPositions(ctx context.Context) ([]domain.Position, error)
	Balance(ctx context.Context) (int64, error)
}

// ProfileViewService assembles the portfolio page.
type ProfileViewService struct {
	portfolio PortfolioSource
	catalog   CatalogSource
	logger    *slog.Logger
}

// NewProfileViewService creates a ProfileViewService.
func NewProfileViewService(portfolio PortfolioSource, catalog CatalogSource, logger *slog.Logger) *ProfileViewService {
	return &ProfileViewService{
		portfolio: portfolio,
		catalog:   catalog,
		logger:    logger.With(slog.String("component", "profile_view")),
	}
}

// Assemble returns domain.ErrUnauthorized for a nil user. Every read is
// tolerant.
func (s *ProfileViewService) Assemble(ctx context.Context, user *domain.User) (domain.ProfileView, error) {
	if user == nil {
		return domain.ProfileView{}, fmt.Errorf("profile_view: %w", domain.ErrUnauthorized)
	}

	var view domain.ProfileView
	userAttr := slog.String("user_id", user.ID)

	var g errgroup.Group
	g.Go(func() error {
		view.Positions = tolerate(ctx, s.logger, "positions", []domain.Position{},
			func() ([]domain.Position, error) { return s.portfolio.UserPositions(ctx) }, userAttr)
		return nil
	})
	g.Go(func() error {
		view.Events = tolerate(ctx, s.logger, "catalog", []domain.Event{},
			func() ([]domain.Event, error) { return s.catalog.ListEvents(ctx) }, userAttr)
		return nil
	})
	g.Go(func() error {
		view.BalanceCents = tolerate(ctx, s.logger, "balance", 0,
			func() (int64, error) { return s.portfolio.Balance(ctx) }, userAttr)
		return nil
	})
	g.Go(func() error {
		view.AllPercentages = allPercentages(ctx, s.catalog, s.logger)
		return nil
	})
	_ = g.Wait()

	return view, nil
}
