package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// ProfileViewer assembles the portfolio page.
type ProfileViewer interface {
	Assemble(ctx context.Context, user *domain.User) (domain.ProfileView, error)
}

// AccountReader serves header data and the leaderboard.
type AccountReader interface {
	Summarize(ctx context.Context, user *domain.User) domain.AccountSummary
	Leaderboard(ctx context.Context) []domain.LeaderboardEntry
}

// AccountHandler serves user-centric pages.
type AccountHandler struct {
	profile  ProfileViewer
	accounts AccountReader
	logger   *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(profile ProfileViewer, accounts AccountReader, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{profile: profile, accounts: accounts, logger: logger}
}

// GetProfile returns the signed-in user's portfolio.
// GET /api/profile
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	view, err := h.profile.Assemble(r.Context(), domain.UserFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Tens de ter sessão iniciada.")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get profile failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetAccount returns header data; all fields are null for anonymous callers.
// GET /api/account
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.accounts.Summarize(r.Context(), domain.UserFromContext(r.Context())))
}

// GetLeaderboard returns the profit ranking.
// GET /api/leaderboard
func (h *AccountHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": h.accounts.Leaderboard(r.Context()),
	})
}
