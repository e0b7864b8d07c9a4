package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// AdminHandler exposes the audit trail and archived snapshots. Either
// dependency may be nil when the backing store is not configured.
type AdminHandler struct {
	audit     domain.AuditStore
	snapshots domain.BlobReader
	prefix    string
	logger    *slog.Logger
}

// NewAdminHandler creates an AdminHandler. prefix is the snapshot key
// prefix listings are confined to.
func NewAdminHandler(audit domain.AuditStore, snapshots domain.BlobReader, prefix string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{audit: audit, snapshots: snapshots, prefix: prefix, logger: logger}
}

// ListAudit returns audit entries, newest first.
// GET /api/admin/audit?event=order_placed&limit=50&offset=0&since=RFC3339
func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeError(w, http.StatusServiceUnavailable, "audit log not configured")
		return
	}

	entries, err := h.audit.List(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list audit failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// ListSnapshots lists archived snapshots of one day.
// GET /api/admin/snapshots?day=2025/03/01
func (h *AdminHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot archive not configured")
		return
	}

	day := strings.Trim(r.URL.Query().Get("day"), "/")
	prefix := h.prefix + "/"
	if day != "" {
		prefix = path.Join(h.prefix, day) + "/"
	}
	if !strings.HasPrefix(prefix, h.prefix+"/") {
		writeError(w, http.StatusBadRequest, "invalid day")
		return
	}

	infos, err := h.snapshots.List(r.Context(), prefix)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list snapshots failed",
			slog.String("prefix", prefix),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": infos})
}

// GetSnapshot streams one archived snapshot.
// GET /api/admin/snapshots/{key...}
func (h *AdminHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot archive not configured")
		return
	}

	key := path.Clean("/" + pathParam(r, "key"))[1:]
	if key == "" || !strings.HasPrefix(key, h.prefix+"/") || !strings.HasSuffix(key, ".json") {
		writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}

	body, err := h.snapshots.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "snapshot not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get snapshot failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read snapshot")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "handler: snapshot stream interrupted",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
