package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/quantship/crossarb/internal/domain"
)

// MatchHandler serves the cross-platform match endpoints.
type MatchHandler struct {
	store  domain.MatchStore
	logger *slog.Logger
}

// NewMatchHandler creates a MatchHandler backed by the given store.
func NewMatchHandler(store domain.MatchStore, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{store: store, logger: logHandler(logger, "match")}
}

// ListMatches returns recent matches ordered by match time.
// GET /api/matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	matches, err := h.store.ListRecent(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list matches failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}

	count, err := h.store.Count(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "count matches failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count matches")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
		"total":   count,
		"limit":   opts.Limit,
		"offset":  opts.Offset,
	})
}

// GetMatch returns one match by its deterministic ID.
// GET /api/matches/{id}
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "match id is required")
		return
	}

	match, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get match failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get match")
		return
	}

	writeJSON(w, http.StatusOK, match)
}
