package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/quantship/crossarb/internal/domain"
)

// OpportunityHandler serves the arbitrage opportunity endpoints.
type OpportunityHandler struct {
	store  domain.OpportunityStore
	logger *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler backed by the given store.
func NewOpportunityHandler(store domain.OpportunityStore, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{store: store, logger: logHandler(logger, "opportunity")}
}

// ListRecent returns the most recently detected opportunities.
// GET /api/opportunities/recent
func (h *OpportunityHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	opps, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list recent opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"opportunities": opps,
		"limit":         limit,
	})
}

// ListOpen returns opportunities whose earliest leg has not yet settled.
// GET /api/opportunities/open
func (h *OpportunityHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	opps, err := h.store.ListOpen(r.Context(), time.Now().UTC())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list open opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"opportunities": opps,
	})
}
