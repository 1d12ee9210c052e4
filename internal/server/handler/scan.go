package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quantship/crossarb/internal/domain"
)

// ScanFunc runs one discovery-and-match pass and reports how many matches it
// produced.
type ScanFunc func(ctx context.Context) (int, error)

// ScanHandler exposes a manual trigger for the scan loop.
type ScanHandler struct {
	scan   ScanFunc
	logger *slog.Logger
}

// NewScanHandler creates a ScanHandler that invokes the given function.
func NewScanHandler(scan ScanFunc, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{scan: scan, logger: logHandler(logger, "scan")}
}

// Trigger runs a scan pass synchronously and reports the match count.
// POST /api/scan/trigger
func (h *ScanHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.scan == nil {
		writeError(w, http.StatusServiceUnavailable, "scanning is not enabled in this mode")
		return
	}

	matched, err := h.scan(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			writeError(w, http.StatusConflict, "a scan is already running")
			return
		}
		h.logger.ErrorContext(r.Context(), "manual scan failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "scan failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "completed",
		"matches": matched,
	})
}
