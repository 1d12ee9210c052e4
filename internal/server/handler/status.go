package handler

import (
	"net/http"
	"time"
)

// StatusHandler serves the backend status for dashboards and probes.
type StatusHandler struct {
	Mode      string
	StartedAt time.Time
}

// NewStatusHandler creates a StatusHandler for the given run mode.
func NewStatusHandler(mode string) *StatusHandler {
	return &StatusHandler{Mode: mode, StartedAt: time.Now().UTC()}
}

// GetStatus responds with the current backend mode and uptime.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":       h.Mode,
		"started_at": h.StartedAt.Format(time.RFC3339),
		"uptime":     time.Since(h.StartedAt).Round(time.Second).String(),
	})
}
