package handler

import (
	"net/http"
	"strconv"

	"github.com/yuta/grassuma/internal/apperror"
	"github.com/yuta/grassuma/internal/auth"
	"github.com/yuta/grassuma/internal/service"
)

// DebugHandler holds the development-only endpoints. The server mounts
// them only when DEBUG_ENDPOINTS=1; a production process has no route to
// them at all.
type DebugHandler struct {
	uma *service.UMAService
}

func NewDebugHandler(uma *service.UMAService) *DebugHandler {
	return &DebugHandler{uma: uma}
}

// HandleAddPoints credits grass power outside the ledger.
//
// HTTP: GET /api/debug/add_points?points=N (authenticated, debug builds)
func (h *DebugHandler) HandleAddPoints(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("no active session"))
		return
	}

	points := 100
	if raw := r.URL.Query().Get("points"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperror.ValidationFailed("points", "points must be an integer"))
			return
		}
		points = n
	}

	total, err := h.uma.AddPower(r.Context(), sess, points)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"power_added": points,
		"total_power": total,
	})
}

// HandleReset wipes the caller's discoveries and discovery counter.
//
// HTTP: POST /api/debug/reset (authenticated, debug builds)
func (h *DebugHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("no active session"))
		return
	}

	removed, err := h.uma.ResetProgress(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"removed": removed,
	})
}
