package handler

import (
	"net/http"

	"github.com/yuta/grassuma/internal/apperror"
	"github.com/yuta/grassuma/internal/auth"
	"github.com/yuta/grassuma/internal/service"
)

// SyncHandler exposes the contribution ledger.
type SyncHandler struct {
	ledger *service.LedgerService
}

func NewSyncHandler(ledger *service.LedgerService) *SyncHandler {
	return &SyncHandler{ledger: ledger}
}

// HandleSync settles today's contributions into grass power.
//
// HTTP: POST /api/sync (authenticated)
//
// grass_power_gained is the delta THIS call applied: the full reward on
// the first sync of the day, zero on an unchanged repeat, and possibly
// negative after an upstream downward revision.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("no active session"))
		return
	}

	result, err := h.ledger.SyncToday(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"date":               result.Date,
		"contribution_count": result.Count,
		"grass_power_gained": result.RewardDelta,
		"total_grass_power":  result.TotalPower,
	})
}
