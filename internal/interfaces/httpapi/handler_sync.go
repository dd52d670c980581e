package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) TriggerUserSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerUserSync")
	defer span.End()

	steamID := strings.TrimSpace(r.PathValue("steamID"))
	result, err := h.syncJobService.TriggerUserSync(ctx, steamID)
	if err != nil {
		h.logger.WarnContext(ctx, "trigger user sync failed", "steam_id", steamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if result.Queued {
		status = http.StatusAccepted
	}
	writeSuccess(ctx, w, status, result)
}

func (h *Handler) GetSyncRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSyncRun")
	defer span.End()

	runID := strings.TrimSpace(r.PathValue("runID"))
	run, err := h.syncJobService.GetRun(ctx, runID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, syncRunToDTO(run))
}
