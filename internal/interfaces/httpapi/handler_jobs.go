package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cstatsentry/backend/internal/usecase"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

type syncUserJobRequest struct {
	SteamID string `json:"steam_id"`
	RunID   string `json:"run_id"`
}

// RunSyncUserJob is the queue callback: QStash posts the payload that
// TriggerUserSync enqueued. It also serves as the curl-able escape hatch
// when the queue is down.
func (h *Handler) RunSyncUserJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncUserJob")
	defer span.End()

	req, err := decodeSyncUserJobRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if strings.TrimSpace(req.SteamID) == "" {
		writeError(ctx, w, fmt.Errorf("%w: steam_id is required", usecase.ErrInvalidInput))
		return
	}
	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}

	result, err := h.syncJobService.RunUserSync(ctx, runID, req.SteamID)
	if err != nil {
		h.logger.WarnContext(ctx, "run sync user job failed", "steam_id", req.SteamID, "run_id", runID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunSyncAllJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncAllJob")
	defer span.End()

	result, err := h.sweepService.SyncAllUsers(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run sync all job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func decodeSyncUserJobRequest(r *http.Request) (syncUserJobRequest, error) {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req syncUserJobRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return syncUserJobRequest{}, nil
		}
		return syncUserJobRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}
