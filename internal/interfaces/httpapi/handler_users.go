package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cstatsentry/backend/internal/usecase"
	jsoniter "github.com/json-iterator/go"
)

type registerUserRequest struct {
	SteamID            string `json:"steamId" validate:"required"`
	SteamName          string `json:"steamName"`
	AvatarURL          string `json:"avatarUrl"`
	SteamAuthCode      string `json:"steamAuthCode"`
	LastMatchShareCode string `json:"lastMatchShareCode"`
}

type updateSteamAuthRequest struct {
	SteamAuthCode      string `json:"steamAuthCode" validate:"required"`
	LastMatchShareCode string `json:"lastMatchShareCode" validate:"required"`
}

type updateSyncSettingsRequest struct {
	SyncEnabled *bool `json:"syncEnabled" validate:"required"`
}

func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RegisterUser")
	defer span.End()

	var req registerUserRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.userService.Register(ctx, usecase.RegisterUserInput{
		SteamID:            req.SteamID,
		SteamName:          req.SteamName,
		AvatarURL:          req.AvatarURL,
		SteamAuthCode:      req.SteamAuthCode,
		LastMatchShareCode: req.LastMatchShareCode,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "register user failed", "steam_id", req.SteamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, userToDTO(item))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetUser")
	defer span.End()

	steamID := strings.TrimSpace(r.PathValue("steamID"))
	item, err := h.userService.GetUser(ctx, steamID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userToDTO(item))
}

func (h *Handler) UpdateSteamAuth(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateSteamAuth")
	defer span.End()

	steamID := strings.TrimSpace(r.PathValue("steamID"))
	var req updateSteamAuthRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.userService.UpdateSteamAuth(ctx, steamID, usecase.UpdateSteamAuthInput{
		SteamAuthCode:      req.SteamAuthCode,
		LastMatchShareCode: req.LastMatchShareCode,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update steam auth failed", "steam_id", steamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userToDTO(item))
}

func (h *Handler) UpdateSyncSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateSyncSettings")
	defer span.End()

	steamID := strings.TrimSpace(r.PathValue("steamID"))
	var req updateSyncSettingsRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.userService.SetSyncEnabled(ctx, steamID, *req.SyncEnabled)
	if err != nil {
		h.logger.WarnContext(ctx, "update sync settings failed", "steam_id", steamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userToDTO(item))
}
