package httpapi

import (
	"net/http"
	"strconv"
	"strings"
)

func (h *Handler) ListUserMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUserMatches")
	defer span.End()

	steamID := strings.TrimSpace(r.PathValue("steamID"))
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	page, err := h.statsService.ListUserMatches(ctx, steamID, limit, offset)
	if err != nil {
		h.logger.WarnContext(ctx, "list user matches failed", "steam_id", steamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, matchToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, matchPageDTO{
		Items:  items,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetUserProfile")
	defer span.End()

	steamID := strings.TrimSpace(r.PathValue("steamID"))
	profile, err := h.statsService.GetUserProfile(ctx, steamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get user profile failed", "steam_id", steamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userProfileDTO{
		User:         userToDTO(profile.User),
		TotalMatches: profile.TotalMatches,
		Teammates:    profile.Teammates,
	})
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	detail, err := h.statsService.GetMatch(ctx, matchID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	players := make([]playerStatDTO, 0, len(detail.Players))
	for _, row := range detail.Players {
		players = append(players, playerStatToDTO(row))
	}

	writeSuccess(ctx, w, http.StatusOK, matchDetailDTO{
		Match:   matchToDTO(detail.Match),
		Players: players,
	})
}

func (h *Handler) ListTeammates(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeammates")
	defer span.End()

	steamID := strings.TrimSpace(r.PathValue("steamID"))
	limit := queryInt(r, "limit", 0)

	teammates, err := h.statsService.ListTeammates(ctx, steamID, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list teammates failed", "steam_id", steamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teammateDTO, 0, len(teammates))
	for _, item := range teammates {
		items = append(items, teammateToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ResolveShareCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveShareCode")
	defer span.End()

	code := strings.TrimSpace(r.PathValue("code"))
	info, err := h.statsService.ResolveShareCode(ctx, code)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, shareCodeDTO{
		ShareCode: info.ShareCode,
		MatchID:   strconv.FormatUint(info.MatchID, 10),
		OutcomeID: strconv.FormatUint(info.OutcomeID, 10),
		Token:     info.Token,
		DemoURL:   info.DemoURL,
	})
}
