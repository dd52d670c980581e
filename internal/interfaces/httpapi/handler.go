package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cstatsentry/backend/internal/domain/match"
	"github.com/cstatsentry/backend/internal/domain/syncrun"
	"github.com/cstatsentry/backend/internal/domain/teammate"
	"github.com/cstatsentry/backend/internal/domain/user"
	"github.com/cstatsentry/backend/internal/usecase"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	userService    *usecase.UserService
	statsService   *usecase.StatsService
	syncJobService *usecase.SyncJobService
	sweepService   *usecase.SweepService
	logger         *slog.Logger
	validator      *validator.Validate
}

func NewHandler(
	userService *usecase.UserService,
	statsService *usecase.StatsService,
	syncJobService *usecase.SyncJobService,
	sweepService *usecase.SweepService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		userService:    userService,
		statsService:   statsService,
		syncJobService: syncJobService,
		sweepService:   sweepService,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

type userDTO struct {
	SteamID            string `json:"steamId"`
	SteamName          string `json:"steamName"`
	AvatarURL          string `json:"avatarUrl"`
	SyncEnabled        bool   `json:"syncEnabled"`
	HasSteamAuth       bool   `json:"hasSteamAuth"`
	LastMatchShareCode string `json:"lastMatchShareCode,omitempty"`
	LastSync           string `json:"lastSyncAt,omitempty"`
	CreatedAt          string `json:"createdAt"`
	UpdatedAt          string `json:"updatedAt"`
}

type userProfileDTO struct {
	User         userDTO `json:"user"`
	TotalMatches int     `json:"totalMatches"`
	Teammates    int     `json:"teammates"`
}

type matchDTO struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	PlayedAt   string `json:"playedAt"`
	MapName    string `json:"mapName"`
	ScoreTeam1 int    `json:"scoreTeam1"`
	ScoreTeam2 int    `json:"scoreTeam2"`
	UserTeam   int    `json:"userTeam"`
	Won        bool   `json:"won"`
	ShareCode  string `json:"shareCode,omitempty"`
	DemoURL    string `json:"demoUrl,omitempty"`
	LeetifyID  string `json:"leetifyId,omitempty"`
	Processed  bool   `json:"processed"`
}

type matchPageDTO struct {
	Items  []matchDTO `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

type playerStatDTO struct {
	SteamID     string  `json:"steamId"`
	Name        string  `json:"name"`
	Team        int     `json:"team"`
	Score       int     `json:"score"`
	Kills       int     `json:"kills"`
	Deaths      int     `json:"deaths"`
	Assists     int     `json:"assists"`
	HeadshotPct float64 `json:"headshotPct"`
}

type matchDetailDTO struct {
	Match   matchDTO        `json:"match"`
	Players []playerStatDTO `json:"players"`
}

type teammateDTO struct {
	PlayerSteamID   string `json:"playerSteamId"`
	MatchesTogether int    `json:"matchesTogether"`
	FirstSeen       string `json:"firstSeenAt"`
	LastSeen        string `json:"lastSeenAt"`
	Relationship    string `json:"relationship"`
}

type shareCodeDTO struct {
	ShareCode string `json:"shareCode"`
	MatchID   string `json:"matchId"`
	OutcomeID string `json:"outcomeId"`
	Token     uint16 `json:"token"`
	DemoURL   string `json:"demoUrl"`
}

type syncRunDTO struct {
	RunID       string `json:"runId"`
	JobName     string `json:"jobName"`
	SteamID     string `json:"steamId"`
	Status      string `json:"status"`
	Payload     string `json:"payload,omitempty"`
	Result      string `json:"result,omitempty"`
	LastError   string `json:"lastError,omitempty"`
	QueuedAt    string `json:"queuedAt,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
	FailedAt    string `json:"failedAt,omitempty"`
	TraceID     string `json:"traceId,omitempty"`
}

func userToDTO(v user.User) userDTO {
	dto := userDTO{
		SteamID:            v.SteamID,
		SteamName:          v.SteamName,
		AvatarURL:          v.AvatarURL,
		SyncEnabled:        v.SyncEnabled,
		HasSteamAuth:       v.CanWalkMatchHistory(),
		LastMatchShareCode: v.LastMatchShareCode,
		CreatedAt:          v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          v.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if v.LastSync != nil {
		dto.LastSync = v.LastSync.UTC().Format(time.RFC3339)
	}
	return dto
}

func matchToDTO(v match.Match) matchDTO {
	return matchDTO{
		ID:         v.ID,
		Source:     v.Source,
		PlayedAt:   v.PlayedAt.UTC().Format(time.RFC3339),
		MapName:    v.MapName,
		ScoreTeam1: v.ScoreTeam1,
		ScoreTeam2: v.ScoreTeam2,
		UserTeam:   v.UserTeam,
		Won:        v.WonByUser(),
		ShareCode:  v.ShareCode,
		DemoURL:    v.DemoURL,
		LeetifyID:  v.LeetifyID,
		Processed:  v.Processed,
	}
}

func playerStatToDTO(v match.PlayerStat) playerStatDTO {
	return playerStatDTO{
		SteamID:     v.SteamID,
		Name:        v.Name,
		Team:        v.Team,
		Score:       v.Score,
		Kills:       v.Kills,
		Deaths:      v.Deaths,
		Assists:     v.Assists,
		HeadshotPct: v.HeadshotPct,
	}
}

func teammateToDTO(v teammate.Teammate) teammateDTO {
	return teammateDTO{
		PlayerSteamID:   v.PlayerSteamID,
		MatchesTogether: v.MatchesTogether,
		FirstSeen:       v.FirstSeen.UTC().Format(time.RFC3339),
		LastSeen:        v.LastSeen.UTC().Format(time.RFC3339),
		Relationship:    v.RelationshipType,
	}
}

func syncRunToDTO(v syncrun.Run) syncRunDTO {
	dto := syncRunDTO{
		RunID:   v.RunID,
		JobName: v.JobName,
		SteamID: v.SteamID,
		Status:  string(v.Status),
		Payload: v.Payload,
		Result:  v.Result,
		TraceID: v.TraceID,
	}
	if v.LastError != nil {
		dto.LastError = *v.LastError
	}
	if v.QueuedAt != nil {
		dto.QueuedAt = v.QueuedAt.UTC().Format(time.RFC3339)
	}
	if v.CompletedAt != nil {
		dto.CompletedAt = v.CompletedAt.UTC().Format(time.RFC3339)
	}
	if v.FailedAt != nil {
		dto.FailedAt = v.FailedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
