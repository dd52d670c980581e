package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/cstatsentry/backend/internal/domain/match"
	"github.com/cstatsentry/backend/internal/domain/sharecode"
	"github.com/cstatsentry/backend/internal/domain/teammate"
	"github.com/cstatsentry/backend/internal/domain/user"
	"github.com/cstatsentry/backend/internal/platform/logging"
)

const (
	defaultMatchPageSize = 20
	maxMatchPageSize     = 100
	defaultTeammateLimit = 50
)

type MatchPage struct {
	Items  []match.Match `json:"items"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type MatchDetail struct {
	Match   match.Match       `json:"match"`
	Players []match.PlayerStat `json:"players"`
}

type UserProfile struct {
	User         user.User `json:"user"`
	TotalMatches int       `json:"total_matches"`
	Teammates    int       `json:"teammates"`
}

type ShareCodeInfo struct {
	ShareCode string `json:"share_code"`
	MatchID   uint64 `json:"match_id"`
	OutcomeID uint64 `json:"outcome_id"`
	Token     uint16 `json:"token"`
	DemoURL   string `json:"demo_url"`
}

// StatsService is the read side: match browsing, teammate graphs and
// share code resolution.
type StatsService struct {
	users     user.Repository
	matches   match.Repository
	teammates teammate.Repository
	logger    *logging.Logger
}

func NewStatsService(
	users user.Repository,
	matches match.Repository,
	teammates teammate.Repository,
	logger *logging.Logger,
) *StatsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsService{
		users:     users,
		matches:   matches,
		teammates: teammates,
		logger:    logger,
	}
}

func (s *StatsService) ListUserMatches(ctx context.Context, steamID string, limit, offset int) (MatchPage, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.ListUserMatches")
	defer span.End()

	steamID = strings.TrimSpace(steamID)
	if steamID == "" {
		return MatchPage{}, fmt.Errorf("%w: steam_id is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultMatchPageSize
	}
	if limit > maxMatchPageSize {
		limit = maxMatchPageSize
	}
	if offset < 0 {
		offset = 0
	}

	if _, found, err := s.users.GetBySteamID(ctx, steamID); err != nil {
		return MatchPage{}, fmt.Errorf("load user steam_id=%s: %w", steamID, err)
	} else if !found {
		return MatchPage{}, fmt.Errorf("%w: user steam_id=%s", ErrNotFound, steamID)
	}

	items, err := s.matches.ListByUser(ctx, steamID, limit, offset)
	if err != nil {
		return MatchPage{}, fmt.Errorf("list matches steam_id=%s: %w", steamID, err)
	}
	total, err := s.matches.CountByUser(ctx, steamID)
	if err != nil {
		return MatchPage{}, fmt.Errorf("count matches steam_id=%s: %w", steamID, err)
	}

	if items == nil {
		items = []match.Match{}
	}
	return MatchPage{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// GetUserProfile is the dashboard summary: the user row plus how much of
// their history we track.
func (s *StatsService) GetUserProfile(ctx context.Context, steamID string) (UserProfile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GetUserProfile")
	defer span.End()

	steamID = strings.TrimSpace(steamID)
	if steamID == "" {
		return UserProfile{}, fmt.Errorf("%w: steam_id is required", ErrInvalidInput)
	}

	u, found, err := s.users.GetBySteamID(ctx, steamID)
	if err != nil {
		return UserProfile{}, fmt.Errorf("load user steam_id=%s: %w", steamID, err)
	}
	if !found {
		return UserProfile{}, fmt.Errorf("%w: user steam_id=%s", ErrNotFound, steamID)
	}

	total, err := s.matches.CountByUser(ctx, steamID)
	if err != nil {
		return UserProfile{}, fmt.Errorf("count matches steam_id=%s: %w", steamID, err)
	}
	mates, err := s.teammates.ListByUser(ctx, steamID, defaultTeammateLimit)
	if err != nil {
		return UserProfile{}, fmt.Errorf("list teammates steam_id=%s: %w", steamID, err)
	}

	return UserProfile{User: u, TotalMatches: total, Teammates: len(mates)}, nil
}

func (s *StatsService) GetMatch(ctx context.Context, matchID string) (MatchDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GetMatch")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return MatchDetail{}, fmt.Errorf("%w: match_id is required", ErrInvalidInput)
	}

	item, found, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return MatchDetail{}, fmt.Errorf("load match id=%s: %w", matchID, err)
	}
	if !found {
		return MatchDetail{}, fmt.Errorf("%w: match id=%s", ErrNotFound, matchID)
	}

	players, err := s.matches.ListPlayers(ctx, matchID)
	if err != nil {
		return MatchDetail{}, fmt.Errorf("list match players id=%s: %w", matchID, err)
	}
	if players == nil {
		players = []match.PlayerStat{}
	}
	return MatchDetail{Match: item, Players: players}, nil
}

func (s *StatsService) ListTeammates(ctx context.Context, steamID string, limit int) ([]teammate.Teammate, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.ListTeammates")
	defer span.End()

	steamID = strings.TrimSpace(steamID)
	if steamID == "" {
		return nil, fmt.Errorf("%w: steam_id is required", ErrInvalidInput)
	}
	if limit <= 0 || limit > maxMatchPageSize {
		limit = defaultTeammateLimit
	}

	if _, found, err := s.users.GetBySteamID(ctx, steamID); err != nil {
		return nil, fmt.Errorf("load user steam_id=%s: %w", steamID, err)
	} else if !found {
		return nil, fmt.Errorf("%w: user steam_id=%s", ErrNotFound, steamID)
	}

	items, err := s.teammates.ListByUser(ctx, steamID, limit)
	if err != nil {
		return nil, fmt.Errorf("list teammates steam_id=%s: %w", steamID, err)
	}
	if items == nil {
		items = []teammate.Teammate{}
	}
	return items, nil
}

// ResolveShareCode decodes a match share code and derives the demo
// download location on the default replay cluster.
func (s *StatsService) ResolveShareCode(ctx context.Context, code string) (ShareCodeInfo, error) {
	_, span := startUsecaseSpan(ctx, "usecase.StatsService.ResolveShareCode")
	defer span.End()

	decoded, err := sharecode.Decode(code)
	if err != nil {
		return ShareCodeInfo{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	return ShareCodeInfo{
		ShareCode: code,
		MatchID:   decoded.MatchID,
		OutcomeID: decoded.OutcomeID,
		Token:     decoded.Token,
		DemoURL:   sharecode.DemoURL(decoded.MatchID, decoded.OutcomeID, sharecode.DefaultDemoServer),
	}, nil
}
