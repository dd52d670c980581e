package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/cstatsentry/backend/internal/domain/match"
	"github.com/cstatsentry/backend/internal/domain/player"
	"github.com/cstatsentry/backend/internal/domain/teammate"
	"github.com/cstatsentry/backend/internal/domain/user"
	"github.com/cstatsentry/backend/internal/observability"
	"github.com/cstatsentry/backend/internal/platform/logging"
)

const (
	syncStatusCompleted = "completed"
	syncStatusError     = "error"
	syncStatusSkipped   = "skipped"

	defaultSyncJoinTimeout = 5 * time.Minute
)

type SyncConfig struct {
	Enabled     bool
	MatchLimit  int
	MaxWorkers  int
	JoinTimeout time.Duration
}

type SyncResult struct {
	Status            string             `json:"status"`
	UserID            string             `json:"user_id"`
	TotalMatchesFound int                `json:"total_matches_found"`
	TotalNewMatches   int                `json:"total_new_matches"`
	Sources           []SyncSourceResult `json:"sources"`
}

type SyncSourceResult struct {
	Source       string `json:"source"`
	Status       string `json:"status"`
	MatchesFound int    `json:"matches_found"`
	NewMatches   int    `json:"new_matches"`
	DurationMs   int64  `json:"duration_ms"`
	Message      string `json:"message,omitempty"`
}

// syncTaskRow travels back from a provider worker. lastShareCode is set
// only by walked sources and advances the user's resume cursor.
type syncTaskRow struct {
	result        SyncSourceResult
	lastShareCode string
}

// SyncService fans a user's sync out across all configured providers and
// merges whatever comes back before the join deadline.
type SyncService struct {
	cfg       SyncConfig
	users     user.Repository
	matches   match.Repository
	players   player.Repository
	teammates teammate.Repository
	providers []MatchProvider
	logger    *logging.Logger
}

func NewSyncService(
	cfg SyncConfig,
	users user.Repository,
	matches match.Repository,
	players player.Repository,
	teammates teammate.Repository,
	providers []MatchProvider,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MatchLimit <= 0 {
		cfg.MatchLimit = 10
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = defaultSyncJoinTimeout
	}
	return &SyncService{
		cfg:       cfg,
		users:     users,
		matches:   matches,
		players:   players,
		teammates: teammates,
		providers: providers,
		logger:    logger,
	}
}

func (s *SyncService) SyncUser(ctx context.Context, steamID string) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncUser")
	defer span.End()

	start := time.Now()

	if !s.cfg.Enabled {
		return SyncResult{}, fmt.Errorf("%w: match sync is disabled (SYNC_ENABLED=false)", ErrDependencyUnavailable)
	}
	if s.users == nil || s.matches == nil || len(s.providers) == 0 {
		return SyncResult{}, fmt.Errorf("%w: match sync is not fully configured", ErrDependencyUnavailable)
	}
	steamID = strings.TrimSpace(steamID)
	if steamID == "" {
		return SyncResult{}, fmt.Errorf("%w: steam_id is required", ErrInvalidInput)
	}

	item, found, err := s.users.GetBySteamID(ctx, steamID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("load user steam_id=%s: %w", steamID, err)
	}
	if !found {
		return SyncResult{}, fmt.Errorf("%w: user steam_id=%s", ErrNotFound, steamID)
	}

	result := SyncResult{
		UserID:  steamID,
		Sources: make([]SyncSourceResult, 0, len(s.providers)),
	}
	if !item.SyncEnabled {
		result.Status = syncStatusSkipped
		for _, provider := range s.providers {
			result.Sources = append(result.Sources, SyncSourceResult{
				Source:  provider.Name(),
				Status:  syncStatusSkipped,
				Message: "sync is disabled for this user",
			})
		}
		return result, nil
	}

	workerCount := normalizeSyncWorkerCount(s.cfg.MaxWorkers, len(s.providers))
	rows := make(chan syncTaskRow, len(s.providers))

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return SyncResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, provider := range s.providers {
		provider := provider
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			taskStart := time.Now()
			row := s.syncFromProvider(ctx, provider, item)
			row.result.DurationMs = time.Since(taskStart).Milliseconds()

			observability.SyncSourceRunsTotal.WithLabelValues(row.result.Source, row.result.Status).Inc()

			rows <- row
		}); err != nil {
			workers.Done()
			return SyncResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		workers.Wait()
		close(done)
	}()

	timedOut := false
	select {
	case <-done:
	case <-time.After(s.cfg.JoinTimeout):
		timedOut = true
	case <-ctx.Done():
		timedOut = true
	}

	// Salvage whatever completed before the deadline. Late workers still
	// drain into the buffered channel and get garbage collected with it.
	// Totals come from salvaged rows only, so they always equal the sum
	// of the per-source breakdown.
	matchesFound := 0
	newMatches := 0
	lastShareCode := ""
	seen := make(map[string]struct{}, len(s.providers))
drain:
	for {
		select {
		case row := <-rows:
			seen[row.result.Source] = struct{}{}
			result.Sources = append(result.Sources, row.result)
			matchesFound += row.result.MatchesFound
			newMatches += row.result.NewMatches
			if row.lastShareCode != "" {
				lastShareCode = row.lastShareCode
			}
		default:
			break drain
		}
	}
	if timedOut {
		for _, provider := range s.providers {
			if _, ok := seen[provider.Name()]; ok {
				continue
			}
			result.Sources = append(result.Sources, SyncSourceResult{
				Source:  provider.Name(),
				Status:  syncStatusError,
				Message: "sync timed out",
			})
		}
	}

	sort.SliceStable(result.Sources, func(i, j int) bool {
		return result.Sources[i].Source < result.Sources[j].Source
	})

	result.TotalMatchesFound = matchesFound
	result.TotalNewMatches = newMatches
	result.Status = syncStatusCompleted
	for _, source := range result.Sources {
		if source.Status == syncStatusError {
			result.Status = syncStatusError
		}
	}

	if lastShareCode != "" {
		if err := s.users.SetLastMatchShareCode(ctx, steamID, lastShareCode); err != nil {
			s.logger.ErrorContext(ctx, "update last match share code failed",
				"steam_id", steamID,
				"error", err.Error(),
			)
		}
	}
	if err := s.users.TouchLastSync(ctx, steamID, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "touch last sync failed",
			"steam_id", steamID,
			"error", err.Error(),
		)
	}

	observability.SyncRunsTotal.WithLabelValues(result.Status).Inc()
	observability.SyncDurationSeconds.Observe(time.Since(start).Seconds())
	return result, nil
}

func (s *SyncService) syncFromProvider(ctx context.Context, provider MatchProvider, item user.User) syncTaskRow {
	row := syncTaskRow{result: SyncSourceResult{Source: provider.Name()}}

	if err := provider.Authenticate(ctx, item); err != nil {
		row.result.Status = syncStatusSkipped
		row.result.Message = fmt.Sprintf("authenticate: %s", err.Error())
		return row
	}

	externals, err := provider.FetchRecentMatches(ctx, item, s.cfg.MatchLimit)
	if err != nil {
		row.result.Status = syncStatusError
		row.result.Message = err.Error()
		return row
	}
	row.result.MatchesFound = len(externals)

	for _, external := range externals {
		inserted, err := s.ingestMatch(ctx, provider, item, external)
		if err != nil {
			s.logger.ErrorContext(ctx, "ingest match failed",
				"source", provider.Name(),
				"match_id", external.ID,
				"steam_id", item.SteamID,
				"error", err.Error(),
			)
			continue
		}
		if inserted {
			row.result.NewMatches++
		}
		if external.Walked && external.ShareCode != "" {
			row.lastShareCode = external.ShareCode
		}
	}

	row.result.Status = syncStatusCompleted
	return row
}

// ingestMatch writes one provider match and its scoreboard. Duplicate
// rows from concurrent syncs are a skip, not an error.
func (s *SyncService) ingestMatch(ctx context.Context, provider MatchProvider, item user.User, external ExternalMatch) (bool, error) {
	exists, err := s.matches.Exists(ctx, external.ID)
	if err != nil {
		return false, fmt.Errorf("check match exists id=%s: %w", external.ID, err)
	}
	if exists {
		return false, nil
	}

	detail := ExternalMatchDetail{Match: external}
	hasDetail := false
	if external.HasDetails {
		detail, hasDetail, err = provider.FetchMatchDetails(ctx, external.ID, item.SteamID)
		if err != nil {
			return false, fmt.Errorf("fetch match details id=%s: %w", external.ID, err)
		}
		if !hasDetail {
			detail = ExternalMatchDetail{Match: external}
		}
	}

	row := match.Match{
		ID:          external.ID,
		UserSteamID: item.SteamID,
		Source:      external.Source,
		PlayedAt:    external.PlayedAt,
		MapName:     external.MapName,
		ScoreTeam1:  external.ScoreTeam1,
		ScoreTeam2:  external.ScoreTeam2,
		UserTeam:    external.UserTeam,
		ShareCode:   external.ShareCode,
		DemoURL:     external.DemoURL,
		LeetifyID:   external.LeetifyID,
		Processed:   hasDetail,
	}
	if err := s.matches.Insert(ctx, row); err != nil {
		if errors.Is(err, match.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("insert match id=%s: %w", external.ID, err)
	}
	observability.MatchesIngestedTotal.WithLabelValues(external.Source).Inc()

	if !hasDetail || len(detail.Players) == 0 {
		return true, nil
	}

	stats := make([]match.PlayerStat, 0, len(detail.Players))
	for _, p := range detail.Players {
		stats = append(stats, match.PlayerStat{
			MatchID:     external.ID,
			SteamID:     p.SteamID,
			Name:        p.Name,
			Team:        p.Team,
			Score:       p.Score,
			Kills:       p.Kills,
			Deaths:      p.Deaths,
			Assists:     p.Assists,
			HeadshotPct: match.HeadshotPercentage(p.Headshots, p.Kills),
		})
	}
	if err := s.matches.UpsertPlayers(ctx, external.ID, stats); err != nil {
		return true, fmt.Errorf("upsert match players id=%s: %w", external.ID, err)
	}

	userTeam := 0
	for _, p := range detail.Players {
		if p.SteamID == item.SteamID {
			userTeam = p.Team
		}
	}
	seenAt := external.PlayedAt
	if seenAt.IsZero() {
		seenAt = time.Now().UTC()
	}
	for _, p := range detail.Players {
		if p.SteamID == "" {
			continue
		}
		if s.players != nil {
			if err := s.players.Upsert(ctx, player.Player{
				SteamID:   p.SteamID,
				Name:      p.Name,
				AvatarURL: p.AvatarURL,
				FirstSeen: seenAt,
				LastSeen:  seenAt,
			}); err != nil {
				s.logger.ErrorContext(ctx, "upsert player failed",
					"steam_id", p.SteamID,
					"error", err.Error(),
				)
			}
		}
		if s.teammates == nil || p.SteamID == item.SteamID {
			continue
		}
		if userTeam > 0 && p.Team == userTeam {
			if err := s.teammates.RecordMatchTogether(ctx, item.SteamID, p.SteamID, seenAt); err != nil {
				s.logger.ErrorContext(ctx, "record teammate failed",
					"user_steam_id", item.SteamID,
					"player_steam_id", p.SteamID,
					"error", err.Error(),
				)
			}
		}
	}

	return true, nil
}

func normalizeSyncWorkerCount(value int, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 2
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
