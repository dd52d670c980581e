package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/cstatsentry/backend/internal/domain/user"
	"github.com/cstatsentry/backend/internal/platform/logging"
)

type SweepConfig struct {
	Enabled        bool
	MaxConcurrency int
}

type SweepResult struct {
	UsersTotal  int            `json:"users_total"`
	UsersSynced int            `json:"users_synced"`
	UsersFailed int            `json:"users_failed"`
	Failures    []SweepFailure `json:"failures,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
}

type SweepFailure struct {
	SteamID string `json:"steam_id"`
	Message string `json:"message"`
}

// SweepService syncs every sync-enabled user. The periodic scheduler and
// the sync-all internal job both land here.
type SweepService struct {
	cfg     SweepConfig
	users   user.Repository
	syncSvc *SyncService
	logger  *logging.Logger
}

func NewSweepService(cfg SweepConfig, users user.Repository, syncSvc *SyncService, logger *logging.Logger) *SweepService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	return &SweepService{
		cfg:     cfg,
		users:   users,
		syncSvc: syncSvc,
		logger:  logger,
	}
}

// SyncAllUsers fans out over all sync-enabled users with bounded
// concurrency. One user failing never aborts the sweep.
func (s *SweepService) SyncAllUsers(ctx context.Context) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SweepService.SyncAllUsers")
	defer span.End()

	if !s.cfg.Enabled {
		return SweepResult{}, fmt.Errorf("%w: periodic sync sweep is disabled (SYNC_SWEEP_ENABLED=false)", ErrDependencyUnavailable)
	}
	if s.users == nil || s.syncSvc == nil {
		return SweepResult{}, fmt.Errorf("%w: sync sweep is not fully configured", ErrDependencyUnavailable)
	}

	start := time.Now()
	items, err := s.users.ListSyncEnabled(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list sync-enabled users: %w", err)
	}

	result := SweepResult{UsersTotal: len(items)}
	if len(items) == 0 {
		result.DurationMs = time.Since(start).Milliseconds()
		return result, nil
	}

	var mu sync.Mutex
	workers := pool.New().WithMaxGoroutines(s.cfg.MaxConcurrency)
	for _, item := range items {
		item := item
		workers.Go(func() {
			if _, err := s.syncSvc.SyncUser(ctx, item.SteamID); err != nil {
				s.logger.WarnContext(ctx, "sweep sync failed",
					"steam_id", item.SteamID,
					"error", err,
				)
				mu.Lock()
				result.UsersFailed++
				result.Failures = append(result.Failures, SweepFailure{
					SteamID: item.SteamID,
					Message: err.Error(),
				})
				mu.Unlock()
				return
			}
			mu.Lock()
			result.UsersSynced++
			mu.Unlock()
		})
	}
	workers.Wait()

	sort.SliceStable(result.Failures, func(i, j int) bool {
		return result.Failures[i].SteamID < result.Failures[j].SteamID
	})
	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}
