package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/cstatsentry/backend/internal/domain/syncrun"
	"github.com/cstatsentry/backend/internal/domain/user"
	"github.com/cstatsentry/backend/internal/platform/logging"
)

const jobPathSyncUser = "/v1/internal/jobs/sync-user"

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type SyncTriggerResult struct {
	RunID   string      `json:"run_id"`
	SteamID string      `json:"steam_id"`
	Queued  bool        `json:"queued"`
	Result  *SyncResult `json:"result,omitempty"`
}

// SyncJobService is the queue-facing front of SyncService. Triggers go
// through the job queue when one is configured and run inline otherwise;
// either way every run leaves a ledger trail.
type SyncJobService struct {
	users        user.Repository
	runs         syncrun.Repository
	syncSvc      *SyncService
	queue        JobQueue
	queueEnabled bool
	logger       *logging.Logger
	now          func() time.Time
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func NewSyncJobService(
	users user.Repository,
	runs syncrun.Repository,
	syncSvc *SyncService,
	queue JobQueue,
	queueEnabled bool,
	logger *logging.Logger,
) *SyncJobService {
	if queue == nil {
		queue = NewNoopJobQueue()
		queueEnabled = false
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncJobService{
		users:        users,
		runs:         runs,
		syncSvc:      syncSvc,
		queue:        queue,
		queueEnabled: queueEnabled,
		logger:       logger,
		now:          time.Now,
	}
}

// TriggerUserSync queues a sync for the user, falling back to an inline
// run when no queue is configured or the enqueue fails.
func (s *SyncJobService) TriggerUserSync(ctx context.Context, steamID string) (SyncTriggerResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncJobService.TriggerUserSync")
	defer span.End()

	steamID = strings.TrimSpace(steamID)
	if steamID == "" {
		return SyncTriggerResult{}, fmt.Errorf("%w: steam_id is required", ErrInvalidInput)
	}
	if _, found, err := s.users.GetBySteamID(ctx, steamID); err != nil {
		return SyncTriggerResult{}, fmt.Errorf("load user steam_id=%s: %w", steamID, err)
	} else if !found {
		return SyncTriggerResult{}, fmt.Errorf("%w: user steam_id=%s", ErrNotFound, steamID)
	}

	now := s.now().UTC()
	runID := uuid.NewString()
	payload := map[string]any{
		"steam_id": steamID,
		"run_id":   runID,
	}

	if s.queueEnabled {
		dedupID := syncDedupKey(steamID, now)
		if err := s.queue.Enqueue(ctx, jobPathSyncUser, payload, 0, dedupID); err == nil {
			s.recordRunEvent(ctx, syncrun.Event{
				RunID:      runID,
				JobName:    "sync-user",
				JobPath:    jobPathSyncUser,
				SteamID:    steamID,
				Status:     syncrun.StatusQueued,
				Payload:    payload,
				OccurredAt: now,
			})
			return SyncTriggerResult{RunID: runID, SteamID: steamID, Queued: true}, nil
		} else {
			s.logger.WarnContext(ctx, "enqueue sync-user failed, running inline",
				"steam_id", steamID,
				"run_id", runID,
				"error", err,
			)
		}
	}

	result, err := s.RunUserSync(ctx, runID, steamID)
	if err != nil {
		return SyncTriggerResult{}, err
	}
	return SyncTriggerResult{RunID: runID, SteamID: steamID, Queued: false, Result: &result}, nil
}

// RunUserSync executes the sync and records the terminal ledger event.
// The queue worker lands here; inline fallback does too.
func (s *SyncJobService) RunUserSync(ctx context.Context, runID, steamID string) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncJobService.RunUserSync")
	defer span.End()

	steamID = strings.TrimSpace(steamID)
	if steamID == "" {
		return SyncResult{}, fmt.Errorf("%w: steam_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(runID) == "" {
		runID = uuid.NewString()
	}

	result, err := s.syncSvc.SyncUser(ctx, steamID)
	now := s.now().UTC()
	if err != nil {
		s.recordRunEvent(ctx, syncrun.Event{
			RunID:        runID,
			JobName:      "sync-user",
			JobPath:      jobPathSyncUser,
			SteamID:      steamID,
			Status:       syncrun.StatusFailed,
			ErrorMessage: err.Error(),
			OccurredAt:   now,
		})
		return SyncResult{}, err
	}

	s.recordRunEvent(ctx, syncrun.Event{
		RunID:   runID,
		JobName: "sync-user",
		JobPath: jobPathSyncUser,
		SteamID: steamID,
		Status:  syncrun.StatusCompleted,
		Result: map[string]any{
			"status":              result.Status,
			"total_matches_found": result.TotalMatchesFound,
			"total_new_matches":   result.TotalNewMatches,
		},
		OccurredAt: now,
	})
	return result, nil
}

func (s *SyncJobService) GetRun(ctx context.Context, runID string) (syncrun.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncJobService.GetRun")
	defer span.End()

	runID = strings.TrimSpace(runID)
	if runID == "" {
		return syncrun.Run{}, fmt.Errorf("%w: run_id is required", ErrInvalidInput)
	}
	item, found, err := s.runs.GetByRunID(ctx, runID)
	if err != nil {
		return syncrun.Run{}, fmt.Errorf("load sync run run_id=%s: %w", runID, err)
	}
	if !found {
		return syncrun.Run{}, fmt.Errorf("%w: sync run run_id=%s", ErrNotFound, runID)
	}
	return item, nil
}

func (s *SyncJobService) recordRunEvent(ctx context.Context, event syncrun.Event) {
	if s.runs == nil || strings.TrimSpace(event.RunID) == "" {
		return
	}
	traceID, spanID := traceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.runs.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record sync run event failed",
			"run_id", event.RunID,
			"status", event.Status,
			"error", err,
		)
	}
}

func syncDedupKey(steamID string, at time.Time) string {
	slot := at.UTC().Truncate(time.Minute).Format("20060102T150405Z")
	return "sync-user-" + sanitizeDedupSegment(steamID) + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}
