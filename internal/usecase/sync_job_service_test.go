package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cstatsentry/backend/internal/domain/match"
	"github.com/cstatsentry/backend/internal/domain/syncrun"
	"github.com/cstatsentry/backend/internal/domain/user"
	"github.com/cstatsentry/backend/internal/platform/logging"
)

type stubRunRepo struct {
	mu     sync.Mutex
	events []syncrun.Event
}

func (r *stubRunRepo) UpsertEvent(_ context.Context, event syncrun.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *stubRunRepo) GetByRunID(_ context.Context, runID string) (syncrun.Run, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.RunID == runID {
			return syncrun.Run{RunID: runID, Status: event.Status}, true, nil
		}
	}
	return syncrun.Run{}, false, nil
}

type stubQueue struct {
	mu         sync.Mutex
	enqueued   []string
	enqueueErr error
}

func (q *stubQueue) Enqueue(_ context.Context, path string, _ any, _ time.Duration, dedupID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.enqueued = append(q.enqueued, path+"#"+dedupID)
	return nil
}

func newJobServiceForTest(users *stubUserRepo, queue JobQueue, queueEnabled bool) (*SyncJobService, *stubRunRepo) {
	runs := &stubRunRepo{}
	provider := &stubProvider{
		name:    match.SourceLeetify,
		matches: []ExternalMatch{{ID: "m1", Source: match.SourceLeetify}},
	}
	syncSvc, _, _ := newSyncServiceForTest(users, newStubMatchRepo(), provider)
	return NewSyncJobService(users, runs, syncSvc, queue, queueEnabled, logging.NewNop()), runs
}

func TestTriggerUserSyncQueues(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo(user.User{SteamID: "765611", SyncEnabled: true})
	queue := &stubQueue{}
	svc, runs := newJobServiceForTest(users, queue, true)

	result, err := svc.TriggerUserSync(context.Background(), "765611")
	if err != nil {
		t.Fatalf("TriggerUserSync returned error: %v", err)
	}
	if !result.Queued {
		t.Fatalf("expected queued trigger, got %+v", result)
	}
	if result.RunID == "" {
		t.Fatalf("run id must be assigned")
	}
	if len(queue.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(queue.enqueued))
	}
	if len(runs.events) != 1 || runs.events[0].Status != syncrun.StatusQueued {
		t.Fatalf("expected a queued ledger event, got %+v", runs.events)
	}
}

func TestTriggerUserSyncFallsBackToInline(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo(user.User{SteamID: "765611", SyncEnabled: true})
	queue := &stubQueue{enqueueErr: fmt.Errorf("qstash unavailable")}
	svc, runs := newJobServiceForTest(users, queue, true)

	result, err := svc.TriggerUserSync(context.Background(), "765611")
	if err != nil {
		t.Fatalf("TriggerUserSync returned error: %v", err)
	}
	if result.Queued {
		t.Fatalf("enqueue failure must fall back to inline run")
	}
	if result.Result == nil || result.Result.TotalNewMatches != 1 {
		t.Fatalf("inline run result missing: %+v", result.Result)
	}
	if len(runs.events) != 1 || runs.events[0].Status != syncrun.StatusCompleted {
		t.Fatalf("expected completed ledger event, got %+v", runs.events)
	}
}

func TestTriggerUserSyncWithoutQueueRunsInline(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo(user.User{SteamID: "765611", SyncEnabled: true})
	svc, runs := newJobServiceForTest(users, nil, false)

	result, err := svc.TriggerUserSync(context.Background(), "765611")
	if err != nil {
		t.Fatalf("TriggerUserSync returned error: %v", err)
	}
	if result.Queued {
		t.Fatalf("no queue configured, run must be inline")
	}
	if len(runs.events) != 1 || runs.events[0].Status != syncrun.StatusCompleted {
		t.Fatalf("expected completed ledger event, got %+v", runs.events)
	}
}

func TestTriggerUserSyncUnknownUser(t *testing.T) {
	t.Parallel()

	svc, _ := newJobServiceForTest(newStubUserRepo(), &stubQueue{}, true)
	if _, err := svc.TriggerUserSync(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunUserSyncRecordsFailure(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo()
	svc, runs := newJobServiceForTest(users, &stubQueue{}, false)

	if _, err := svc.RunUserSync(context.Background(), "run-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(runs.events) != 1 || runs.events[0].Status != syncrun.StatusFailed {
		t.Fatalf("expected failed ledger event, got %+v", runs.events)
	}
	if runs.events[0].ErrorMessage == "" {
		t.Fatalf("failed event must carry the error message")
	}
}

func TestGetRun(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo(user.User{SteamID: "765611", SyncEnabled: true})
	svc, runs := newJobServiceForTest(users, nil, false)
	runs.events = append(runs.events, syncrun.Event{RunID: "run-9", Status: syncrun.StatusCompleted})

	item, err := svc.GetRun(context.Background(), "run-9")
	if err != nil {
		t.Fatalf("GetRun returned error: %v", err)
	}
	if item.Status != syncrun.StatusCompleted {
		t.Fatalf("unexpected run: %+v", item)
	}

	if _, err := svc.GetRun(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
