package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/cstatsentry/backend/internal/domain/syncrun"
)

type SyncRunRepository struct {
	mu    sync.RWMutex
	items map[string]syncrun.Run
}

func NewSyncRunRepository() *SyncRunRepository {
	return &SyncRunRepository{items: make(map[string]syncrun.Run)}
}

func (r *SyncRunRepository) UpsertEvent(_ context.Context, event syncrun.Event) error {
	runID := strings.TrimSpace(event.RunID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[runID]
	if !ok {
		item = syncrun.Run{RunID: runID, Payload: "{}", Result: "{}"}
	}

	if name := strings.TrimSpace(event.JobName); name != "" {
		item.JobName = name
	}
	if path := strings.TrimSpace(event.JobPath); path != "" {
		item.JobPath = path
	}
	if steamID := strings.TrimSpace(event.SteamID); steamID != "" {
		item.SteamID = steamID
	}
	if encoded := encodeRunMap(event.Payload); encoded != "{}" {
		item.Payload = encoded
	}
	if encoded := encodeRunMap(event.Result); encoded != "{}" {
		item.Result = encoded
	}
	if event.TraceID != "" {
		item.TraceID = event.TraceID
	}
	if event.SpanID != "" {
		item.SpanID = event.SpanID
	}

	item.Status = event.Status
	switch event.Status {
	case syncrun.StatusQueued:
		if item.QueuedAt == nil {
			item.QueuedAt = &occurredAt
		}
		item.LastError = nil
	case syncrun.StatusCompleted:
		item.CompletedAt = &occurredAt
		item.FailedAt = nil
		item.LastError = nil
	case syncrun.StatusFailed:
		item.FailedAt = &occurredAt
		if msg := strings.TrimSpace(event.ErrorMessage); msg != "" {
			item.LastError = &msg
		}
	}

	r.items[runID] = item
	return nil
}

func (r *SyncRunRepository) GetByRunID(_ context.Context, runID string) (syncrun.Run, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[runID]
	return item, ok, nil
}

func encodeRunMap(value map[string]any) string {
	if len(value) == 0 {
		return "{}"
	}
	raw, err := jsoniter.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
