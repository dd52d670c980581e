package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/cstatsentry/backend/internal/domain/syncrun"
)

type SyncRunRepository struct {
	db *sqlx.DB
}

type syncRunInsertModel struct {
	RunID       string     `db:"run_id"`
	JobName     string     `db:"job_name"`
	JobPath     string     `db:"job_path"`
	SteamID     string     `db:"steam_id"`
	Status      string     `db:"status"`
	Payload     string     `db:"payload"`
	Result      string     `db:"result"`
	LastError   *string    `db:"last_error"`
	QueuedAt    *time.Time `db:"queued_at"`
	CompletedAt *time.Time `db:"completed_at"`
	FailedAt    *time.Time `db:"failed_at"`
	TraceID     *string    `db:"trace_id"`
	SpanID      *string    `db:"span_id"`
}

type syncRunTableModel struct {
	RunID       string     `db:"run_id"`
	JobName     string     `db:"job_name"`
	JobPath     string     `db:"job_path"`
	SteamID     string     `db:"steam_id"`
	Status      string     `db:"status"`
	Payload     string     `db:"payload"`
	Result      string     `db:"result"`
	LastError   *string    `db:"last_error"`
	QueuedAt    *time.Time `db:"queued_at"`
	CompletedAt *time.Time `db:"completed_at"`
	FailedAt    *time.Time `db:"failed_at"`
	TraceID     *string    `db:"trace_id"`
	SpanID      *string    `db:"span_id"`
}

func NewSyncRunRepository(db *sqlx.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) UpsertEvent(ctx context.Context, event syncrun.Event) error {
	runID := strings.TrimSpace(event.RunID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	jobName := strings.TrimSpace(event.JobName)
	if jobName == "" {
		jobName = "unknown"
	}
	jobPath := strings.TrimSpace(event.JobPath)
	if jobPath == "" {
		jobPath = "/unknown"
	}

	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	payloadJSON, err := marshalRunMap(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal sync run payload: %w", err)
	}
	resultJSON, err := marshalRunMap(event.Result)
	if err != nil {
		return fmt.Errorf("marshal sync run result: %w", err)
	}

	model := syncRunInsertModel{
		RunID:     runID,
		JobName:   jobName,
		JobPath:   jobPath,
		SteamID:   strings.TrimSpace(event.SteamID),
		Status:    string(event.Status),
		Payload:   payloadJSON,
		Result:    resultJSON,
		LastError: optionalString(event.ErrorMessage),
		TraceID:   optionalString(event.TraceID),
		SpanID:    optionalString(event.SpanID),
	}

	switch event.Status {
	case syncrun.StatusQueued:
		model.QueuedAt = &occurredAt
		model.LastError = nil
	case syncrun.StatusCompleted:
		model.CompletedAt = &occurredAt
		model.LastError = nil
	case syncrun.StatusFailed:
		model.FailedAt = &occurredAt
	}

	query := `INSERT INTO sync_runs (run_id, job_name, job_path, steam_id, status, payload, result, last_error, queued_at, completed_at, failed_at, trace_id, span_id)
VALUES (:run_id, :job_name, :job_path, :steam_id, :status, :payload, :result, :last_error, :queued_at, :completed_at, :failed_at, :trace_id, :span_id)
ON CONFLICT (run_id) DO UPDATE SET
    job_name = EXCLUDED.job_name,
    job_path = EXCLUDED.job_path,
    steam_id = CASE WHEN EXCLUDED.steam_id <> '' THEN EXCLUDED.steam_id ELSE sync_runs.steam_id END,
    status = EXCLUDED.status,
    payload = CASE WHEN EXCLUDED.payload <> '{}' THEN EXCLUDED.payload ELSE sync_runs.payload END,
    result = CASE WHEN EXCLUDED.result <> '{}' THEN EXCLUDED.result ELSE sync_runs.result END,
    queued_at = COALESCE(sync_runs.queued_at, EXCLUDED.queued_at),
    completed_at = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_at
        ELSE sync_runs.completed_at
    END,
    failed_at = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_at
        WHEN EXCLUDED.status = 'completed' THEN NULL
        ELSE sync_runs.failed_at
    END,
    last_error = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.last_error
        ELSE NULL
    END,
    trace_id = COALESCE(EXCLUDED.trace_id, sync_runs.trace_id),
    span_id = COALESCE(EXCLUDED.span_id, sync_runs.span_id)`

	if _, err := r.db.NamedExecContext(ctx, query, model); err != nil {
		return fmt.Errorf("upsert sync run run_id=%s status=%s: %w", runID, event.Status, err)
	}
	return nil
}

func (r *SyncRunRepository) GetByRunID(ctx context.Context, runID string) (syncrun.Run, bool, error) {
	var row syncRunTableModel
	query := `SELECT run_id, job_name, job_path, steam_id, status, payload, result, last_error, queued_at, completed_at, failed_at, trace_id, span_id
FROM sync_runs WHERE run_id = $1`
	if err := r.db.GetContext(ctx, &row, query, runID); err != nil {
		if isNotFound(err) {
			return syncrun.Run{}, false, nil
		}
		return syncrun.Run{}, false, fmt.Errorf("select sync run run_id=%s: %w", runID, err)
	}

	return syncrun.Run{
		RunID:       row.RunID,
		JobName:     row.JobName,
		JobPath:     row.JobPath,
		SteamID:     row.SteamID,
		Status:      syncrun.Status(row.Status),
		Payload:     row.Payload,
		Result:      row.Result,
		LastError:   row.LastError,
		QueuedAt:    row.QueuedAt,
		CompletedAt: row.CompletedAt,
		FailedAt:    row.FailedAt,
		TraceID:     derefString(row.TraceID),
		SpanID:      derefString(row.SpanID),
	}, true, nil
}

func marshalRunMap(value map[string]any) (string, error) {
	if len(value) == 0 {
		return "{}", nil
	}
	raw, err := jsoniter.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
