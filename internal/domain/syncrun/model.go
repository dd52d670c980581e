package syncrun

import "time"

type Status string

const (
	StatusQueued    Status = "queued"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Event is one observed state transition of a sync run. Runs move
// queued -> completed|failed; a direct (unqueued) run emits only the
// terminal event.
type Event struct {
	RunID        string
	JobName      string
	JobPath      string
	SteamID      string
	Status       Status
	Payload      map[string]any
	Result       map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}

// Run is the stored ledger row for a sync run.
type Run struct {
	RunID   string
	JobName string
	JobPath string
	SteamID string
	Status  Status
	Payload string
	Result  string

	LastError   *string
	QueuedAt    *time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time

	TraceID string
	SpanID  string
}
