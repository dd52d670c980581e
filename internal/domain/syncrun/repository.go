package syncrun

import "context"

// Repository exposes the sync-run ledger.
type Repository interface {
	UpsertEvent(ctx context.Context, event Event) error
	GetByRunID(ctx context.Context, runID string) (Run, bool, error)
}
