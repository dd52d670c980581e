package teammate

import (
	"context"
	"time"
)

// Repository exposes teammate-graph persistence operations.
type Repository interface {
	// RecordMatchTogether upserts the relationship and bumps
	// matches_together, maintaining first/last seen timestamps.
	RecordMatchTogether(ctx context.Context, userSteamID, playerSteamID string, seenAt time.Time) error
	ListByUser(ctx context.Context, userSteamID string, limit int) ([]Teammate, error)
}
