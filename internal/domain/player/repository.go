package player

import "context"

// Repository exposes player persistence operations.
type Repository interface {
	GetBySteamID(ctx context.Context, steamID string) (Player, bool, error)
	Upsert(ctx context.Context, item Player) error
}
