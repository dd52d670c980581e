package user

import (
	"context"
	"time"
)

// Repository exposes user persistence operations.
type Repository interface {
	GetBySteamID(ctx context.Context, steamID string) (User, bool, error)
	Upsert(ctx context.Context, item User) error
	ListSyncEnabled(ctx context.Context) ([]User, error)
	SetSyncEnabled(ctx context.Context, steamID string, enabled bool) error
	UpdateSteamAuth(ctx context.Context, steamID, authCode, lastShareCode string) error
	SetLastMatchShareCode(ctx context.Context, steamID, shareCode string) error
	TouchLastSync(ctx context.Context, steamID string, at time.Time) error
}
