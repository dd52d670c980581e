package match

import "context"

// Repository exposes match persistence operations.
type Repository interface {
	Exists(ctx context.Context, matchID string) (bool, error)
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	Insert(ctx context.Context, item Match) error
	MarkProcessed(ctx context.Context, matchID string) error
	ListByUser(ctx context.Context, steamID string, limit, offset int) ([]Match, error)
	CountByUser(ctx context.Context, steamID string) (int, error)
	UpsertPlayers(ctx context.Context, matchID string, rows []PlayerStat) error
	ListPlayers(ctx context.Context, matchID string) ([]PlayerStat, error)
}
