package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/cstatsentry/backend/internal/domain/player"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetBySteamID(ctx context.Context, steamID string) (player.Player, bool, error) {
	var row playerTableModel
	query := `SELECT steam_id, name, avatar_url, first_seen, last_seen FROM players WHERE steam_id = $1`
	if err := r.db.GetContext(ctx, &row, query, steamID); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player steam_id=%s: %w", steamID, err)
	}
	return player.Player{
		SteamID:   row.SteamID,
		Name:      row.Name,
		AvatarURL: row.AvatarURL,
		FirstSeen: row.FirstSeen,
		LastSeen:  row.LastSeen,
	}, true, nil
}

// Upsert refreshes the display name on conflict and widens the
// first/last seen window; first_seen never moves forward.
func (r *PlayerRepository) Upsert(ctx context.Context, item player.Player) error {
	steamID := strings.TrimSpace(item.SteamID)
	if steamID == "" {
		return fmt.Errorf("steam id is required")
	}

	query := `INSERT INTO players (steam_id, name, avatar_url, first_seen, last_seen)
VALUES (:steam_id, :name, :avatar_url, :first_seen, :last_seen)
ON CONFLICT (steam_id) DO UPDATE SET
    name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE players.name END,
    avatar_url = CASE WHEN EXCLUDED.avatar_url <> '' THEN EXCLUDED.avatar_url ELSE players.avatar_url END,
    first_seen = LEAST(players.first_seen, EXCLUDED.first_seen),
    last_seen = GREATEST(players.last_seen, EXCLUDED.last_seen)`

	model := playerTableModel{
		SteamID:   steamID,
		Name:      item.Name,
		AvatarURL: item.AvatarURL,
		FirstSeen: defaultTime(item.FirstSeen),
		LastSeen:  defaultTime(item.LastSeen),
	}
	if _, err := r.db.NamedExecContext(ctx, query, model); err != nil {
		return fmt.Errorf("upsert player steam_id=%s: %w", steamID, err)
	}
	return nil
}
