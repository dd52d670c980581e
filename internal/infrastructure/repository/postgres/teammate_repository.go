package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cstatsentry/backend/internal/domain/teammate"
)

type TeammateRepository struct {
	db *sqlx.DB
}

type teammateTableModel struct {
	UserSteamID      string    `db:"user_steam_id"`
	PlayerSteamID    string    `db:"player_steam_id"`
	MatchesTogether  int       `db:"matches_together"`
	FirstSeen        time.Time `db:"first_seen"`
	LastSeen         time.Time `db:"last_seen"`
	RelationshipType string    `db:"relationship_type"`
}

func NewTeammateRepository(db *sqlx.DB) *TeammateRepository {
	return &TeammateRepository{db: db}
}

func (r *TeammateRepository) RecordMatchTogether(ctx context.Context, userSteamID, playerSteamID string, seenAt time.Time) error {
	userSteamID = strings.TrimSpace(userSteamID)
	playerSteamID = strings.TrimSpace(playerSteamID)
	if userSteamID == "" || playerSteamID == "" {
		return fmt.Errorf("user and player steam ids are required")
	}
	if userSteamID == playerSteamID {
		return fmt.Errorf("a user cannot be their own teammate")
	}

	query := `INSERT INTO user_teammates (user_steam_id, player_steam_id, matches_together, first_seen, last_seen, relationship_type)
VALUES ($1, $2, 1, $3, $3, $4)
ON CONFLICT (user_steam_id, player_steam_id) DO UPDATE SET
    matches_together = user_teammates.matches_together + 1,
    first_seen = LEAST(user_teammates.first_seen, EXCLUDED.first_seen),
    last_seen = GREATEST(user_teammates.last_seen, EXCLUDED.last_seen)`

	if _, err := r.db.ExecContext(ctx, query, userSteamID, playerSteamID, defaultTime(seenAt), teammate.RelationshipTeammate); err != nil {
		return fmt.Errorf("record teammate user=%s player=%s: %w", userSteamID, playerSteamID, err)
	}
	return nil
}

func (r *TeammateRepository) ListByUser(ctx context.Context, userSteamID string, limit int) ([]teammate.Teammate, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []teammateTableModel
	query := `SELECT user_steam_id, player_steam_id, matches_together, first_seen, last_seen, relationship_type
FROM user_teammates WHERE user_steam_id = $1 ORDER BY matches_together DESC, last_seen DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &rows, query, userSteamID, limit); err != nil {
		return nil, fmt.Errorf("select teammates steam_id=%s: %w", userSteamID, err)
	}

	out := make([]teammate.Teammate, 0, len(rows))
	for _, row := range rows {
		out = append(out, teammate.Teammate{
			UserSteamID:      row.UserSteamID,
			PlayerSteamID:    row.PlayerSteamID,
			MatchesTogether:  row.MatchesTogether,
			FirstSeen:        row.FirstSeen,
			LastSeen:         row.LastSeen,
			RelationshipType: row.RelationshipType,
		})
	}
	return out, nil
}
