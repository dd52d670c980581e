package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/cstatsentry/backend/internal/domain/match"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

const matchSelectColumns = `id, user_steam_id, source, played_at, map_name, score_team1, score_team2, user_team, share_code, demo_url, leetify_id, processed, created_at`

func (r *MatchRepository) Exists(ctx context.Context, matchID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM matches WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, matchID); err != nil {
		return false, fmt.Errorf("check match exists id=%s: %w", matchID, err)
	}
	return exists, nil
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	var row matchTableModel
	query := `SELECT ` + matchSelectColumns + ` FROM matches WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, matchID); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match id=%s: %w", matchID, err)
	}
	return mapMatchRow(row), true, nil
}

// Insert is the dedup serialization point: a concurrent writer losing
// the race gets match.ErrDuplicate back.
func (r *MatchRepository) Insert(ctx context.Context, item match.Match) error {
	matchID := strings.TrimSpace(item.ID)
	if matchID == "" {
		return fmt.Errorf("match id is required")
	}

	query := `INSERT INTO matches (id, user_steam_id, source, played_at, map_name, score_team1, score_team2, user_team, share_code, demo_url, leetify_id, processed, created_at)
VALUES (:id, :user_steam_id, :source, :played_at, :map_name, :score_team1, :score_team2, :user_team, :share_code, :demo_url, :leetify_id, :processed, :created_at)`

	model := matchTableModel{
		ID:          matchID,
		UserSteamID: item.UserSteamID,
		Source:      item.Source,
		PlayedAt:    defaultTime(item.PlayedAt),
		MapName:     item.MapName,
		ScoreTeam1:  item.ScoreTeam1,
		ScoreTeam2:  item.ScoreTeam2,
		UserTeam:    item.UserTeam,
		ShareCode:   item.ShareCode,
		DemoURL:     item.DemoURL,
		LeetifyID:   item.LeetifyID,
		Processed:   item.Processed,
		CreatedAt:   defaultTime(item.CreatedAt),
	}
	if _, err := r.db.NamedExecContext(ctx, query, model); err != nil {
		if isUniqueViolation(err) {
			return match.ErrDuplicate
		}
		return fmt.Errorf("insert match id=%s: %w", matchID, err)
	}
	return nil
}

func (r *MatchRepository) MarkProcessed(ctx context.Context, matchID string) error {
	query := `UPDATE matches SET processed = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, matchID); err != nil {
		return fmt.Errorf("mark match processed id=%s: %w", matchID, err)
	}
	return nil
}

func (r *MatchRepository) ListByUser(ctx context.Context, steamID string, limit, offset int) ([]match.Match, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var rows []matchTableModel
	query := `SELECT ` + matchSelectColumns + ` FROM matches WHERE user_steam_id = $1 ORDER BY played_at DESC, id DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, steamID, limit, offset); err != nil {
		return nil, fmt.Errorf("select matches steam_id=%s: %w", steamID, err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapMatchRow(row))
	}
	return out, nil
}

func (r *MatchRepository) CountByUser(ctx context.Context, steamID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM matches WHERE user_steam_id = $1`
	if err := r.db.GetContext(ctx, &count, query, steamID); err != nil {
		return 0, fmt.Errorf("count matches steam_id=%s: %w", steamID, err)
	}
	return count, nil
}

func (r *MatchRepository) UpsertPlayers(ctx context.Context, matchID string, rows []match.PlayerStat) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO match_players (match_id, steam_id, name, team, score, kills, deaths, assists, headshot_pct)
VALUES (:match_id, :steam_id, :name, :team, :score, :kills, :deaths, :assists, :headshot_pct)
ON CONFLICT (match_id, steam_id) DO UPDATE SET
    name = EXCLUDED.name,
    team = EXCLUDED.team,
    score = EXCLUDED.score,
    kills = EXCLUDED.kills,
    deaths = EXCLUDED.deaths,
    assists = EXCLUDED.assists,
    headshot_pct = EXCLUDED.headshot_pct`

	models := make([]matchPlayerTableModel, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.SteamID) == "" {
			continue
		}
		models = append(models, matchPlayerTableModel{
			MatchID:     matchID,
			SteamID:     row.SteamID,
			Name:        row.Name,
			Team:        row.Team,
			Score:       row.Score,
			Kills:       row.Kills,
			Deaths:      row.Deaths,
			Assists:     row.Assists,
			HeadshotPct: row.HeadshotPct,
		})
	}
	if len(models) == 0 {
		return nil
	}
	if _, err := r.db.NamedExecContext(ctx, query, models); err != nil {
		return fmt.Errorf("upsert match players match_id=%s: %w", matchID, err)
	}
	return nil
}

func (r *MatchRepository) ListPlayers(ctx context.Context, matchID string) ([]match.PlayerStat, error) {
	var rows []matchPlayerTableModel
	query := `SELECT match_id, steam_id, name, team, score, kills, deaths, assists, headshot_pct FROM match_players WHERE match_id = $1 ORDER BY team, score DESC, steam_id`
	if err := r.db.SelectContext(ctx, &rows, query, matchID); err != nil {
		return nil, fmt.Errorf("select match players match_id=%s: %w", matchID, err)
	}

	out := make([]match.PlayerStat, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.PlayerStat{
			MatchID:     row.MatchID,
			SteamID:     row.SteamID,
			Name:        row.Name,
			Team:        row.Team,
			Score:       row.Score,
			Kills:       row.Kills,
			Deaths:      row.Deaths,
			Assists:     row.Assists,
			HeadshotPct: row.HeadshotPct,
		})
	}
	return out, nil
}

func mapMatchRow(row matchTableModel) match.Match {
	return match.Match{
		ID:          row.ID,
		UserSteamID: row.UserSteamID,
		Source:      row.Source,
		PlayedAt:    row.PlayedAt,
		MapName:     row.MapName,
		ScoreTeam1:  row.ScoreTeam1,
		ScoreTeam2:  row.ScoreTeam2,
		UserTeam:    row.UserTeam,
		ShareCode:   row.ShareCode,
		DemoURL:     row.DemoURL,
		LeetifyID:   row.LeetifyID,
		Processed:   row.Processed,
		CreatedAt:   row.CreatedAt,
	}
}
