package postgres

import "time"

type matchTableModel struct {
	ID          string    `db:"id"`
	UserSteamID string    `db:"user_steam_id"`
	Source      string    `db:"source"`
	PlayedAt    time.Time `db:"played_at"`
	MapName     string    `db:"map_name"`
	ScoreTeam1  int       `db:"score_team1"`
	ScoreTeam2  int       `db:"score_team2"`
	UserTeam    int       `db:"user_team"`
	ShareCode   string    `db:"share_code"`
	DemoURL     string    `db:"demo_url"`
	LeetifyID   string    `db:"leetify_id"`
	Processed   bool      `db:"processed"`
	CreatedAt   time.Time `db:"created_at"`
}

type matchPlayerTableModel struct {
	MatchID     string  `db:"match_id"`
	SteamID     string  `db:"steam_id"`
	Name        string  `db:"name"`
	Team        int     `db:"team"`
	Score       int     `db:"score"`
	Kills       int     `db:"kills"`
	Deaths      int     `db:"deaths"`
	Assists     int     `db:"assists"`
	HeadshotPct float64 `db:"headshot_pct"`
}
