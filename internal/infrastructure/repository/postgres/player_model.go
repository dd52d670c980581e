package postgres

import "time"

type playerTableModel struct {
	SteamID   string    `db:"steam_id"`
	Name      string    `db:"name"`
	AvatarURL string    `db:"avatar_url"`
	FirstSeen time.Time `db:"first_seen"`
	LastSeen  time.Time `db:"last_seen"`
}
