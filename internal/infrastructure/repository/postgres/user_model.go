package postgres

import "time"

type userTableModel struct {
	SteamID            string     `db:"steam_id"`
	SteamName          string     `db:"steam_name"`
	AvatarURL          string     `db:"avatar_url"`
	SteamAuthCode      string     `db:"steam_auth_code"`
	LastMatchShareCode string     `db:"last_match_share_code"`
	SyncEnabled        bool       `db:"sync_enabled"`
	LastSync           *time.Time `db:"last_sync"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}
