package player

import "time"

// Player is any Steam account seen on a tracked scoreboard, registered or
// not. Users are players too; the user table only carries sync state.
type Player struct {
	SteamID   string
	Name      string
	AvatarURL string
	FirstSeen time.Time
	LastSeen  time.Time
}
