package user

import (
	"strings"
	"time"
)

// User is a registered Steam account whose matches we track.
type User struct {
	SteamID   string
	SteamName string
	AvatarURL string

	// SteamAuthCode is the user-issued match history auth code
	// (help.steampowered.com "access to match history data").
	SteamAuthCode string
	// LastMatchShareCode is the newest share code we have walked past.
	// The Steam source resumes from here.
	LastMatchShareCode string

	SyncEnabled bool
	LastSync    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanWalkMatchHistory reports whether the Steam match-history walker has
// everything it needs for this user.
func (u User) CanWalkMatchHistory() bool {
	return strings.TrimSpace(u.SteamAuthCode) != "" && strings.TrimSpace(u.LastMatchShareCode) != ""
}
