package match

import (
	"errors"
	"time"
)

// ErrDuplicate is returned by Insert when the match row already exists
// for the user. Concurrent syncs treat it as a skip, not a failure.
var ErrDuplicate = errors.New("match already exists")

// Source identifies where a match row originated.
const (
	SourceLeetify = "leetify"
	SourceSteam   = "steam"
)

// Match is one competitive match attributed to a tracked user.
// ID is the decimal CS:GO match id from the share code when available,
// otherwise the provider's own id.
type Match struct {
	ID          string
	UserSteamID string
	Source      string

	PlayedAt   time.Time
	MapName    string
	ScoreTeam1 int
	ScoreTeam2 int
	// UserTeam is 1 or 2, matching ScoreTeam1/ScoreTeam2.
	UserTeam int

	ShareCode string
	DemoURL   string
	LeetifyID string

	// Processed marks matches whose full scoreboard has been ingested.
	Processed bool

	CreatedAt time.Time
}

// PlayerStat is one scoreboard row of a match.
type PlayerStat struct {
	MatchID string
	SteamID string
	Name    string
	Team    int

	Score   int
	Kills   int
	Deaths  int
	Assists int

	HeadshotPct float64
}

// HeadshotPercentage derives headshot% from raw counts. Zero kills means
// zero percent, not a division error.
func HeadshotPercentage(headshots, kills int) float64 {
	if kills <= 0 {
		return 0
	}
	return float64(headshots) / float64(kills) * 100
}

// WonByUser reports whether the user's team took the match.
func (m Match) WonByUser() bool {
	if m.UserTeam == 2 {
		return m.ScoreTeam2 > m.ScoreTeam1
	}
	return m.ScoreTeam1 > m.ScoreTeam2
}
