package teammate

import "time"

const (
	RelationshipTeammate = "teammate"
	RelationshipFriend   = "friend"
)

// Teammate is an aggregated played-with relationship between a tracked
// user and another player, counted over matches on the same team.
type Teammate struct {
	UserSteamID   string
	PlayerSteamID string

	MatchesTogether  int
	FirstSeen        time.Time
	LastSeen         time.Time
	RelationshipType string
}
