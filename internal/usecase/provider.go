package usecase

import (
	"context"
	"time"

	"github.com/cstatsentry/backend/internal/domain/user"
)

// ExternalMatch is a provider-shaped match listing row before
// normalization into the match domain.
type ExternalMatch struct {
	// ID is the canonical match id: the decimal CS:GO match id when a
	// share code is known, otherwise the provider's own id.
	ID        string
	Source    string
	ShareCode string
	LeetifyID string

	// Walked is set by sources that enumerate matches through the share
	// code chain, oldest first. Only walked share codes may advance the
	// user's resume cursor.
	Walked bool

	PlayedAt   time.Time
	MapName    string
	ScoreTeam1 int
	ScoreTeam2 int
	UserTeam   int
	DemoURL    string

	// HasDetails signals that FetchMatchDetails may return a scoreboard
	// for this match. Listing-only sources leave it false.
	HasDetails bool
}

// ExternalPlayerStat is one provider scoreboard row.
type ExternalPlayerStat struct {
	SteamID   string
	Name      string
	AvatarURL string
	Team      int

	Score     int
	Kills     int
	Deaths    int
	Assists   int
	Headshots int
}

// ExternalMatchDetail is the full box score for one match.
type ExternalMatchDetail struct {
	Match   ExternalMatch
	Players []ExternalPlayerStat
}

// MatchProvider is one source of match data for a tracked user.
// Implementations live under external/.
type MatchProvider interface {
	Name() string

	// Authenticate prepares provider access for the user. An error means
	// the provider is skipped for this sync, not that the sync failed.
	Authenticate(ctx context.Context, u user.User) error

	// FetchRecentMatches lists up to limit recent matches, oldest first
	// for walked sources and provider order otherwise. Box-score detail
	// may be absent from listing rows.
	FetchRecentMatches(ctx context.Context, u user.User, limit int) ([]ExternalMatch, error)

	// FetchMatchDetails loads the full box score. ok=false means the
	// provider has no detail for this match; that is not an error.
	FetchMatchDetails(ctx context.Context, matchID, steamID string) (ExternalMatchDetail, bool, error)

	Close() error
}
