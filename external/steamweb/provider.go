package steamweb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cstatsentry/backend/internal/domain/match"
	"github.com/cstatsentry/backend/internal/domain/user"
	"github.com/cstatsentry/backend/internal/platform/logging"
	"github.com/cstatsentry/backend/internal/usecase"
)

// Provider is the Steam match source. Listing comes from the share code
// walker; box scores require demo parsing, which this source does not do.
type Provider struct {
	walker *Walker
	logger *logging.Logger
}

func NewProvider(client *Client, logger *logging.Logger) *Provider {
	if logger == nil {
		logger = logging.Default()
	}
	return &Provider{
		walker: NewWalker(client, logger),
		logger: logger,
	}
}

func (p *Provider) Name() string {
	return match.SourceSteam
}

// Authenticate fails closed unless the user supplied both the match
// history auth code and a starting share code. There is no fallback.
func (p *Provider) Authenticate(_ context.Context, u user.User) error {
	if !u.CanWalkMatchHistory() {
		return fmt.Errorf("steam match history requires an auth code and a starting share code")
	}
	return nil
}

func (p *Provider) FetchRecentMatches(ctx context.Context, u user.User, limit int) ([]usecase.ExternalMatch, error) {
	if !u.CanWalkMatchHistory() {
		return nil, fmt.Errorf("steam match history requires an auth code and a starting share code")
	}

	refs := p.walker.Walk(ctx, u.SteamID, u.SteamAuthCode, u.LastMatchShareCode, limit)
	out := make([]usecase.ExternalMatch, 0, len(refs))
	for _, ref := range refs {
		out = append(out, usecase.ExternalMatch{
			ID:        strconv.FormatUint(ref.MatchID, 10),
			Source:    match.SourceSteam,
			ShareCode: ref.ShareCode,
			Walked:    true,
			DemoURL:   ref.DemoURL,
			// Walked rows carry no map, score or date. Those come from demo
			// parsing, which sits behind a separate processing pipeline.
			HasDetails: false,
		})
	}
	return out, nil
}

// FetchMatchDetails is an extension point for demo-based enrichment.
// Until the demo pipeline lands, every match is detail-absent.
func (p *Provider) FetchMatchDetails(_ context.Context, _, _ string) (usecase.ExternalMatchDetail, bool, error) {
	return usecase.ExternalMatchDetail{}, false, nil
}

func (p *Provider) Close() error {
	return nil
}
