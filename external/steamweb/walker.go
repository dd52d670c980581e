package steamweb

import (
	"context"

	"github.com/cstatsentry/backend/internal/domain/sharecode"
	"github.com/cstatsentry/backend/internal/platform/logging"
)

// MatchReference is one walked entry of a user's match history chain.
type MatchReference struct {
	ShareCode string
	MatchID   uint64
	OutcomeID uint64
	Token     uint16
	DemoURL   string
}

// NextCodeSource is the one Steam operation the walker needs.
type NextCodeSource interface {
	GetNextMatchSharingCode(ctx context.Context, steamID, authCode, knownCode string) (string, bool, error)
}

// Walker follows the "next share code" chain from a known starting
// point. Each Walk call starts fresh from the supplied code; nothing is
// resumed across calls.
type Walker struct {
	source NextCodeSource
	logger *logging.Logger
}

func NewWalker(source NextCodeSource, logger *logging.Logger) *Walker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Walker{source: source, logger: logger}
}

// Walk collects up to limit unprocessed matches newer than startCode,
// oldest first. A remote failure or an undecodable code ends the walk;
// whatever was collected so far is a valid result.
func (w *Walker) Walk(ctx context.Context, steamID, authCode, startCode string, limit int) []MatchReference {
	if limit <= 0 {
		return nil
	}

	out := make([]MatchReference, 0, limit)
	current := startCode
	for len(out) < limit {
		next, ok, err := w.source.GetNextMatchSharingCode(ctx, steamID, authCode, current)
		if err != nil {
			w.logger.WarnContext(ctx, "match history walk stopped on remote failure",
				"steam_id", steamID,
				"collected", len(out),
				"error", err,
			)
			break
		}
		if !ok {
			break
		}

		decoded, err := sharecode.Decode(next)
		if err != nil {
			w.logger.WarnContext(ctx, "match history walk stopped on undecodable code",
				"steam_id", steamID,
				"collected", len(out),
				"error", err,
			)
			break
		}

		out = append(out, MatchReference{
			ShareCode: next,
			MatchID:   decoded.MatchID,
			OutcomeID: decoded.OutcomeID,
			Token:     decoded.Token,
			DemoURL:   sharecode.DemoURL(decoded.MatchID, decoded.OutcomeID, sharecode.DefaultDemoServer),
		})
		current = next
	}

	return out
}
