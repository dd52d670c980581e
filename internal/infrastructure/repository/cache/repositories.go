package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/cstatsentry/backend/internal/domain/match"
	"github.com/cstatsentry/backend/internal/domain/teammate"
	basecache "github.com/cstatsentry/backend/internal/platform/cache"
)

// MatchRepository is a read-through cache in front of the match store.
// Matches are immutable once ingested, so entries only need invalidation
// on inserts (the per-user list keys) and scoreboard upserts.
type MatchRepository struct {
	next  match.Repository
	cache *basecache.Store
}

func NewMatchRepository(next match.Repository, cache *basecache.Store) *MatchRepository {
	return &MatchRepository{next: next, cache: cache}
}

func (r *MatchRepository) Exists(ctx context.Context, matchID string) (bool, error) {
	return r.next.Exists(ctx, matchID)
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	key := "match:id:" + matchID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, matchID)
		if err != nil {
			return nil, err
		}
		return cachedMatchByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return match.Match{}, false, err
	}

	cached, _ := v.(cachedMatchByID)
	return cached.value, cached.exists, nil
}

type cachedMatchByID struct {
	value  match.Match
	exists bool
}

func (r *MatchRepository) Insert(ctx context.Context, item match.Match) error {
	if err := r.next.Insert(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, "match:id:"+item.ID)
	r.cache.DeletePrefix(ctx, "match:user:"+item.UserSteamID+":")
	return nil
}

func (r *MatchRepository) MarkProcessed(ctx context.Context, matchID string) error {
	if err := r.next.MarkProcessed(ctx, matchID); err != nil {
		return err
	}
	r.cache.Delete(ctx, "match:id:"+matchID)
	return nil
}

func (r *MatchRepository) ListByUser(ctx context.Context, steamID string, limit, offset int) ([]match.Match, error) {
	key := "match:user:" + steamID + ":list:" + strconv.Itoa(limit) + ":" + strconv.Itoa(offset)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByUser(ctx, steamID, limit, offset)
		if err != nil {
			return nil, err
		}
		return append([]match.Match(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]match.Match)
	return append([]match.Match(nil), items...), nil
}

func (r *MatchRepository) CountByUser(ctx context.Context, steamID string) (int, error) {
	key := "match:user:" + steamID + ":count"
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return r.next.CountByUser(ctx, steamID)
	})
	if err != nil {
		return 0, err
	}

	count, _ := v.(int)
	return count, nil
}

func (r *MatchRepository) UpsertPlayers(ctx context.Context, matchID string, rows []match.PlayerStat) error {
	if err := r.next.UpsertPlayers(ctx, matchID, rows); err != nil {
		return err
	}
	r.cache.Delete(ctx, "match:players:"+matchID)
	return nil
}

func (r *MatchRepository) ListPlayers(ctx context.Context, matchID string) ([]match.PlayerStat, error) {
	key := "match:players:" + matchID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		rows, err := r.next.ListPlayers(ctx, matchID)
		if err != nil {
			return nil, err
		}
		return append([]match.PlayerStat(nil), rows...), nil
	})
	if err != nil {
		return nil, err
	}

	rows, _ := v.([]match.PlayerStat)
	return append([]match.PlayerStat(nil), rows...), nil
}

// TeammateRepository caches the played-with rankings, which the frontend
// polls far more often than syncs rewrite them.
type TeammateRepository struct {
	next  teammate.Repository
	cache *basecache.Store
}

func NewTeammateRepository(next teammate.Repository, cache *basecache.Store) *TeammateRepository {
	return &TeammateRepository{next: next, cache: cache}
}

func (r *TeammateRepository) RecordMatchTogether(ctx context.Context, userSteamID, playerSteamID string, seenAt time.Time) error {
	if err := r.next.RecordMatchTogether(ctx, userSteamID, playerSteamID, seenAt); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "teammate:user:"+userSteamID+":")
	return nil
}

func (r *TeammateRepository) ListByUser(ctx context.Context, userSteamID string, limit int) ([]teammate.Teammate, error) {
	key := "teammate:user:" + userSteamID + ":list:" + strconv.Itoa(limit)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByUser(ctx, userSteamID, limit)
		if err != nil {
			return nil, err
		}
		return append([]teammate.Teammate(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]teammate.Teammate)
	return append([]teammate.Teammate(nil), items...), nil
}
