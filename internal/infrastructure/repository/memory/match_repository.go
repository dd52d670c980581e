package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cstatsentry/backend/internal/domain/match"
)

type MatchRepository struct {
	mu      sync.RWMutex
	items   map[string]match.Match
	players map[string][]match.PlayerStat
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{
		items:   make(map[string]match.Match),
		players: make(map[string][]match.PlayerStat),
	}
}

func (r *MatchRepository) Exists(_ context.Context, matchID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[matchID]
	return ok, nil
}

func (r *MatchRepository) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[matchID]
	return item, ok, nil
}

func (r *MatchRepository) Insert(_ context.Context, item match.Match) error {
	matchID := strings.TrimSpace(item.ID)
	if matchID == "" {
		return fmt.Errorf("match id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[matchID]; ok {
		return match.ErrDuplicate
	}
	item.ID = matchID
	r.items[matchID] = item
	return nil
}

func (r *MatchRepository) MarkProcessed(_ context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[matchID]
	if !ok {
		return nil
	}
	item.Processed = true
	r.items[matchID] = item
	return nil
}

func (r *MatchRepository) ListByUser(_ context.Context, steamID string, limit, offset int) ([]match.Match, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	all := make([]match.Match, 0, len(r.items))
	for _, item := range r.items {
		if item.UserSteamID == steamID {
			all = append(all, item)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].PlayedAt.Equal(all[j].PlayedAt) {
			return all[i].PlayedAt.After(all[j].PlayedAt)
		}
		return all[i].ID > all[j].ID
	})

	if offset >= len(all) {
		return []match.Match{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *MatchRepository) CountByUser(_ context.Context, steamID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, item := range r.items {
		if item.UserSteamID == steamID {
			count++
		}
	}
	return count, nil
}

func (r *MatchRepository) UpsertPlayers(_ context.Context, matchID string, rows []match.PlayerStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.players[matchID]
	byPlayer := make(map[string]int, len(existing))
	for i, row := range existing {
		byPlayer[row.SteamID] = i
	}
	for _, row := range rows {
		if strings.TrimSpace(row.SteamID) == "" {
			continue
		}
		row.MatchID = matchID
		if idx, ok := byPlayer[row.SteamID]; ok {
			existing[idx] = row
			continue
		}
		byPlayer[row.SteamID] = len(existing)
		existing = append(existing, row)
	}
	r.players[matchID] = existing
	return nil
}

func (r *MatchRepository) ListPlayers(_ context.Context, matchID string) ([]match.PlayerStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]match.PlayerStat, len(r.players[matchID]))
	copy(out, r.players[matchID])
	return out, nil
}
