package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cstatsentry/backend/internal/domain/teammate"
)

type TeammateRepository struct {
	mu    sync.RWMutex
	items map[string]teammate.Teammate
}

func NewTeammateRepository() *TeammateRepository {
	return &TeammateRepository{items: make(map[string]teammate.Teammate)}
}

func (r *TeammateRepository) RecordMatchTogether(_ context.Context, userSteamID, playerSteamID string, seenAt time.Time) error {
	userSteamID = strings.TrimSpace(userSteamID)
	playerSteamID = strings.TrimSpace(playerSteamID)
	if userSteamID == "" || playerSteamID == "" {
		return fmt.Errorf("user and player steam ids are required")
	}
	if userSteamID == playerSteamID {
		return fmt.Errorf("a user cannot be their own teammate")
	}

	key := userSteamID + "/" + playerSteamID
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[key]
	if !ok {
		r.items[key] = teammate.Teammate{
			UserSteamID:      userSteamID,
			PlayerSteamID:    playerSteamID,
			MatchesTogether:  1,
			FirstSeen:        seenAt,
			LastSeen:         seenAt,
			RelationshipType: teammate.RelationshipTeammate,
		}
		return nil
	}

	item.MatchesTogether++
	if seenAt.Before(item.FirstSeen) {
		item.FirstSeen = seenAt
	}
	if seenAt.After(item.LastSeen) {
		item.LastSeen = seenAt
	}
	r.items[key] = item
	return nil
}

func (r *TeammateRepository) ListByUser(_ context.Context, userSteamID string, limit int) ([]teammate.Teammate, error) {
	if limit <= 0 {
		limit = 50
	}

	r.mu.RLock()
	out := make([]teammate.Teammate, 0, len(r.items))
	for _, item := range r.items {
		if item.UserSteamID == userSteamID {
			out = append(out, item)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchesTogether != out[j].MatchesTogether {
			return out[i].MatchesTogether > out[j].MatchesTogether
		}
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
