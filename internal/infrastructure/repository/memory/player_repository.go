package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cstatsentry/backend/internal/domain/player"
)

type PlayerRepository struct {
	mu    sync.RWMutex
	items map[string]player.Player
}

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{items: make(map[string]player.Player)}
}

func (r *PlayerRepository) GetBySteamID(_ context.Context, steamID string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[steamID]
	return item, ok, nil
}

func (r *PlayerRepository) Upsert(_ context.Context, item player.Player) error {
	steamID := strings.TrimSpace(item.SteamID)
	if steamID == "" {
		return fmt.Errorf("steam id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[steamID]
	if !ok {
		item.SteamID = steamID
		r.items[steamID] = item
		return nil
	}

	if item.Name != "" {
		existing.Name = item.Name
	}
	if item.AvatarURL != "" {
		existing.AvatarURL = item.AvatarURL
	}
	if item.FirstSeen.Before(existing.FirstSeen) {
		existing.FirstSeen = item.FirstSeen
	}
	if item.LastSeen.After(existing.LastSeen) {
		existing.LastSeen = item.LastSeen
	}
	r.items[steamID] = existing
	return nil
}
