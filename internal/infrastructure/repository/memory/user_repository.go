package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cstatsentry/backend/internal/domain/user"
)

// UserRepository is the dev-mode in-memory store. Not for production.
type UserRepository struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{items: make(map[string]user.User)}
}

func (r *UserRepository) GetBySteamID(_ context.Context, steamID string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[steamID]
	return item, ok, nil
}

func (r *UserRepository) Upsert(_ context.Context, item user.User) error {
	steamID := strings.TrimSpace(item.SteamID)
	if steamID == "" {
		return fmt.Errorf("steam id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item.SteamID = steamID
	r.items[steamID] = item
	return nil
}

func (r *UserRepository) ListSyncEnabled(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]user.User, 0, len(r.items))
	for _, item := range r.items {
		if item.SyncEnabled {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SteamID < out[j].SteamID })
	return out, nil
}

func (r *UserRepository) SetSyncEnabled(_ context.Context, steamID string, enabled bool) error {
	return r.update(steamID, func(item *user.User) {
		item.SyncEnabled = enabled
	})
}

func (r *UserRepository) UpdateSteamAuth(_ context.Context, steamID, authCode, lastShareCode string) error {
	return r.update(steamID, func(item *user.User) {
		item.SteamAuthCode = authCode
		item.LastMatchShareCode = lastShareCode
	})
}

func (r *UserRepository) SetLastMatchShareCode(_ context.Context, steamID, shareCode string) error {
	return r.update(steamID, func(item *user.User) {
		item.LastMatchShareCode = shareCode
	})
}

func (r *UserRepository) TouchLastSync(_ context.Context, steamID string, at time.Time) error {
	at = at.UTC()
	return r.update(steamID, func(item *user.User) {
		item.LastSync = &at
	})
}

func (r *UserRepository) update(steamID string, apply func(*user.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[steamID]
	if !ok {
		return nil
	}
	apply(&item)
	item.UpdatedAt = time.Now().UTC()
	r.items[steamID] = item
	return nil
}
