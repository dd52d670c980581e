package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cstatsentry/backend/internal/domain/user"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userSelectColumns = `steam_id, steam_name, avatar_url, steam_auth_code, last_match_share_code, sync_enabled, last_sync, created_at, updated_at`

func (r *UserRepository) GetBySteamID(ctx context.Context, steamID string) (user.User, bool, error) {
	var row userTableModel
	query := `SELECT ` + userSelectColumns + ` FROM users WHERE steam_id = $1`
	if err := r.db.GetContext(ctx, &row, query, steamID); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("select user steam_id=%s: %w", steamID, err)
	}
	return mapUserRow(row), true, nil
}

func (r *UserRepository) Upsert(ctx context.Context, item user.User) error {
	steamID := strings.TrimSpace(item.SteamID)
	if steamID == "" {
		return fmt.Errorf("steam id is required")
	}

	query := `INSERT INTO users (steam_id, steam_name, avatar_url, steam_auth_code, last_match_share_code, sync_enabled, last_sync, created_at, updated_at)
VALUES (:steam_id, :steam_name, :avatar_url, :steam_auth_code, :last_match_share_code, :sync_enabled, :last_sync, :created_at, :updated_at)
ON CONFLICT (steam_id) DO UPDATE SET
    steam_name = EXCLUDED.steam_name,
    avatar_url = EXCLUDED.avatar_url,
    steam_auth_code = EXCLUDED.steam_auth_code,
    last_match_share_code = EXCLUDED.last_match_share_code,
    sync_enabled = EXCLUDED.sync_enabled,
    updated_at = EXCLUDED.updated_at`

	model := userTableModel{
		SteamID:            steamID,
		SteamName:          item.SteamName,
		AvatarURL:          item.AvatarURL,
		SteamAuthCode:      item.SteamAuthCode,
		LastMatchShareCode: item.LastMatchShareCode,
		SyncEnabled:        item.SyncEnabled,
		LastSync:           item.LastSync,
		CreatedAt:          defaultTime(item.CreatedAt),
		UpdatedAt:          defaultTime(item.UpdatedAt),
	}
	if _, err := r.db.NamedExecContext(ctx, query, model); err != nil {
		return fmt.Errorf("upsert user steam_id=%s: %w", steamID, err)
	}
	return nil
}

func (r *UserRepository) ListSyncEnabled(ctx context.Context) ([]user.User, error) {
	var rows []userTableModel
	query := `SELECT ` + userSelectColumns + ` FROM users WHERE sync_enabled ORDER BY steam_id`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select sync-enabled users: %w", err)
	}

	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapUserRow(row))
	}
	return out, nil
}

func (r *UserRepository) SetSyncEnabled(ctx context.Context, steamID string, enabled bool) error {
	query := `UPDATE users SET sync_enabled = $2, updated_at = NOW() WHERE steam_id = $1`
	if _, err := r.db.ExecContext(ctx, query, steamID, enabled); err != nil {
		return fmt.Errorf("update sync enabled steam_id=%s: %w", steamID, err)
	}
	return nil
}

func (r *UserRepository) UpdateSteamAuth(ctx context.Context, steamID, authCode, lastShareCode string) error {
	query := `UPDATE users SET steam_auth_code = $2, last_match_share_code = $3, updated_at = NOW() WHERE steam_id = $1`
	if _, err := r.db.ExecContext(ctx, query, steamID, authCode, lastShareCode); err != nil {
		return fmt.Errorf("update steam auth steam_id=%s: %w", steamID, err)
	}
	return nil
}

func (r *UserRepository) SetLastMatchShareCode(ctx context.Context, steamID, shareCode string) error {
	query := `UPDATE users SET last_match_share_code = $2, updated_at = NOW() WHERE steam_id = $1`
	if _, err := r.db.ExecContext(ctx, query, steamID, shareCode); err != nil {
		return fmt.Errorf("update last match share code steam_id=%s: %w", steamID, err)
	}
	return nil
}

func (r *UserRepository) TouchLastSync(ctx context.Context, steamID string, at time.Time) error {
	query := `UPDATE users SET last_sync = $2, updated_at = NOW() WHERE steam_id = $1`
	if _, err := r.db.ExecContext(ctx, query, steamID, at.UTC()); err != nil {
		return fmt.Errorf("touch last sync steam_id=%s: %w", steamID, err)
	}
	return nil
}

func mapUserRow(row userTableModel) user.User {
	return user.User{
		SteamID:            row.SteamID,
		SteamName:          row.SteamName,
		AvatarURL:          row.AvatarURL,
		SteamAuthCode:      row.SteamAuthCode,
		LastMatchShareCode: row.LastMatchShareCode,
		SyncEnabled:        row.SyncEnabled,
		LastSync:           row.LastSync,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

func defaultTime(value time.Time) time.Time {
	if value.IsZero() {
		return time.Now().UTC()
	}
	return value.UTC()
}
