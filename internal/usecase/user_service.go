package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cstatsentry/backend/internal/domain/sharecode"
	"github.com/cstatsentry/backend/internal/domain/user"
	"github.com/cstatsentry/backend/internal/platform/logging"
)

type RegisterUserInput struct {
	SteamID            string `json:"steam_id" validate:"required"`
	SteamName          string `json:"steam_name"`
	AvatarURL          string `json:"avatar_url"`
	SteamAuthCode      string `json:"steam_auth_code"`
	LastMatchShareCode string `json:"last_match_share_code"`
}

type UpdateSteamAuthInput struct {
	SteamAuthCode      string `json:"steam_auth_code" validate:"required"`
	LastMatchShareCode string `json:"last_match_share_code" validate:"required"`
}

// UserService covers registration and sync settings.
type UserService struct {
	users  user.Repository
	logger *logging.Logger
	now    func() time.Time
}

func NewUserService(users user.Repository, logger *logging.Logger) *UserService {
	if logger == nil {
		logger = logging.Default()
	}
	return &UserService{
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

// Register creates or refreshes a tracked user. Re-registering an
// existing user updates profile fields and keeps sync state.
func (s *UserService) Register(ctx context.Context, input RegisterUserInput) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.Register")
	defer span.End()

	steamID := strings.TrimSpace(input.SteamID)
	if steamID == "" {
		return user.User{}, fmt.Errorf("%w: steam_id is required", ErrInvalidInput)
	}
	if code := strings.TrimSpace(input.LastMatchShareCode); code != "" {
		if err := sharecode.Validate(code); err != nil {
			return user.User{}, fmt.Errorf("%w: last_match_share_code: %s", ErrInvalidInput, err.Error())
		}
	}

	now := s.now().UTC()
	item, found, err := s.users.GetBySteamID(ctx, steamID)
	if err != nil {
		return user.User{}, fmt.Errorf("load user steam_id=%s: %w", steamID, err)
	}
	if !found {
		item = user.User{
			SteamID:     steamID,
			SyncEnabled: true,
			CreatedAt:   now,
		}
	}

	if name := strings.TrimSpace(input.SteamName); name != "" {
		item.SteamName = name
	}
	if avatar := strings.TrimSpace(input.AvatarURL); avatar != "" {
		item.AvatarURL = avatar
	}
	if code := strings.TrimSpace(input.SteamAuthCode); code != "" {
		item.SteamAuthCode = code
	}
	if code := strings.TrimSpace(input.LastMatchShareCode); code != "" {
		item.LastMatchShareCode = code
	}
	item.UpdatedAt = now

	if err := s.users.Upsert(ctx, item); err != nil {
		return user.User{}, fmt.Errorf("upsert user steam_id=%s: %w", steamID, err)
	}
	return item, nil
}

func (s *UserService) GetUser(ctx context.Context, steamID string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.GetUser")
	defer span.End()

	steamID = strings.TrimSpace(steamID)
	if steamID == "" {
		return user.User{}, fmt.Errorf("%w: steam_id is required", ErrInvalidInput)
	}
	item, found, err := s.users.GetBySteamID(ctx, steamID)
	if err != nil {
		return user.User{}, fmt.Errorf("load user steam_id=%s: %w", steamID, err)
	}
	if !found {
		return user.User{}, fmt.Errorf("%w: user steam_id=%s", ErrNotFound, steamID)
	}
	return item, nil
}

// UpdateSteamAuth stores the match-history auth code and resume share
// code the Steam walker needs. The share code must decode cleanly.
func (s *UserService) UpdateSteamAuth(ctx context.Context, steamID string, input UpdateSteamAuthInput) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.UpdateSteamAuth")
	defer span.End()

	steamID = strings.TrimSpace(steamID)
	authCode := strings.TrimSpace(input.SteamAuthCode)
	shareCode := strings.TrimSpace(input.LastMatchShareCode)
	if steamID == "" {
		return user.User{}, fmt.Errorf("%w: steam_id is required", ErrInvalidInput)
	}
	if authCode == "" || shareCode == "" {
		return user.User{}, fmt.Errorf("%w: steam_auth_code and last_match_share_code are required", ErrInvalidInput)
	}
	if err := sharecode.Validate(shareCode); err != nil {
		return user.User{}, fmt.Errorf("%w: last_match_share_code: %s", ErrInvalidInput, err.Error())
	}

	if _, found, err := s.users.GetBySteamID(ctx, steamID); err != nil {
		return user.User{}, fmt.Errorf("load user steam_id=%s: %w", steamID, err)
	} else if !found {
		return user.User{}, fmt.Errorf("%w: user steam_id=%s", ErrNotFound, steamID)
	}

	if err := s.users.UpdateSteamAuth(ctx, steamID, authCode, shareCode); err != nil {
		return user.User{}, fmt.Errorf("update steam auth steam_id=%s: %w", steamID, err)
	}
	return s.GetUser(ctx, steamID)
}

func (s *UserService) SetSyncEnabled(ctx context.Context, steamID string, enabled bool) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.SetSyncEnabled")
	defer span.End()

	steamID = strings.TrimSpace(steamID)
	if steamID == "" {
		return user.User{}, fmt.Errorf("%w: steam_id is required", ErrInvalidInput)
	}
	if _, found, err := s.users.GetBySteamID(ctx, steamID); err != nil {
		return user.User{}, fmt.Errorf("load user steam_id=%s: %w", steamID, err)
	} else if !found {
		return user.User{}, fmt.Errorf("%w: user steam_id=%s", ErrNotFound, steamID)
	}

	if err := s.users.SetSyncEnabled(ctx, steamID, enabled); err != nil {
		return user.User{}, fmt.Errorf("set sync enabled steam_id=%s: %w", steamID, err)
	}
	return s.GetUser(ctx, steamID)
}
