package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/cstatsentry/backend/internal/domain/user"
	"github.com/cstatsentry/backend/internal/platform/logging"
)

func TestRegisterCreatesUserWithSyncEnabled(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo()
	svc := NewUserService(users, logging.NewNop())

	item, err := svc.Register(context.Background(), RegisterUserInput{
		SteamID:   "765611",
		SteamName: "player one",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if !item.SyncEnabled {
		t.Fatalf("new users must default to sync enabled")
	}
	if item.SteamName != "player one" {
		t.Fatalf("unexpected name: %q", item.SteamName)
	}
	if _, found, _ := users.GetBySteamID(context.Background(), "765611"); !found {
		t.Fatalf("user was not persisted")
	}
}

func TestRegisterKeepsExistingSyncState(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo(user.User{SteamID: "765611", SteamName: "old", SyncEnabled: false})
	svc := NewUserService(users, logging.NewNop())

	item, err := svc.Register(context.Background(), RegisterUserInput{
		SteamID:   "765611",
		SteamName: "new",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if item.SyncEnabled {
		t.Fatalf("re-registering must not flip sync back on")
	}
	if item.SteamName != "new" {
		t.Fatalf("profile fields should refresh: %q", item.SteamName)
	}
}

func TestRegisterRejectsMalformedShareCode(t *testing.T) {
	t.Parallel()

	svc := NewUserService(newStubUserRepo(), logging.NewNop())
	_, err := svc.Register(context.Background(), RegisterUserInput{
		SteamID:            "765611",
		LastMatchShareCode: "CSGO-U6MWi-5cZMJ-VsXtM-yrOwD-g8BJJ",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateSteamAuth(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo(user.User{SteamID: "765611", SyncEnabled: true})
	svc := NewUserService(users, logging.NewNop())

	item, err := svc.UpdateSteamAuth(context.Background(), "765611", UpdateSteamAuthInput{
		SteamAuthCode:      "AAAA-AAAAA-AAAA",
		LastMatchShareCode: "CSGO-GADqf-jjyJ8-cSP2r-smZRo-TO2xK",
	})
	if err != nil {
		t.Fatalf("UpdateSteamAuth returned error: %v", err)
	}
	if !item.CanWalkMatchHistory() {
		t.Fatalf("user should be walkable after auth update")
	}
}

func TestUpdateSteamAuthValidatesShareCode(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo(user.User{SteamID: "765611"})
	svc := NewUserService(users, logging.NewNop())

	_, err := svc.UpdateSteamAuth(context.Background(), "765611", UpdateSteamAuthInput{
		SteamAuthCode:      "AAAA-AAAAA-AAAA",
		LastMatchShareCode: "not-a-code",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateSteamAuthUnknownUser(t *testing.T) {
	t.Parallel()

	svc := NewUserService(newStubUserRepo(), logging.NewNop())
	_, err := svc.UpdateSteamAuth(context.Background(), "nope", UpdateSteamAuthInput{
		SteamAuthCode:      "AAAA-AAAAA-AAAA",
		LastMatchShareCode: "CSGO-GADqf-jjyJ8-cSP2r-smZRo-TO2xK",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetSyncEnabled(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo(user.User{SteamID: "765611", SyncEnabled: true})
	svc := NewUserService(users, logging.NewNop())

	item, err := svc.SetSyncEnabled(context.Background(), "765611", false)
	if err != nil {
		t.Fatalf("SetSyncEnabled returned error: %v", err)
	}
	if item.SyncEnabled {
		t.Fatalf("sync should be disabled")
	}
}
