package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/cstatsentry/backend/internal/domain/match"
	"github.com/cstatsentry/backend/internal/domain/user"
	"github.com/cstatsentry/backend/internal/platform/logging"
)

func TestSyncAllUsersSweepsEnabledUsers(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo(
		user.User{SteamID: "765611", SyncEnabled: true},
		user.User{SteamID: "765622", SyncEnabled: true},
		user.User{SteamID: "765633", SyncEnabled: false},
	)
	provider := &stubProvider{
		name:    match.SourceLeetify,
		matches: []ExternalMatch{{ID: "m1", Source: match.SourceLeetify}},
	}
	syncSvc, _, _ := newSyncServiceForTest(users, newStubMatchRepo(), provider)
	sweep := NewSweepService(SweepConfig{Enabled: true, MaxConcurrency: 2}, users, syncSvc, logging.NewNop())

	result, err := sweep.SyncAllUsers(context.Background())
	if err != nil {
		t.Fatalf("SyncAllUsers returned error: %v", err)
	}
	if result.UsersTotal != 2 {
		t.Fatalf("disabled users must not be swept: total=%d", result.UsersTotal)
	}
	if result.UsersSynced != 2 || result.UsersFailed != 0 {
		t.Fatalf("unexpected sweep outcome: %+v", result)
	}
}

func TestSyncAllUsersRecordsFailures(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo(user.User{SteamID: "765611", SyncEnabled: true})
	// A sync service with no providers fails per user but never aborts the sweep.
	broken := NewSyncService(
		SyncConfig{Enabled: true},
		users, newStubMatchRepo(), nil, nil, nil, logging.NewNop(),
	)
	sweep := NewSweepService(SweepConfig{Enabled: true}, users, broken, logging.NewNop())

	result, err := sweep.SyncAllUsers(context.Background())
	if err != nil {
		t.Fatalf("SyncAllUsers returned error: %v", err)
	}
	if result.UsersFailed != 1 || len(result.Failures) != 1 {
		t.Fatalf("expected 1 recorded failure, got %+v", result)
	}
	if result.Failures[0].SteamID != "765611" {
		t.Fatalf("unexpected failure row: %+v", result.Failures[0])
	}
}

func TestSyncAllUsersDisabled(t *testing.T) {
	t.Parallel()

	sweep := NewSweepService(SweepConfig{Enabled: false}, newStubUserRepo(), nil, logging.NewNop())
	if _, err := sweep.SyncAllUsers(context.Background()); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}
