package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/cstatsentry/backend/internal/domain/match"
	"github.com/cstatsentry/backend/internal/domain/user"
	"github.com/cstatsentry/backend/internal/platform/logging"
)

func newStatsServiceForTest(users *stubUserRepo, matches *stubMatchRepo) *StatsService {
	return NewStatsService(users, matches, newStubTeammateRepo(), logging.NewNop())
}

func TestListUserMatches(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo(user.User{SteamID: "765611"})
	matches := newStubMatchRepo()
	matches.rows["m1"] = match.Match{ID: "m1", UserSteamID: "765611"}
	matches.rows["m2"] = match.Match{ID: "m2", UserSteamID: "765611"}
	matches.rows["m3"] = match.Match{ID: "m3", UserSteamID: "other"}

	svc := newStatsServiceForTest(users, matches)
	page, err := svc.ListUserMatches(context.Background(), "765611", 0, -5)
	if err != nil {
		t.Fatalf("ListUserMatches returned error: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: total=%d items=%d", page.Total, len(page.Items))
	}
	if page.Limit != defaultMatchPageSize || page.Offset != 0 {
		t.Fatalf("paging defaults not applied: limit=%d offset=%d", page.Limit, page.Offset)
	}
}

func TestListUserMatchesUnknownUser(t *testing.T) {
	t.Parallel()

	svc := newStatsServiceForTest(newStubUserRepo(), newStubMatchRepo())
	if _, err := svc.ListUserMatches(context.Background(), "nope", 10, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetMatchWithPlayers(t *testing.T) {
	t.Parallel()

	matches := newStubMatchRepo()
	matches.rows["m1"] = match.Match{ID: "m1", UserSteamID: "765611", MapName: "de_inferno"}
	matches.players["m1"] = []match.PlayerStat{{MatchID: "m1", SteamID: "765611", Kills: 25}}

	svc := newStatsServiceForTest(newStubUserRepo(), matches)
	detail, err := svc.GetMatch(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetMatch returned error: %v", err)
	}
	if detail.Match.MapName != "de_inferno" {
		t.Fatalf("unexpected match: %+v", detail.Match)
	}
	if len(detail.Players) != 1 || detail.Players[0].Kills != 25 {
		t.Fatalf("unexpected players: %+v", detail.Players)
	}
}

func TestGetMatchNotFound(t *testing.T) {
	t.Parallel()

	svc := newStatsServiceForTest(newStubUserRepo(), newStubMatchRepo())
	if _, err := svc.GetMatch(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveShareCode(t *testing.T) {
	t.Parallel()

	svc := newStatsServiceForTest(newStubUserRepo(), newStubMatchRepo())
	info, err := svc.ResolveShareCode(context.Background(), "CSGO-GADqf-jjyJ8-cSP2r-smZRo-TO2xK")
	if err != nil {
		t.Fatalf("ResolveShareCode returned error: %v", err)
	}
	if info.MatchID != 3230642215713767580 || info.OutcomeID != 3230647599455273103 || info.Token != 55788 {
		t.Fatalf("unexpected decode: %+v", info)
	}
	want := "http://replay124.valve.net/730/003230642215713767580_3230647599455273103.dem.bz2"
	if info.DemoURL != want {
		t.Fatalf("unexpected demo url: %q", info.DemoURL)
	}
}

func TestResolveShareCodeInvalid(t *testing.T) {
	t.Parallel()

	svc := newStatsServiceForTest(newStubUserRepo(), newStubMatchRepo())
	if _, err := svc.ResolveShareCode(context.Background(), "CSGO-U6MWi-5cZMJ-VsXtM-yrOwD-g8BJJ"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetUserProfile(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo(user.User{SteamID: "765611", SteamName: "awper"})
	matches := newStubMatchRepo()
	matches.rows["m1"] = match.Match{ID: "m1", UserSteamID: "765611"}
	matches.rows["m2"] = match.Match{ID: "m2", UserSteamID: "765611"}

	svc := newStatsServiceForTest(users, matches)
	profile, err := svc.GetUserProfile(context.Background(), "765611")
	if err != nil {
		t.Fatalf("GetUserProfile returned error: %v", err)
	}
	if profile.User.SteamName != "awper" {
		t.Fatalf("unexpected user: %+v", profile.User)
	}
	if profile.TotalMatches != 2 {
		t.Fatalf("unexpected total matches: %d", profile.TotalMatches)
	}
}

func TestGetUserProfileUnknownUser(t *testing.T) {
	t.Parallel()

	svc := newStatsServiceForTest(newStubUserRepo(), newStubMatchRepo())
	if _, err := svc.GetUserProfile(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
