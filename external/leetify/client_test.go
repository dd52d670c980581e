package leetify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cstatsentry/backend/internal/domain/user"
	"github.com/cstatsentry/backend/internal/platform/logging"
)

func TestMapGameToExternalMatch_ShareCodeWins(t *testing.T) {
	t.Parallel()

	mapped, ok := mapGameToExternalMatch(gameItem{
		ID:         "leetify-abc",
		FinishedAt: 1710446400000,
		MapName:    "de_mirage",
		TeamScores: map[string]int{"A": 13, "B": 7},
		UserTeam:   "B",
		ShareCode:  "CSGO-GADqf-jjyJ8-cSP2r-smZRo-TO2xK",
	})
	if !ok {
		t.Fatalf("expected a mapped match")
	}
	if mapped.ID != "3230642215713767580" {
		t.Fatalf("share code should become the canonical id, got %q", mapped.ID)
	}
	if mapped.LeetifyID != "leetify-abc" {
		t.Fatalf("leetify id must be preserved, got %q", mapped.LeetifyID)
	}
	if mapped.UserTeam != 2 {
		t.Fatalf("team B must map to side 2, got %d", mapped.UserTeam)
	}
	if mapped.ScoreTeam1 != 13 || mapped.ScoreTeam2 != 7 {
		t.Fatalf("unexpected scores: %d-%d", mapped.ScoreTeam1, mapped.ScoreTeam2)
	}
	if mapped.DemoURL == "" {
		t.Fatalf("demo url must be derived from the share code")
	}
	if got := mapped.PlayedAt.Unix(); got != 1710446400 {
		t.Fatalf("ms timestamp not converted: %d", got)
	}
}

func TestMapGameToExternalMatch_NoShareCodeKeepsProviderID(t *testing.T) {
	t.Parallel()

	mapped, ok := mapGameToExternalMatch(gameItem{ID: "leetify-xyz", UserTeam: "weird"})
	if !ok {
		t.Fatalf("expected a mapped match")
	}
	if mapped.ID != "leetify-xyz" {
		t.Fatalf("provider id should stand in without a share code, got %q", mapped.ID)
	}
	if mapped.UserTeam != 1 {
		t.Fatalf("unknown team labels default to side 1, got %d", mapped.UserTeam)
	}
	if mapped.ShareCode != "" || mapped.DemoURL != "" {
		t.Fatalf("no share code means no demo url: %+v", mapped)
	}
}

func TestTeamNumber(t *testing.T) {
	t.Parallel()

	cases := map[string]int{"A": 1, "a": 1, "B": 2, "b": 2, "": 1, "CT": 1}
	for label, want := range cases {
		if got := teamNumber(label); got != want {
			t.Fatalf("teamNumber(%q) = %d, want %d", label, got, want)
		}
	}
}

func TestAuthenticateStoresPerUserToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/token" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-1"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Logger: logging.NewNop()})
	if err := client.Authenticate(context.Background(), user.User{SteamID: "765611"}); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if client.tokenFor("765611") != "tok-1" {
		t.Fatalf("token was not stored")
	}
	if client.tokenFor("other") != "" {
		t.Fatalf("tokens must not leak across users")
	}
}

func TestFetchMatchDetailsMapsNotFoundToAbsent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Logger: logging.NewNop()})
	client.mu.Lock()
	client.tokens["765611"] = "tok-1"
	client.mu.Unlock()

	_, found, err := client.FetchMatchDetails(context.Background(), "missing-game", "765611")
	if err != nil {
		t.Fatalf("404 must not be an error, got %v", err)
	}
	if found {
		t.Fatalf("404 must map to absent")
	}
}

func TestFetchRecentMatchesRequiresAuth(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{BaseURL: "http://localhost:1", Logger: logging.NewNop()})
	if _, err := client.FetchRecentMatches(context.Background(), user.User{SteamID: "765611"}, 5); err == nil {
		t.Fatalf("expected error without a bearer token")
	}
}

func TestSanitizeSensitiveText(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText(`dial failed Authorization: Bearer tok-secret`, "tok-secret")
	if got != "dial failed Authorization: Bearer REDACTED" {
		t.Fatalf("token not redacted: %q", got)
	}
}
