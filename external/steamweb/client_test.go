package steamweb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cstatsentry/backend/internal/platform/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{BaseURL: server.URL, APIKey: "test-key", Logger: logging.NewNop()})
}

func TestGetNextMatchSharingCode(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != nextCodePath {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("key") != "test-key" || query.Get("steamid") != "765611" ||
			query.Get("steamidkey") != "auth" || query.Get("knowncode") != codeA {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"nextcode":"` + codeB + `"}}`))
	})

	next, ok, err := client.GetNextMatchSharingCode(context.Background(), "765611", "auth", codeA)
	if err != nil {
		t.Fatalf("GetNextMatchSharingCode returned error: %v", err)
	}
	if !ok || next != codeB {
		t.Fatalf("unexpected result: ok=%v next=%q", ok, next)
	}
}

func TestGetNextMatchSharingCodeExhausted(t *testing.T) {
	t.Parallel()

	bodies := []string{
		`{"result":{"nextcode":"n/a"}}`,
		`{"result":{"nextcode":null}}`,
		`{"result":{"nextcode":""}}`,
		`{"result":{}}`,
	}
	for _, body := range bodies {
		body := body
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("content-type", "application/json")
			_, _ = w.Write([]byte(body))
		})

		_, ok, err := client.GetNextMatchSharingCode(context.Background(), "765611", "auth", codeA)
		if err != nil {
			t.Fatalf("body %s: unexpected error: %v", body, err)
		}
		if ok {
			t.Fatalf("body %s: expected exhausted chain", body)
		}
	}
}

func TestGetNextMatchSharingCodeNonOKFails(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	if _, _, err := client.GetNextMatchSharingCode(context.Background(), "765611", "auth", codeA); err == nil {
		t.Fatalf("non-2xx must be an error")
	}
}

func TestGetNextMatchSharingCodeRequiresInputs(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{APIKey: "test-key", Logger: logging.NewNop()})
	if _, _, err := client.GetNextMatchSharingCode(context.Background(), "", "auth", codeA); err == nil {
		t.Fatalf("missing steamid must fail")
	}
	if _, _, err := client.GetNextMatchSharingCode(context.Background(), "765611", "", codeA); err == nil {
		t.Fatalf("missing auth code must fail")
	}
	if _, _, err := client.GetNextMatchSharingCode(context.Background(), "765611", "auth", ""); err == nil {
		t.Fatalf("missing known code must fail")
	}
}

func TestRedactSteamURL(t *testing.T) {
	t.Parallel()

	got := redactSteamURL("https://api.steampowered.com" + nextCodePath + "?key=secret&steamid=1&steamidkey=alsosecret&knowncode=x")
	if got != "https://api.steampowered.com"+nextCodePath+"?key=REDACTED&steamid=1&steamidkey=REDACTED&knowncode=x" {
		t.Fatalf("keys not redacted: %q", got)
	}
}
