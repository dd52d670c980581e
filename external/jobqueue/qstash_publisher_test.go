package jobqueue

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestQStashPublisherEnqueueSetsUpstashHeaders(t *testing.T) {
	t.Parallel()

	var (
		gotPath    string
		gotHeaders http.Header
		gotBody    string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          server.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://api.cstatsentry.dev",
		Retries:          3,
		InternalJobToken: "internal-secret",
	}, nil)

	err := publisher.Enqueue(context.Background(), "/v1/internal/jobs/sync-user", map[string]string{"steam_id": "765"}, 30*time.Second, "sync-user-765")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	if want := "/v2/publish/https://api.cstatsentry.dev/v1/internal/jobs/sync-user"; gotPath != want {
		t.Fatalf("publish path = %q, want %q", gotPath, want)
	}
	if got := gotHeaders.Get("Authorization"); got != "Bearer qstash-token" {
		t.Fatalf("Authorization header = %q", got)
	}
	if got := gotHeaders.Get("Upstash-Retries"); got != "3" {
		t.Fatalf("Upstash-Retries header = %q", got)
	}
	if got := gotHeaders.Get("Upstash-Delay"); got != "30s" {
		t.Fatalf("Upstash-Delay header = %q", got)
	}
	if got := gotHeaders.Get("Upstash-Deduplication-Id"); got != "sync-user-765" {
		t.Fatalf("Upstash-Deduplication-Id header = %q", got)
	}
	if got := gotHeaders.Get("Upstash-Forward-X-Internal-Job-Token"); got != "internal-secret" {
		t.Fatalf("Upstash-Forward-X-Internal-Job-Token header = %q", got)
	}
	if !strings.Contains(gotBody, `"steam_id":"765"`) {
		t.Fatalf("body = %q, missing steam_id", gotBody)
	}
}

func TestQStashPublisherEnqueueRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       "https://qstash.upstash.io",
		TargetBaseURL: "https://api.cstatsentry.dev",
	}, nil)

	if err := publisher.Enqueue(context.Background(), "  ", nil, 0, ""); err == nil {
		t.Fatal("Enqueue() with blank path should fail")
	}
}

func TestQStashPublisherEnqueueNonRetryableStatusIsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       server.URL,
		TargetBaseURL: "https://api.cstatsentry.dev",
	}, nil)

	err := publisher.Enqueue(context.Background(), "/v1/internal/jobs/sync-user", nil, 0, "")
	if err == nil {
		t.Fatal("Enqueue() should surface non-2xx status")
	}
	if !strings.Contains(err.Error(), "status=400") {
		t.Fatalf("error = %v, want status=400", err)
	}
}

func TestValidateHTTPBaseURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "trims trailing slash", raw: "https://qstash.upstash.io/", want: "https://qstash.upstash.io"},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "bad scheme", raw: "ftp://qstash.upstash.io", wantErr: true},
		{name: "no host", raw: "https://", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := validateHTTPBaseURL(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("validateHTTPBaseURL(%q) should fail", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("validateHTTPBaseURL(%q) error = %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("validateHTTPBaseURL(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}
