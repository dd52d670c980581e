package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/cstatsentry/backend/internal/infrastructure/repository/memory"
	"github.com/cstatsentry/backend/internal/usecase"
)

func newTestRouter(t *testing.T, syncEnabled bool) http.Handler {
	t.Helper()

	users := memory.NewUserRepository()
	players := memory.NewPlayerRepository()
	matches := memory.NewMatchRepository()
	teammates := memory.NewTeammateRepository()
	runs := memory.NewSyncRunRepository()

	syncSvc := usecase.NewSyncService(
		usecase.SyncConfig{Enabled: syncEnabled},
		users, matches, players, teammates, nil, nil,
	)
	handler := NewHandler(
		usecase.NewUserService(users, nil),
		usecase.NewStatsService(users, matches, teammates, nil),
		usecase.NewSyncJobService(users, runs, syncSvc, nil, false, nil),
		usecase.NewSweepService(usecase.SweepConfig{Enabled: true}, users, syncSvc, nil),
		nil,
	)

	return NewRouter(handler, nil, false, nil, "job-secret")
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func TestRegisterAndGetUser(t *testing.T) {
	router := newTestRouter(t, true)

	payload := `{"steamId":"76561198000000001","steamName":"awper"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/users", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/users/76561198000000001", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["steamId"] != "76561198000000001" {
		t.Fatalf("data.steamId = %v", data["steamId"])
	}
	if data["syncEnabled"] != true {
		t.Fatalf("new users should default to syncEnabled=true, got %v", data["syncEnabled"])
	}
}

func TestGetUserNotFound(t *testing.T) {
	router := newTestRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/76561198999999999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	errorObj, _ := body["error"].(map[string]any)
	if errorObj["status"] != "NOT_FOUND" {
		t.Fatalf("error.status = %v", errorObj["status"])
	}
}

func TestResolveShareCodeEndpoint(t *testing.T) {
	router := newTestRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/v1/sharecodes/CSGO-GADqf-jjyJ8-cSP2r-smZRo-TO2xK", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["matchId"] != "3230642215713767580" {
		t.Fatalf("data.matchId = %v", data["matchId"])
	}
	demoURL, _ := data["demoUrl"].(string)
	if !strings.HasPrefix(demoURL, "http://replay124.valve.net/730/") {
		t.Fatalf("data.demoUrl = %q", demoURL)
	}
}

func TestResolveShareCodeEndpointRejectsGarbage(t *testing.T) {
	router := newTestRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/v1/sharecodes/not-a-share-code", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTriggerSyncWhenSyncDisabled(t *testing.T) {
	router := newTestRouter(t, false)

	payload := `{"steamId":"76561198000000002"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/users", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/users/76561198000000002/sync", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503, body = %s", rec.Code, rec.Body.String())
	}
}

func TestInternalJobRouteRequiresToken(t *testing.T) {
	router := newTestRouter(t, true)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sync-user", strings.NewReader(`{"steam_id":"765"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without token status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sync-user", strings.NewReader(`{"steam_id":"765"}`))
	req.Header.Set("X-Internal-Job-Token", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("with wrong token status = %d, want 401", rec.Code)
	}
}

func TestGetUserProfileEndpoint(t *testing.T) {
	router := newTestRouter(t, true)

	payload := `{"steamId":"76561198000000003","steamName":"igl"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/users", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/users/76561198000000003/profile", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	userObj, _ := data["user"].(map[string]any)
	if userObj["steamId"] != "76561198000000003" {
		t.Fatalf("data.user.steamId = %v", userObj["steamId"])
	}
	if data["totalMatches"] != float64(0) {
		t.Fatalf("data.totalMatches = %v", data["totalMatches"])
	}
}
