package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metricsEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/sharecodes/{code}", handler.ResolveShareCode)
	mux.HandleFunc("POST /v1/users", handler.RegisterUser)
	mux.HandleFunc("GET /v1/users/{steamID}", handler.GetUser)
	mux.HandleFunc("GET /v1/users/{steamID}/profile", handler.GetUserProfile)
	mux.HandleFunc("PUT /v1/users/{steamID}/steam-auth", handler.UpdateSteamAuth)
	mux.HandleFunc("PATCH /v1/users/{steamID}/sync-settings", handler.UpdateSyncSettings)
	mux.HandleFunc("GET /v1/users/{steamID}/matches", handler.ListUserMatches)
	mux.HandleFunc("GET /v1/users/{steamID}/teammates", handler.ListTeammates)
	mux.HandleFunc("POST /v1/users/{steamID}/sync", handler.TriggerUserSync)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("GET /v1/sync/runs/{runID}", handler.GetSyncRun)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/sync-user", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncUserJob)))
	mux.Handle("POST /v1/internal/jobs/sync-all", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncAllJob)))
}
