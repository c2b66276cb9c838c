package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerMemberRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	member := func(fn http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, fn)
	}

	mux.Handle("GET /v1/leagues/{leagueID}/sessions", member(handler.ListLeagueSessions))
	mux.Handle("GET /v1/leagues/{leagueID}/sessions/current", member(handler.GetCurrentSession))
	mux.Handle("GET /v1/sessions/{sessionID}", member(handler.GetSession))
	mux.Handle("GET /v1/sessions/{sessionID}/attendees", member(handler.ListAttendees))
	mux.Handle("POST /v1/sessions/{sessionID}/check-in", member(handler.CheckIn))
	mux.Handle("POST /v1/sessions/{sessionID}/check-out", member(handler.CheckOut))
	mux.Handle("GET /v1/sessions/{sessionID}/pods", member(handler.ListSessionPods))
	mux.Handle("GET /v1/pods/{podID}", member(handler.GetPod))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, adminRoles []string) {
	admin := func(fn http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, RequireAdmin(adminRoles, fn))
	}

	mux.Handle("POST /v1/admin/sessions", admin(handler.CreateSession))
	mux.Handle("PATCH /v1/admin/sessions/{sessionID}/status", admin(handler.UpdateSessionStatus))
	mux.Handle("POST /v1/admin/sessions/{sessionID}/lock", admin(handler.LockSession))
	mux.Handle("POST /v1/admin/sessions/{sessionID}/reopen", admin(handler.ReopenSession))
	mux.Handle("POST /v1/admin/sessions/{sessionID}/check-in", admin(handler.AdminCheckIn))
	mux.Handle("POST /v1/admin/sessions/{sessionID}/check-out", admin(handler.AdminCheckOut))
	mux.Handle("GET /v1/admin/sessions/{sessionID}/suggest-pods", admin(handler.SuggestPods))
	mux.Handle("POST /v1/admin/sessions/{sessionID}/pods", admin(handler.CreatePod))
	mux.Handle("PATCH /v1/admin/pods/{podID}/status", admin(handler.UpdatePodStatus))
	mux.Handle("POST /v1/admin/sessions/{sessionID}/poll", admin(handler.PostPoll))
	mux.Handle("POST /v1/admin/sessions/{sessionID}/poll/close", admin(handler.ClosePoll))
	mux.Handle("POST /v1/admin/sessions/{sessionID}/recap", admin(handler.PostRecap))
	mux.Handle("GET /v1/admin/leagues/{leagueID}/matchup-matrix", admin(handler.GetMatchupMatrix))
}

func registerIntegrationRoutes(mux *http.ServeMux, handler *Handler, integrationToken string) {
	mux.Handle("POST /v1/integrations/sessions/{sessionID}/poll-responses",
		RequireIntegrationToken(integrationToken, http.HandlerFunc(handler.RecordPollResponse)))
}
