package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

// League routes require an authenticated member. Reads stay open to every
// manager: the league is closed and trade activity is public within it.
func registerLeagueRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/teams", RequireAuth(verifier, http.HandlerFunc(handler.ListTeams)))
	mux.Handle("GET /v1/teams/{teamID}/roster", RequireAuth(verifier, http.HandlerFunc(handler.GetTeamRoster)))
	mux.Handle("GET /v1/teams/{teamID}/proposals", RequireAuth(verifier, http.HandlerFunc(handler.ListTeamProposals)))
	mux.Handle("GET /v1/teams/{teamID}/obligations", RequireAuth(verifier, http.HandlerFunc(handler.ListTeamObligations)))

	mux.Handle("POST /v1/proposals", RequireAuth(verifier, http.HandlerFunc(handler.SubmitProposal)))
	mux.Handle("GET /v1/proposals/{proposalID}", RequireAuth(verifier, http.HandlerFunc(handler.GetProposal)))
	mux.Handle("POST /v1/proposals/{proposalID}/accept", RequireAuth(verifier, http.HandlerFunc(handler.AcceptProposal)))

	mux.Handle("POST /v1/renewals", RequireAuth(verifier, http.HandlerFunc(handler.RenewContract)))

	mux.Handle("GET /v1/market/{kind}", RequireAuth(verifier, http.HandlerFunc(handler.GetMarketWindow)))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/proposals/{proposalID}/approve", RequireAdmin(verifier, http.HandlerFunc(handler.ApproveProposal)))
	mux.Handle("POST /v1/proposals/{proposalID}/reject", RequireAdmin(verifier, http.HandlerFunc(handler.RejectProposal)))
	mux.Handle("POST /v1/market/{kind}/toggle", RequireAdmin(verifier, http.HandlerFunc(handler.ToggleMarketWindow)))
	mux.Handle("PUT /v1/market/{kind}/schedule", RequireAdmin(verifier, http.HandlerFunc(handler.SetMarketSchedule)))
	mux.Handle("POST /v1/revaluations", RequireAdmin(verifier, http.HandlerFunc(handler.RunRevaluation)))
	mux.Handle("GET /v1/audit/{entityKind}/{entityID}", RequireAdmin(verifier, http.HandlerFunc(handler.ListAuditEvents)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/market-tick", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunMarketTick)))
}
