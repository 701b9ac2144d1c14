package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

// Reads carry no access control: anyone with the match id may follow the
// scoreboard. Every mutation goes through RequireAuth.
func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("GET /v1/matches/{matchID}/stream", handler.StreamMatch)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedMatchRoutes(mux, handler, verifier)
	registerAuthorizedScoringRoutes(mux, handler, verifier)
	registerAuthorizedProgressionRoutes(mux, handler, verifier)
}

func registerAuthorizedMatchRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/matches", RequireAuth(verifier, http.HandlerFunc(handler.CreateMatch)))
	mux.Handle("POST /v1/matches/{matchID}/start", RequireAuth(verifier, http.HandlerFunc(handler.StartMatch)))
	mux.Handle("POST /v1/matches/{matchID}/reset", RequireAuth(verifier, http.HandlerFunc(handler.ResetMatch)))
}

func registerAuthorizedScoringRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/matches/{matchID}/frames/{round}/{position}/score", RequireAuth(verifier, http.HandlerFunc(handler.ScoreFrame)))
	mux.Handle("POST /v1/matches/{matchID}/frames/{round}/{position}/clear", RequireAuth(verifier, http.HandlerFunc(handler.ClearFrame)))
	mux.Handle("POST /v1/matches/{matchID}/rounds/{roundIndex}/lock", RequireAuth(verifier, http.HandlerFunc(handler.LockRound)))
}

func registerAuthorizedProgressionRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/matches/{matchID}/substitutions/check", RequireAuth(verifier, http.HandlerFunc(handler.CheckSubstitution)))
	mux.Handle("POST /v1/matches/{matchID}/substitutions", RequireAuth(verifier, http.HandlerFunc(handler.ApplySubstitution)))
	mux.Handle("POST /v1/matches/{matchID}/rounds/{roundIndex}/confirm", RequireAuth(verifier, http.HandlerFunc(handler.ConfirmRound)))
	mux.Handle("POST /v1/matches/{matchID}/rounds/{roundIndex}/edit", RequireAuth(verifier, http.HandlerFunc(handler.EditRound)))
	mux.Handle("POST /v1/matches/{matchID}/rounds/{roundIndex}/advance", RequireAuth(verifier, http.HandlerFunc(handler.AdvanceRound)))
}

func registerInternalOpsRoutes(mux *http.ServeMux, handler *Handler, internalOpsToken string) {
	mux.Handle("POST /v1/internal/demo/seed", RequireInternalOpsToken(internalOpsToken, http.HandlerFunc(handler.SeedDemoMatch)))
}
