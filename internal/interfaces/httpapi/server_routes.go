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

func registerCatalogRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/catalogs/{catalogID}/players", handler.ListCatalogPlayers)
	mux.HandleFunc("GET /v1/organizations/{organizationID}/teams", handler.ListOrganizationTeams)
	mux.HandleFunc("GET /v1/player-teams", handler.ListPlayerTeamLinks)
	mux.HandleFunc("GET /v1/cards", handler.ListCards)
}

func registerImportRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/import/sessions", handler.CreateImportSession)
	mux.HandleFunc("GET /v1/import/sessions/{sessionID}", handler.GetImportSession)
	mux.HandleFunc("DELETE /v1/import/sessions/{sessionID}", handler.CloseImportSession)

	mux.HandleFunc("GET /v1/import/sessions/{sessionID}/rows", handler.ListImportRows)
	mux.HandleFunc("GET /v1/import/sessions/{sessionID}/rows/next-unready", handler.GetNextUnreadyRow)
	mux.HandleFunc("GET /v1/import/sessions/{sessionID}/rows/{sortOrder}", handler.GetImportRow)
	mux.HandleFunc("PATCH /v1/import/sessions/{sessionID}/rows", handler.BulkSetRowField)
	mux.HandleFunc("PATCH /v1/import/sessions/{sessionID}/rows/{sortOrder}", handler.SetRowField)
	mux.HandleFunc("POST /v1/import/sessions/{sessionID}/rows/{sortOrder}/flags", handler.ToggleRowFlag)

	mux.HandleFunc("POST /v1/import/sessions/{sessionID}/rows/{sortOrder}/select-player", handler.SelectPlayer)
	mux.HandleFunc("POST /v1/import/sessions/{sessionID}/rows/{sortOrder}/select-team", handler.SelectTeam)
	mux.HandleFunc("POST /v1/import/sessions/{sessionID}/rows/{sortOrder}/promote-team", handler.PromoteFuzzyTeam)
	mux.HandleFunc("POST /v1/import/sessions/{sessionID}/rows/{sortOrder}/create-player", handler.CreatePlayer)
	mux.HandleFunc("POST /v1/import/sessions/{sessionID}/rows/{sortOrder}/create-team", handler.CreateTeam)
	mux.HandleFunc("POST /v1/import/sessions/{sessionID}/rows/{sortOrder}/create-link", handler.CreateLink)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/import/sessions/{sessionID}/commit", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.CommitImportSession)))
	mux.Handle("POST /v1/internal/jobs/exports/import-committed", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunImportCommittedExportJob)))
}
