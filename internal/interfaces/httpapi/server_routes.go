package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metrics http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
}

func registerGroupRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	protect := func(fn http.HandlerFunc) http.Handler {
		return RequireInternalJobToken(internalJobToken, fn)
	}

	mux.Handle("GET /v1/groups", protect(handler.ListGroups))
	mux.Handle("GET /v1/groups/{groupID}", protect(handler.GetGroup))
	mux.Handle("POST /v1/groups/{groupID}/players", protect(handler.TrackPlayers))
	mux.Handle("DELETE /v1/groups/{groupID}/players/{label}", protect(handler.UntrackPlayer))
	mux.Handle("PUT /v1/groups/{groupID}/sink", protect(handler.SetSink))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/poll", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunPollJob)))
}
