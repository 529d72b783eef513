package httpapi

import "net/http"

type routeRegistrar struct {
	mux     *http.ServeMux
	metrics HTTPMetrics
}

func (r routeRegistrar) handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, instrumentRoute(pattern, r.metrics, h))
}

func (r routeRegistrar) handleFunc(pattern string, h http.HandlerFunc) {
	r.handle(pattern, h)
}

func registerSystemRoutes(routes routeRegistrar, handler *Handler, swaggerEnabled bool, metricsHandler http.Handler) {
	routes.mux.HandleFunc("GET /healthz", handler.Healthz)
	if metricsHandler != nil {
		routes.mux.Handle("GET /metrics", metricsHandler)
	}
	if !swaggerEnabled {
		return
	}

	routes.mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	routes.mux.HandleFunc("GET /docs", handler.SwaggerUI)
	routes.mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicScoresRoutes(routes routeRegistrar, handler *Handler, clientRequestsPerMinute int) {
	limited := func(h http.HandlerFunc) http.Handler {
		return ClientRateLimit(clientRequestsPerMinute, h)
	}

	routes.handle("GET /v1/live-scores", limited(handler.GetLiveScores))
	routes.handle("GET /v1/standings", limited(handler.GetStandings))
	routes.handleFunc("GET /v1/providers", handler.ListProviders)
	routes.handle("GET /v1/live-scores/stream", limited(handler.StreamLiveScores))
}

func registerInternalRoutes(routes routeRegistrar, handler *Handler, internalJobToken string) {
	routes.handle("POST /v1/internal/cache/purge", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.PurgeCache)))
}
