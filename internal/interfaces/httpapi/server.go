package httpapi

import (
	"net/http"

	"github.com/riskibarqy/sportscorex/internal/platform/logging"
)

type RouterConfig struct {
	ServiceName             string
	SwaggerEnabled          bool
	CORSAllowedOrigins      []string
	InternalJobToken        string
	ClientRequestsPerMinute int
	Metrics                 HTTPMetrics
	MetricsHandler          http.Handler
}

func NewRouter(handler *Handler, cfg RouterConfig, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "sportscorex"
	}

	mux := http.NewServeMux()
	routes := routeRegistrar{mux: mux, metrics: cfg.Metrics}
	registerSystemRoutes(routes, handler, cfg.SwaggerEnabled, cfg.MetricsHandler)
	registerPublicScoresRoutes(routes, handler, cfg.ClientRequestsPerMinute)
	registerInternalRoutes(routes, handler, cfg.InternalJobToken)

	return RequestTracing(cfg.ServiceName, RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
