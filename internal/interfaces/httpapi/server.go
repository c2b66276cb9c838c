package httpapi

import (
	"net/http"
	"time"

	"github.com/riskibarqy/game-night/internal/platform/logging"
)

type RouterConfig struct {
	AdminRoles         []string
	CORSAllowedOrigins []string
	IntegrationToken   string
	RequestTimeout     time.Duration
}

func NewRouter(handler *Handler, verifier TokenVerifier, cfg RouterConfig, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerMemberRoutes(mux, handler, verifier)
	registerAdminRoutes(mux, handler, verifier, cfg.AdminRoles)
	registerIntegrationRoutes(mux, handler, cfg.IntegrationToken)

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, RequestTimeout(cfg.RequestTimeout, mux)))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
