package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lumina-search/lumina/internal/metrics"
)

// RouterConfig configures the middleware chain around the API handlers.
type RouterConfig struct {
	APIKeys     []string
	CORSOrigins []string
	// StaticDir, when set, serves the browser UI at / instead of the JSON banner.
	StaticDir   string
	Development bool
}

// NewRouter wires the API handlers into a chi router.
func NewRouter(server *Server, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(securityHeaders(cfg.Development))
	r.Use(corsHandler(cfg.CORSOrigins))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.Get("/metrics", server.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", server.Liveness)
		r.Get("/health/ready", server.Readiness)
		r.Get("/telemetry", server.Telemetry)
		r.Get("/stats", server.Stats)
		r.Post("/upload", server.Upload)
		r.Post("/upload/batch", server.UploadBatch)
		r.Post("/search", server.Search)
		r.Delete("/images/{image_id}", server.DeleteImage)
	})

	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	} else {
		r.Get("/", server.Root)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed, "method not allowed")
	})

	return r
}
