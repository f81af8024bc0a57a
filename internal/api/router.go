package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AireshBhat/nramh-lis/internal/config"
	"github.com/AireshBhat/nramh-lis/internal/supervisor"
)

// NewRouter builds the command-surface HTTP API (spec.md §6, C11).
// Grounded on marmos91-dittofs/pkg/controlplane/api/router.go's
// middleware stack (RequestID, RealIP, a custom logging middleware,
// Recoverer, Timeout) minus its auth layer, which this surface has no
// requirement for.
func NewRouter(store *config.AnalyzerConfigStore, sup *supervisor.Supervisor, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSONOK(w, map[string]string{"status": "ok"})
	})

	handler := NewAnalyzerHandler(store, sup)
	r.Route("/analyzers/{id}", func(r chi.Router) {
		r.Get("/", handler.GetConfig)
		r.Put("/", handler.UpdateConfig)
		r.Post("/start", handler.StartService)
		r.Post("/stop", handler.StopService)
		r.Get("/status", handler.ServiceStatus)
	})

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("api request completed",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).String(),
			)
		})
	}
}
