// Package rest serves the conversion operations as a JSON HTTP API next to
// the MCP endpoint.
package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/paularlott/toon-mcp/metrics"
)

const (
	// APIPrefix is where the conversion routes are mounted.
	APIPrefix = "/api/v1"

	defaultTimeout = 60 * time.Second
	maxBodyBytes   = 10 << 20
)

// Config wires the router to its collaborators. MCP and Metrics are optional.
type Config struct {
	Version string
	Logger  *zap.SugaredLogger
	MCP     http.Handler
	Metrics *metrics.Metrics
	Timeout time.Duration
}

type routes struct {
	version string
	logger  *zap.SugaredLogger
}

// NewRouter builds the HTTP API.
func NewRouter(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(cfg.Logger),
		middleware.Recoverer,
		corsMiddleware,
	)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.HTTPMiddleware)
	}

	rt := &routes{version: cfg.Version, logger: cfg.Logger}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Timeout))
		r.Get("/health", rt.health)
		r.Mount(APIPrefix, rt.apiRouter())
	})

	if cfg.MCP != nil {
		r.Post("/mcp", cfg.MCP.ServeHTTP)
		r.Options("/mcp", cfg.MCP.ServeHTTP)
	}
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Handler().ServeHTTP)
	}

	return r
}

func (rt *routes) apiRouter() http.Handler {
	r := chi.NewRouter()
	r.Post("/encode", errorHandler(rt.logger, rt.encode))
	r.Post("/decode", errorHandler(rt.logger, rt.decode))
	r.Post("/validate", errorHandler(rt.logger, rt.validate))
	r.Post("/stats", errorHandler(rt.logger, rt.stats))
	return r
}

// corsMiddleware allows any origin, method and header.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
			h.Set("Access-Control-Allow-Headers", req)
		} else {
			h.Set("Access-Control-Allow-Headers", "*")
		}

		if r.Method == http.MethodOptions && r.URL.Path != "/mcp" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"requestID", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
