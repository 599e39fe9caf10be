// Package server exposes the resolver over HTTP: name normalization,
// pairwise similarity, clustering, and stored run lookups.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/employer-resolve/internal/resolve"
	"github.com/sells-group/employer-resolve/internal/store"
)

// Config holds runtime options for the API server.
type Config struct {
	Port           int
	AllowedOrigins []string
	// Threshold is used when a request does not set one.
	Threshold float64
	// Canonical is the default group naming rule for cluster requests.
	Canonical string
	Workers   int
	// MaxNames caps names per cluster or pairs request. 0 means no cap.
	MaxNames int
}

// Server serves the resolver API.
type Server struct {
	scorer *resolve.Scorer
	store  store.Store
	cfg    Config
}

// New creates a Server. st may be nil, in which case the run endpoints
// respond 503.
func New(scorer *resolve.Scorer, st store.Store, cfg Config) *Server {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.85
	}
	if cfg.Canonical == "" {
		cfg.Canonical = resolve.CanonicalFirst
	}
	return &Server{scorer: scorer, store: st, cfg: cfg}
}

// Handler returns the routed API with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/normalize", s.handleNormalize)
		r.Post("/similarity", s.handleSimilarity)
		r.Post("/cluster", s.handleCluster)
		r.Post("/pairs", s.handlePairs)

		r.Route("/runs", func(r chi.Router) {
			r.Use(s.requireStore)
			r.Get("/", s.handleListRuns)
			r.Get("/stats", s.handleRunStats)
			r.Get("/{runID}", s.handleGetRun)
			r.Get("/{runID}/employers", s.handleRunEmployers)
		})
	})

	return r
}

// HTTPServer wraps Handler in an *http.Server listening on cfg.Port.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			writeError(w, http.StatusServiceUnavailable, "run store is not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}
