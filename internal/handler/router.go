package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"heropage/internal/metrics"
	"heropage/internal/render"
)

// RouterConfig holds what the router mounts besides the hero handler
type RouterConfig struct {
	Metrics     *metrics.Metrics
	MetricsPath string
	// RequestTimeout bounds every route except the event stream
	RequestTimeout time.Duration
	// ImagesDir is served under ImagesPrefix when both are set
	ImagesDir    string
	ImagesPrefix string
	Logger       *zap.Logger
}

// NewRouter builds the HTTP routes
func NewRouter(h *HeroHandler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Recover(logger))
	r.Use(Logger(logger))
	if cfg.Metrics != nil {
		r.Use(Metrics(cfg.Metrics))
	}

	r.Get("/events", h.Events)

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		r.Get("/", h.Page)
		r.Get("/healthz", h.Health)

		r.Route("/api/hero", func(r chi.Router) {
			r.Post("/", h.Mount)
			r.Get("/{session}", h.Fragment)
			r.Delete("/{session}", h.Unmount)
			r.Post("/{session}/pointer", h.Pointer)
			r.Get("/{session}/state", h.State)
		})
		r.Get("/api/assets", h.Asset)
	})

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(render.Static()))))
	if cfg.ImagesDir != "" && cfg.ImagesPrefix != "" {
		prefix := strings.TrimSuffix(cfg.ImagesPrefix, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(cfg.ImagesDir))))
	}

	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.Metrics.Handler())
	}

	return r
}
