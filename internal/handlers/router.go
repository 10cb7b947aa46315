package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hanko-field/pdp/internal/platform/httpx"
)

const defaultTimeout = 30 * time.Second

// RouteRegistrar mounts a set of routes.
type RouteRegistrar func(r chi.Router)

type routerConfig struct {
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers
	timeout     time.Duration
	pages       []RouteRegistrar
	streams     []RouteRegistrar
}

// Option customises NewRouter.
type Option func(*routerConfig)

// WithMiddlewares appends middleware that runs for every route, after request ids and before routing.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithHealthHandlers serves /healthz and /readyz from h.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithRequestTimeout bounds page and event requests. Streams are never cut off.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *routerConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// WithPageRoutes mounts request/response routes under the request timeout.
func WithPageRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		if reg != nil {
			cfg.pages = append(cfg.pages, reg)
		}
	}
}

// WithStreamRoutes mounts long-lived routes outside the request timeout.
func WithStreamRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		if reg != nil {
			cfg.streams = append(cfg.streams, reg)
		}
	}
}

// NewRouter assembles the service's routes.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.CleanPath)
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.Respond(w, req, httpx.NewError("route_not_found", "no route for "+req.URL.Path, http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.Respond(w, req, httpx.NewError("method_not_allowed", req.Method+" is not allowed on "+req.URL.Path, http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	r.Group(func(g chi.Router) {
		g.Use(middleware.Timeout(cfg.timeout))
		for _, reg := range cfg.pages {
			reg(g)
		}
	})
	r.Group(func(g chi.Router) {
		for _, reg := range cfg.streams {
			reg(g)
		}
	})
	return r
}
