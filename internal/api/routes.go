package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/conduit-lang/delivery/internal/content"
	"github.com/conduit-lang/delivery/internal/web/cache"
	"github.com/conduit-lang/delivery/internal/web/middleware"
	"github.com/conduit-lang/delivery/internal/web/ratelimit"
	"github.com/conduit-lang/delivery/internal/web/response"
	"github.com/conduit-lang/delivery/internal/web/router"
)

// Config wires the API's dependencies. Optional parts are disabled when nil.
type Config struct {
	Graph  content.Graph
	Logger *zap.Logger
	// Health reports whether the content store is reachable
	Health func(context.Context) error

	APIPrefix      string
	MaxDepth       int
	RequestTimeout time.Duration
	CORSOrigins    []string

	Access   middleware.AccessConfig
	Limiter  ratelimit.RateLimiter
	Cache    cache.Cache
	CacheTTL time.Duration
}

// NewRouter builds the full HTTP handler: operational endpoints at the root
// and the content endpoints under the API prefix
func NewRouter(cfg Config) *router.Router {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Access.Logger == nil {
		cfg.Access.Logger = cfg.Logger
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		cors.AllowedOrigins = cfg.CORSOrigins
	}

	r := router.NewRouter()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(cfg.Logger),
		middleware.Logging(cfg.Logger),
		middleware.Metrics(),
		middleware.CORS(cors),
		middleware.Compression(1024),
	)

	r.Get("/healthz", "health", healthHandler(cfg.Health))
	r.Handle("/metrics", "metrics", promhttp.Handler())

	h := NewHandler(cfg.Graph, cfg.Logger, cfg.MaxDepth)
	r.Group(cfg.APIPrefix, func(g *router.Router) {
		if cfg.RequestTimeout > 0 {
			g.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		if cfg.Limiter != nil {
			g.Use(middleware.RateLimit(cfg.Limiter, cfg.Logger))
		}
		g.Use(middleware.DeliveryAccess(cfg.Access))
		if cfg.Cache != nil {
			cacheConfig := cache.DefaultMiddlewareConfig(cfg.Cache)
			cacheConfig.Logger = cfg.Logger
			if cfg.CacheTTL != 0 {
				cacheConfig.TTL = cfg.CacheTTL
			}
			g.Use(cache.Middleware(cacheConfig))
		}

		g.Get("/content", "content.query", h.Query)
		g.Get("/content/items", "content.items", h.Items)
		g.Get("/content/item/*", "content.item", h.Item)
	})

	return r
}

func healthHandler(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				response.RenderServiceUnavailable(w, "content store unavailable")
				return
			}
		}
		response.RenderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
