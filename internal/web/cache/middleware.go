package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/delivery/internal/metrics"
	webcontext "github.com/conduit-lang/delivery/internal/web/context"
)

// Lookup results reported to metrics
const (
	resultHit    = "hit"
	resultMiss   = "miss"
	resultBypass = "bypass"
)

// MiddlewareConfig holds configuration for the response cache middleware
type MiddlewareConfig struct {
	Cache        Cache
	KeyGenerator *KeyGenerator
	TTL          time.Duration
	// Bypass reports requests whose responses must not be shared
	Bypass       func(*http.Request) bool
	CacheControl string
	Logger       *zap.Logger
}

// DefaultMiddlewareConfig returns a configuration that caches anonymous,
// published content for one minute
func DefaultMiddlewareConfig(cache Cache) MiddlewareConfig {
	return MiddlewareConfig{
		Cache:        cache,
		KeyGenerator: DefaultKeyGenerator(),
		TTL:          time.Minute,
		Bypass:       PersonalizedRequest,
		CacheControl: "public, max-age=60",
		Logger:       zap.NewNop(),
	}
}

// PersonalizedRequest reports requests for preview or member content. The
// access resolved by the delivery access middleware decides; the raw headers
// are checked as well so the cache stays safe when mounted without it.
func PersonalizedRequest(r *http.Request) bool {
	access := webcontext.GetAccess(r.Context())
	if access.Preview || access.Member != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("Preview")), "true") ||
		r.Header.Get("Authorization") != ""
}

type cachedResponse struct {
	StatusCode int         `json:"status"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	ETag       string      `json:"etag"`
}

// Middleware serves GET responses from the cache and stores successful ones.
// Responses carry an ETag and honor If-None-Match.
func Middleware(config MiddlewareConfig) func(http.Handler) http.Handler {
	if config.KeyGenerator == nil {
		config.KeyGenerator = DefaultKeyGenerator()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || (config.Bypass != nil && config.Bypass(r)) {
				metrics.CacheResults.WithLabelValues(resultBypass).Inc()
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := config.KeyGenerator.GenerateKey(r)

			if data, err := config.Cache.Get(ctx, key); err == nil {
				var cached cachedResponse
				if err := json.Unmarshal(data, &cached); err == nil {
					metrics.CacheResults.WithLabelValues(resultHit).Inc()
					write(w, r, &cached, "HIT", config.CacheControl)
					return
				}
				config.Logger.Warn("discarding unreadable cache entry", zap.String("key", key))
			} else if !errors.Is(err, ErrCacheMiss) {
				config.Logger.Warn("cache lookup failed", zap.Error(err))
			}
			metrics.CacheResults.WithLabelValues(resultMiss).Inc()

			rec := &recorder{header: make(http.Header), statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			cached := &cachedResponse{
				StatusCode: rec.statusCode,
				Header:     rec.header,
				Body:       rec.body.Bytes(),
			}
			if rec.statusCode != http.StatusOK {
				write(w, r, cached, "", "")
				return
			}

			cached.ETag = GenerateETag(cached.Body)
			if data, err := json.Marshal(cached); err == nil {
				if err := config.Cache.Set(ctx, key, data, config.TTL); err != nil {
					config.Logger.Warn("cache store failed", zap.Error(err))
				}
			}
			write(w, r, cached, "MISS", config.CacheControl)
		})
	}
}

func write(w http.ResponseWriter, r *http.Request, cached *cachedResponse, status, cacheControl string) {
	for key, values := range cached.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	if status != "" {
		w.Header().Set("X-Cache", status)
	}
	if cached.ETag != "" {
		w.Header().Set("ETag", cached.ETag)
		if cacheControl != "" {
			w.Header().Set("Cache-Control", cacheControl)
		}
		if NotModified(r, cached.ETag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	w.WriteHeader(cached.StatusCode)
	w.Write(cached.Body)
}

// recorder buffers a response so it can be stored before it is sent
type recorder struct {
	header      http.Header
	statusCode  int
	body        bytes.Buffer
	wroteHeader bool
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) WriteHeader(statusCode int) {
	if !r.wroteHeader {
		r.statusCode = statusCode
		r.wroteHeader = true
	}
}

func (r *recorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.body.Write(b)
}
