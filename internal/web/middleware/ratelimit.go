package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/delivery/internal/web/ratelimit"
	"github.com/conduit-lang/delivery/internal/web/response"
)

// RateLimitConfig holds configuration for rate limiting middleware
type RateLimitConfig struct {
	Limiter ratelimit.RateLimiter
	// KeyFunc extracts the rate limit key from the request
	KeyFunc func(*http.Request) string
	// FailOpen lets requests through when the limiter errors
	FailOpen bool
	Logger   *zap.Logger
}

// RateLimit limits requests per client with limiter. Clients are keyed by
// their Api-Key when present, else by IP.
func RateLimit(limiter ratelimit.RateLimiter, logger *zap.Logger) Middleware {
	return RateLimitWithConfig(RateLimitConfig{
		Limiter:  limiter,
		KeyFunc:  ClientKey,
		FailOpen: true,
		Logger:   logger,
	})
}

// RateLimitWithConfig creates a rate limiting middleware with custom configuration
func RateLimitWithConfig(config RateLimitConfig) Middleware {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientKey
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, err := config.Limiter.Allow(r.Context(), config.KeyFunc(r))
			if err != nil {
				config.Logger.Warn("rate limit check failed", zap.Error(err))
				if config.FailOpen {
					next.ServeHTTP(w, r)
				} else {
					response.RenderServiceUnavailable(w, "")
				}
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

			if !info.Allowed {
				response.RenderTooManyRequests(w, info.RetryAfter(time.Now()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey identifies the caller by a digest of its Api-Key, or by IP
func ClientKey(r *http.Request) string {
	if key := r.Header.Get("Api-Key"); key != "" {
		sum := sha256.Sum256([]byte(key))
		return "key:" + hex.EncodeToString(sum[:8])
	}
	return "ip:" + ClientIP(r)
}

// ClientIP returns the first X-Forwarded-For address, X-Real-IP, or the
// connection's remote address
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
