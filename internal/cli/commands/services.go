package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/conduit-lang/delivery/internal/api"
	"github.com/conduit-lang/delivery/internal/cli/config"
	"github.com/conduit-lang/delivery/internal/content/store"
	"github.com/conduit-lang/delivery/internal/web/auth"
	"github.com/conduit-lang/delivery/internal/web/cache"
	"github.com/conduit-lang/delivery/internal/web/middleware"
	"github.com/conduit-lang/delivery/internal/web/ratelimit"
)

// services holds the long lived dependencies built from configuration
type services struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *store.Store
	cache   cache.Cache
	limiter ratelimit.RateLimiter
	redis   redis.UniversalClient
	closers []io.Closer
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	pool := store.DefaultPoolConfig()
	if cfg.Database.MaxOpenConns > 0 {
		pool.MaxOpenConns = cfg.Database.MaxOpenConns
	}
	if cfg.Database.MaxIdleConns > 0 {
		pool.MaxIdleConns = cfg.Database.MaxIdleConns
	}
	return store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, pool)
}

// newServices connects the store and builds the configured cache and rate
// limiter. The returned services must be closed.
func newServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*services, error) {
	s := &services{cfg: cfg, logger: logger}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.store = st
	s.closers = append(s.closers, st)

	if err := s.initCache(ctx); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.initLimiter(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *services) initCache(ctx context.Context) error {
	cacheConfig := cache.DefaultConfig()
	cacheConfig.DefaultTTL = s.cfg.Cache.TTL

	switch s.cfg.Cache.Backend {
	case config.CacheMemory:
		mem := cache.NewMemoryCache(cacheConfig)
		s.cache = mem
		s.closers = append(s.closers, mem)
	case config.CacheRedis:
		rc, err := cache.DialRedis(ctx, cache.RedisOptions{
			Addr:     s.cfg.Redis.Addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		}, cacheConfig)
		if err != nil {
			return err
		}
		s.cache = rc
		s.redis = rc.Client()
		s.closers = append(s.closers, rc)
	}
	return nil
}

func (s *services) initLimiter(ctx context.Context) error {
	perMinute := s.cfg.RateLimit.PerMinute
	if perMinute == 0 {
		return nil
	}

	if s.cfg.RateLimit.Backend != config.CacheRedis {
		tb := ratelimit.NewTokenBucket(ratelimit.TokenBucketConfig{
			Capacity:        perMinute,
			Window:          time.Minute,
			CleanupInterval: 5 * time.Minute,
		})
		s.limiter = tb
		s.closers = append(s.closers, tb)
		return nil
	}

	if s.redis == nil {
		client := redis.NewClient(&redis.Options{
			Addr:     s.cfg.Redis.Addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return fmt.Errorf("failed to connect to redis at %s: %w", s.cfg.Redis.Addr, err)
		}
		s.redis = client
		s.closers = append(s.closers, client)
	}

	limiter, err := ratelimit.NewRedisLimiter(s.redis, perMinute, time.Minute, "delivery:ratelimit:")
	if err != nil {
		return err
	}
	s.limiter = limiter
	return nil
}

// accessConfig builds the credential checks from the auth section
func accessConfig(cfg *config.Config, logger *zap.Logger) middleware.AccessConfig {
	access := middleware.AccessConfig{
		APIKeys:       auth.NewAPIKeyVerifier(cfg.Auth.APIKeyHash),
		RequireAPIKey: cfg.Auth.RequireAPIKey,
		Logger:        logger,
	}
	if cfg.Auth.MemberSecret != "" {
		access.Members = auth.NewMemberTokens(cfg.Auth.MemberSecret, cfg.Auth.MemberTokenTTL)
	}
	return access
}

// handler builds the HTTP handler serving from the store
func (s *services) handler() http.Handler {
	return api.NewRouter(api.Config{
		Graph:          s.store,
		Logger:         s.logger,
		Health:         s.store.Ping,
		APIPrefix:      s.cfg.Server.APIPrefix,
		MaxDepth:       s.cfg.Delivery.MaxDepth,
		RequestTimeout: s.cfg.Server.RequestTimeout,
		CORSOrigins:    s.cfg.Server.CORSOrigins,
		Access:         accessConfig(s.cfg, s.logger),
		Limiter:        s.limiter,
		Cache:          s.cache,
		CacheTTL:       s.cfg.Cache.TTL,
	})
}

// Close releases everything in reverse order of creation
func (s *services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
