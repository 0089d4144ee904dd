// Package config loads the delivery server configuration from delivery.yaml
// and DELIVERY_ environment variables
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backends
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config represents the delivery server configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	APIPrefix       string        `mapstructure:"api_prefix"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	// TLSCertFile and TLSKeyFile switch the server to HTTPS when both are set
	TLSCertFile string `mapstructure:"tls_cert_file"`
	TLSKeyFile  string `mapstructure:"tls_key_file"`
	// ProfilingAddr serves pprof on a separate listener. Empty disables it.
	ProfilingAddr string `mapstructure:"profiling_addr"`
}

// Address returns host:port
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig represents the content store connection
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// CacheConfig represents the response cache
type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RedisConfig is shared by the redis cache and rate limiter backends
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig represents API key and member token settings
type AuthConfig struct {
	// APIKeyHash is a bcrypt hash produced by `delivery hash-key`
	APIKeyHash     string        `mapstructure:"api_key_hash"`
	RequireAPIKey  bool          `mapstructure:"require_api_key"`
	MemberSecret   string        `mapstructure:"member_secret"`
	MemberTokenTTL time.Duration `mapstructure:"member_token_ttl"`
}

// RateLimitConfig represents per client request limits. Zero disables limiting.
type RateLimitConfig struct {
	PerMinute int    `mapstructure:"per_minute"`
	Backend   string `mapstructure:"backend"`
}

// DeliveryConfig tunes content rendering
type DeliveryConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

// LogConfig selects the zap preset and level
type LogConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_prefix", "/umbraco/delivery/api/v1")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.tls_cert_file", "")
	v.SetDefault("server.tls_key_file", "")
	v.SetDefault("server.profiling_addr", "")

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "file:delivery.db?_foreign_keys=on")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.ttl", time.Minute)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.api_key_hash", "")
	v.SetDefault("auth.require_api_key", false)
	v.SetDefault("auth.member_secret", "")
	v.SetDefault("auth.member_token_ttl", time.Hour)

	v.SetDefault("rate_limit.per_minute", 600)
	v.SetDefault("rate_limit.backend", CacheMemory)

	v.SetDefault("delivery.max_depth", 32)

	v.SetDefault("log.mode", "production")
	v.SetDefault("log.level", "info")
}

// Load reads configuration. An empty path looks for delivery.yaml or
// delivery.yml in the working directory and falls back to defaults when
// neither exists. Environment variables override the file, e.g.
// DELIVERY_SERVER_PORT=9000.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("delivery")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DELIVERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks values that viper cannot
func (c *Config) Validate() error {
	var errs []error

	if p := c.Server.APIPrefix; p != "" && (!strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/")) {
		errs = append(errs, fmt.Errorf("server.api_prefix must start and not end with '/', got: %s", p))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.tls_cert_file and server.tls_key_file must be set together"))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be one of none, memory, redis, got: %s", c.Cache.Backend))
	}
	switch c.RateLimit.Backend {
	case CacheMemory, CacheRedis:
	default:
		errs = append(errs, fmt.Errorf("rate_limit.backend must be memory or redis, got: %s", c.RateLimit.Backend))
	}
	if c.RateLimit.PerMinute < 0 {
		errs = append(errs, errors.New("rate_limit.per_minute cannot be negative"))
	}

	if c.Auth.RequireAPIKey && c.Auth.APIKeyHash == "" {
		errs = append(errs, errors.New("auth.require_api_key needs auth.api_key_hash"))
	}
	if c.Auth.MemberSecret != "" && len(c.Auth.MemberSecret) < 32 {
		errs = append(errs, errors.New("auth.member_secret must be at least 32 bytes"))
	}

	if c.Delivery.MaxDepth <= 0 {
		errs = append(errs, errors.New("delivery.max_depth must be positive"))
	}

	switch c.Log.Mode {
	case "production", "development":
	default:
		errs = append(errs, fmt.Errorf("log.mode must be production or development, got: %s", c.Log.Mode))
	}

	return errors.Join(errs...)
}
