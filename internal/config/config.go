// Package config loads the command line tools' settings from INAT_*
// environment variables and command flags.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/inat-client/pkg/cache"
	"github.com/Sternrassler/inat-client/pkg/client"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. INAT_REQUEST_DELAY.
const EnvPrefix = "INAT"

// Setting keys. Each maps to INAT_<KEY> and to the flag of the same name
// with underscores replaced by dashes.
const (
	KeyBaseURL      = "base_url"
	KeyUserAgent    = "user_agent"
	KeyRequestDelay = "request_delay"
	KeyTimeout      = "timeout"
	KeyMaxRetries   = "max_retries"
	KeyRedisURL     = "redis_url"
	KeyCacheTTL     = "cache_ttl"
	KeyPerPage      = "per_page"
	KeyMaxPages     = "max_pages"
	KeyMetrics      = "metrics"
)

// Settings holds the resolved configuration.
type Settings struct {
	BaseURL      string
	UserAgent    string
	RequestDelay time.Duration
	Timeout      time.Duration
	MaxRetries   int
	// RedisURL enables response caching when set.
	RedisURL string
	// CacheTTL is how long cached responses are served; 0 means the
	// client default. Ignored without RedisURL.
	CacheTTL time.Duration
	PerPage  int
	MaxPages int
	// Metrics logs a request summary when a command finishes.
	Metrics bool
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	defaults := client.DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyBaseURL, defaults.BaseURL)
	v.SetDefault(KeyUserAgent, defaults.UserAgent)
	v.SetDefault(KeyRequestDelay, defaults.RequestDelay)
	v.SetDefault(KeyTimeout, defaults.Timeout)
	v.SetDefault(KeyMaxRetries, defaults.MaxRetries)
	v.SetDefault(KeyRedisURL, "")
	v.SetDefault(KeyCacheTTL, time.Duration(0))
	v.SetDefault(KeyPerPage, 0)
	v.SetDefault(KeyMaxPages, 0)
	v.SetDefault(KeyMetrics, false)
	return v
}

// BindFlags defines the shared client flags on fs and binds them to v.
// Flag values take precedence over environment variables.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("base-url", v.GetString(KeyBaseURL), "iNaturalist API base URL")
	fs.String("user-agent", v.GetString(KeyUserAgent), "User-Agent header sent with every request")
	fs.Duration("request-delay", v.GetDuration(KeyRequestDelay), "Minimum delay between requests")
	fs.Duration("timeout", v.GetDuration(KeyTimeout), "Per-request timeout")
	fs.Int("retries", v.GetInt(KeyMaxRetries), "Retries for server, rate limit and network errors")
	fs.String("redis-url", v.GetString(KeyRedisURL), "Redis URL for a shared response cache (empty disables it)")
	fs.Duration("cache-ttl", v.GetDuration(KeyCacheTTL), "Lifetime of responses cached in redis (0 uses the default; needs --redis-url)")
	fs.Int("per-page", v.GetInt(KeyPerPage), "Results per page to request (0 uses the API default)")
	fs.Int("max-pages", v.GetInt(KeyMaxPages), "Stop after this many pages (0 fetches all)")
	fs.Bool("metrics", v.GetBool(KeyMetrics), "Log a request metrics summary on exit")

	bindings := map[string]string{
		KeyBaseURL:      "base-url",
		KeyUserAgent:    "user-agent",
		KeyRequestDelay: "request-delay",
		KeyTimeout:      "timeout",
		KeyMaxRetries:   "retries",
		KeyRedisURL:     "redis-url",
		KeyCacheTTL:     "cache-ttl",
		KeyPerPage:      "per-page",
		KeyMaxPages:     "max-pages",
		KeyMetrics:      "metrics",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load resolves and validates the settings held by v. Unlike the viper
// getters it rejects values that do not parse.
func Load(v *viper.Viper) (Settings, error) {
	var (
		s    Settings
		errs []string
		err  error
	)

	duration := func(key string) time.Duration {
		d, err := cast.ToDurationE(v.Get(key))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return d
	}
	integer := func(key string) int {
		n, err := cast.ToIntE(v.Get(key))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return n
	}

	s.BaseURL = v.GetString(KeyBaseURL)
	s.UserAgent = v.GetString(KeyUserAgent)
	s.RedisURL = v.GetString(KeyRedisURL)
	s.RequestDelay = duration(KeyRequestDelay)
	s.Timeout = duration(KeyTimeout)
	s.CacheTTL = duration(KeyCacheTTL)
	s.MaxRetries = integer(KeyMaxRetries)
	s.PerPage = integer(KeyPerPage)
	s.MaxPages = integer(KeyMaxPages)
	if s.Metrics, err = cast.ToBoolE(v.Get(KeyMetrics)); err != nil {
		errs = append(errs, fmt.Sprintf("%s: %v", KeyMetrics, err))
	}

	if s.CacheTTL < 0 {
		errs = append(errs, fmt.Sprintf("%s must be >= 0 (got %s)", KeyCacheTTL, s.CacheTTL))
	}
	if s.MaxPages < 0 {
		errs = append(errs, fmt.Sprintf("%s must be >= 0 (got %d)", KeyMaxPages, s.MaxPages))
	}

	if len(errs) > 0 {
		return Settings{}, fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return s, nil
}

// ClientConfig returns the client configuration for these settings. store
// may be nil to disable caching.
func (s Settings) ClientConfig(store cache.Store) client.Config {
	cfg := client.DefaultConfig()
	cfg.BaseURL = s.BaseURL
	cfg.UserAgent = s.UserAgent
	cfg.RequestDelay = s.RequestDelay
	cfg.Timeout = s.Timeout
	cfg.MaxRetries = s.MaxRetries
	cfg.PerPage = s.PerPage
	cfg.MaxPages = s.MaxPages
	if store != nil {
		cfg.Cache = store
	}
	if s.CacheTTL > 0 {
		cfg.CacheTTL = s.CacheTTL
	}
	return cfg
}

// CacheStore builds the response cache: an in-process layer in front of
// redis when RedisURL is set, else a nil store. A single command run never
// repeats a request, so only redis lets later runs reuse responses. The
// returned close function releases the redis connection and is never nil.
func (s Settings) CacheStore(ctx context.Context) (cache.Store, func() error, error) {
	noop := func() error { return nil }

	if s.RedisURL == "" {
		return nil, noop, nil
	}

	rdb, err := NewRedisClient(s.RedisURL)
	if err != nil {
		return nil, noop, err
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, noop, fmt.Errorf("connect to redis at %s: %w", s.RedisURL, err)
	}

	return cache.NewChain(cache.NewMemory(), cache.NewManager(rdb)), rdb.Close, nil
}

// NewRedisClient accepts a redis:// URL or a plain host:port address.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if !strings.Contains(redisURL, "://") {
		return redis.NewClient(&redis.Options{Addr: redisURL}), nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewClient builds a client with the configured cache layers. The returned
// cleanup closes the client and any cache connection.
func (s Settings) NewClient(ctx context.Context) (*client.Client, func(), error) {
	store, closeCache, err := s.CacheStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	c, err := client.New(s.ClientConfig(store))
	if err != nil {
		closeCache()
		return nil, nil, fmt.Errorf("create client: %w", err)
	}

	return c, func() {
		c.Close()
		closeCache()
	}, nil
}
