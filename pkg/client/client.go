// Package client provides an HTTP client for the iNaturalist v1 REST API
// with request pacing, optional response caching and error classification.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/inat-client/pkg/cache"
	"github.com/Sternrassler/inat-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public iNaturalist v1 API.
const DefaultBaseURL = "http://api.inaturalist.org/v1/"

// maxErrorDetail bounds how much of an error body ends up in APIError.
const maxErrorDetail = 512

// Prometheus metrics for API client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inat_requests_total",
		Help: "Total iNaturalist requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inat_request_duration_seconds",
		Help:    "iNaturalist request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inat_errors_total",
		Help: "Total iNaturalist errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Client talks to the iNaturalist API.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	pacer      *ratelimit.Pacer
	cache      cache.Store
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API, e.g. "http://api.inaturalist.org/v1/"
	BaseURL string

	// User-Agent header sent with every request
	UserAgent string

	// Timeout per HTTP request
	Timeout time.Duration

	// RequestDelay is the minimum spacing between requests (0 disables pacing)
	RequestDelay time.Duration

	// Retry (0 = a failed request aborts immediately)
	MaxRetries int
	// InitialBackoff and MaxBackoff override the per-class backoff when > 0.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Caching (nil Cache disables it)
	Cache    cache.Store
	CacheTTL time.Duration

	// Pagination
	PerPage  int // results per page requested from the API (0 = API default)
	MaxPages int // stop observation queries after this many pages (0 = all)
}

// DefaultConfig returns the configuration used by the command line tools.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		UserAgent:    "inat-client/0.1.0",
		Timeout:      30 * time.Second,
		RequestDelay: ratelimit.DefaultInterval,
		MaxRetries:   0,
		CacheTTL:     1 * time.Hour,
	}
}

// New creates a new iNaturalist client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.RequestDelay < 0 {
		return nil, fmt.Errorf("request_delay must be >= 0 (got %s)", cfg.RequestDelay)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.PerPage < 0 {
		return nil, fmt.Errorf("per_page must be >= 0 (got %d)", cfg.PerPage)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}

	logger := log.With().Str("component", "inat-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		pacer:   ratelimit.NewPacer(cfg.RequestDelay, logger),
		cache:   cfg.Cache,
		config:  cfg,
		logger:  logger,
	}, nil
}

// Do performs a GET request with caching, pacing and error handling. Any
// response outside 2xx is returned as *APIError with the body closed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := c.endpointOf(req.URL)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	cacheKey := cache.CacheKey{
		Origin:      c.origin(),
		Endpoint:    endpoint,
		QueryParams: req.URL.Query(),
	}

	if c.cache != nil && req.Method == http.MethodGet {
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			c.logger.Debug().Str("url", req.URL.String()).Str("key", cacheKey.Hash()).Msg("Cache hit")
			requestsTotal.WithLabelValues(endpoint, "cached").Inc()
			return cache.EntryToResponse(entry, req), nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	var resp *http.Response

	r := retrier{
		maxAttempts: c.config.MaxRetries + 1,
		configFor:   c.retryConfigFor,
		logger:      c.logger,
	}
	err := r.do(ctx, func() (ErrorClass, error) {
		if err := c.pacer.Wait(ctx); err != nil {
			return "", err
		}

		c.logger.Debug().
			Str("url", req.URL.String()).
			Str("method", req.Method).
			Msg("Executing request")

		var reqErr error
		resp, reqErr = c.httpClient.Do(req)
		if reqErr != nil {
			errClass := c.classifyError(nil, reqErr)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Error().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			return errClass, &APIError{
				ErrorClass: errClass,
				Message:    "request failed",
				URL:        req.URL.String(),
				Err:        reqErr,
			}
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("Response received")

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			errClass := c.classifyError(resp, nil)
			errorsTotal.WithLabelValues(string(errClass)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("iNaturalist request error")

			apiErr := &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: errClass,
				Message:    resp.Status,
				Detail:     readDetail(resp.Body),
				URL:        req.URL.String(),
			}
			resp.Body.Close()
			resp = nil
			return errClass, apiErr
		}

		return "", nil
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp, c.config.CacheTTL)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Dur("ttl", entry.TTL()).
				Msg("Cached response")
		}
	}

	return resp, nil
}

// Get performs a GET request to an API endpoint relative to the base URL.
// rawQuery must already be encoded.
func (c *Client) Get(ctx context.Context, endpoint, rawQuery string) (*http.Response, error) {
	u := c.endpointURL(endpoint)
	u.RawQuery = rawQuery

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// getJSON performs Get and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, endpoint, rawQuery string, v any) error {
	resp, err := c.Get(ctx, endpoint, rawQuery)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 500:
		return ErrorClassServer
	case resp.StatusCode >= 400:
		return ErrorClassClient
	default:
		// 1xx and 3xx that were not followed
		return ErrorClassClient
	}
}

func (c *Client) retryConfigFor(class ErrorClass) RetryConfig {
	cfg := RetryConfigForErrorClass(class)
	if c.config.InitialBackoff > 0 {
		cfg.InitialBackoff = c.config.InitialBackoff
	}
	if c.config.MaxBackoff > 0 {
		cfg.MaxBackoff = c.config.MaxBackoff
	}
	return cfg
}

// endpointURL resolves an endpoint such as "places/autocomplete" against
// the base URL.
func (c *Client) endpointURL(endpoint string) *url.URL {
	u := *c.baseURL
	u.Path = c.baseURL.Path + strings.TrimLeft(endpoint, "/")
	return &u
}

// endpointOf returns the endpoint part of u relative to the base URL. It is
// used as the metrics label and cache key.
// origin tells responses of different APIs apart in a shared cache.
func (c *Client) origin() string {
	return c.baseURL.Host + strings.TrimRight(c.baseURL.Path, "/")
}

func (c *Client) endpointOf(u *url.URL) string {
	return strings.Trim(strings.TrimPrefix(u.Path, c.baseURL.Path), "/")
}

func readDetail(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorDetail))
	return strings.TrimSpace(string(data))
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
