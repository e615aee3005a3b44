// Package client provides the BoxNow HTTP client: credential exchange,
// parcel listing pages and label document requests, with request
// instrumentation and error classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/boxnow-labels/pkg/logging"
	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
)

// DefaultBaseURL is the production BoxNow API root.
const DefaultBaseURL = "https://api-production.boxnow.bg/api/v1"

// Prometheus metrics for BoxNow client operations.
var (
	boxnowRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boxnow_requests_total",
		Help: "Total BoxNow API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	boxnowRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "boxnow_request_duration_seconds",
		Help:    "BoxNow API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	boxnowErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boxnow_errors_total",
		Help: "Total BoxNow API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a transport-level classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Client talks to the BoxNow API. It holds no credentials; every
// authenticated call takes the access token as an argument.
type Client struct {
	httpClient *http.Client
	baseURL    string
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, without trailing slash.
	BaseURL string

	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds every single HTTP exchange, body included.
	Timeout time.Duration
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: "boxnow-labels/0.1.0",
		Timeout:   30 * time.Second,
	}
}

// New creates a new BoxNow client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	logger := logging.NewLogger("boxnow-client")

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		config:  cfg,
		logger:  logger,
	}, nil
}

// Do executes a request with instrumentation. Any HTTP status is returned
// to the caller; only transport failures produce an error.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	endpoint := endpointLabel(req.URL.Path)
	requestID := xid.New().String()

	startTime := time.Now()
	defer func() {
		boxnowRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("X-Request-ID", requestID)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	logger := c.logger.With().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Str("request_id", requestID).
		Logger()

	logger.Debug().Msg("Executing BoxNow request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		class := c.classifyError(nil, err)
		boxnowErrorsTotal.WithLabelValues(string(class)).Inc()
		boxnowRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		logger.Error().Err(err).Msg("HTTP request failed")
		return nil, err
	}

	boxnowRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		class := c.classifyError(resp, nil)
		boxnowErrorsTotal.WithLabelValues(string(class)).Inc()
		logger.Warn().
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Dur("duration", time.Since(startTime)).
			Msg("BoxNow request error")
		return resp, nil
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(startTime)).
		Msg("BoxNow request completed")

	return resp, nil
}

// classifyError categorizes an error for observability.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// newRequest builds a request against the API root. A non-nil body is
// JSON-encoded; a non-empty token is sent as bearer credential.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any, token parcel.AccessToken) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token.Value())
	}

	return req, nil
}

// endpointLabel strips the API root prefix so metric labels stay stable
// across base URLs.
func endpointLabel(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i:]
	}
	return path
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}
