package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/castai/pulumi-castai/internal/logging"
	"github.com/castai/pulumi-castai/pkg/metrics"
)

const (
	// DefaultSecretName is the default name of the Kubernetes secret holding the CAST AI token
	DefaultSecretName = "castai-credentials"

	// DefaultSecretNamespace is the default namespace of the credentials secret
	DefaultSecretNamespace = "castai-agent"

	// DefaultAPIEndpoint is the default CAST AI API endpoint
	DefaultAPIEndpoint = "https://api.cast.ai"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per minute)
	DefaultRateLimit = 300

	// DefaultUserAgent is sent when no user agent is configured
	DefaultUserAgent = "castai-iac/1.0"

	// MaxResponseBodySize is the maximum size of HTTP response bodies (10MB)
	MaxResponseBodySize = 10 * 1024 * 1024

	// SecretTokenKey is the key name for the API token in the secret
	SecretTokenKey = "apiToken"

	// SecretURLKey is the key name for the API URL in the secret (optional)
	SecretURLKey = "apiUrl"

	// HeaderAPIKey carries the API token
	HeaderAPIKey = "X-API-Key"

	// HeaderRequestID carries the request correlation id
	HeaderRequestID = "X-Request-ID"

	// DefaultMaxRetries is the default maximum number of retries for transient errors
	DefaultMaxRetries = 3

	// DefaultInitialBackoff is the initial backoff duration for retries
	DefaultInitialBackoff = 200 * time.Millisecond

	// DefaultMaxBackoff is the maximum backoff duration between retries
	DefaultMaxBackoff = 10 * time.Second

	// DefaultBackoffMultiplier is the multiplier for exponential backoff
	DefaultBackoffMultiplier = 2.0

	// DefaultJitterFactor is the maximum jitter as a fraction of backoff (0.0-1.0)
	DefaultJitterFactor = 0.2
)

// RetryConfig configures the retry behavior with exponential backoff.
// Only idempotent methods are retried.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (0 = no retries)
	MaxRetries int

	// InitialBackoff is the initial backoff duration
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64

	// JitterFactor is the maximum jitter as a fraction of backoff (0.0-1.0)
	JitterFactor float64

	// RetryableStatusCodes are HTTP status codes that trigger a retry
	RetryableStatusCodes []int
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        DefaultMaxRetries,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
		JitterFactor:      DefaultJitterFactor,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// backoff returns the wait before retry number attempt (0-based)
func (rc RetryConfig) backoff(attempt int) time.Duration {
	d := float64(rc.InitialBackoff)
	for i := 0; i < attempt; i++ {
		d *= rc.BackoffMultiplier
	}
	if limit := float64(rc.MaxBackoff); rc.MaxBackoff > 0 && d > limit {
		d = limit
	}
	if rc.JitterFactor > 0 {
		d += d * rc.JitterFactor * (rand.Float64()*2 - 1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

func (rc RetryConfig) retryableStatus(status int) bool {
	for _, code := range rc.RetryableStatusCodes {
		if code == status {
			return true
		}
	}
	return false
}

// Client is a CAST AI REST API client
type Client struct {
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	circuitBreaker *CircuitBreaker
	retryConfig    RetryConfig
	baseURL        string
	apiToken       string
	userAgent      string
	logger         *zap.Logger
	mu             sync.RWMutex
}

// ClientOptions represents options for creating a new Client
type ClientOptions struct {
	// SecretName is the name of the Kubernetes secret holding the API token
	SecretName string

	// SecretNamespace is the namespace of the Kubernetes secret
	SecretNamespace string

	// HTTPClient is a custom HTTP client to use (optional)
	HTTPClient *http.Client

	// HTTPTransport is a custom HTTP transport, e.g. the Sentry tracing transport
	HTTPTransport http.RoundTripper

	// Timeout is the HTTP client timeout
	Timeout time.Duration

	// RateLimit is the maximum number of requests per minute
	RateLimit int

	// UserAgent is the user agent string to use in requests
	UserAgent string

	// Logger is the logger to use (optional, defaults to no-op logger)
	Logger *zap.Logger

	// RetryConfig configures retries. If nil, DefaultRetryConfig() is used
	RetryConfig *RetryConfig

	// CircuitBreakerConfig configures the circuit breaker.
	// If nil, DefaultCircuitBreakerConfig() is used
	CircuitBreakerConfig *CircuitBreakerConfig
}

// NewClient creates a CAST AI API client by reading the token from a Kubernetes secret
func NewClient(ctx context.Context, clientset kubernetes.Interface, opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}
	if opts.SecretName == "" {
		opts.SecretName = DefaultSecretName
	}
	if opts.SecretNamespace == "" {
		opts.SecretNamespace = DefaultSecretNamespace
	}

	secret, err := clientset.CoreV1().Secrets(opts.SecretNamespace).Get(ctx, opts.SecretName, metav1.GetOptions{})
	if err != nil {
		return nil, NewSecretError(opts.SecretName, opts.SecretNamespace, "failed to get secret", err)
	}

	tokenBytes, ok := secret.Data[SecretTokenKey]
	if !ok {
		return nil, NewSecretError(opts.SecretName, opts.SecretNamespace,
			fmt.Sprintf("secret does not contain '%s' key", SecretTokenKey), nil)
	}
	if len(tokenBytes) == 0 {
		return nil, NewSecretError(opts.SecretName, opts.SecretNamespace,
			fmt.Sprintf("secret key '%s' is empty", SecretTokenKey), nil)
	}

	baseURL := DefaultAPIEndpoint
	if urlBytes, ok := secret.Data[SecretURLKey]; ok && len(urlBytes) > 0 {
		baseURL = string(urlBytes)
	}

	return newClient(baseURL, string(tokenBytes), opts)
}

// NewClientWithToken creates a CAST AI API client with an explicit token
func NewClientWithToken(baseURL, token string, opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}
	if token == "" {
		return nil, NewConfigError("api_token", "API token cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultAPIEndpoint
	}
	return newClient(baseURL, token, opts)
}

func newClient(baseURL, token string, opts *ClientOptions) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, NewConfigError("api_url", "API URL cannot be empty")
	}
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, NewConfigError("api_url", fmt.Sprintf("API URL must use HTTPS, got: %s", baseURL))
	}

	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		var transport http.RoundTripper = &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
		if opts.HTTPTransport != nil {
			transport = opts.HTTPTransport
		}
		httpClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		}
	}

	// requests per minute to requests per second
	rps := float64(opts.RateLimit) / 60.0

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cbConfig := DefaultCircuitBreakerConfig()
	if opts.CircuitBreakerConfig != nil {
		cbConfig = *opts.CircuitBreakerConfig
	}

	retryConfig := DefaultRetryConfig()
	if opts.RetryConfig != nil {
		retryConfig = *opts.RetryConfig
	}

	return &Client{
		httpClient:     httpClient,
		rateLimiter:    rate.NewLimiter(rate.Limit(rps), opts.RateLimit),
		circuitBreaker: NewCircuitBreaker(cbConfig, logger.Named("circuit-breaker")),
		retryConfig:    retryConfig,
		baseURL:        baseURL,
		apiToken:       token,
		userAgent:      opts.UserAgent,
		logger:         logger.Named("castai-client"),
	}, nil
}

// rawBody is a pre-encoded request body with its own content type
type rawBody struct {
	data        []byte
	contentType string
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// doRequest performs a request with rate limiting, circuit breaking and retries
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var payload []byte
	contentType := ""
	switch b := body.(type) {
	case nil:
	case rawBody:
		payload = b.data
		contentType = b.contentType
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
		contentType = "application/json"
	}

	logger := logging.WithRequestIDField(ctx, c.logger)
	for attempt := 0; ; attempt++ {
		resp, err := c.doOnce(ctx, logger, method, path, payload, contentType)
		if err == nil {
			return resp, nil
		}
		if !c.shouldRetry(ctx, method, err, attempt) {
			return nil, err
		}

		wait := c.retryConfig.backoff(attempt)
		metrics.APIRetries.WithLabelValues(method).Inc()
		logger.Debug("retrying CAST AI API request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Client) shouldRetry(ctx context.Context, method string, err error, attempt int) bool {
	if attempt >= c.retryConfig.MaxRetries || !isIdempotent(method) || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	if apiErr, ok := asAPIError(err); ok {
		return c.retryConfig.retryableStatus(apiErr.StatusCode)
	}
	// transport failure
	return true
}

// countsAsFailure keeps client errors and unimplemented endpoints from
// opening the circuit
func countsAsFailure(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.IsServerError() && !apiErr.IsNotImplemented()
	}
	return true
}

func (c *Client) doOnce(ctx context.Context, logger *zap.Logger, method, path string, payload []byte, contentType string) (*http.Response, error) {
	startTime := time.Now()
	requestID := logging.GetRequestID(ctx)
	logging.LogAPICall(logger, method, path, requestID)

	rateLimitStart := time.Now()
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	metrics.RecordRateLimitWait(method, time.Since(rateLimitStart))

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.mu.RLock()
	req.Header.Set(HeaderAPIKey, c.apiToken)
	req.Header.Set("User-Agent", c.userAgent)
	c.mu.RUnlock()

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set(HeaderRequestID, requestID)
	}

	var resp *http.Response
	cbErr := c.circuitBreaker.Call(func() error {
		r, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		if r.StatusCode >= 400 {
			return c.readAPIError(r)
		}
		resp = r
		return nil
	}, countsAsFailure)
	duration := time.Since(startTime)

	if cbErr == nil {
		logging.LogAPIResponse(logger, method, path, resp.StatusCode, duration.String(), requestID)
		metrics.RecordAPIRequest(method, fmt.Sprintf("%d", resp.StatusCode), duration)
		return resp, nil
	}

	if errors.Is(cbErr, ErrCircuitOpen) {
		metrics.RecordAPIError(method, "circuit_open")
		metrics.RecordAPIRequest(method, "error", duration)
		logging.LogAPIError(logger, method, path, 0, cbErr, requestID)
		return nil, fmt.Errorf("circuit breaker is open: %w", cbErr)
	}

	apiErr, ok := asAPIError(cbErr)
	if !ok {
		metrics.RecordAPIError(method, "request_failed")
		metrics.RecordAPIRequest(method, "error", duration)
		logging.LogAPIError(logger, method, path, 0, cbErr, requestID)
		return nil, fmt.Errorf("failed to perform request: %w", cbErr)
	}

	metrics.RecordAPIRequest(method, fmt.Sprintf("%d", apiErr.StatusCode), duration)
	metrics.RecordAPIError(method, errorType(apiErr.StatusCode))
	logging.LogAPIError(logger, method, path, apiErr.StatusCode, apiErr, apiErr.RequestID)
	return nil, apiErr
}

func errorType(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "unauthorized"
	case status == http.StatusForbidden:
		return "forbidden"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status == http.StatusNotImplemented:
		return "not_implemented"
	case status >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}

// readAPIError consumes and closes the body of a failed response
func (c *Client) readAPIError(resp *http.Response) *APIError {
	defer resp.Body.Close()

	requestID := resp.Header.Get(HeaderRequestID)
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBodySize))

	var errResp ErrorResponse
	if err := json.Unmarshal(bodyBytes, &errResp); err == nil && errResp.Message != "" {
		message := errResp.Error
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return NewAPIErrorWithRequestID(resp.StatusCode, message, errResp.Message, requestID)
	}
	return NewAPIErrorWithRequestID(resp.StatusCode, http.StatusText(resp.StatusCode), string(bodyBytes), requestID)
}

func decodeBody(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()
	if result == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseBodySize))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseBodySize)).Decode(result); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decodeBody(resp, result)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	resp, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return decodeBody(resp, result)
}

func (c *Client) put(ctx context.Context, path string, body, result interface{}) error {
	resp, err := c.doRequest(ctx, http.MethodPut, path, body)
	if err != nil {
		return err
	}
	return decodeBody(resp, result)
}

func (c *Client) patch(ctx context.Context, path string, body, result interface{}) error {
	resp, err := c.doRequest(ctx, http.MethodPatch, path, body)
	if err != nil {
		return err
	}
	return decodeBody(resp, result)
}

func (c *Client) delete(ctx context.Context, path string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return decodeBody(resp, nil)
}

// pathf builds an API path escaping every argument as a path segment
func pathf(format string, args ...string) string {
	escaped := make([]interface{}, len(args))
	for i, a := range args {
		escaped[i] = url.PathEscape(a)
	}
	return fmt.Sprintf(format, escaped...)
}

// Ping checks that the API is reachable and the token is accepted
func (c *Client) Ping(ctx context.Context) error {
	if err := c.get(ctx, "/v1/organizations", nil); err != nil {
		return fmt.Errorf("CAST AI API health check failed: %w", err)
	}
	return nil
}

// GetBaseURL returns the current base URL
func (c *Client) GetBaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetUserAgent sets the user agent string
func (c *Client) SetUserAgent(userAgent string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userAgent = userAgent
}

// UpdateToken swaps the API token used for subsequent requests
func (c *Client) UpdateToken(token string) error {
	if token == "" {
		return NewConfigError("api_token", "API token cannot be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiToken = token
	c.logger.Info("API token updated")
	return nil
}

// CircuitBreakerStats returns the circuit breaker statistics
func (c *Client) CircuitBreakerStats() CircuitBreakerStats {
	return c.circuitBreaker.GetStats()
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
