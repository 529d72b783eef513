package providerhttp

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/sportscorex/internal/domain/scores"
	"github.com/riskibarqy/sportscorex/internal/platform/logging"
	"github.com/riskibarqy/sportscorex/internal/platform/resilience"
	"github.com/riskibarqy/sportscorex/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	maxBodyBytes       = 6 << 20
	defaultUserAgent   = "sportscorex/1.0"
	maxAbbreviatedBody = 240
)

var errTransient = crerr.New("provider transient failure")

type Config struct {
	Provider   scores.ProviderName
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// Headers are sent on every request; credential headers belong here.
	Headers map[string]string
	// Secrets are scrubbed from every error message and log line.
	Secrets        []string
	RateLimit      resilience.RateLimitConfig
	CircuitBreaker resilience.CircuitBreakerConfig
	OnBreakerState resilience.StateChangeFunc
	HTTPClient     *http.Client
	Logger         *logging.Logger
}

// Client performs JSON GETs against one provider. Every failure it returns
// is a *usecase.UpstreamError.
type Client struct {
	provider   scores.ProviderName
	baseURL    string
	headers    map[string]string
	secrets    []string
	maxRetries int
	budget     time.Duration
	httpClient *http.Client
	limiter    *resilience.RateLimiter
	breaker    *resilience.CircuitBreaker
	logger     *logging.Logger
	flight     resilience.SingleFlight
}

func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = usecase.DefaultProviderTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	secrets := make([]string, 0, len(cfg.Secrets))
	for _, secret := range cfg.Secrets {
		if secret = strings.TrimSpace(secret); secret != "" {
			secrets = append(secrets, secret)
		}
	}

	return &Client{
		provider:   cfg.Provider,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		headers:    cfg.Headers,
		secrets:    secrets,
		maxRetries: max(cfg.MaxRetries, 0),
		budget:     requestBudget(timeout, max(cfg.MaxRetries, 0)),
		httpClient: httpClient,
		limiter:    resilience.NewRateLimiter(cfg.RateLimit),
		breaker: resilience.NewNamedCircuitBreaker(
			string(cfg.Provider),
			resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker),
			cfg.OnBreakerState,
		),
		logger: logger,
	}
}

// requestBudget covers every attempt plus the linear backoff between them.
func requestBudget(timeout time.Duration, retries int) time.Duration {
	budget := timeout * time.Duration(retries+1)
	for attempt := 1; attempt <= retries; attempt++ {
		budget += time.Duration(attempt) * time.Second
	}
	return budget
}

func (c *Client) Provider() scores.ProviderName {
	return c.provider
}

func (c *Client) BreakerState() resilience.CircuitState {
	return c.breaker.State()
}

// GetObject fetches path and returns the decoded JSON root. A root that is
// not an object yields a nil map and no error.
func (c *Client) GetObject(ctx context.Context, op scores.Operation, path string, query url.Values) (map[string]any, error) {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "provider circuit breaker rejected request", "state", c.breaker.State())
		return nil, usecase.NewUpstreamError(c.provider, op, 0,
			fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err))
	}

	// Callers for the same URL share one request that outlives any of them.
	out, err, _ := c.flight.DoContext(ctx, fullURL, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.budget)
		defer cancel()

		raw, status, reqErr := c.execute(fetchCtx, fullURL)
		switch {
		case reqErr == nil:
			c.breaker.RecordSuccess()
		case fetchCtx.Err() != nil:
			c.breaker.Release()
		case stderrors.Is(reqErr, errTransient):
			c.breaker.RecordFailure()
		default:
			c.breaker.RecordSuccess()
		}
		if reqErr != nil {
			return nil, usecase.NewUpstreamError(c.provider, op, status, reqErr)
		}
		return raw, nil
	})
	if err != nil {
		if !usecase.IsUpstream(err) {
			err = usecase.NewUpstreamError(c.provider, op, 0, err)
		}
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, usecase.NewUpstreamError(c.provider, op, 0, fmt.Errorf("unexpected response payload type %T", out))
	}

	var root any
	if err := sonic.Unmarshal(raw, &root); err != nil {
		return nil, usecase.NewUpstreamError(c.provider, op, http.StatusOK,
			fmt.Errorf("decode provider payload: %w", err))
	}
	obj, _ := root.(map[string]any)
	return obj, nil
}

func (c *Client) execute(ctx context.Context, fullURL string) ([]byte, int, error) {
	var (
		lastErr    error
		lastStatus int
	)
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("wait for rate limit: %w", err)
		}

		raw, status, err := c.do(ctx, fullURL)
		if err == nil {
			return raw, status, nil
		}
		lastErr, lastStatus = err, status
		if !stderrors.Is(err, errTransient) || ctx.Err() != nil || attempt == c.maxRetries {
			break
		}

		timer := time.NewTimer(time.Duration(attempt+1) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, lastStatus, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "provider request failed",
		"url", c.redact(fullURL),
		"status", lastStatus,
		"error", lastErr,
	)
	return nil, lastStatus, lastErr
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %s", c.redact(err.Error()))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: send request: %s", errTransient, c.redact(err.Error()))
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxBodyBytes)); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response body: %s", errTransient, c.redact(err.Error()))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("provider status=%d body=%s", resp.StatusCode, c.redact(abbreviateBody(buf.B)))
		if isRetryableStatus(resp.StatusCode) {
			err = fmt.Errorf("%w: %v", errTransient, err)
		}
		return nil, resp.StatusCode, err
	}

	return bytes.Clone(buf.B), resp.StatusCode, nil
}

func (c *Client) redact(value string) string {
	for _, secret := range c.secrets {
		value = strings.ReplaceAll(value, secret, "REDACTED")
	}
	return value
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= maxAbbreviatedBody {
		return text
	}
	return text[:maxAbbreviatedBody] + "..."
}
