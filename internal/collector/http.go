package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is requests per second across all providers.
	DefaultRateLimit = 2.0

	userAgent = "Mozilla/5.0 (compatible; MacroMonitor/1.0)"
)

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("%s: status %d: %s", e.URL, e.StatusCode, body)
}

// HTTP is the client shared by every network provider. It applies one
// timeout, an optional proxy, a user agent, and a request rate limit.
type HTTP struct {
	timeout time.Duration
	proxy   string
	limiter *rate.Limiter
	rest    *resty.Client
}

// HTTPOption configures the shared client.
type HTTPOption func(*HTTP)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithProxy routes requests through proxyURL.
func WithProxy(proxyURL string) HTTPOption {
	return func(h *HTTP) {
		h.proxy = proxyURL
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(requestsPerSecond float64) HTTPOption {
	return func(h *HTTP) {
		if requestsPerSecond > 0 {
			h.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
		}
	}
}

// NewHTTP creates the shared client.
func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{
		timeout: DefaultTimeout,
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.rest = resty.New().
		SetTimeout(h.timeout).
		SetHeader("User-Agent", userAgent)
	if h.proxy != "" {
		if _, err := url.Parse(h.proxy); err == nil {
			h.rest.SetProxy(h.proxy)
		}
	}
	return h
}

// request waits for the limiter and returns a request bound to ctx.
func (h *HTTP) request(ctx context.Context) (*resty.Request, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return h.rest.R().SetContext(ctx), nil
}

// Get performs a GET and returns the body of a 2xx response.
func (h *HTTP) Get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	req, err := h.request(ctx)
	if err != nil {
		return nil, err
	}
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	resp, err := req.Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: resp.StatusCode(), URL: rawURL, Body: string(resp.Body())}
	}
	return resp.Body(), nil
}
