package fastfetch

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hoangsonww/FastFetch-API-Fetch-Enhancer/internal/inflight"
)

// Client wraps an HTTP request primitive with in-flight deduplication and
// retries. It is safe for concurrent use.
type Client struct {
	doer         Doer
	defaults     RetryPolicy
	deduplicate  bool
	registry     *inflight.Registry
	middleware   []Middleware
	limiter      *rate.Limiter
	sleep        Sleeper
	onRetry      OnRetryFunc
	logger       Logger
	metrics      *MetricsCollector
	tracer       *tracer
	requestIDGen func() string

	validationError error
}

// callInfo is the per-call state shared by logging, metrics and tracing.
type callInfo struct {
	requestID string
	method    string
	endpoint  string
	start     time.Time
	span      *callSpan
}

// New constructs a Client using the provided functional options. A best
// effort validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	client := &Client{
		doer: &http.Client{
			Timeout: 30 * time.Second,
		},
		defaults:     DefaultRetryPolicy(),
		deduplicate:  true,
		registry:     inflight.NewRegistry(),
		middleware:   []Middleware{},
		sleep:        sleepContext,
		logger:       nopLogger{},
		requestIDGen: uuid.NewString,
	}
	client.tracer = newTracer(nil)

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Fetch performs a request to url. Without options it is a plain GET with no
// retries and deduplication enabled.
func (c *Client) Fetch(ctx context.Context, url string, opts ...RequestOption) (*http.Response, error) {
	cfg := newRequestConfig(opts)
	r := &Request{URL: url}
	cfg.apply(r)
	return c.send(ctx, r, cfg)
}

// Send performs the request described by r.
func (c *Client) Send(ctx context.Context, r *Request, opts ...RequestOption) (*http.Response, error) {
	if r == nil {
		return nil, ErrNilRequest
	}
	cfg := newRequestConfig(opts)
	cp := *r
	cfg.apply(&cp)
	return c.send(ctx, &cp, cfg)
}

// Do performs a prepared *http.Request. The request body is read fully
// before the first attempt so that retries can replay it.
func (c *Client) Do(req *http.Request, opts ...RequestOption) (*http.Response, error) {
	if req == nil || req.URL == nil {
		return nil, ErrNilRequest
	}
	r, err := requestFromHTTP(req)
	if err != nil {
		return nil, err
	}
	cfg := newRequestConfig(opts)
	cfg.apply(r)
	return c.send(req.Context(), r, cfg)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*http.Response, error) {
	return c.Fetch(ctx, url, append([]RequestOption{WithMethod(http.MethodGet)}, opts...)...)
}

// Post performs a POST request with the given content type and body.
func (c *Client) Post(ctx context.Context, url, contentType string, body []byte, opts ...RequestOption) (*http.Response, error) {
	base := []RequestOption{
		WithMethod(http.MethodPost),
		WithHeader("Content-Type", contentType),
		WithBody(body),
	}
	return c.Fetch(ctx, url, append(base, opts...)...)
}

// Transport returns an http.RoundTripper that routes requests through c.
func (c *Client) Transport() http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return c.Do(req)
	})
}

// StandardClient returns an *http.Client whose transport is c, for code
// that expects the standard library type.
func (c *Client) StandardClient() *http.Client {
	return &http.Client{Transport: c.Transport()}
}

// Registry returns the in-flight registry used by the client.
func (c *Client) Registry() *inflight.Registry {
	return c.registry
}

// policyFor merges per-call options over the client defaults.
func (c *Client) policyFor(cfg requestConfig) RetryPolicy {
	policy := c.defaults
	if cfg.retries != nil {
		policy.MaxRetries = *cfg.retries
	}
	if cfg.retryDelay != nil {
		policy.RetryDelay = *cfg.retryDelay
	}
	if cfg.shouldRetry != nil {
		policy.ShouldRetry = cfg.shouldRetry
	}
	return policy
}

func (c *Client) send(ctx context.Context, r *Request, cfg requestConfig) (*http.Response, error) {
	if c.validationError != nil {
		return nil, c.validationError
	}
	if ctx == nil {
		ctx = context.Background()
	}

	template, err := r.newHTTPRequest(ctx)
	if err != nil {
		return nil, err
	}

	policy := c.policyFor(cfg)
	dedup := c.deduplicate
	if cfg.deduplicate != nil {
		dedup = *cfg.deduplicate
	}

	rc := &callInfo{
		requestID: c.requestIDGen(),
		method:    template.Method,
		endpoint:  getEndpoint(r.URL),
		start:     time.Now(),
	}
	ctx, rc.span = c.tracer.start(ctx, rc, policy, dedup)

	c.logger.Debug("Starting request",
		"requestID", rc.requestID,
		"method", rc.method,
		"url", r.URL,
		"deduplicate", dedup,
		"maxRetries", policy.MaxRetries,
	)

	var resp *http.Response
	if dedup {
		resp, err = c.sendShared(ctx, r, template, policy, rc)
	} else {
		c.metrics.RecordRequestStart(rc.method, rc.endpoint)
		resp, err = c.execute(ctx, r, template, policy, rc)
		c.metrics.RecordRequestEnd(rc.method, rc.endpoint)
	}

	c.finish(rc, resp, err)
	return resp, err
}

// sendShared attaches to the in-flight call for the request's signature, or
// starts it. The shared execution is detached from the caller's
// cancellation; each caller only stops waiting when its own ctx ends.
func (c *Client) sendShared(ctx context.Context, r *Request, template *http.Request, policy RetryPolicy, rc *callInfo) (*http.Response, error) {
	sig := r.Signature()
	call, owner := c.registry.Acquire(sig)

	if owner {
		c.logger.Debug("Deduplication miss - starting request", "requestID", rc.requestID)
		c.metrics.RecordInFlight(c.registry.Len())
		go c.runShared(context.WithoutCancel(ctx), sig, call, r, template, policy, rc)
	} else {
		c.logger.Debug("Deduplication hit", "requestID", rc.requestID, "waiters", call.Waiters())
		c.metrics.RecordDeduplicationHit(rc.method, rc.endpoint)
		rc.span.deduplicated()
	}

	resp, err := call.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return cloneResponse(resp), nil
}

func (c *Client) runShared(ctx context.Context, sig string, call *inflight.Call, r *Request, template *http.Request, policy RetryPolicy, rc *callInfo) {
	c.metrics.RecordRequestStart(rc.method, rc.endpoint)
	defer c.metrics.RecordRequestEnd(rc.method, rc.endpoint)

	resp, err := c.execute(ctx, r, template, policy, rc)
	switch {
	case err != nil:
		// The primitive may return a response alongside an error, e.g. a
		// refused redirect; waiters only see the error.
		discard(resp)
		resp = nil
	case resp != nil:
		if berr := bufferResponse(resp); berr != nil {
			resp, err = nil, berr
		}
	}

	c.registry.Settle(sig, call, resp, err)
	c.metrics.RecordInFlight(c.registry.Len())
}

func (c *Client) finish(rc *callInfo, resp *http.Response, err error) {
	duration := time.Since(rc.start)
	status := statusOf(resp)
	c.metrics.RecordRequest(rc.method, rc.endpoint, status, duration)
	rc.span.end(status, err)

	if err != nil {
		c.logger.Error("Request failed",
			"requestID", rc.requestID,
			"method", rc.method,
			"endpoint", rc.endpoint,
			"error", err.Error(),
			"duration", duration,
		)
		return
	}
	c.logger.Debug("Request completed",
		"requestID", rc.requestID,
		"method", rc.method,
		"endpoint", rc.endpoint,
		"statusCode", status,
		"duration", duration,
	)
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}
