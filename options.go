package fastfetch

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hoangsonww/FastFetch-API-Fetch-Enhancer/internal/inflight"
)

// WithHTTPClient sets the *http.Client used as the request primitive.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client == nil {
			c.doer = nil
			return
		}
		c.doer = client
	}
}

// WithDoer sets the request primitive.
func WithDoer(doer Doer) Option {
	return func(c *Client) {
		c.doer = doer
	}
}

// WithDefaultRetries sets the retry count used when a call does not set one.
func WithDefaultRetries(n int) Option {
	return func(c *Client) {
		c.defaults.MaxRetries = n
	}
}

// WithDefaultRetryDelay sets the retry delay used when a call does not set one.
func WithDefaultRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.defaults.RetryDelay = d
	}
}

// WithDefaultShouldRetry sets the retry predicate used when a call does not
// set one.
func WithDefaultShouldRetry(fn ShouldRetryFunc) Option {
	return func(c *Client) {
		c.defaults.ShouldRetry = fn
	}
}

// WithBackoff grows the wait between retries by multiplier, capped at
// maxDelay (0 = uncapped), plus up to jitter (0.0 to 1.0) of random extra
// delay. The wait never drops below the retry delay.
func WithBackoff(multiplier float64, maxDelay time.Duration, jitter float64) Option {
	return func(c *Client) {
		if jitter < 0 {
			jitter = 0
		}
		if jitter > 1 {
			jitter = 1
		}
		c.defaults.Multiplier = multiplier
		c.defaults.MaxDelay = maxDelay
		c.defaults.Jitter = jitter
	}
}

// WithDeduplication sets whether calls are deduplicated by default. It is
// enabled unless turned off here or per call.
func WithDeduplication(enabled bool) Option {
	return func(c *Client) {
		c.deduplicate = enabled
	}
}

// WithRegistry sets the in-flight registry. Clients sharing a registry
// deduplicate against each other.
func WithRegistry(registry *inflight.Registry) Option {
	return func(c *Client) {
		c.registry = registry
	}
}

// WithMiddleware adds middleware around every underlying attempt.
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithRateLimit admits at most limit attempts per second with the given
// burst. Retries count against the limit.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithSleeper replaces the function used to wait between retries.
func WithSleeper(sleeper Sleeper) Option {
	return func(c *Client) {
		c.sleep = sleeper
	}
}

// WithOnRetry registers a callback invoked before each retry wait.
func WithOnRetry(fn OnRetryFunc) Option {
	return func(c *Client) {
		c.onRetry = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithZapLogger logs through a zap logger.
func WithZapLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = NewZapLogger(logger)
	}
}

// WithLogr logs through a logr logger.
func WithLogr(logger logr.Logger) Option {
	return func(c *Client) {
		c.logger = NewLogrLogger(logger)
	}
}

// WithSlog logs through a log/slog logger.
func WithSlog(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = NewSlogLogger(logger)
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		c.requestIDGen = gen
	}
}

// WithMetrics enables Prometheus metrics on a private registry, available
// through MetricsCollector.Registry.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithTracerProvider records one span per call using tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = newTracer(tp)
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var err error

	err = multierr.Append(err, c.validateRetryConfig())
	err = multierr.Append(err, c.validateRateLimiterConfig())
	err = multierr.Append(err, c.validateCollaborators())
	err = multierr.Append(err, c.validateMiddlewareConfig())
	err = multierr.Append(err, c.validateExtremeValues())

	if err != nil {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   err,
		}
	}

	return nil
}

func (c *Client) validateRetryConfig() error {
	var err error

	if c.defaults.MaxRetries < 0 {
		err = multierr.Append(err, errors.New("maxRetries must be non-negative"))
	}
	if c.defaults.RetryDelay < 0 {
		err = multierr.Append(err, errors.New("retryDelay must be non-negative"))
	}
	if c.defaults.Multiplier < 0 {
		err = multierr.Append(err, errors.New("backoff multiplier must be non-negative"))
	}
	if c.defaults.MaxDelay < 0 {
		err = multierr.Append(err, errors.New("maxDelay must be non-negative"))
	}
	if c.defaults.Jitter < 0 || c.defaults.Jitter > 1 {
		err = multierr.Append(err, errors.New("jitter must be between 0 and 1"))
	}

	return err
}

func (c *Client) validateRateLimiterConfig() error {
	if c.limiter == nil {
		return nil
	}
	if c.limiter.Limit() != rate.Inf && c.limiter.Burst() <= 0 {
		return errors.New("rate limiter burst must be positive")
	}
	if c.limiter.Limit() <= 0 {
		return errors.New("rate limiter limit must be positive")
	}
	return nil
}

func (c *Client) validateCollaborators() error {
	var err error

	if c.doer == nil {
		err = multierr.Append(err, errors.New("request primitive cannot be nil"))
	}
	if c.registry == nil {
		err = multierr.Append(err, errors.New("in-flight registry cannot be nil"))
	}
	if c.sleep == nil {
		err = multierr.Append(err, errors.New("sleeper cannot be nil"))
	}
	if c.logger == nil {
		err = multierr.Append(err, errors.New("logger cannot be nil"))
	}
	if c.requestIDGen == nil {
		err = multierr.Append(err, errors.New("request ID generator cannot be nil"))
	}

	return err
}

func (c *Client) validateMiddlewareConfig() error {
	var err error

	for i, middleware := range c.middleware {
		if middleware == nil {
			err = multierr.Append(err, fmt.Errorf("middleware[%d] cannot be nil", i))
		}
	}

	return err
}

// validateExtremeValues rejects values that are technically valid but would
// keep a single call alive for an unreasonable time.
func (c *Client) validateExtremeValues() error {
	var err error

	if c.defaults.MaxRetries > 100 {
		err = multierr.Append(err, errors.New("maxRetries > 100 may cause excessive resource usage"))
	}
	if c.defaults.RetryDelay > 10*time.Minute {
		err = multierr.Append(err, errors.New("retryDelay > 10m may cause very long delays"))
	}
	if c.defaults.MaxDelay > time.Hour {
		err = multierr.Append(err, errors.New("maxDelay > 1h may cause extremely long delays"))
	}

	return err
}
