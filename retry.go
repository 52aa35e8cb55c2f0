package fastfetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hoangsonww/FastFetch-API-Fetch-Enhancer/internal/backoff"
)

const (
	defaultMaxRetries = 0
	defaultRetryDelay = time.Second

	// drainLimit bounds how much of a discarded response body is read so the
	// connection can be reused.
	drainLimit = 64 << 10
)

// RetryPolicy controls how failed attempts are repeated.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// RetryDelay is the minimum wait before each retry.
	RetryDelay time.Duration
	// ShouldRetry, when set, is consulted for transport errors and non-2xx
	// responses. When nil only transport errors are retried.
	ShouldRetry ShouldRetryFunc

	// Multiplier grows the wait between consecutive retries (1 = fixed).
	Multiplier float64
	// MaxDelay caps the grown wait. Zero means uncapped.
	MaxDelay time.Duration
	// Jitter adds up to Jitter*wait of random extra delay, in [0, 1].
	Jitter float64
}

// DefaultRetryPolicy returns the policy used when nothing is configured: no
// retries, one second between retries when enabled.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: defaultMaxRetries,
		RetryDelay: defaultRetryDelay,
		Multiplier: 1,
	}
}

// MaxAttempts returns the upper bound on underlying requests for one call.
func (p RetryPolicy) MaxAttempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Retryable reports whether the outcome of the given attempt is retried.
func (p RetryPolicy) Retryable(resp *http.Response, err error, attempt int) bool {
	if err != nil {
		if p.ShouldRetry != nil {
			return p.ShouldRetry(nil, err, attempt) && attempt <= p.MaxRetries
		}
		return attempt <= p.MaxRetries
	}

	if resp == nil || isSuccess(resp.StatusCode) || p.ShouldRetry == nil {
		return false
	}
	return p.ShouldRetry(resp, nil, attempt) && attempt <= p.MaxRetries
}

// Delay returns the wait before the retry that follows the given attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return backoff.Delay(attempt, backoff.Params{
		Base:       p.RetryDelay,
		Max:        p.MaxDelay,
		Multiplier: p.Multiplier,
		Jitter:     p.Jitter,
	})
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// execute runs the attempt loop for one logical call. The loop is bounded by
// MaxAttempts; every exit returns the outcome of the last attempt unchanged,
// except when ctx ends during a wait.
func (c *Client) execute(ctx context.Context, r *Request, template *http.Request, policy RetryPolicy, rc *callInfo) (*http.Response, error) {
	var (
		resp *http.Response
		err  error
	)

	for attempt := 1; attempt <= policy.MaxAttempts(); attempt++ {
		if c.limiter != nil {
			if werr := c.limiter.Wait(ctx); werr != nil {
				c.metrics.RecordError(ErrorTypeRateLimit, rc.method, rc.endpoint)
				return nil, c.newClientError(ErrorTypeRateLimit, "rate limiter wait failed", werr, rc, attempt)
			}
		}

		if attempt > 1 {
			c.metrics.RecordRetry(rc.method, rc.endpoint, attempt-1)
		}

		started := time.Now()
		resp, err = c.executeMiddleware(r.attemptRequest(ctx, template))
		c.metrics.RecordAttempt(rc.method, rc.endpoint, statusOf(resp), time.Since(started))
		if err != nil {
			c.metrics.RecordError(ClassifyError(err), rc.method, rc.endpoint)
		}

		if !policy.Retryable(resp, err, attempt) {
			break
		}

		delay := policy.Delay(attempt)
		info := RetryInfo{
			RequestID:  rc.requestID,
			Attempt:    attempt,
			Delay:      delay,
			Err:        err,
			StatusCode: statusOf(resp),
			Elapsed:    time.Since(rc.start),
		}
		c.logger.Warn("Request failed, will retry",
			"requestID", rc.requestID,
			"attempt", attempt,
			"maxAttempts", policy.MaxAttempts(),
			"statusCode", info.StatusCode,
			"error", errString(err),
			"nextDelay", delay,
		)
		rc.span.retry(info)
		if c.onRetry != nil {
			c.onRetry(info)
		}

		discard(resp)
		resp = nil

		if serr := c.sleep(ctx, delay); serr != nil {
			return nil, serr
		}
	}

	return resp, err
}

func (c *Client) executeMiddleware(req *http.Request) (*http.Response, error) {
	if len(c.middleware) == 0 {
		return c.doer.Do(req)
	}

	current := RoundTripperFunc(c.doer.Do)

	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware := c.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current.RoundTrip(req)
}

// discard drains and closes the body of a response that will not be returned.
func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, resp.Body, drainLimit)
	resp.Body.Close()
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
