package fastfetch

import (
	"context"
	"net/http"
	"time"
)

// Doer performs one HTTP request. *http.Client satisfies it and is the
// default; the client never opens connections itself.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// RoundTripper represents the HTTP transport interface seen by middleware.
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc adapts a function to RoundTripper and http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req).
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware wraps every underlying attempt, retries included.
type Middleware func(req *http.Request, next RoundTripper) (*http.Response, error)

// ShouldRetryFunc decides whether a failed attempt is retried. Exactly one of
// resp and err is non-nil. attempt starts at 1.
type ShouldRetryFunc func(resp *http.Response, err error, attempt int) bool

// Sleeper waits d before a retry. It returns early with an error when ctx
// ends.
type Sleeper func(ctx context.Context, d time.Duration) error

// RetryInfo describes a retry that is about to be scheduled.
type RetryInfo struct {
	RequestID  string
	Attempt    int           // attempt that just failed, starting at 1
	Delay      time.Duration // wait before the next attempt
	Err        error         // transport error, nil when a response triggered the retry
	StatusCode int           // status of the failed response, 0 on transport error
	Elapsed    time.Duration // time since the first attempt started
}

// OnRetryFunc observes retries. It must not block.
type OnRetryFunc func(info RetryInfo)

// Option configures a Client.
type Option func(*Client)

// sleepContext is the default Sleeper.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
