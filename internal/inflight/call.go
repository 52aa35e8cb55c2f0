package inflight

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
)

// Call is a pending result shared by every caller attached to one signature.
// It settles exactly once.
type Call struct {
	response *http.Response
	err      error

	done    chan struct{}
	once    sync.Once
	waiters atomic.Int64
}

func newCall() *Call {
	c := &Call{done: make(chan struct{})}
	c.waiters.Store(1)
	return c
}

// Complete settles the call. Only the first invocation has any effect.
func (c *Call) Complete(resp *http.Response, err error) {
	c.once.Do(func() {
		c.response = resp
		c.err = err
		close(c.done)
	})
}

// Done is closed once the call has settled.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call settles or ctx ends. A caller that stops
// waiting does not affect the call itself.
func (c *Call) Wait(ctx context.Context) (*http.Response, error) {
	select {
	case <-c.done:
		return c.response, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the settled outcome and whether the call has settled.
func (c *Call) Result() (*http.Response, error, bool) {
	select {
	case <-c.done:
		return c.response, c.err, true
	default:
		return nil, nil, false
	}
}

// Waiters reports how many callers attached to the call, the owner included.
func (c *Call) Waiters() int {
	return int(c.waiters.Load())
}
