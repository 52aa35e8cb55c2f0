package fastfetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const testURL = "http://example.com/resource"

var errConnRefused = errors.New("dial tcp 127.0.0.1:1: connect: connection refused")

// stepFunc produces the outcome of one attempt.
type stepFunc func(req *http.Request) (*http.Response, error)

// scriptedDoer replays steps in order, repeating the last one.
type scriptedDoer struct {
	mu       sync.Mutex
	steps    []stepFunc
	requests []*http.Request
	bodies   []string
	calls    atomic.Int32
}

func newScriptedDoer(steps ...stepFunc) *scriptedDoer {
	return &scriptedDoer{steps: steps}
}

func (d *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		req.Body.Close()
		body = string(b)
	}

	d.mu.Lock()
	i := len(d.requests)
	d.requests = append(d.requests, req)
	d.bodies = append(d.bodies, body)
	step := d.steps[len(d.steps)-1]
	if i < len(d.steps) {
		step = d.steps[i]
	}
	d.mu.Unlock()

	d.calls.Add(1)
	return step(req)
}

func (d *scriptedDoer) Calls() int {
	return int(d.calls.Load())
}

func (d *scriptedDoer) Bodies() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.bodies...)
}

func respond(status int, body string) stepFunc {
	return func(req *http.Request) (*http.Response, error) {
		return newResponse(req, status, body), nil
	}
}

func fail(err error) stepFunc {
	return func(*http.Request) (*http.Response, error) {
		return nil, err
	}
}

func newResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": {"text/plain"}},
		Body:       &trackedBody{Reader: strings.NewReader(body)},
		Request:    req,
	}
}

// trackedBody records whether Close was called.
type trackedBody struct {
	*strings.Reader
	closed atomic.Bool
}

func (b *trackedBody) Close() error {
	b.closed.Store(true)
	return nil
}

// blockingDoer holds every request until release is closed.
type blockingDoer struct {
	release chan struct{}
	status  int
	body    string
	err     error
	calls   atomic.Int32
	ctxErrs chan error
}

func newBlockingDoer(status int, body string) *blockingDoer {
	return &blockingDoer{
		release: make(chan struct{}),
		status:  status,
		body:    body,
		ctxErrs: make(chan error, 64),
	}
}

func (d *blockingDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls.Add(1)
	<-d.release
	d.ctxErrs <- req.Context().Err()
	if d.err != nil {
		return nil, d.err
	}
	return newResponse(req, d.status, d.body), nil
}

func (d *blockingDoer) Calls() int {
	return int(d.calls.Load())
}

// recordingSleeper records requested delays without waiting.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
	err    error
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return s.err
}

func (s *recordingSleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func readBody(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return ""
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}
