package fastfetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSignature(t *testing.T) {
	a := &Request{URL: testURL}
	b := &Request{URL: testURL, Method: http.MethodGet, Body: []byte{}}
	assert.Equal(t, a.Signature(), b.Signature())

	c := &Request{URL: testURL, Method: http.MethodPost}
	assert.NotEqual(t, a.Signature(), c.Signature())

	d := &Request{URL: testURL, Header: http.Header{"accept": {"x"}}}
	e := &Request{URL: testURL, Header: http.Header{"Accept": {"x"}}}
	assert.Equal(t, d.Signature(), e.Signature())
}

func TestNewHTTPRequest(t *testing.T) {
	r := &Request{URL: testURL, Header: http.Header{"X-A": {"1"}}}
	req, err := r.newHTTPRequest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Nil(t, req.Body)

	req.Header.Set("X-A", "2")
	assert.Equal(t, "1", r.Header.Get("X-A"), "the template owns its headers")

	r.Body = []byte("abc")
	req, err = r.newHTTPRequest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), req.ContentLength)
}

func TestAttemptRequestFreshBody(t *testing.T) {
	r := &Request{URL: testURL, Method: http.MethodPost, Body: []byte("payload")}
	template, err := r.newHTTPRequest(context.Background())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		req := r.attemptRequest(context.Background(), template)
		b, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(b))
	}
}

func TestRequestFromHTTP(t *testing.T) {
	t.Run("with GetBody", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, testURL, strings.NewReader("data"))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "text/plain")

		r, err := requestFromHTTP(req)
		require.NoError(t, err)
		want := &Request{
			URL:    testURL,
			Method: http.MethodPost,
			Header: http.Header{"Content-Type": {"text/plain"}},
			Body:   []byte("data"),
		}
		if diff := cmp.Diff(want, r); diff != "" {
			t.Errorf("requestFromHTTP mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("without GetBody", func(t *testing.T) {
		body := &trackedBody{Reader: strings.NewReader("once")}
		req, err := http.NewRequest(http.MethodPut, testURL, body)
		require.NoError(t, err)

		r, err := requestFromHTTP(req)
		require.NoError(t, err)
		assert.Equal(t, []byte("once"), r.Body)
		assert.True(t, body.closed.Load())
	})

	t.Run("no body", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, testURL, nil)
		require.NoError(t, err)

		r, err := requestFromHTTP(req)
		require.NoError(t, err)
		assert.Nil(t, r.Body)
		assert.Equal(t, (&Request{URL: testURL}).Signature(), r.Signature())
	})
}

func TestRequestOptions(t *testing.T) {
	cfg := newRequestConfig([]RequestOption{
		WithMethod("post"),
		WithHeader("x-one", "1"),
		WithHeaders(http.Header{"x-two": {"2", "3"}}),
		WithBody([]byte("b")),
		WithRetries(-2),
		WithRetryDelay(-time.Second),
		WithDeduplicate(false),
		nil,
	})

	r := &Request{URL: testURL, Header: http.Header{"X-Zero": {"0"}}}
	cfg.apply(r)

	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, http.Header{"X-Zero": {"0"}, "X-One": {"1"}, "X-Two": {"2", "3"}}, r.Header)
	assert.Equal(t, []byte("b"), r.Body)

	require.NotNil(t, cfg.retries)
	assert.Equal(t, 0, *cfg.retries)
	require.NotNil(t, cfg.retryDelay)
	assert.Equal(t, time.Duration(0), *cfg.retryDelay)
	require.NotNil(t, cfg.deduplicate)
	assert.False(t, *cfg.deduplicate)
}

func TestRequestOptionsDoNotAliasHeader(t *testing.T) {
	original := http.Header{"X-Trace": {"abc"}}
	r := &Request{URL: testURL, Header: original}

	cfg := newRequestConfig([]RequestOption{WithHeader("X-Extra", "1")})
	cfg.apply(r)

	assert.Equal(t, http.Header{"X-Trace": {"abc"}}, original)
	assert.Equal(t, "1", r.Header.Get("X-Extra"))
	assert.Equal(t, "abc", r.Header.Get("X-Trace"))
}

func TestRequestOptionsLeaveUnsetFields(t *testing.T) {
	cfg := newRequestConfig(nil)
	r := &Request{URL: testURL, Method: http.MethodDelete, Body: []byte("keep")}
	cfg.apply(r)

	assert.Equal(t, http.MethodDelete, r.Method)
	assert.Equal(t, []byte("keep"), r.Body)
	assert.Nil(t, r.Header)
}

func TestPolicyFor(t *testing.T) {
	predicate := func(*http.Response, error, int) bool { return true }
	client := New(WithDefaultRetries(2), WithDefaultRetryDelay(time.Minute))

	p := client.policyFor(newRequestConfig(nil))
	assert.Equal(t, 2, p.MaxRetries)
	assert.Equal(t, time.Minute, p.RetryDelay)
	assert.Nil(t, p.ShouldRetry)

	p = client.policyFor(newRequestConfig([]RequestOption{
		WithRetries(5), WithRetryDelay(time.Millisecond), WithShouldRetry(predicate),
	}))
	assert.Equal(t, 5, p.MaxRetries)
	assert.Equal(t, time.Millisecond, p.RetryDelay)
	assert.NotNil(t, p.ShouldRetry)
}

func TestGetEndpoint(t *testing.T) {
	tests := map[string]string{
		"http://example.com":              "example.com/",
		"http://example.com/":             "example.com/",
		"https://api.example.com/v1/user": "api.example.com/v1/user",
		"http://example.com/a?q=1":        "example.com/a",
		"not a url":                       "unknown",
		"%":                               "unknown",
	}
	for in, want := range tests {
		assert.Equal(t, want, getEndpoint(in), in)
	}
}

func TestBufferResponse(t *testing.T) {
	body := &trackedBody{Reader: strings.NewReader("hello")}
	resp := &http.Response{StatusCode: http.StatusOK, Body: body}

	require.NoError(t, bufferResponse(resp))
	assert.True(t, body.closed.Load())

	first := cloneResponse(resp)
	second := cloneResponse(resp)
	assert.Equal(t, "hello", readBody(first))
	assert.Equal(t, "hello", readBody(second))

	resp = &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody}
	require.NoError(t, bufferResponse(resp))
	assert.Equal(t, "", readBody(cloneResponse(resp)))
}

func TestCloneResponseUnbufferedBody(t *testing.T) {
	body := io.NopCloser(bytes.NewReader([]byte("x")))
	resp := &http.Response{Body: body, Header: http.Header{}}
	clone := cloneResponse(resp)
	assert.Equal(t, body, clone.Body)
}
