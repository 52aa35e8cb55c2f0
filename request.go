package fastfetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hoangsonww/FastFetch-API-Fetch-Enhancer/internal/signature"
)

// Request describes one logical call. It must not be modified while a call
// using it is in progress.
type Request struct {
	URL    string
	Method string // defaults to GET
	Header http.Header
	Body   []byte // nil means no body
}

// Signature returns the deduplication key of the request. Requests with the
// same URL, method, headers and body share a signature.
func (r *Request) Signature() string {
	return signature.Build(r.method(), r.URL, r.Header, r.Body)
}

func (r *Request) method() string {
	if r.Method == "" {
		return signature.DefaultMethod
	}
	return r.Method
}

// newHTTPRequest builds the template cloned by every attempt.
func (r *Request) newHTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method(), r.URL, body)
	if err != nil {
		return nil, err
	}
	if r.Header != nil {
		req.Header = r.Header.Clone()
	}
	return req, nil
}

// attemptRequest returns a copy of template bound to ctx with a fresh body.
func (r *Request) attemptRequest(ctx context.Context, template *http.Request) *http.Request {
	req := template.Clone(ctx)
	if len(r.Body) > 0 {
		req.Body = io.NopCloser(bytes.NewReader(r.Body))
	}
	return req
}

// requestFromHTTP captures an *http.Request as a Request. The body is read
// fully and closed.
func requestFromHTTP(req *http.Request) (*Request, error) {
	r := &Request{
		URL:    req.URL.String(),
		Method: req.Method,
		Header: req.Header.Clone(),
	}

	var src io.ReadCloser
	switch {
	case req.GetBody != nil:
		b, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		src = b
		if req.Body != nil {
			req.Body.Close()
		}
	case req.Body != nil && req.Body != http.NoBody:
		src = req.Body
	}

	if src != nil {
		defer src.Close()
		body, err := io.ReadAll(src)
		if err != nil {
			return nil, err
		}
		if len(body) > 0 {
			r.Body = body
		}
	}
	return r, nil
}

// RequestOption configures a single call. Options override the client's
// defaults for that call only.
type RequestOption func(*requestConfig)

type requestConfig struct {
	method      string
	header      http.Header
	body        []byte
	hasBody     bool
	retries     *int
	retryDelay  *time.Duration
	deduplicate *bool
	shouldRetry ShouldRetryFunc
}

func newRequestConfig(opts []RequestOption) requestConfig {
	var cfg requestConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// apply copies the descriptor fields set by options onto r.
func (cfg *requestConfig) apply(r *Request) {
	if cfg.method != "" {
		r.Method = cfg.method
	}
	if len(cfg.header) > 0 {
		// r.Header may be shared with the caller; merge into a copy.
		header := r.Header.Clone()
		if header == nil {
			header = make(http.Header, len(cfg.header))
		}
		for k, vs := range cfg.header {
			header[k] = append([]string(nil), vs...)
		}
		r.Header = header
	}
	if cfg.hasBody {
		r.Body = cfg.body
	}
}

// WithMethod sets the HTTP method.
func WithMethod(method string) RequestOption {
	return func(cfg *requestConfig) {
		cfg.method = strings.ToUpper(method)
	}
}

// WithHeader sets a request header, replacing earlier values for key.
func WithHeader(key, value string) RequestOption {
	return func(cfg *requestConfig) {
		if cfg.header == nil {
			cfg.header = make(http.Header)
		}
		cfg.header.Set(key, value)
	}
}

// WithHeaders merges h into the request headers.
func WithHeaders(h http.Header) RequestOption {
	return func(cfg *requestConfig) {
		if cfg.header == nil {
			cfg.header = make(http.Header, len(h))
		}
		for k, vs := range h {
			cfg.header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
		}
	}
}

// WithBody sets the request body. The slice is used as is.
func WithBody(body []byte) RequestOption {
	return func(cfg *requestConfig) {
		cfg.body = body
		cfg.hasBody = true
	}
}

// WithRetries sets how many times a failed attempt may be retried. Negative
// values are treated as zero.
func WithRetries(n int) RequestOption {
	return func(cfg *requestConfig) {
		if n < 0 {
			n = 0
		}
		cfg.retries = &n
	}
}

// WithRetryDelay sets the wait before each retry. Negative values are
// treated as zero.
func WithRetryDelay(d time.Duration) RequestOption {
	return func(cfg *requestConfig) {
		if d < 0 {
			d = 0
		}
		cfg.retryDelay = &d
	}
}

// WithDeduplicate enables or disables in-flight deduplication for the call.
func WithDeduplicate(enabled bool) RequestOption {
	return func(cfg *requestConfig) {
		cfg.deduplicate = &enabled
	}
}

// WithShouldRetry sets the retry predicate for the call. With a predicate,
// non-2xx responses become retry candidates as well as transport errors.
func WithShouldRetry(fn ShouldRetryFunc) RequestOption {
	return func(cfg *requestConfig) {
		cfg.shouldRetry = fn
	}
}

// getEndpoint extracts host+path for metric labels.
func getEndpoint(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}

	var builder strings.Builder
	builder.WriteString(u.Host)
	if u.Path != "" && u.Path != "/" {
		builder.WriteString(u.Path)
	} else {
		builder.WriteByte('/')
	}
	return builder.String()
}
