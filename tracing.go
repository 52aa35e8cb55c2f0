package fastfetch

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/hoangsonww/FastFetch-API-Fetch-Enhancer"

type tracer struct {
	tracer trace.Tracer
}

func newTracer(tp trace.TracerProvider) *tracer {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &tracer{tracer: tp.Tracer(tracerName, trace.WithInstrumentationVersion(Version))}
}

// callSpan is the span of one logical call. A nil callSpan is a no-op.
type callSpan struct {
	span trace.Span
}

func (t *tracer) start(ctx context.Context, rc *callInfo, policy RetryPolicy, dedup bool) (context.Context, *callSpan) {
	ctx, span := t.tracer.Start(ctx, "fastfetch "+rc.method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", rc.method),
			attribute.String("fastfetch.endpoint", rc.endpoint),
			attribute.String("fastfetch.request_id", rc.requestID),
			attribute.Int("fastfetch.max_retries", policy.MaxRetries),
			attribute.Bool("fastfetch.deduplicate", dedup),
		),
	)
	return ctx, &callSpan{span: span}
}

func (s *callSpan) deduplicated() {
	if s == nil {
		return
	}
	s.span.AddEvent("deduplicated")
	s.span.SetAttributes(attribute.Bool("fastfetch.shared", true))
}

func (s *callSpan) retry(info RetryInfo) {
	if s == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.Int("fastfetch.attempt", info.Attempt),
		attribute.Int64("fastfetch.delay_ms", info.Delay.Milliseconds()),
		attribute.Int("http.response.status_code", info.StatusCode),
	}
	if info.Err != nil {
		attrs = append(attrs, attribute.String("error.type", ClassifyError(info.Err)))
	}
	s.span.AddEvent("retry", trace.WithAttributes(attrs...))
}

func (s *callSpan) end(status int, err error) {
	if s == nil {
		return
	}
	if status > 0 {
		s.span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}
