// Package fastfetch wraps an HTTP request primitive with two reliability
// features:
//
//   - Request deduplication: concurrent calls for the same method, URL,
//     headers and body share one underlying request and observe the same
//     outcome.
//   - Retries: transport failures are retried up to a per-call limit with a
//     fixed (or optionally growing) delay; non-2xx responses are retried only
//     when a ShouldRetry predicate opts them in.
//
// Without options a call behaves like a single plain request, so the wrapper
// is a strict superset of the primitive it wraps.
//
// Typical usage:
//
//	client := fastfetch.New(
//	    fastfetch.WithZapLogger(logger),
//	    fastfetch.WithMetrics(),
//	)
//	resp, err := client.Fetch(ctx, "https://api.example.com/data",
//	    fastfetch.WithRetries(3),
//	    fastfetch.WithRetryDelay(500*time.Millisecond),
//	)
//
// Errors returned by the primitive reach the caller unchanged, so errors.Is
// and errors.As behave as they would without the wrapper.
//
// The in-flight registry is owned by the Client. Clients only deduplicate
// against each other when given the same registry through WithRegistry.
package fastfetch
