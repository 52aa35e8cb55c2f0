package fastfetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Error types used for ClientError.Type and metric labels.
const (
	ErrorTypeNetwork    = "Network"
	ErrorTypeTimeout    = "Timeout"
	ErrorTypeCanceled   = "Canceled"
	ErrorTypeRateLimit  = "RateLimit"
	ErrorTypeValidation = "Validation"
)

var (
	// ErrNilRequest is returned when Do or Send receives a nil request.
	ErrNilRequest = errors.New("fastfetch: nil request")

	// ErrInvalidConfig is matched by validation errors through errors.Is.
	ErrInvalidConfig = &ClientError{Type: ErrorTypeValidation}
)

// ClientError reports failures that originate in the client itself, such as
// invalid configuration or a rate limiter that cannot admit an attempt.
// Errors returned by the underlying request primitive are never wrapped.
type ClientError struct {
	Type      string
	Message   string
	Cause     error
	RequestID string
	Method    string
	Endpoint  string
	Attempt   int
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (attempt %d)", msg, e.Attempt)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

func (c *Client) newClientError(errorType, message string, cause error, rc *callInfo, attempt int) *ClientError {
	return &ClientError{
		Type:      errorType,
		Message:   message,
		Cause:     cause,
		RequestID: rc.requestID,
		Method:    rc.method,
		Endpoint:  rc.endpoint,
		Attempt:   attempt,
	}
}

// ClassifyError returns the error type label for err without changing it.
func ClassifyError(err error) string {
	var clientErr *ClientError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &clientErr):
		return clientErr.Type
	case errors.Is(err, context.Canceled):
		return ErrorTypeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTimeout
	}
	return ErrorTypeNetwork
}
