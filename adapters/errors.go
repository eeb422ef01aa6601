package adapters

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/kulucloud/kulu/types"
)

// AdapterError is the typed failure an adapter surfaces after its retry
// budget is spent, or immediately for non-transient causes. Retryable is
// false by the time the stage above sees it.
type AdapterError struct {
	Provider  types.Provider
	Op        string
	Cause     error
	Retryable bool
}

// Error implements error.
func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s adapter: %s: %v", e.Provider, e.Op, e.Cause)
}

// Unwrap exposes the cause for errors.Is/As.
func (e *AdapterError) Unwrap() error {
	return e.Cause
}

// statusCoder matches SDK errors that carry an HTTP status as a method,
// notably smithy transport errors from aws-sdk-go-v2.
type statusCoder interface {
	HTTPStatusCode() int
}

// Transient reports whether an error is worth retrying: HTTP 429, any 5xx,
// or a connection-level failure. Authorization, validation, and not-found
// errors are permanent.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	if code, ok := httpStatus(err); ok {
		return code == 429 || code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// SDKs that wrap transport failures without a typed error.
	msg := err.Error()
	for _, tok := range []string{"connection reset", "connection refused", "TLS handshake timeout", "i/o timeout", "unexpected EOF"} {
		if strings.Contains(msg, tok) {
			return true
		}
	}
	return false
}

// httpStatus extracts an HTTP status from the error chain. azcore and
// googleapi errors embed the status in their message; probing the text
// keeps this package free of direct SDK imports.
func httpStatus(err error) (int, bool) {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode(), true
	}

	msg := err.Error()
	for _, probe := range []struct {
		token string
		code  int
	}{
		// Named throttle codes come first: GCP rate limits surface as
		// "Error 403: rateLimitExceeded" and must read as 429.
		{"Throttling", 429},
		{"TooManyRequests", 429},
		{"RequestLimitExceeded", 429},
		{"rateLimitExceeded", 429},
		// azcore.ResponseError: "RESPONSE 429: 429 Too Many Requests"
		{"RESPONSE 429", 429},
		{"RESPONSE 500", 500},
		{"RESPONSE 502", 502},
		{"RESPONSE 503", 503},
		{"RESPONSE 403", 403},
		{"RESPONSE 404", 404},
		// googleapi.Error: "googleapi: Error 429: ..."
		{"Error 429", 429},
		{"Error 500", 500},
		{"Error 503", 503},
		{"Error 403", 403},
		{"Error 404", 404},
	} {
		if strings.Contains(msg, probe.token) {
			return probe.code, true
		}
	}
	return 0, false
}
