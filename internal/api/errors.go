package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidResponse is returned when the server answers with a variant
// the endpoint does not allow.
var ErrInvalidResponse = errors.New("invalid response")

// RequestError is a transport failure or a non-2xx status.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int    // 0 for transport failures
	Body       string // response body, truncated
	Err        error  // transport error, nil for status failures
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: request failed: %v", e.Method, e.Path, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (e *RequestError) Unwrap() error { return e.Err }

// IsNotFound reports a 404.
func (e *RequestError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsServerError reports a 5xx.
func (e *RequestError) IsServerError() bool { return e.StatusCode >= 500 && e.StatusCode < 600 }

// ParseError is a 2xx body that did not decode into the expected type.
type ParseError struct {
	Method string
	Path   string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s: failed to parse response: %v", e.Method, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 RequestError.
func IsNotFound(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.IsNotFound()
}
