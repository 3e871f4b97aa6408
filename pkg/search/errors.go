package search

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var (
	ErrTransport       = errors.New("transport error")
	ErrResponse        = errors.New("unexpected response")
	ErrMalformedResult = errors.New("malformed result")
)

// TransportError reports a network or HTTP layer failure. It is never
// suppressed by the safe mode.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to '%s' failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// ResponseError reports a payload that could be read but not used: a body
// that is not JSON or a JSON document missing an expected key.
type ResponseError struct {
	StatusCode int
	Body       string
	// Key is the missing key, if any.
	Key string
	Err error
}

func (e *ResponseError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("could not extract '%s' from response (status %d)", e.Key, e.StatusCode)
	}

	return fmt.Sprintf("request returned with code %d, error msg: %s", e.StatusCode, truncate(e.Body, maxErrorBody))
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

func (e *ResponseError) Is(target error) bool {
	return target == ErrResponse
}

// MalformedResultError reports a result item missing one of its required
// fields. It always aborts the search.
type MalformedResultError struct {
	Field string
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("malformed result: missing or invalid field '%s'", e.Field)
}

func (e *MalformedResultError) Is(target error) bool {
	return target == ErrMalformedResult
}

const maxErrorBody = 512

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n] + "..."
}
