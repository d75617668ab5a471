package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBody is returned when an upstream answers with no content.
	ErrEmptyBody = errors.New("empty response body")
	// ErrUnknownNode is returned when a request is pinned to a node that is not configured.
	ErrUnknownNode = errors.New("unknown egress node")
)

// NetworkError wraps a transport failure (DNS, dial, TLS, timeout).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// MalformedError is returned when a body cannot be decoded.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }
