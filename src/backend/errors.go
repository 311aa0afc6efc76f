package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuth means the backend rejected the credentials or token
	ErrAuth = errors.New("invalid or expired credentials")
	// ErrFetch covers every other failed request
	ErrFetch = errors.New("backend request failed")
	// ErrPaginationLimit is returned when a listing never reaches its empty page
	ErrPaginationLimit = errors.New("pagination limit exceeded")
)

// StatusError is a non-success HTTP response. It unwraps to ErrAuth for 401
// and to ErrFetch for anything else.
type StatusError struct {
	Backend    string
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Backend, e.Op, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrAuth
	}
	return ErrFetch
}

// TransportError wraps a request that never produced a usable response
type TransportError struct {
	Backend string
	Op      string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrFetch, e.Err}
}
