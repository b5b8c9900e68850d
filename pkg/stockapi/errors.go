package stockapi

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a resource the backend does not know about. It is a
// valid outcome for lookups, not a transport or service failure.
var ErrNotFound = errors.New("resource not found")

// ServiceError is a non-2xx response from the backend, carrying the
// status code and the backend's detail message when one was sent.
type ServiceError struct {
	Status int
	Detail string
}

func (e *ServiceError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend rejected request (status %d)", e.Status)
	}
	return fmt.Sprintf("backend rejected request (status %d): %s", e.Status, e.Detail)
}

// NetworkError is a transport-level failure: the request never produced
// an HTTP response, or the response body could not be read.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network failure: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
