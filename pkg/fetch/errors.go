package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates every attempt failed with a transient network error.
	ErrTimeout = errors.New("fetch: retries exhausted")

	// ErrRemoteRejected indicates the origin answered with an HTTP error status.
	ErrRemoteRejected = errors.New("fetch: remote rejected request")

	// ErrInvalidURL indicates the URL is unparsable or not http(s).
	ErrInvalidURL = errors.New("fetch: invalid url")

	// ErrBodyTooLarge indicates the response body exceeded the configured limit.
	ErrBodyTooLarge = errors.New("fetch: response body too large")
)

// TimeoutError carries the number of attempts made before giving up and the
// last transient failure observed.
type TimeoutError struct {
	Attempts int
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetch: retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// RemoteRejectedError carries the HTTP status code returned by the origin.
type RemoteRejectedError struct {
	StatusCode int
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("fetch: remote rejected request with status %d", e.StatusCode)
}

func (e *RemoteRejectedError) Is(target error) bool {
	return target == ErrRemoteRejected
}
