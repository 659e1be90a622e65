package documents

import (
	"errors"
	"net/http"
)

// Domain errors for document operations.
var (
	ErrNoFilename       = errors.New("no filename provided")
	ErrInvalidExtension = errors.New("only .pdf files are accepted")
	ErrTooLarge         = errors.New("file exceeds maximum upload size")
	ErrInvalidContent   = errors.New("content is not a pdf document")
	ErrFetchTimeout     = errors.New("remote fetch timed out")
	ErrRemoteRejected   = errors.New("remote server rejected the request")
	ErrInvalidURL       = errors.New("invalid url")
	ErrNotFound         = errors.New("document not found")
	ErrMissingOnDisk    = errors.New("document file missing from storage")
	ErrStorage          = errors.New("storage failure")
)

var sentinels = []error{
	ErrNoFilename,
	ErrInvalidExtension,
	ErrTooLarge,
	ErrInvalidContent,
	ErrFetchTimeout,
	ErrRemoteRejected,
	ErrInvalidURL,
	ErrNotFound,
	ErrMissingOnDisk,
	ErrStorage,
}

// MapHTTPStatus converts domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoFilename),
		errors.Is(err, ErrInvalidExtension),
		errors.Is(err, ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidContent):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrFetchTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrRemoteRejected):
		return http.StatusBadGateway
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicError reduces err to the domain sentinel it wraps so that paths,
// upstream messages, and other internal detail stay out of responses.
func PublicError(err error) error {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s
		}
	}
	return errInternal
}

var errInternal = errors.New("internal error")
