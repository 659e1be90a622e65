// Package storage persists document bytes on the local filesystem.
// Keys map to relative file paths under a configured base directory and
// writes are made durable through a temporary file and an atomic rename.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/JaimeStill/pdf-ingest/pkg/lifecycle"
)

// Storage errors returned by System implementations.
var (
	// ErrNotFound indicates the requested key does not exist in storage.
	ErrNotFound = errors.New("storage: key not found")

	// ErrPermissionDenied indicates insufficient permissions to access the key.
	ErrPermissionDenied = errors.New("storage: permission denied")

	// ErrInvalidKey indicates the key is empty or escapes the base path.
	ErrInvalidKey = errors.New("storage: invalid key")

	// ErrTooLarge indicates the data exceeded the limit passed to Store.
	ErrTooLarge = errors.New("storage: data exceeds limit")
)

// System defines the storage operations used by the ingestion pipeline.
type System interface {
	// Store streams r into key and returns the number of bytes written.
	// When limit is positive and r yields more than limit bytes, nothing is
	// left at key and ErrTooLarge is returned.
	Store(ctx context.Context, key string, r io.Reader, limit int64) (int64, error)

	// Open returns a reader over the data at key.
	// Returns ErrNotFound if the key does not exist.
	Open(ctx context.Context, key string) (io.ReadSeekCloser, error)

	// Delete removes the data at key. A missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Validate reports whether key exists.
	// Returns (false, nil) if the key does not exist.
	Validate(ctx context.Context, key string) (bool, error)

	// Path resolves key to its absolute location without checking existence.
	Path(ctx context.Context, key string) (string, error)

	// Start registers lifecycle hooks: base directory creation and removal of
	// temporary files left behind by an interrupted write.
	Start(lc *lifecycle.Coordinator) error
}
