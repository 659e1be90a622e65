package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdf-ingest/pkg/fetch"
)

// System defines the document ingestion and retrieval operations.
type System interface {
	// IngestBytes validates, stores, and registers an uploaded PDF.
	IngestBytes(ctx context.Context, cmd IngestCommand) (*Document, error)

	// IngestURL downloads a PDF and ingests it like an upload.
	IngestURL(ctx context.Context, rawURL string) (*Document, error)

	// Path returns the on-disk location of a registered document.
	// Returns ErrMissingOnDisk when the registry and storage disagree.
	Path(ctx context.Context, id uuid.UUID) (string, error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Metadata(ctx context.Context, id uuid.UUID) (*Metadata, error)
	List(ctx context.Context) []Document

	// Delete removes the registry entry and the stored file.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Fetcher retrieves remote documents.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Response, error)
}
