// Package documents ingests PDF documents from uploads and remote URLs,
// stores them under generated identifiers, extracts their metadata, and
// tracks them in an in-memory registry.
package documents

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// MediaTypePDF is the media type of every ingested document.
const MediaTypePDF = "application/pdf"

// Source identifies how a document's bytes arrived.
type Source string

const (
	SourceUpload Source = "upload"
	SourceURL    Source = "url"
)

// Provenance records whether metadata came from a successful parse or is
// the minimal fallback produced when parsing failed.
type Provenance string

const (
	ProvenanceFull     Provenance = "full"
	ProvenanceFallback Provenance = "fallback"
)

// Metadata describes the contents of a stored PDF.
// Descriptive fields are nil when absent or rejected by validation.
type Metadata struct {
	PageCount        int        `json:"page_count"`
	FileSize         int64      `json:"file_size"`
	Encrypted        bool       `json:"encrypted"`
	Title            *string    `json:"title,omitempty"`
	Author           *string    `json:"author,omitempty"`
	Subject          *string    `json:"subject,omitempty"`
	Creator          *string    `json:"creator,omitempty"`
	Producer         *string    `json:"producer,omitempty"`
	CreationDate     *time.Time `json:"creation_date,omitempty"`
	ModificationDate *time.Time `json:"modification_date,omitempty"`
	Provenance       Provenance `json:"provenance"`
}

// Document is an ingested PDF. StoredPath is derived from ID alone and is
// never exposed over HTTP.
type Document struct {
	ID               uuid.UUID `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	StoredPath       string    `json:"-"`
	ByteSize         int64     `json:"byte_size"`
	MediaType        string    `json:"media_type"`
	Source           Source    `json:"source"`
	SourceURL        string    `json:"source_url,omitempty"`
	IngestedAt       time.Time `json:"ingested_at"`
	Metadata         Metadata  `json:"metadata"`
}

// IngestCommand carries an uploaded file into the pipeline.
// DeclaredSize is the client-reported size, or -1 when unknown.
type IngestCommand struct {
	Filename     string
	ContentType  string
	DeclaredSize int64
	Data         io.Reader
}

// IngestURLCommand requests ingestion of a remote document.
type IngestURLCommand struct {
	URL string `json:"url"`
}

func storageKey(id uuid.UUID) string {
	return id.String() + ".pdf"
}
