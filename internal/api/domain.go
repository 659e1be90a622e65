package api

import "github.com/JaimeStill/pdf-ingest/internal/documents"

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents documents.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	return &Domain{
		Documents: documents.New(
			runtime.Storage,
			runtime.Fetcher,
			runtime.Extractor,
			runtime.Logger,
			runtime.MaxUploadSize,
		),
	}
}
