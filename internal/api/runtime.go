package api

import (
	"github.com/JaimeStill/pdf-ingest/internal/config"
	"github.com/JaimeStill/pdf-ingest/internal/documents"
	"github.com/JaimeStill/pdf-ingest/internal/infrastructure"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	MaxUploadSize int64
	Extractor     *documents.MetadataExtractor
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	logger := infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Storage:   infra.Storage,
			Fetcher:   infra.Fetcher,
		},
		MaxUploadSize: cfg.Storage.MaxUploadSizeBytes(),
		Extractor:     documents.NewMetadataExtractor(documents.NewPDFParser(), logger),
	}
}
