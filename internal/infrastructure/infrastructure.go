// Package infrastructure assembles the core systems that domain systems
// require: lifecycle coordination, logging, document storage, and the
// remote fetcher.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/JaimeStill/pdf-ingest/internal/config"
	"github.com/JaimeStill/pdf-ingest/pkg/fetch"
	"github.com/JaimeStill/pdf-ingest/pkg/lifecycle"
	"github.com/JaimeStill/pdf-ingest/pkg/logging"
	"github.com/JaimeStill/pdf-ingest/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Storage   storage.System
	Fetcher   *fetch.Fetcher
}

// New creates an Infrastructure from a finalized configuration, logging to w.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config, w io.Writer) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := logging.New(&cfg.Logging, w)

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	fetcher := fetch.New(
		&cfg.Fetch,
		logger,
		fetch.WithMaxBodySize(cfg.Storage.MaxUploadSizeBytes()),
	)

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Storage:   store,
		Fetcher:   fetcher,
	}, nil
}

// Start registers infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
