package documents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdf-ingest/pkg/storage"
)

type service struct {
	storage       storage.System
	fetcher       Fetcher
	extractor     *MetadataExtractor
	registry      *Registry
	maxUploadSize int64
	now           func() time.Time
	logger        *slog.Logger
}

// New creates the document system. It owns a fresh Registry; documents
// registered by a previous process are not restored.
func New(
	store storage.System,
	fetcher Fetcher,
	extractor *MetadataExtractor,
	logger *slog.Logger,
	maxUploadSize int64,
) System {
	return &service{
		storage:       store,
		fetcher:       fetcher,
		extractor:     extractor,
		registry:      NewRegistry(),
		maxUploadSize: maxUploadSize,
		now:           time.Now,
		logger:        logger.With("system", "documents"),
	}
}

func (s *service) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	doc, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *service) Metadata(ctx context.Context, id uuid.UUID) (*Metadata, error) {
	doc, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return &doc.Metadata, nil
}

func (s *service) List(ctx context.Context) []Document {
	return s.registry.List()
}

func (s *service) Path(ctx context.Context, id uuid.UUID) (string, error) {
	doc, err := s.registry.Get(id)
	if err != nil {
		return "", err
	}

	exists, err := s.storage.Validate(ctx, storageKey(id))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if !exists {
		s.logger.Error("registered document missing from storage", "id", id)
		return "", ErrMissingOnDisk
	}

	return doc.StoredPath, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.registry.Remove(id)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, storageKey(id)); err != nil {
		s.registry.Insert(doc)
		s.logger.Error("delete failed, registry entry restored", "id", id, "error", err)
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	s.logger.Info("document deleted", "id", id)
	return nil
}
