package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strconv"
	"strings"

	"github.com/docker/go-units"
	"github.com/google/uuid"

	"github.com/JaimeStill/pdf-ingest/pkg/fetch"
	"github.com/JaimeStill/pdf-ingest/pkg/filename"
	"github.com/JaimeStill/pdf-ingest/pkg/storage"
)

var pdfMagic = []byte("%PDF-")

const maxLoggedMediaType = 64

func (s *service) IngestBytes(ctx context.Context, cmd IngestCommand) (*Document, error) {
	if strings.TrimSpace(cmd.Filename) == "" {
		return nil, ErrNoFilename
	}
	if !filename.HasExtension(strings.TrimSpace(cmd.Filename)) {
		return nil, ErrInvalidExtension
	}

	name := filename.Sanitize(cmd.Filename, filename.DefaultFallback, filename.DefaultMaxLength)

	s.logger.Debug(
		"ingesting upload",
		"filename", name,
		"declared_type", logMediaType(cmd.ContentType),
		"declared_size", cmd.DeclaredSize,
	)

	return s.ingest(ctx, ingestion{
		name:         name,
		source:       SourceUpload,
		declaredSize: cmd.DeclaredSize,
		data:         cmd.Data,
	})
}

func (s *service) IngestURL(ctx context.Context, rawURL string) (*Document, error) {
	resp, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, mapFetchError(err)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isPDFMediaType(contentType) {
		s.logger.Warn("remote content is not a pdf", "url", redactURL(rawURL), "content_type", logMediaType(contentType))
		return nil, ErrInvalidContent
	}

	name := remoteFilename(resp.Header.Get("Content-Disposition"), rawURL)

	declared := int64(len(resp.Body))
	if v := resp.Header.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			declared = n
		}
	}

	return s.ingest(ctx, ingestion{
		name:         name,
		source:       SourceURL,
		sourceURL:    redactURL(rawURL),
		declaredSize: declared,
		data:         bytes.NewReader(resp.Body),
	})
}

type ingestion struct {
	name         string
	source       Source
	sourceURL    string
	declaredSize int64
	data         io.Reader
}

// ingest writes the document, verifies it is a PDF, extracts metadata,
// and registers it. The stored file is removed on any failure after the
// write so that only fully ingested documents remain on disk.
func (s *service) ingest(ctx context.Context, in ingestion) (*Document, error) {
	if in.declaredSize > s.maxUploadSize {
		return nil, fmt.Errorf("%w: declared %s, limit %s",
			ErrTooLarge, units.HumanSize(float64(in.declaredSize)), units.HumanSize(float64(s.maxUploadSize)))
	}
	if in.data == nil {
		return nil, ErrInvalidContent
	}

	id := uuid.New()
	key := storageKey(id)

	written, err := s.storage.Store(ctx, key, in.data, s.maxUploadSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, ErrTooLarge
		}
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	path, err := s.storage.Path(ctx, key)
	if err != nil {
		s.discard(ctx, key)
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if err := s.verifyMagic(ctx, key); err != nil {
		s.discard(ctx, key)
		return nil, err
	}

	md := s.extractor.Extract(path)

	if err := ctx.Err(); err != nil {
		s.discard(ctx, key)
		return nil, err
	}

	doc := Document{
		ID:               id,
		OriginalFilename: in.name,
		StoredPath:       path,
		ByteSize:         written,
		MediaType:        MediaTypePDF,
		Source:           in.source,
		SourceURL:        in.sourceURL,
		IngestedAt:       s.now().UTC(),
		Metadata:         md,
	}

	s.registry.Insert(doc)

	s.logger.Info(
		"document ingested",
		"id", doc.ID,
		"filename", doc.OriginalFilename,
		"source", doc.Source,
		"size", units.HumanSize(float64(doc.ByteSize)),
		"pages", md.PageCount,
		"provenance", md.Provenance,
	)

	return &doc, nil
}

func (s *service) verifyMagic(ctx context.Context, key string) error {
	r, err := s.storage.Open(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	defer r.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(r, head); err != nil {
		return ErrInvalidContent
	}
	if !bytes.Equal(head, pdfMagic) {
		return ErrInvalidContent
	}
	return nil
}

func (s *service) discard(ctx context.Context, key string) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Error("cleanup failed after rejected ingestion", "key", key, "error", err)
	}
}

func remoteFilename(disposition, rawURL string) string {
	if strings.TrimSpace(disposition) != "" {
		return filename.ParseContentDisposition(disposition, filename.DefaultFallback)
	}
	return filename.FromURL(rawURL, filename.DefaultFallback)
}

func isPDFMediaType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), MediaTypePDF)
}

// logMediaType reduces an untrusted Content-Type to its bare media type so
// that only token characters reach a log field.
func logMediaType(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return ""
	}
	mt, _, _ := mime.ParseMediaType(contentType)
	if mt == "" {
		return "invalid"
	}
	if len(mt) > maxLoggedMediaType {
		mt = mt[:maxLoggedMediaType]
	}
	return mt
}

func mapFetchError(err error) error {
	switch {
	case errors.Is(err, fetch.ErrTimeout):
		return fmt.Errorf("%w: %w", ErrFetchTimeout, err)
	case errors.Is(err, fetch.ErrRemoteRejected):
		return fmt.Errorf("%w: %w", ErrRemoteRejected, err)
	case errors.Is(err, fetch.ErrInvalidURL):
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	case errors.Is(err, fetch.ErrBodyTooLarge):
		return fmt.Errorf("%w: %w", ErrTooLarge, err)
	default:
		return err
	}
}

func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Redacted()
}
