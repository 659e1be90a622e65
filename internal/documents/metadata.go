package documents

import (
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxFieldLength is the longest descriptive field, in characters, kept
// from a document's info dictionary.
const MaxFieldLength = 1000

// ParsedInfo is the raw result of parsing a PDF.
type ParsedInfo struct {
	PageCount        int
	Encrypted        bool
	Title            string
	Author           string
	Subject          string
	Creator          string
	Producer         string
	CreationDate     *time.Time
	ModificationDate *time.Time
}

// Parser reads the structure and info dictionary of the PDF at path.
type Parser interface {
	Parse(path string) (*ParsedInfo, error)
}

// ExtractorOption configures a MetadataExtractor.
type ExtractorOption func(*MetadataExtractor)

// WithClock sets the time source used to reject future dates.
func WithClock(now func() time.Time) ExtractorOption {
	return func(e *MetadataExtractor) {
		e.now = now
	}
}

// MetadataExtractor turns parser output into validated Metadata.
type MetadataExtractor struct {
	parser Parser
	now    func() time.Time
	logger *slog.Logger
}

// NewMetadataExtractor creates an extractor around parser.
func NewMetadataExtractor(parser Parser, logger *slog.Logger, opts ...ExtractorOption) *MetadataExtractor {
	e := &MetadataExtractor{
		parser: parser,
		now:    time.Now,
		logger: logger.With("system", "metadata"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails. When the parser errors, the result carries
// ProvenanceFallback with a single page and no descriptive fields.
func (e *MetadataExtractor) Extract(path string) Metadata {
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	} else {
		e.logger.Warn("stat failed", "error", err)
	}

	parsed, err := e.parser.Parse(path)
	if err != nil {
		e.logger.Warn("pdf parse failed, using fallback metadata", "error", err)
		return Metadata{
			PageCount:  1,
			FileSize:   size,
			Provenance: ProvenanceFallback,
		}
	}

	md := Metadata{
		PageCount:  max(parsed.PageCount, 1),
		FileSize:   size,
		Encrypted:  parsed.Encrypted,
		Title:      e.field("title", parsed.Title),
		Author:     e.field("author", parsed.Author),
		Subject:    e.field("subject", parsed.Subject),
		Creator:    e.field("creator", parsed.Creator),
		Producer:   e.field("producer", parsed.Producer),
		Provenance: ProvenanceFull,
	}

	now := e.now()

	if d := parsed.CreationDate; d != nil {
		if d.After(now) {
			e.logger.Debug("dropping future creation date", "date", d)
		} else {
			md.CreationDate = d
		}
	}

	if d := parsed.ModificationDate; d != nil {
		switch {
		case d.After(now):
			e.logger.Debug("dropping future modification date", "date", d)
		case md.CreationDate != nil && d.Before(*md.CreationDate):
			e.logger.Debug("dropping modification date before creation", "date", d)
		default:
			md.ModificationDate = d
		}
	}

	return md
}

func (e *MetadataExtractor) field(name, value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if utf8.RuneCountInString(value) > MaxFieldLength {
		e.logger.Debug("dropping oversized field", "field", name)
		return nil
	}
	return &value
}
