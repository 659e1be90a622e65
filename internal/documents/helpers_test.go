package documents_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/JaimeStill/pdf-ingest/internal/documents"
	"github.com/JaimeStill/pdf-ingest/pkg/fetch"
	"github.com/JaimeStill/pdf-ingest/pkg/lifecycle"
	"github.com/JaimeStill/pdf-ingest/pkg/storage"
)

const testMaxUpload = 64 << 10

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// buildPDF returns a structurally valid PDF with the given page count and
// an optional Info dictionary. Cross-reference offsets are computed exactly.
func buildPDF(pages int, info map[string]string) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	obj("<< /Type /Catalog /Pages 2 0 R >>")

	var kids bytes.Buffer
	for i := range pages {
		fmt.Fprintf(&kids, "%d 0 R ", 3+i)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), pages))

	for range pages {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}

	infoRef := ""
	if len(info) > 0 {
		var d bytes.Buffer
		d.WriteString("<<")
		for k, v := range info {
			fmt.Fprintf(&d, " /%s (%s)", k, v)
		}
		d.WriteString(" >>")
		obj(d.String())
		infoRef = fmt.Sprintf(" /Info %d 0 R", len(offsets))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, infoRef, xref)

	return buf.Bytes()
}

func corruptPDF() []byte {
	return []byte("%PDF-1.4\nthis is not a real document body\n%%EOF\n")
}

type harness struct {
	sys   documents.System
	store storage.System
	dir   string
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	fetchOpts []fetch.Option
	wrapStore func(storage.System) storage.System
	logOut    io.Writer
}

func withFetchOptions(opts ...fetch.Option) harnessOption {
	return func(c *harnessConfig) {
		c.fetchOpts = append(c.fetchOpts, opts...)
	}
}

func withStore(wrap func(storage.System) storage.System) harnessOption {
	return func(c *harnessConfig) {
		c.wrapStore = wrap
	}
}

// withLogOutput captures debug-level JSON logs from every component.
func withLogOutput(w io.Writer) harnessOption {
	return func(c *harnessConfig) {
		c.logOut = w
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	cfg := &harnessConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	dir := t.TempDir()
	logger := testLogger()
	if cfg.logOut != nil {
		logger = slog.New(slog.NewJSONHandler(cfg.logOut, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	store, err := storage.New(&storage.Config{BasePath: dir}, logger)
	if err != nil {
		t.Fatalf("storage.New() failed: %v", err)
	}
	lc := lifecycle.New()
	store.Start(lc)
	lc.WaitForStartup()

	if cfg.wrapStore != nil {
		store = cfg.wrapStore(store)
	}

	fetchCfg := &fetch.Config{Timeout: "5s"}
	if err := fetchCfg.Finalize(nil); err != nil {
		t.Fatalf("fetch config: %v", err)
	}

	noSleep := func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	fetchOpts := append([]fetch.Option{
		fetch.WithSleeper(noSleep),
		fetch.WithMaxBodySize(testMaxUpload),
	}, cfg.fetchOpts...)

	fetcher := fetch.New(fetchCfg, logger, fetchOpts...)
	extractor := documents.NewMetadataExtractor(documents.NewPDFParser(), logger)

	return &harness{
		sys:   documents.New(store, fetcher, extractor, logger, testMaxUpload),
		store: store,
		dir:   dir,
	}
}

func (h *harness) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		t.Fatalf("read storage dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func (h *harness) upload(t *testing.T, name string, data []byte) *documents.Document {
	t.Helper()
	doc, err := h.sys.IngestBytes(context.Background(), documents.IngestCommand{
		Filename:     name,
		ContentType:  "application/pdf",
		DeclaredSize: int64(len(data)),
		Data:         bytes.NewReader(data),
	})
	if err != nil {
		t.Fatalf("IngestBytes(%q) failed: %v", name, err)
	}
	return doc
}
