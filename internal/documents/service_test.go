package documents_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdf-ingest/internal/documents"
	"github.com/JaimeStill/pdf-ingest/pkg/fetch"
	"github.com/JaimeStill/pdf-ingest/pkg/storage"
)

func TestIngestBytes_Valid(t *testing.T) {
	h := newHarness(t)
	data := buildPDF(2, nil)

	doc := h.upload(t, "report.pdf", data)

	if doc.OriginalFilename != "report.pdf" {
		t.Errorf("OriginalFilename = %q, want report.pdf", doc.OriginalFilename)
	}
	if doc.ByteSize != int64(len(data)) {
		t.Errorf("ByteSize = %d, want %d", doc.ByteSize, len(data))
	}
	if doc.Metadata.FileSize != doc.ByteSize {
		t.Errorf("FileSize = %d, want %d", doc.Metadata.FileSize, doc.ByteSize)
	}
	if doc.Metadata.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", doc.Metadata.PageCount)
	}
	if doc.Metadata.Provenance != documents.ProvenanceFull {
		t.Errorf("Provenance = %q, want full", doc.Metadata.Provenance)
	}
	if doc.Source != documents.SourceUpload {
		t.Errorf("Source = %q, want upload", doc.Source)
	}
	if doc.MediaType != documents.MediaTypePDF {
		t.Errorf("MediaType = %q", doc.MediaType)
	}

	want := filepath.Join(h.dir, doc.ID.String()+".pdf")
	if doc.StoredPath != want {
		t.Errorf("StoredPath = %q, want %q", doc.StoredPath, want)
	}

	stored, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Error("stored bytes differ from upload")
	}

	found, err := h.sys.Find(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if found.ID != doc.ID {
		t.Errorf("Find() ID = %s, want %s", found.ID, doc.ID)
	}
}

func TestIngestBytes_Filenames(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
		err      error
	}{
		{"plain", "invoice.pdf", "invoice.pdf", nil},
		{"uppercase extension", "SCAN.PDF", "SCAN.PDF", nil},
		{"traversal", "../../../etc/passwd.pdf", "downloaded.pdf", nil},
		{"directory prefix", "scans/2024/receipt.pdf", "receipt.pdf", nil},
		{"empty", "", "", documents.ErrNoFilename},
		{"whitespace", "   ", "", documents.ErrNoFilename},
		{"wrong extension", "notes.txt", "", documents.ErrInvalidExtension},
		{"extension only in middle", "file.pdf.exe", "", documents.ErrInvalidExtension},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			data := buildPDF(1, nil)

			doc, err := h.sys.IngestBytes(context.Background(), documents.IngestCommand{
				Filename:     tt.filename,
				DeclaredSize: int64(len(data)),
				Data:         bytes.NewReader(data),
			})

			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("error = %v, want %v", err, tt.err)
				}
				if files := h.files(t); len(files) != 0 {
					t.Errorf("files left after rejection: %v", files)
				}
				return
			}

			if err != nil {
				t.Fatalf("IngestBytes() failed: %v", err)
			}
			if doc.OriginalFilename != tt.want {
				t.Errorf("OriginalFilename = %q, want %q", doc.OriginalFilename, tt.want)
			}
			if strings.ContainsAny(doc.OriginalFilename, `/\`) {
				t.Errorf("OriginalFilename contains a separator: %q", doc.OriginalFilename)
			}
		})
	}
}

func TestIngestBytes_TooLarge(t *testing.T) {
	t.Run("declared", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.sys.IngestBytes(context.Background(), documents.IngestCommand{
			Filename:     "big.pdf",
			DeclaredSize: testMaxUpload + 1,
			Data:         bytes.NewReader(buildPDF(1, nil)),
		})
		if !errors.Is(err, documents.ErrTooLarge) {
			t.Fatalf("error = %v, want ErrTooLarge", err)
		}
		if files := h.files(t); len(files) != 0 {
			t.Errorf("files left: %v", files)
		}
	})

	t.Run("actual", func(t *testing.T) {
		h := newHarness(t)
		data := append(buildPDF(1, nil), bytes.Repeat([]byte{' '}, testMaxUpload)...)

		_, err := h.sys.IngestBytes(context.Background(), documents.IngestCommand{
			Filename:     "big.pdf",
			DeclaredSize: -1,
			Data:         bytes.NewReader(data),
		})
		if !errors.Is(err, documents.ErrTooLarge) {
			t.Fatalf("error = %v, want ErrTooLarge", err)
		}
		if files := h.files(t); len(files) != 0 {
			t.Errorf("files left: %v", files)
		}
	})
}

func TestIngestBytes_InvalidContent(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"html", []byte("<html><body>not a pdf</body></html>")},
		{"short", []byte("%PD")},
		{"empty", nil},
		{"near miss", []byte("%PDX-1.4\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.sys.IngestBytes(context.Background(), documents.IngestCommand{
				Filename:     "fake.pdf",
				DeclaredSize: int64(len(tt.data)),
				Data:         bytes.NewReader(tt.data),
			})
			if !errors.Is(err, documents.ErrInvalidContent) {
				t.Fatalf("error = %v, want ErrInvalidContent", err)
			}
			if files := h.files(t); len(files) != 0 {
				t.Errorf("files left: %v", files)
			}
			if n := len(h.sys.List(context.Background())); n != 0 {
				t.Errorf("registry has %d entries, want 0", n)
			}
		})
	}
}

func TestIngestBytes_CorruptedPDF(t *testing.T) {
	h := newHarness(t)
	data := corruptPDF()

	doc := h.upload(t, "broken.pdf", data)

	md := doc.Metadata
	if md.Provenance != documents.ProvenanceFallback {
		t.Errorf("Provenance = %q, want fallback", md.Provenance)
	}
	if md.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", md.PageCount)
	}
	if md.FileSize != int64(len(data)) {
		t.Errorf("FileSize = %d, want %d", md.FileSize, len(data))
	}
	if md.Title != nil || md.Author != nil || md.CreationDate != nil {
		t.Error("fallback metadata should carry no descriptive fields")
	}
}

func TestIngestBytes_Canceled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.sys.IngestBytes(ctx, documents.IngestCommand{
		Filename:     "late.pdf",
		DeclaredSize: -1,
		Data:         bytes.NewReader(buildPDF(1, nil)),
	})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if files := h.files(t); len(files) != 0 {
		t.Errorf("files left: %v", files)
	}
}

func TestList(t *testing.T) {
	h := newHarness(t)

	if docs := h.sys.List(context.Background()); len(docs) != 0 {
		t.Fatalf("List() on empty system = %d entries", len(docs))
	}

	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		h.upload(t, name, buildPDF(1, nil))
	}

	docs := h.sys.List(context.Background())
	if len(docs) != 3 {
		t.Fatalf("List() = %d entries, want 3", len(docs))
	}
	for i := 1; i < len(docs); i++ {
		if docs[i].IngestedAt.After(docs[i-1].IngestedAt) {
			t.Errorf("List() not newest first at index %d", i)
		}
	}
}

func TestMetadata(t *testing.T) {
	h := newHarness(t)
	doc := h.upload(t, "m.pdf", buildPDF(3, nil))

	md, err := h.sys.Metadata(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Metadata() failed: %v", err)
	}
	if md.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", md.PageCount)
	}

	if _, err := h.sys.Metadata(context.Background(), uuid.New()); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("Metadata(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestPath(t *testing.T) {
	h := newHarness(t)
	doc := h.upload(t, "p.pdf", buildPDF(1, nil))

	path, err := h.sys.Path(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Path() failed: %v", err)
	}
	if path != doc.StoredPath {
		t.Errorf("Path() = %q, want %q", path, doc.StoredPath)
	}

	if _, err := h.sys.Path(context.Background(), uuid.New()); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("Path(unknown) error = %v, want ErrNotFound", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := h.sys.Path(context.Background(), doc.ID); !errors.Is(err, documents.ErrMissingOnDisk) {
		t.Errorf("Path() after out-of-band removal error = %v, want ErrMissingOnDisk", err)
	}
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	doc := h.upload(t, "d.pdf", buildPDF(1, nil))

	if err := h.sys.Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	if _, err := os.Stat(doc.StoredPath); !os.IsNotExist(err) {
		t.Errorf("stored file still present: %v", err)
	}
	if _, err := h.sys.Find(context.Background(), doc.ID); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("Find() after delete error = %v, want ErrNotFound", err)
	}
	if err := h.sys.Delete(context.Background(), doc.ID); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestDelete_Concurrent(t *testing.T) {
	h := newHarness(t)
	doc := h.upload(t, "race.pdf", buildPDF(1, nil))

	const callers = 16
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		notFound  atomic.Int32
	)

	for range callers {
		wg.Go(func() {
			err := h.sys.Delete(context.Background(), doc.ID)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, documents.ErrNotFound):
				notFound.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	wg.Wait()

	if successes.Load() != 1 {
		t.Errorf("successes = %d, want 1", successes.Load())
	}
	if notFound.Load() != callers-1 {
		t.Errorf("not found = %d, want %d", notFound.Load(), callers-1)
	}
}

type failingDelete struct {
	storage.System
}

func (failingDelete) Delete(ctx context.Context, key string) error {
	return storage.ErrPermissionDenied
}

func TestDelete_StorageFailureRestoresEntry(t *testing.T) {
	h := newHarness(t, withStore(func(s storage.System) storage.System {
		return failingDelete{s}
	}))
	doc := h.upload(t, "stuck.pdf", buildPDF(1, nil))

	err := h.sys.Delete(context.Background(), doc.ID)
	if !errors.Is(err, documents.ErrStorage) {
		t.Fatalf("Delete() error = %v, want ErrStorage", err)
	}

	if _, err := h.sys.Find(context.Background(), doc.ID); err != nil {
		t.Errorf("entry not restored: %v", err)
	}
}

func pdfServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestIngestURL_Naming(t *testing.T) {
	data := buildPDF(1, nil)

	tests := []struct {
		name        string
		path        string
		disposition string
		want        string
	}{
		{"content disposition", "/download?id=7", `attachment; filename="Quarterly Report.pdf"`, "Quarterly Report.pdf"},
		{"extended disposition", "/x", `attachment; filename*=UTF-8''r%C3%A9sum%C3%A9.pdf`, "résumé.pdf"},
		{"url path", "/files/annual-2024.pdf", "", "annual-2024.pdf"},
		{"encoded url path", "/files/my%20doc.pdf", "", "my doc.pdf"},
		{"fallback", "/", "", "downloaded.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := pdfServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/pdf")
				if tt.disposition != "" {
					w.Header().Set("Content-Disposition", tt.disposition)
				}
				w.Write(data)
			})
			h := newHarness(t)

			doc, err := h.sys.IngestURL(context.Background(), srv.URL+tt.path)
			if err != nil {
				t.Fatalf("IngestURL() failed: %v", err)
			}
			if doc.OriginalFilename != tt.want {
				t.Errorf("OriginalFilename = %q, want %q", doc.OriginalFilename, tt.want)
			}
			if doc.Source != documents.SourceURL {
				t.Errorf("Source = %q, want url", doc.Source)
			}
			if doc.SourceURL != srv.URL+tt.path {
				t.Errorf("SourceURL = %q", doc.SourceURL)
			}
			if doc.ByteSize != int64(len(data)) {
				t.Errorf("ByteSize = %d, want %d", doc.ByteSize, len(data))
			}
		})
	}
}

func TestIngestURL_RedactsCredentials(t *testing.T) {
	srv := pdfServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(buildPDF(1, nil))
	})
	h := newHarness(t)

	target := strings.Replace(srv.URL, "http://", "http://user:secret@", 1) + "/doc.pdf"
	doc, err := h.sys.IngestURL(context.Background(), target)
	if err != nil {
		t.Fatalf("IngestURL() failed: %v", err)
	}
	if strings.Contains(doc.SourceURL, "secret") {
		t.Errorf("SourceURL leaks password: %q", doc.SourceURL)
	}
}

func TestIngestURL_Errors(t *testing.T) {
	t.Run("html content type", func(t *testing.T) {
		srv := pdfServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		})
		h := newHarness(t)

		_, err := h.sys.IngestURL(context.Background(), srv.URL+"/page.pdf")
		if !errors.Is(err, documents.ErrInvalidContent) {
			t.Fatalf("error = %v, want ErrInvalidContent", err)
		}
		if files := h.files(t); len(files) != 0 {
			t.Errorf("files left: %v", files)
		}
	})

	t.Run("pdf content type with html body", func(t *testing.T) {
		srv := pdfServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("<html>login required</html>"))
		})
		h := newHarness(t)

		_, err := h.sys.IngestURL(context.Background(), srv.URL+"/doc.pdf")
		if !errors.Is(err, documents.ErrInvalidContent) {
			t.Fatalf("error = %v, want ErrInvalidContent", err)
		}
		if files := h.files(t); len(files) != 0 {
			t.Errorf("files left: %v", files)
		}
	})

	t.Run("remote 404", func(t *testing.T) {
		var calls atomic.Int32
		srv := pdfServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.NotFound(w, r)
		})
		h := newHarness(t)

		_, err := h.sys.IngestURL(context.Background(), srv.URL+"/missing.pdf")
		if !errors.Is(err, documents.ErrRemoteRejected) {
			t.Fatalf("error = %v, want ErrRemoteRejected", err)
		}
		var rejected *fetch.RemoteRejectedError
		if !errors.As(err, &rejected) || rejected.StatusCode != http.StatusNotFound {
			t.Errorf("status not carried: %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("server called %d times, want 1", calls.Load())
		}
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.sys.IngestURL(context.Background(), "ftp://example.com/doc.pdf")
		if !errors.Is(err, documents.ErrInvalidURL) {
			t.Fatalf("error = %v, want ErrInvalidURL", err)
		}
	})

	t.Run("body too large", func(t *testing.T) {
		srv := pdfServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write(bytes.Repeat([]byte("x"), testMaxUpload+1))
		})
		h := newHarness(t)

		_, err := h.sys.IngestURL(context.Background(), srv.URL+"/big.pdf")
		if !errors.Is(err, documents.ErrTooLarge) {
			t.Fatalf("error = %v, want ErrTooLarge", err)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		var calls atomic.Int32
		client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls.Add(1)
			return nil, errors.New("connection reset by peer")
		})}
		h := newHarness(t, withFetchOptions(fetch.WithClient(client)))

		_, err := h.sys.IngestURL(context.Background(), "http://example.invalid/doc.pdf")
		if !errors.Is(err, documents.ErrFetchTimeout) {
			t.Fatalf("error = %v, want ErrFetchTimeout", err)
		}
		if calls.Load() != 3 {
			t.Errorf("attempts = %d, want 3", calls.Load())
		}
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestIngestURL_RecoversAfterTransientFailure(t *testing.T) {
	data := buildPDF(1, nil)
	var calls atomic.Int32

	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("temporary dns failure")
		}
		return &http.Response{
			StatusCode:    http.StatusOK,
			Header:        http.Header{"Content-Type": []string{"application/pdf"}},
			Body:          io.NopCloser(bytes.NewReader(data)),
			ContentLength: int64(len(data)),
			Request:       r,
		}, nil
	})}
	h := newHarness(t, withFetchOptions(fetch.WithClient(client)))

	doc, err := h.sys.IngestURL(context.Background(), "http://example.invalid/files/retry.pdf")
	if err != nil {
		t.Fatalf("IngestURL() failed: %v", err)
	}
	if doc.OriginalFilename != "retry.pdf" {
		t.Errorf("OriginalFilename = %q", doc.OriginalFilename)
	}
	if calls.Load() != 2 {
		t.Errorf("attempts = %d, want 2", calls.Load())
	}
}

func TestIngest_LogsNormalizedMediaType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        string
	}{
		{"parameters dropped", "Application/PDF; charset=binary", "application/pdf"},
		{"injected record", "application/pdf\n{\"level\":\"ERROR\",\"msg\":\"forged\"}", "invalid"},
		{"oversized", "application/" + strings.Repeat("x", 200), "application/" + strings.Repeat("x", 52)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			h := newHarness(t, withLogOutput(&logs))
			data := buildPDF(1, nil)

			_, err := h.sys.IngestBytes(context.Background(), documents.IngestCommand{
				Filename:     "typed.pdf",
				ContentType:  tt.contentType,
				DeclaredSize: int64(len(data)),
				Data:         bytes.NewReader(data),
			})
			if err != nil {
				t.Fatalf("IngestBytes() failed: %v", err)
			}

			if !strings.Contains(logs.String(), `"declared_type":"`+tt.want+`"`) {
				t.Errorf("declared_type %q not logged:\n%s", tt.want, logs.String())
			}
			if strings.Contains(logs.String(), "forged") {
				t.Errorf("raw content type reached the log:\n%s", logs.String())
			}
		})
	}

	t.Run("remote content type", func(t *testing.T) {
		srv := pdfServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", `Text/HTML; charset="utf-8"; note="forged"`)
			w.Write([]byte("<html></html>"))
		})
		var logs bytes.Buffer
		h := newHarness(t, withLogOutput(&logs))

		if _, err := h.sys.IngestURL(context.Background(), srv.URL+"/page.pdf"); !errors.Is(err, documents.ErrInvalidContent) {
			t.Fatalf("error = %v, want ErrInvalidContent", err)
		}
		if !strings.Contains(logs.String(), `"content_type":"text/html"`) {
			t.Errorf("normalized content_type not logged:\n%s", logs.String())
		}
		if strings.Contains(logs.String(), "forged") {
			t.Errorf("raw content type reached the log:\n%s", logs.String())
		}
	})
}
