package documents

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdf-ingest/pkg/filename"
	"github.com/JaimeStill/pdf-ingest/pkg/handlers"
	"github.com/JaimeStill/pdf-ingest/pkg/routes"
)

const (
	multipartMemory   = 8 << 20
	multipartOverhead = 1 << 20
	maxURLRequestBody = 16 << 10
)

var errInvalidID = errors.New("invalid document id")

// Handler provides HTTP endpoints for document operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a document handler with the specified configuration.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the document endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents",
		Tags:        []string{"Documents"},
		Description: "PDF ingestion and retrieval",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: Spec.List},
			{Method: "POST", Pattern: "", Handler: h.Upload, OpenAPI: Spec.Upload},
			{Method: "POST", Pattern: "/url", Handler: h.IngestURL, OpenAPI: Spec.IngestURL},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: Spec.Find},
			{Method: "GET", Pattern: "/{id}/metadata", Handler: h.Metadata, OpenAPI: Spec.Metadata},
			{Method: "GET", Pattern: "/{id}/file", Handler: h.File, OpenAPI: Spec.File},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, OpenAPI: Spec.Delete},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.List(r.Context()))
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, ErrTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, ErrNoFilename)
		return
	}
	defer file.Close()

	doc, err := h.sys.IngestBytes(r.Context(), IngestCommand{
		Filename:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		DeclaredSize: header.Size,
		Data:         file,
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, doc)
}

func (h *Handler) IngestURL(w http.ResponseWriter, r *http.Request) {
	var cmd IngestURLCommand
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxURLRequestBody)).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if cmd.URL == "" {
		h.fail(w, ErrInvalidURL)
		return
	}

	doc, err := h.sys.IngestURL(r.Context(), cmd.URL)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, doc)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.sys.Find(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	md, err := h.sys.Metadata(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, md)
}

func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.sys.Find(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	path, err := h.sys.Path(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		h.fail(w, errors.Join(ErrMissingOnDisk, err))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", MediaTypePDF)
	w.Header().Set("Content-Disposition", filename.ContentDisposition("inline", doc.OriginalFilename))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, "", doc.IngestedAt, f)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	handlers.RespondErrorMessage(w, h.logger, MapHTTPStatus(err), err, PublicError(err).Error())
}
