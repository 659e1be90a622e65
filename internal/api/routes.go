package api

import (
	"net/http"

	"github.com/JaimeStill/pdf-ingest/internal/config"
	"github.com/JaimeStill/pdf-ingest/internal/documents"
	"github.com/JaimeStill/pdf-ingest/pkg/openapi"
	"github.com/JaimeStill/pdf-ingest/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	spec *openapi.Spec,
	runtime *Runtime,
	domain *Domain,
	cfg *config.Config,
) {
	documentsHandler := documents.NewHandler(domain.Documents, runtime.Logger, runtime.MaxUploadSize)

	spec.Components.AddSchemas(documents.Spec.Schemas())

	routes.Register(
		mux,
		cfg.API.BasePath,
		spec,
		documentsHandler.Routes(),
	)
}
