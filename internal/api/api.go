// Package api assembles the document API module: domain systems, their
// routes, the OpenAPI document, and the module middleware stack.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/pdf-ingest/internal/config"
	"github.com/JaimeStill/pdf-ingest/internal/infrastructure"
	"github.com/JaimeStill/pdf-ingest/pkg/middleware"
	"github.com/JaimeStill/pdf-ingest/pkg/module"
	"github.com/JaimeStill/pdf-ingest/pkg/openapi"
)

// NewModule builds the API module mounted at cfg.API.BasePath.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.Domain)

	mux := http.NewServeMux()
	registerRoutes(mux, spec, runtime, domain, cfg)

	specBytes, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi: %w", err)
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))

	if path := cfg.API.OpenAPI.Output; path != "" {
		if err := openapi.WriteJSON(spec, path); err != nil {
			return nil, fmt.Errorf("write openapi: %w", err)
		}
		runtime.Logger.Info("openapi document written", "path", path)
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.TrimSlash())
	m.Use(middleware.RequestID())
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))

	return m, nil
}
