package main

import (
	"os"
	"time"

	"github.com/docker/go-units"

	"github.com/JaimeStill/pdf-ingest/internal/config"
	"github.com/JaimeStill/pdf-ingest/internal/infrastructure"
	"github.com/JaimeStill/pdf-ingest/internal/server"
)

// Server is the pdf-ingest process: the document store, the remote fetcher,
// and the HTTP listener serving the documents API.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    server.System
}

// NewServer wires the ingestion pipeline. Nothing touches the network or
// the storage directory until Start.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg, os.Stdout)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	srv := &Server{
		infra:   infra,
		modules: modules,
		http:    server.New(&cfg.Server, router, infra.Logger),
	}

	infra.Logger.Info(
		"pdf-ingest configured",
		"version", cfg.Version,
		"env", cfg.Env(),
		"addr", cfg.Server.Addr(),
		"documents", cfg.Storage.BasePath,
		"upload_limit", units.HumanSize(float64(cfg.Storage.MaxUploadSizeBytes())),
		"fetch_attempts", cfg.Fetch.MaxRetries,
	)

	return srv, nil
}

// Start prepares the document store, then opens the listener. /readyz
// reports ready once stale partial uploads have been swept.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("accepting documents", "addr", s.http.Addr())
	}()

	return nil
}

// Shutdown stops accepting requests and lets in-flight ingestions finish
// within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("draining", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
