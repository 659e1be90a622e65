package openapi

import "os"

// Env maps environment variable names for OpenAPI configuration.
type Env struct {
	Title       string
	Description string
	Output      string
}

// Config holds the document-level OpenAPI metadata.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`

	// Output, when set, is a file path the generated document is written to
	// at startup.
	Output string `toml:"output"`
}

// Finalize applies defaults and loads environment overrides.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return nil
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if overlay.Output != "" {
		c.Output = overlay.Output
	}
}

func (c *Config) loadDefaults() {
	if c.Title == "" {
		c.Title = "PDF Ingest API"
	}
	if c.Description == "" {
		c.Description = "Ingests PDF documents from uploads and remote URLs, names them safely, and extracts their metadata."
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Title != "" {
		if v := os.Getenv(env.Title); v != "" {
			c.Title = v
		}
	}
	if env.Description != "" {
		if v := os.Getenv(env.Description); v != "" {
			c.Description = v
		}
	}
	if env.Output != "" {
		if v := os.Getenv(env.Output); v != "" {
			c.Output = v
		}
	}
}
