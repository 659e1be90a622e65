package fetch

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Env maps environment variable names for fetch configuration.
type Env struct {
	Timeout        string
	ConnectTimeout string
	MaxRetries     string
	UserAgent      string
}

// Config controls remote document retrieval.
type Config struct {
	// Timeout bounds a single attempt, including reading the body.
	// Default: "30s"
	Timeout string `toml:"timeout"`

	// ConnectTimeout bounds establishing the TCP connection.
	// Default: "10s"
	ConnectTimeout string `toml:"connect_timeout"`

	// MaxRetries is the total number of attempts made against transient failures.
	// Default: 3
	MaxRetries int `toml:"max_retries"`

	UserAgent string `toml:"user_agent"`
}

// TimeoutDuration parses and returns the per-attempt timeout.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// ConnectTimeoutDuration parses and returns the connection timeout.
func (c *Config) ConnectTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnectTimeout)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.ConnectTimeout != "" {
		c.ConnectTimeout = overlay.ConnectTimeout
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.UserAgent != "" {
		c.UserAgent = overlay.UserAgent
	}
}

func (c *Config) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.ConnectTimeout == "" {
		c.ConnectTimeout = "10s"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.UserAgent == "" {
		c.UserAgent = "pdf-ingest/1.0"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.ConnectTimeout != "" {
		if v := os.Getenv(env.ConnectTimeout); v != "" {
			c.ConnectTimeout = v
		}
	}
	if env.MaxRetries != "" {
		if v := os.Getenv(env.MaxRetries); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxRetries = n
			}
		}
	}
	if env.UserAgent != "" {
		if v := os.Getenv(env.UserAgent); v != "" {
			c.UserAgent = v
		}
	}
}

func (c *Config) validate() error {
	if d, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if d, err := time.ParseDuration(c.ConnectTimeout); err != nil {
		return fmt.Errorf("invalid connect_timeout: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("connect_timeout must be positive")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1")
	}
	return nil
}
