// Package fetch retrieves remote documents over HTTP. Transient network
// failures are retried with exponential backoff; HTTP error statuses are
// terminal and returned immediately.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Response is a successfully retrieved remote resource.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Sleeper suspends the calling goroutine for d or until ctx is done.
// It is injectable so backoff can be observed without real delays.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithSleeper replaces the backoff sleep.
func WithSleeper(s Sleeper) Option {
	return func(f *Fetcher) {
		f.sleep = s
	}
}

// WithClient replaces the HTTP client built from Config.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithMaxBodySize limits the number of body bytes read per response.
// Zero disables the limit.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// Fetcher performs GET requests with bounded retries.
type Fetcher struct {
	client      *http.Client
	maxRetries  int
	maxBodySize int64
	userAgent   string
	sleep       Sleeper
	logger      *slog.Logger
}

// New creates a Fetcher from a finalized Config.
func New(cfg *Config, logger *slog.Logger, opts ...Option) *Fetcher {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeoutDuration(),
		KeepAlive: 30 * time.Second,
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeoutDuration()

	f := &Fetcher{
		client: &http.Client{
			Timeout:   cfg.TimeoutDuration(),
			Transport: transport,
		},
		maxRetries: cfg.MaxRetries,
		userAgent:  cfg.UserAgent,
		sleep:      sleepContext,
		logger:     logger.With("system", "fetch"),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.maxRetries < 1 {
		f.maxRetries = 1
	}

	return f
}

// Backoff returns the delay after the given zero-based failed attempt:
// 1s, 2s, 4s, and so on.
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 10 {
		attempt = 10
	}
	return time.Duration(1<<attempt) * time.Second
}

// Fetch retrieves rawURL.
//
// Transport errors, timeouts, and body read failures are transient: they are
// retried after Backoff(attempt) until MaxRetries attempts have been made,
// after which a *TimeoutError is returned. A response with status 400 or
// above yields a *RemoteRejectedError without retrying. Cancellation of ctx
// stops the loop, including during a backoff sleep.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	target, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		resp, err := f.attempt(ctx, target)
		if err == nil {
			return resp, nil
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
		}

		if isTerminal(err) {
			return nil, err
		}

		lastErr = err
		f.logger.Warn(
			"fetch attempt failed",
			"url", target.Redacted(),
			"attempt", attempt+1,
			"max_attempts", f.maxRetries,
			"error", err,
		)

		if attempt+1 >= f.maxRetries {
			break
		}

		if err := f.sleep(ctx, Backoff(attempt)); err != nil {
			return nil, fmt.Errorf("fetch canceled: %w", err)
		}
	}

	return nil, &TimeoutError{Attempts: f.maxRetries, Err: lastErr}
}

func (f *Fetcher) attempt(ctx context.Context, target *url.URL) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/pdf, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &RemoteRejectedError{StatusCode: resp.StatusCode}
	}

	if f.maxBodySize > 0 && resp.ContentLength > f.maxBodySize {
		return nil, ErrBodyTooLarge
	}

	body, err := f.readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (f *Fetcher) readBody(r io.Reader) ([]byte, error) {
	if f.maxBodySize <= 0 {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return body, nil
	}

	body, err := io.ReadAll(io.LimitReader(r, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}

func parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u, nil
}

func isTerminal(err error) bool {
	return errors.Is(err, ErrRemoteRejected) ||
		errors.Is(err, ErrBodyTooLarge) ||
		errors.Is(err, ErrInvalidURL)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
