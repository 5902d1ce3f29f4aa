package gateway

import (
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultConcurrency bounds parallel invitation requests.
const DefaultConcurrency = 4

type config struct {
	httpClient  *http.Client
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

// Option configures the Client, Coordinator and Gateway.
type Option func(*config)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = c
	}
}

// WithTimeout bounds each backend request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = d
	}
}

// WithConcurrency bounds how many invitations are sent at once.
func WithConcurrency(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.concurrency = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		concurrency: DefaultConcurrency,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: cfg.timeout}
	}
	return cfg
}
