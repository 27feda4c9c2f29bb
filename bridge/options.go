package bridge

import (
	"io"
	"log/slog"
	"net/http"
)

// Option customizes a Bridge.
type Option func(*Bridge)

// WithIO sets the reader and writer for the bridge.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(b *Bridge) {
		if r != nil {
			b.in = r
		}
		if w != nil {
			b.out = w
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// WithHTTPClient overrides the HTTP client used for downstream calls. The
// per-request timeout is applied via context regardless of the client's own
// Timeout setting.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Bridge) {
		if c != nil {
			b.client = c
		}
	}
}
