package common

import "time"

// Timeout defaults shared across upstream collaborators and the HTTP server.
const (
	// DefaultUpstreamTimeout bounds a single NVD/EPSS/OSV or CAPTCHA
	// verification HTTP call.
	DefaultUpstreamTimeout = 5 * time.Second

	// DefaultKEVFetchTimeout bounds a KEV catalog refresh fetch.
	DefaultKEVFetchTimeout = 10 * time.Second

	// DefaultShutdownTimeout is the graceful shutdown timeout for the HTTP server.
	DefaultShutdownTimeout = 10 * time.Second
)

// Retry defaults for upstream fetchers: uniform jitter between
// attempts, applied to any failure except well-known not-found statuses.
const (
	DefaultUpstreamRetries = 2
	DefaultRetryJitterMin  = 200 * time.Millisecond
	DefaultRetryJitterMax  = 400 * time.Millisecond
)
