package remote

import (
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/secscore-io/secscore/pkg/common"
)

// ErrNotFound marks an upstream failure as a definitive not-found, which
// bypasses retry: bubbling up immediately rather than spending the retry
// budget on a status that will not change.
var ErrNotFound = errors.New("upstream resource not found")

// errNonFatalStatus marks a non-2xx upstream response that isn't a
// definitive not-found; it is retried like any other transient failure.
var errNonFatalStatus = errors.New("upstream returned a non-2xx status")

// RetryPolicy retries a fetch with uniform jitter between attempts. Unlike
// exponential backoff, every attempt waits a duration drawn uniformly from
// [JitterMin, JitterMax]; there is no escalating delay and no circuit
// breaker.
type RetryPolicy struct {
	MaxRetries int
	JitterMin  time.Duration
	JitterMax  time.Duration
}

// DefaultRetryPolicy returns the service's default retry policy: 2 additional
// attempts beyond the first, each preceded by a 200-400ms jittered pause.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: common.DefaultUpstreamRetries,
		JitterMin:  common.DefaultRetryJitterMin,
		JitterMax:  common.DefaultRetryJitterMax,
	}
}

// Do invokes fn up to 1+MaxRetries times. It stops immediately, without
// retrying, if fn returns an error wrapping ErrNotFound.
func (p RetryPolicy) Do(fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrNotFound) {
			return err
		}
		if attempt < p.MaxRetries {
			time.Sleep(p.jitter())
		}
	}
	return lastErr
}

func (p RetryPolicy) jitter() time.Duration {
	span := p.JitterMax - p.JitterMin
	if span <= 0 {
		return p.JitterMin
	}
	return p.JitterMin + time.Duration(rand.Int63n(int64(span)))
}

// IsNotFoundStatus reports whether an HTTP status code represents a
// definitive not-found that should bypass retry.
func IsNotFoundStatus(statusCode int) bool {
	return statusCode == http.StatusNotFound
}
