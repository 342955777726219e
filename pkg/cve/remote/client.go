package remote

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/http2"
)

const userAgent = "secscore/1.0 (+https://github.com/secscore-io/secscore)"

// MaxResponseSize bounds a single upstream response body, guarding against
// OOM from a malicious or misbehaving upstream.
const MaxResponseSize = 10 * 1024 * 1024

// NewHTTPClient builds a resty client shared by every upstream adapter: an
// HTTP/2-capable transport with connection pooling and a fixed per-request
// timeout. Per-source fetchers layer JSON decoding and retry on top.
func NewHTTPClient(timeout time.Duration) (*resty.Client, error) {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("User-Agent", userAgent)

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		MaxConnsPerHost:     50,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2: true,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("failed to configure HTTP/2: %w", err)
	}
	client.SetTransport(transport)

	return client, nil
}

// checkResponseSize rejects a body larger than MaxResponseSize before it is
// handed to the JSON decoder.
func checkResponseSize(body []byte) error {
	if len(body) > MaxResponseSize {
		return fmt.Errorf("response body too large: got %d bytes, max %d bytes", len(body), MaxResponseSize)
	}
	return nil
}
