package kev

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/secscore-io/secscore/pkg/jsonutil"
)

const userAgent = "secscore-kev-refresh/1.0"

// fetchResult is the outcome of one conditional GET against the feed URL.
type fetchResult struct {
	notModified  bool
	body         []byte
	etag         string
	lastModified string
}

// httpFetcher is the capability the catalog needs from its transport,
// narrowed to exactly what Refresh uses, so tests can fake it.
type httpFetcher interface {
	fetch(ctx context.Context, url, etag, lastModified string) (fetchResult, error)
}

type restyFetcher struct {
	client *resty.Client
}

func newDefaultHTTPFetcher(timeout time.Duration) (httpFetcher, error) {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("User-Agent", userAgent)
	return &restyFetcher{client: client}, nil
}

func (f *restyFetcher) fetch(ctx context.Context, url, etag, lastModified string) (fetchResult, error) {
	req := f.client.R().SetContext(ctx)
	if etag != "" {
		req.SetHeader("If-None-Match", etag)
	}
	if lastModified != "" {
		req.SetHeader("If-Modified-Since", lastModified)
	}

	resp, err := req.Get(url)
	if err != nil {
		return fetchResult{}, fmt.Errorf("kev feed request failed: %w", err)
	}
	if resp.StatusCode() == 304 {
		return fetchResult{notModified: true}, nil
	}
	if resp.IsError() {
		return fetchResult{}, fmt.Errorf("kev feed returned status %d", resp.StatusCode())
	}

	return fetchResult{
		body:         resp.Body(),
		etag:         resp.Header().Get("ETag"),
		lastModified: resp.Header().Get("Last-Modified"),
	}, nil
}

// decodeFeedBody normalizes either the upstream CISA verbose shape
// ({"vulnerabilities":[...]}) or the service's own compact shape
// ({"items":[...]}) into a deduplicated Entry slice.
func decodeFeedBody(body []byte) ([]Entry, error) {
	var compact compactFile
	if err := jsonutil.Unmarshal(body, &compact); err == nil && len(compact.Items) > 0 {
		return normalizeEntries(compact.Items), nil
	}

	var upstream upstreamFeed
	if err := jsonutil.Unmarshal(body, &upstream); err != nil {
		return nil, fmt.Errorf("kev: failed to decode feed body: %w", err)
	}
	return fromUpstreamVulns(upstream.Vulnerabilities), nil
}
