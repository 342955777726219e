package remote

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/secscore-io/secscore/pkg/common"
	"github.com/secscore-io/secscore/pkg/jsonutil"
	"github.com/secscore-io/secscore/pkg/secscore"
)

const osvAPIURL = "https://api.osv.dev/v1/vulns"

// osvVuln mirrors the subset of the OSV vulnerability record this service
// normalizes. snake_case upstream fields are decoded here and never observed
// outside this file.
type osvVuln struct {
	Affected []osvAffected `json:"affected"`
}

type osvAffected struct {
	Package *osvPackage `json:"package"`
	Ranges  []osvRange  `json:"ranges"`
}

type osvPackage struct {
	Ecosystem *string `json:"ecosystem"`
	Name      *string `json:"name"`
}

type osvRange struct {
	Type   *string        `json:"type"`
	Events []osvRangeEvent `json:"events"`
}

type osvRangeEvent struct {
	Introduced   *string `json:"introduced"`
	Fixed        *string `json:"fixed"`
	LastAffected *string `json:"last_affected"`
	Limit        *string `json:"limit"`
}

// OSVFetcher retrieves the affected-package list for a CVE from the OSV
// (Open Source Vulnerabilities) API. A missing record (404) or any other
// upstream failure degrades to a nil signal rather than an error.
type OSVFetcher struct {
	client  *resty.Client
	baseURL string
	retry   RetryPolicy
}

// NewOSVFetcher builds an OSV fetcher sharing the service's standard HTTP
// transport and retry policy.
func NewOSVFetcher(timeout time.Duration) (*OSVFetcher, error) {
	client, err := NewHTTPClient(timeout)
	if err != nil {
		return nil, err
	}
	return &OSVFetcher{client: client, baseURL: osvAPIURL, retry: DefaultRetryPolicy()}, nil
}

// FetchOSV looks up affected-package data for cveID. A 404 or empty result
// yields (nil, nil); any other upstream error is logged as a warning here and
// also yields (nil, nil), since OSV is an optional enrichment.
func (f *OSVFetcher) FetchOSV(ctx context.Context, cveID string) ([]secscore.OSVAffectedPackage, error) {
	if cveID == "" {
		return nil, nil
	}

	var parsed *osvVuln
	var notFound bool
	err := f.retry.Do(func() error {
		resp, err := f.client.R().SetContext(ctx).Get(f.baseURL + "/" + cveID)
		if err != nil {
			return err
		}
		if resp.StatusCode() == http.StatusNotFound {
			notFound = true
			return ErrNotFound
		}
		if resp.IsError() {
			return errNonFatalStatus
		}
		body := resp.Body()
		if err := checkResponseSize(body); err != nil {
			return err
		}
		var decoded osvVuln
		if err := jsonutil.Unmarshal(body, &decoded); err != nil {
			return err
		}
		parsed = &decoded
		return nil
	})
	if notFound {
		return nil, nil
	}
	if err != nil || parsed == nil {
		if err != nil {
			common.Warn("osv: fetch for %s failed, omitting OSV data: %v", cveID, err)
		}
		return nil, nil
	}

	out := normalizeOSVAffected(parsed.Affected)
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func normalizeOSVAffected(affected []osvAffected) []secscore.OSVAffectedPackage {
	out := make([]secscore.OSVAffectedPackage, 0, len(affected))
	for _, a := range affected {
		pkg := secscore.OSVAffectedPackage{Ranges: normalizeOSVRanges(a.Ranges)}
		if a.Package != nil {
			pkg.Ecosystem = a.Package.Ecosystem
			pkg.Package = a.Package.Name
		}
		out = append(out, pkg)
	}
	return out
}

func normalizeOSVRanges(ranges []osvRange) []secscore.OSVRange {
	out := make([]secscore.OSVRange, 0, len(ranges))
	for _, r := range ranges {
		events := make([]secscore.OSVRangeEvent, 0, len(r.Events))
		for _, e := range r.Events {
			events = append(events, secscore.OSVRangeEvent{
				Introduced:   e.Introduced,
				Fixed:        e.Fixed,
				LastAffected: e.LastAffected,
				Limit:        e.Limit,
			})
		}
		out = append(out, secscore.OSVRange{Type: r.Type, Events: events})
	}
	return out
}
