package remote

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/secscore-io/secscore/pkg/jsonutil"
	"github.com/secscore-io/secscore/pkg/secscore"
)

const epssAPIURL = "https://api.first.org/data/v1/epss"

type epssResponse struct {
	Data []struct {
		CVE        string `json:"cve"`
		EPSS       string `json:"epss"`
		Percentile string `json:"percentile"`
	} `json:"data"`
}

// EPSSFetcher retrieves the EPSS probability/percentile pair for a CVE from
// the FIRST.org EPSS API. Any failure (network, non-2xx, absent record,
// unparsable numeric field) degrades to a nil signal rather than an error,
// since EPSS is an optional enrichment, not a required input.
type EPSSFetcher struct {
	client  *resty.Client
	baseURL string
	retry   RetryPolicy
}

// NewEPSSFetcher builds an EPSS fetcher sharing the service's standard HTTP
// transport and retry policy.
func NewEPSSFetcher(timeout time.Duration) (*EPSSFetcher, error) {
	client, err := NewHTTPClient(timeout)
	if err != nil {
		return nil, err
	}
	return &EPSSFetcher{client: client, baseURL: epssAPIURL, retry: DefaultRetryPolicy()}, nil
}

// FetchEPSS looks up the EPSS signal for a single CVE. A missing record or
// any upstream error is reported as (nil, nil): EPSS degrades silently.
func (f *EPSSFetcher) FetchEPSS(ctx context.Context, cveID string) (*secscore.EPSSSignal, error) {
	if cveID == "" {
		return nil, nil
	}

	var parsed *epssResponse
	err := f.retry.Do(func() error {
		resp, err := f.client.R().SetContext(ctx).SetQueryParam("cve", cveID).Get(f.baseURL)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return errNonFatalStatus
		}
		body := resp.Body()
		if err := checkResponseSize(body); err != nil {
			return err
		}
		var decoded epssResponse
		if err := jsonutil.Unmarshal(body, &decoded); err != nil {
			return err
		}
		parsed = &decoded
		return nil
	})
	if err != nil || parsed == nil || len(parsed.Data) == 0 {
		return nil, nil
	}

	var record *struct {
		CVE        string `json:"cve"`
		EPSS       string `json:"epss"`
		Percentile string `json:"percentile"`
	}
	for i := range parsed.Data {
		if parsed.Data[i].CVE == cveID {
			record = &parsed.Data[i]
			break
		}
	}
	if record == nil {
		return nil, nil
	}

	score, err := strconv.ParseFloat(record.EPSS, 64)
	if err != nil {
		return nil, nil
	}
	percentile, err := strconv.ParseFloat(record.Percentile, 64)
	if err != nil {
		return nil, nil
	}

	return &secscore.EPSSSignal{
		Score:      score,
		Percentile: percentile,
		FetchedAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}
