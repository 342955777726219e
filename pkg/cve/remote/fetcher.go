package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/secscore-io/secscore/pkg/common"
	"github.com/secscore-io/secscore/pkg/cve"
	"github.com/secscore-io/secscore/pkg/jsonutil"
	"github.com/secscore-io/secscore/pkg/secscore"
)

// Fetcher retrieves and normalizes a single CVE record from the NVD API v2.0,
// selecting the highest-priority CVSS metric present and collapsing the
// configurations tree into a flat, deduplicated CPE list.
type Fetcher struct {
	client  *resty.Client
	baseURL string
	apiKey  string
	retry   RetryPolicy
}

// NewFetcher builds an NVD fetcher. apiKey may be empty; NVD permits
// unauthenticated requests at a lower rate limit.
func NewFetcher(apiKey string, timeout time.Duration) (*Fetcher, error) {
	client, err := NewHTTPClient(timeout)
	if err != nil {
		return nil, err
	}
	return &Fetcher{
		client:  client,
		baseURL: cve.NVDAPIURL,
		apiKey:  apiKey,
		retry:   DefaultRetryPolicy(),
	}, nil
}

// FetchCVE retrieves a single CVE and normalizes it into a secscore.Metadata
// record. A clean NVD "no matching record" result (zero vulnerabilities in an
// otherwise successful response, or a 404) is reported as ErrNotFound. Any
// other failure, once the retry budget is exhausted, degrades to a defaulted
// record with a warning log so the caller can keep serving the request.
func (f *Fetcher) FetchCVE(ctx context.Context, cveID string) (*secscore.Metadata, error) {
	if cveID == "" {
		return nil, fmt.Errorf("cve id cannot be empty")
	}

	var item *cve.CVEItem
	err := f.retry.Do(func() error {
		resp, err := f.doRequest(ctx, cveID)
		if err != nil {
			return err
		}
		if len(resp.Vulnerabilities) == 0 {
			return ErrNotFound
		}
		item = &resp.Vulnerabilities[0].CVE
		for i := range resp.Vulnerabilities {
			if resp.Vulnerabilities[i].CVE.ID == cveID {
				item = &resp.Vulnerabilities[i].CVE
				break
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		common.Warn("nvd: fetch for %s failed after retries, serving defaulted metadata: %v", cveID, err)
		meta := secscore.DefaultMetadata(cveID)
		return &meta, nil
	}

	meta := normalizeCVEItem(*item)
	return &meta, nil
}

func (f *Fetcher) doRequest(ctx context.Context, cveID string) (*cve.CVEResponse, error) {
	req := f.client.R().SetContext(ctx).SetQueryParam("cveId", cveID)
	if f.apiKey != "" {
		req.SetHeader("apiKey", f.apiKey)
	}

	resp, err := req.Get(f.baseURL)
	if err != nil {
		return nil, fmt.Errorf("nvd request failed: %w", err)
	}
	if IsNotFoundStatus(resp.StatusCode()) {
		return nil, ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("nvd returned status %d", resp.StatusCode())
	}

	body := resp.Body()
	if err := checkResponseSize(body); err != nil {
		return nil, err
	}

	var result cve.CVEResponse
	if err := jsonutil.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode nvd response: %w", err)
	}
	return &result, nil
}

// normalizeCVEItem maps a raw NVD item onto the canonical secscore.Metadata
// record: best-available CVSS metric, derived temporal multipliers, English
// description, and the deduplicated CPE criteria set.
func normalizeCVEItem(item cve.CVEItem) secscore.Metadata {
	meta := secscore.DefaultMetadata(item.ID)

	if !item.Published.IsZero() {
		published := item.Published.Format(time.RFC3339)
		meta.PublishedDate = &published
	}

	for _, d := range item.Descriptions {
		if d.Lang == "en" {
			meta.Description = d.Value
			break
		}
	}

	if item.Metrics != nil {
		version, baseScore, vector, rl, rc := selectBestMetric(*item.Metrics)
		if version != "" {
			meta.CVSSVersion = &version
			meta.CVSSBase = &baseScore
			meta.CVSSVector = &vector
			meta.TemporalMultipliers = TemporalMultipliersFromVector(vector, rl, rc)
		}
	}

	meta.CPE = collectCPECriteria(item.Configurations)
	return meta
}

// selectBestMetric picks a single CVSS metric following the priority order
// v4.0 -> v3.1 -> v3.0 -> v2, and returns its raw remediation-level /
// report-confidence codes alongside the version, score and vector string.
func selectBestMetric(m cve.Metrics) (version string, baseScore float64, vector string, rl string, rc string) {
	if len(m.CvssMetricV40) > 0 {
		d := m.CvssMetricV40[0].CvssData
		return d.Version, d.BaseScore, d.VectorString, "", ""
	}
	if len(m.CvssMetricV31) > 0 {
		d := m.CvssMetricV31[0].CvssData
		return d.Version, d.BaseScore, d.VectorString, d.RemediationLevel, d.ReportConfidence
	}
	if len(m.CvssMetricV30) > 0 {
		d := m.CvssMetricV30[0].CvssData
		return d.Version, d.BaseScore, d.VectorString, d.RemediationLevel, d.ReportConfidence
	}
	if len(m.CvssMetricV2) > 0 {
		d := m.CvssMetricV2[0].CvssData
		return d.Version, d.BaseScore, d.VectorString, d.RemediationLevel, d.ReportConfidence
	}
	return "", 0, "", "", ""
}

// collectCPECriteria flattens every configurations node's cpeMatch criteria
// into a single deduplicated, order-preserving list.
func collectCPECriteria(configs []cve.Config) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, cfg := range configs {
		for _, node := range cfg.Nodes {
			for _, match := range node.CPEMatch {
				if match.Criteria == "" {
					continue
				}
				if _, ok := seen[match.Criteria]; ok {
					continue
				}
				seen[match.Criteria] = struct{}{}
				out = append(out, match.Criteria)
			}
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// remediationLevelWeights maps both the short letter codes NVD embeds in
// CVSS vector strings and their textual enum equivalents to the temporal
// multiplier applied to the temporal kernel. Codes outside this table
// leave the multiplier null.
var remediationLevelWeights = map[string]float64{
	"X": 1.0, "NOT_DEFINED": 1.0,
	"U": 1.0, "UNAVAILABLE": 1.0,
	"W": 0.97, "WORKAROUND": 0.97,
	"T": 0.96, "TEMPORARY_FIX": 0.96,
	"O": 0.95, "OFFICIAL_FIX": 0.95,
}

var reportConfidenceWeights = map[string]float64{
	"X": 1.0, "NOT_DEFINED": 1.0,
	"C": 1.0, "CONFIRMED": 1.0,
	"R": 0.96, "REASONABLE": 0.96,
	"U": 0.92, "UNKNOWN": 0.92,
}

// TemporalMultipliersFromVector resolves the remediation-level and
// report-confidence multipliers. The explicit rl/rc values (parsed directly
// from cvssData, where NVD exposes them) take precedence; when absent, the
// vector string itself is parsed for the RL/RC segments as a fallback for
// sources that only carry the raw vector.
func TemporalMultipliersFromVector(vector, rl, rc string) secscore.TemporalMultipliers {
	if rl == "" || rc == "" {
		parsedRL, parsedRC := parseVectorTemporalCodes(vector)
		if rl == "" {
			rl = parsedRL
		}
		if rc == "" {
			rc = parsedRC
		}
	}

	var tm secscore.TemporalMultipliers
	if w, ok := remediationLevelWeights[strings.ToUpper(rl)]; ok {
		tm.RemediationLevel = &w
	}
	if w, ok := reportConfidenceWeights[strings.ToUpper(rc)]; ok {
		tm.ReportConfidence = &w
	}
	return tm
}

// parseVectorTemporalCodes splits a CVSS vector string ("CVSS:3.1/AV:N/.../
// RL:O/RC:C") into its RL and RC metric values, if present.
func parseVectorTemporalCodes(vector string) (rl string, rc string) {
	if vector == "" {
		return "", ""
	}
	for _, segment := range strings.Split(vector, "/") {
		kv := strings.SplitN(segment, ":", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "RL":
			rl = kv[1]
		case "RC":
			rc = kv[1]
		}
	}
	return rl, rc
}
