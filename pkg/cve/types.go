package cve

import (
	"strings"
	"time"
)

const (
	// NVDAPIURL is the base URL for the NVD CVE API v2.0
	NVDAPIURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"
	// nvdTimeFormat is the NVD timestamp format: "2021-12-10T10:15:09.143"
	nvdTimeFormat = "2006-01-02T15:04:05.999"
)

// NVDTime decodes the NVD API's fractional-second timestamp format, with an
// RFC3339 fallback for sources that emit a zone suffix.
type NVDTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler for NVDTime
func (t *NVDTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := time.Parse(nvdTimeFormat, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}

// CVEResponse is the slice of the NVD API response envelope the metadata
// decoder reads: only the vulnerability list matters here, the paging fields
// are irrelevant for a single-id query.
type CVEResponse struct {
	Vulnerabilities []struct {
		CVE CVEItem `json:"cve"`
	} `json:"vulnerabilities"`
}

// CVEItem carries the fields of one NVD record the metadata decoder
// consumes: identity, publication date, descriptions, CVSS metrics, and the
// configurations tree the CPE collector walks.
type CVEItem struct {
	ID             string        `json:"id"`
	Published      NVDTime       `json:"published"`
	Descriptions   []Description `json:"descriptions"`
	Metrics        *Metrics      `json:"metrics,omitempty"`
	Configurations []Config      `json:"configurations,omitempty"`
}

// Description represents a CVE description
type Description struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

// Config is one entry in an NVD applicability statement.
type Config struct {
	Nodes []Node `json:"nodes"`
}

// Node holds the CPE match list of one configuration node.
type Node struct {
	CPEMatch []CPEMatch `json:"cpeMatch"`
}

// CPEMatch represents CPE match string or range
type CPEMatch struct {
	Criteria string `json:"criteria"`
}

// Metrics contains the CVSS metric lists, in selection-priority order.
type Metrics struct {
	CvssMetricV40 []CVSSMetricV40 `json:"cvssMetricV40,omitempty"`
	CvssMetricV31 []CVSSMetricV3  `json:"cvssMetricV31,omitempty"`
	CvssMetricV30 []CVSSMetricV3  `json:"cvssMetricV30,omitempty"`
	CvssMetricV2  []CVSSMetricV2  `json:"cvssMetricV2,omitempty"`
}

// CVSSMetricV3 represents CVSS v3.x scoring data
type CVSSMetricV3 struct {
	CvssData CVSSDataV3 `json:"cvssData"`
}

// CVSSDataV3 carries the v3.x score fields the decoder reads: base score,
// vector string, and the temporal codes feeding the kernel multipliers.
type CVSSDataV3 struct {
	Version          string  `json:"version"`
	VectorString     string  `json:"vectorString"`
	BaseScore        float64 `json:"baseScore"`
	RemediationLevel string  `json:"remediationLevel,omitempty"`
	ReportConfidence string  `json:"reportConfidence,omitempty"`
}

// CVSSMetricV2 represents CVSS v2.0 scoring data
type CVSSMetricV2 struct {
	CvssData CVSSDataV2 `json:"cvssData"`
}

// CVSSDataV2 carries the v2.0 score fields the decoder reads.
type CVSSDataV2 struct {
	Version          string  `json:"version"`
	VectorString     string  `json:"vectorString"`
	BaseScore        float64 `json:"baseScore"`
	RemediationLevel string  `json:"remediationLevel,omitempty"`
	ReportConfidence string  `json:"reportConfidence,omitempty"`
}

// CVSSMetricV40 represents CVSS v4.0 scoring data
type CVSSMetricV40 struct {
	CvssData CVSSDataV40 `json:"cvssData"`
}

// CVSSDataV40 carries the v4.0 score fields the decoder reads. v4 vectors
// have no RL/RC temporal metrics, so only the base triple is declared.
type CVSSDataV40 struct {
	Version      string  `json:"version"`
	VectorString string  `json:"vectorString"`
	BaseScore    float64 `json:"baseScore"`
}
