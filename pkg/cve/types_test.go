package cve

import (
	"testing"
	"time"

	"github.com/secscore-io/secscore/pkg/jsonutil"
)

func TestNVDTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		expected time.Time
	}{
		{
			name:     "valid NVD format",
			input:    `"2021-12-10T10:15:09.143"`,
			expected: time.Date(2021, 12, 10, 10, 15, 9, 143000000, time.UTC),
		},
		{
			name:     "valid RFC3339 format",
			input:    `"2021-12-10T10:15:09Z"`,
			expected: time.Date(2021, 12, 10, 10, 15, 9, 0, time.UTC),
		},
		{
			name:     "null value",
			input:    `null`,
			expected: time.Time{},
		},
		{
			name:     "empty string",
			input:    `""`,
			expected: time.Time{},
		},
		{
			name:    "invalid format",
			input:   `"invalid-date"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var nvdTime NVDTime
			err := nvdTime.UnmarshalJSON([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !nvdTime.Time.Equal(tt.expected) {
				t.Errorf("UnmarshalJSON() got = %v, want %v", nvdTime.Time, tt.expected)
			}
		})
	}
}

// A full envelope decode through the service's codec: unknown upstream
// fields (paging, severity enums, environmental metrics) must be ignored
// while the decoded subset survives intact.
func TestCVEResponse_DecodesEnvelopeSubset(t *testing.T) {
	payload := []byte(`{
		"resultsPerPage": 1,
		"startIndex": 0,
		"totalResults": 1,
		"vulnerabilities": [
			{
				"cve": {
					"id": "CVE-2024-0001",
					"sourceIdentifier": "nvd@nist.gov",
					"published": "2024-01-15T00:00:00.000",
					"vulnStatus": "Analyzed",
					"descriptions": [{"lang": "en", "value": "a description"}],
					"metrics": {
						"cvssMetricV31": [
							{
								"source": "nvd@nist.gov",
								"type": "Primary",
								"cvssData": {
									"version": "3.1",
									"vectorString": "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
									"baseScore": 9.8,
									"baseSeverity": "CRITICAL",
									"remediationLevel": "O",
									"reportConfidence": "C"
								}
							}
						]
					},
					"configurations": [
						{
							"nodes": [
								{
									"operator": "OR",
									"cpeMatch": [
										{"vulnerable": true, "criteria": "cpe:2.3:a:php:php:8.2:*:*:*:*:*:*:*"}
									]
								}
							]
						}
					]
				}
			}
		]
	}`)

	var resp CVEResponse
	if err := jsonutil.Unmarshal(payload, &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(resp.Vulnerabilities) != 1 {
		t.Fatalf("len(Vulnerabilities) = %d, want 1", len(resp.Vulnerabilities))
	}

	item := resp.Vulnerabilities[0].CVE
	if item.ID != "CVE-2024-0001" {
		t.Errorf("ID = %q, want CVE-2024-0001", item.ID)
	}
	if item.Published.IsZero() {
		t.Error("Published should be set")
	}
	if item.Metrics == nil || len(item.Metrics.CvssMetricV31) != 1 {
		t.Fatalf("unexpected metrics shape: %+v", item.Metrics)
	}
	d := item.Metrics.CvssMetricV31[0].CvssData
	if d.BaseScore != 9.8 || d.Version != "3.1" || d.RemediationLevel != "O" {
		t.Errorf("unexpected cvssData: %+v", d)
	}
	if len(item.Configurations) != 1 || len(item.Configurations[0].Nodes) != 1 {
		t.Fatalf("unexpected configurations shape: %+v", item.Configurations)
	}
	if got := item.Configurations[0].Nodes[0].CPEMatch[0].Criteria; got != "cpe:2.3:a:php:php:8.2:*:*:*:*:*:*:*" {
		t.Errorf("Criteria = %q", got)
	}
}
