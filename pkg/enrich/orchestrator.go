// Package enrich implements the per-request signal orchestrator: it
// validates the identifier, checks the response cache, fans out to
// NVD/EPSS/OSV in parallel, consults the local KEV and ExploitDB indices,
// invokes the scoring engine, and assembles the cacheable response.
package enrich

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	gotaskflow "github.com/noneback/go-taskflow"
	"github.com/secscore-io/secscore/pkg/cache"
	"github.com/secscore-io/secscore/pkg/exploitdb"
	"github.com/secscore-io/secscore/pkg/kev"
	"github.com/secscore-io/secscore/pkg/secscore"
)

// cveIDPattern is the required shape of an incoming CVE identifier.
var cveIDPattern = regexp.MustCompile(`^CVE-\d{4}-\d{4,}$`)

// ValidateCVEID normalizes id to uppercase and reports whether it matches
// the required CVE-\d{4}-\d{4,} shape.
func ValidateCVEID(id string) (string, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(id))
	return normalized, cveIDPattern.MatchString(normalized)
}

// NVDFetcher is the capability the orchestrator needs from the NVD adapter.
type NVDFetcher interface {
	FetchCVE(ctx context.Context, cveID string) (*secscore.Metadata, error)
}

// EPSSFetcher is the capability the orchestrator needs from the EPSS adapter.
type EPSSFetcher interface {
	FetchEPSS(ctx context.Context, cveID string) (*secscore.EPSSSignal, error)
}

// OSVFetcher is the capability the orchestrator needs from the OSV adapter.
type OSVFetcher interface {
	FetchOSV(ctx context.Context, cveID string) ([]secscore.OSVAffectedPackage, error)
}

// Clock abstracts wall-clock time so tests can inject a deterministic clock
// for weeks-since-publication math.
type Clock func() time.Time

// Orchestrator wires every collaborator the enrichment and metadata
// endpoints need into a single per-request pipeline.
type Orchestrator struct {
	NVD         NVDFetcher
	EPSS        EPSSFetcher
	OSV         OSVFetcher
	KEV         *kev.Catalog
	ExploitDB   *exploitdb.Index
	Params      secscore.ParamTable
	MetaCache   *cache.Cache[secscore.Metadata]
	EnrichCache *cache.Cache[secscore.Response]
	Now         Clock

	// Executor runs each request's three-node fetch flow. The composition
	// root builds it once and every request shares its worker pool; each
	// in-flight enrichment contributes three independent nodes.
	Executor gotaskflow.Executor

	execOnce sync.Once
}

// DefaultExecutorWorkers sizes the shared fan-out executor when the
// composition root doesn't pass one explicitly.
const DefaultExecutorWorkers uint = 16

func (o *Orchestrator) executor() gotaskflow.Executor {
	o.execOnce.Do(func() {
		if o.Executor == nil {
			o.Executor = gotaskflow.NewExecutor(DefaultExecutorWorkers)
		}
	})
	return o.Executor
}

// MetadataResult is GetMetadata's return value, including whether it was
// served from cache.
type MetadataResult struct {
	Metadata secscore.Metadata
	CacheHit bool
}

// GetMetadata implements the /api/v1/cve/{cveId} path: cache check, then a
// bare NVD fetch, normalized and cached.
func (o *Orchestrator) GetMetadata(ctx context.Context, cveID string) (MetadataResult, error) {
	key := cache.MetadataKey(cveID)
	if cached, ok := o.MetaCache.Get(key); ok {
		return MetadataResult{Metadata: cached, CacheHit: true}, nil
	}

	meta, err := o.NVD.FetchCVE(ctx, cveID)
	if err != nil {
		return MetadataResult{}, err
	}

	o.MetaCache.Set(key, *meta)
	return MetadataResult{Metadata: *meta, CacheHit: false}, nil
}

// EnrichResult is Enrich's return value.
type EnrichResult struct {
	Response secscore.Response
	CacheHit bool
}

// Enrich runs the full SecScore computation for one CVE identifier.
// NVD not-found errors propagate to the caller (who maps them to 404); every
// other upstream failure degrades to a partial, best-effort response.
func (o *Orchestrator) Enrich(ctx context.Context, cveID string) (EnrichResult, error) {
	key := cache.EnrichKey(cveID)
	if cached, ok := o.EnrichCache.Get(key); ok {
		return EnrichResult{Response: cached, CacheHit: true}, nil
	}

	o.KEV.EnsureBootstrapped()

	meta, epssSignal, osvPackages, nvdErr := o.fanOut(ctx, cveID)
	if nvdErr != nil {
		return EnrichResult{}, nvdErr
	}

	kevListed := o.KEV.IsListed(cveID)
	exploits := o.ExploitDB.Lookup(cveID)

	category := secscore.InferCategory(meta.CPE)
	params := o.Params.ParamsFor(category)

	now := o.now()
	weeks := weeksSincePublished(meta.PublishedDate, now)

	result := secscore.ComputeSecScore(secscore.ScoreInputs{
		CVSSBase:            meta.CVSSBase,
		CVSSVersion:         meta.CVSSVersion,
		TemporalMultipliers: meta.TemporalMultipliers,
		WeeksSincePublished: weeks,
		Params:              params,
		EPSS:                epssSignal,
		HasExploit:          len(exploits) > 0,
		KEV:                 kevListed,
	})

	explanation := secscore.BuildExplanation(secscore.ExplanationContext{
		Category: category,
		Params:   params,
		Weeks:    weeks,
		Result:   result,
		KEV:      kevListed,
		Exploits: exploits,
		EPSS:     epssSignal,
		CVSSBase: meta.CVSSBase,
	})

	response := secscore.Response{
		CVEID:         meta.CVEID,
		PublishedDate: meta.PublishedDate,
		CVSSBase:      meta.CVSSBase,
		CVSSVector:    meta.CVSSVector,
		SecScore:      result.SecScore,
		ExploitProb:   result.ExploitProb,
		ModelCategory: category,
		ModelParams:   params,
		EPSS:          epssSignal,
		Exploits:      exploits,
		KEV:           kevListed,
		OSV:           osvPackages,
		Explanation:   explanation,
		ComputedAt:    now.UTC().Format(time.RFC3339),
		ModelVersion:  secscore.ModelVersion,
	}

	o.EnrichCache.Set(key, response)
	return EnrichResult{Response: response}, nil
}

// fanOut fetches NVD, EPSS, and OSV concurrently, joining before returning
// so scoring always sees all three results. The three fetches have no
// dependency on one another, so they are modeled as three independent nodes
// in a per-request Taskflow graph run on the shared process-wide executor.
// An NVD error is returned verbatim for the caller to classify, while
// EPSS/OSV failures already degrade to nil inside their fetchers.
func (o *Orchestrator) fanOut(ctx context.Context, cveID string) (secscore.Metadata, *secscore.EPSSSignal, []secscore.OSVAffectedPackage, error) {
	var meta secscore.Metadata
	var epssSignal *secscore.EPSSSignal
	var osvPackages []secscore.OSVAffectedPackage
	var nvdErr error

	tf := gotaskflow.NewTaskFlow("enrich-fanout-" + cveID)
	tf.NewTask("fetch-nvd", func() {
		m, err := o.NVD.FetchCVE(ctx, cveID)
		if err != nil {
			nvdErr = err
			return
		}
		meta = *m
	})
	tf.NewTask("fetch-epss", func() {
		epssSignal, _ = o.EPSS.FetchEPSS(ctx, cveID)
	})
	tf.NewTask("fetch-osv", func() {
		osvPackages, _ = o.OSV.FetchOSV(ctx, cveID)
	})

	o.executor().Run(tf).Wait()

	return meta, epssSignal, osvPackages, nvdErr
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// weeksSincePublished converts a publishedDate string (RFC3339, matching
// what the NVD fetcher writes) into weeks-since-publication as of now. A nil
// or unparsable date yields 0 weeks.
func weeksSincePublished(publishedDate *string, now time.Time) float64 {
	if publishedDate == nil {
		return secscore.WeeksSince(now.UnixMilli(), 0, false)
	}
	t, err := time.Parse(time.RFC3339, *publishedDate)
	if err != nil {
		return secscore.WeeksSince(now.UnixMilli(), 0, false)
	}
	return secscore.WeeksSince(now.UnixMilli(), t.UnixMilli(), true)
}
