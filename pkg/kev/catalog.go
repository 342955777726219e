package kev

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/secscore-io/secscore/pkg/common"
)

// State names the catalog's lifecycle stage.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateBootstrapping State = "bootstrapping"
	StateRefreshing    State = "refreshing"
	StateReady         State = "ready"
)

// snapshot is the immutable, atomically-published view of the catalog:
// membership set, per-entry metadata, and the dataset-level caching headers.
// Readers capture one reference per operation and never observe a partially
// updated set.
type snapshot struct {
	set       map[string]struct{}
	meta      map[string]Entry
	etag      string
	lastMod   string
	updatedAt string
}

func emptySnapshot() *snapshot {
	return &snapshot{set: map[string]struct{}{}, meta: map[string]Entry{}}
}

func snapshotFromEntries(entries []Entry, etag, lastMod, updatedAt string) *snapshot {
	s := &snapshot{
		set:       make(map[string]struct{}, len(entries)),
		meta:      make(map[string]Entry, len(entries)),
		etag:      etag,
		lastMod:   lastMod,
		updatedAt: updatedAt,
	}
	for _, e := range entries {
		s.set[e.CVEID] = struct{}{}
		s.meta[e.CVEID] = e
	}
	return s
}

// Catalog is the process-wide KEV catalog manager. Bootstrap is lazy: the
// first call to EnsureBootstrapped (or to Refresh) triggers it. Only one
// refresh runs at a time; a concurrent Refresh call returns immediately.
// Readers never block on a refresh.
type Catalog struct {
	store      *Store
	fallback   string
	feedURL    string
	httpClient httpFetcher

	snap  atomic.Pointer[snapshot]
	state atomic.Pointer[State]

	bootstrapOnce chan struct{}
	refreshing    atomic.Bool
}

// NewCatalog constructs a catalog backed by a compact bbolt store at
// storePath, with fallbackPath as the bundled seed JSON and feedURL as the
// upstream CISA feed.
func NewCatalog(storePath, fallbackPath, feedURL string, timeout time.Duration) (*Catalog, error) {
	store, err := OpenStore(storePath)
	if err != nil {
		return nil, fmt.Errorf("kev: opening store: %w", err)
	}
	client, err := newDefaultHTTPFetcher(timeout)
	if err != nil {
		store.Close()
		return nil, err
	}
	c := &Catalog{
		store:         store,
		fallback:      fallbackPath,
		feedURL:       feedURL,
		httpClient:    client,
		bootstrapOnce: make(chan struct{}, 1),
	}
	c.bootstrapOnce <- struct{}{}
	uninit := StateUninitialized
	c.state.Store(&uninit)
	c.snap.Store(emptySnapshot())
	return c, nil
}

// Close releases the underlying store.
func (c *Catalog) Close() error {
	return c.store.Close()
}

// State returns the catalog's current lifecycle state.
func (c *Catalog) State() State {
	if s := c.state.Load(); s != nil {
		return *s
	}
	return StateUninitialized
}

func (c *Catalog) setState(s State) {
	c.state.Store(&s)
}

// EnsureBootstrapped performs the bootstrap sequence exactly once: read the
// compact store, else the bundled fallback (copying it into the store), else
// hydrate empty and record bootstrap_missing. Safe to call from every
// request; only the first caller does any work.
func (c *Catalog) EnsureBootstrapped() {
	select {
	case <-c.bootstrapOnce:
	default:
		return
	}

	c.setState(StateBootstrapping)
	defer c.setState(StateReady)

	if cf, found, err := c.store.Load(); err == nil && found {
		c.snap.Store(snapshotFromEntries(cf.Items, cf.ETag, cf.LastModified, cf.UpdatedAt))
		common.Info("kev: bootstrapped %d entries from compact store", len(cf.Items))
		return
	}

	if cf, err := loadFallbackFile(c.fallback); err == nil {
		entries := normalizeEntries(cf.Items)
		c.snap.Store(snapshotFromEntries(entries, cf.ETag, cf.LastModified, cf.UpdatedAt))
		if saveErr := c.store.Save(compactFile{ETag: cf.ETag, LastModified: cf.LastModified, UpdatedAt: cf.UpdatedAt, Items: entries}); saveErr != nil {
			common.Warn("kev: failed to copy bundled fallback into store: %v", saveErr)
		}
		common.Info("kev: bootstrapped %d entries from bundled fallback", len(entries))
		return
	}

	common.Warn("kev: bootstrap_missing: no compact store or bundled fallback available")
	c.snap.Store(emptySnapshot())
}

// IsListed reports whether cveID (already uppercased) is in the KEV
// catalog. Lock-free snapshot read; never blocks on a concurrent refresh.
func (c *Catalog) IsListed(cveID string) bool {
	s := c.snap.Load()
	if s == nil {
		return false
	}
	_, ok := s.set[cveID]
	return ok
}

// Lookup returns the KEV entry for cveID, if listed.
func (c *Catalog) Lookup(cveID string) (Entry, bool) {
	s := c.snap.Load()
	if s == nil {
		return Entry{}, false
	}
	e, ok := s.meta[cveID]
	return e, ok
}

// UpdatedAt returns the dataset-level last-refreshed timestamp, or "" if the
// catalog has never been populated.
func (c *Catalog) UpdatedAt() string {
	if s := c.snap.Load(); s != nil {
		return s.updatedAt
	}
	return ""
}

// Size reports the number of entries currently held.
func (c *Catalog) Size() int {
	if s := c.snap.Load(); s != nil {
		return len(s.set)
	}
	return 0
}

// RefreshResult reports the outcome of one Refresh call.
type RefreshResult struct {
	Changed   bool
	UpdatedAt string
	Err       error
}

// Refresh fetches the feed conditionally and swaps in the result. At most one
// refresh mutates the runtime at a time; a concurrent caller does not start a
// second one and does not wait: it returns at once with Changed=false and the
// current snapshot's UpdatedAt. A failed refresh leaves the prior snapshot
// untouched.
func (c *Catalog) Refresh(ctx context.Context) RefreshResult {
	c.EnsureBootstrapped()

	if !c.refreshing.CompareAndSwap(false, true) {
		return RefreshResult{Changed: false, UpdatedAt: c.UpdatedAt()}
	}
	defer c.refreshing.Store(false)

	c.setState(StateRefreshing)
	defer c.setState(StateReady)

	current := c.snap.Load()
	result, err := c.httpClient.fetch(ctx, c.feedURL, current.etag, current.lastMod)
	if err != nil {
		common.Warn("kev: refresh failed, preserving previous snapshot: %v", err)
		return RefreshResult{Changed: false, UpdatedAt: current.updatedAt, Err: err}
	}
	if result.notModified {
		common.Info("kev: refresh returned 304, no change")
		return RefreshResult{Changed: false, UpdatedAt: current.updatedAt}
	}

	entries, err := decodeFeedBody(result.body)
	if err != nil {
		common.Warn("kev: refresh failed to decode feed body: %v", err)
		return RefreshResult{Changed: false, UpdatedAt: current.updatedAt, Err: err}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	cf := compactFile{ETag: result.etag, LastModified: result.lastModified, UpdatedAt: now, Items: entries}
	if err := c.store.Save(cf); err != nil {
		common.Warn("kev: refresh failed to persist snapshot: %v", err)
		return RefreshResult{Changed: false, UpdatedAt: current.updatedAt, Err: err}
	}

	c.snap.Store(snapshotFromEntries(entries, result.etag, result.lastModified, now))
	common.Info("kev: refresh applied %d entries", len(entries))
	return RefreshResult{Changed: true, UpdatedAt: now}
}
