// Package exploitdb provides a lazily-loaded, case-insensitive lookup over a
// bundled ExploitDB index, used as the PoC-evidence source for the scoring
// engine.
package exploitdb

import (
	"os"
	"strings"
	"sync"

	"github.com/secscore-io/secscore/pkg/common"
	"github.com/secscore-io/secscore/pkg/jsonutil"
	"github.com/secscore-io/secscore/pkg/secscore"
)

type rawEntry struct {
	CVEID         *string `json:"cveId"`
	URL           *string `json:"url"`
	PublishedDate *string `json:"publishedDate"`
}

// Index is a one-shot, process-lifetime ExploitDB lookup table. It is built
// once on first use and never mutated afterward.
type Index struct {
	path string

	once    sync.Once
	byCVE   map[string][]secscore.ExploitEvidence
	loadErr error
}

// New returns an Index that will lazily load path on first Lookup call.
func New(path string) *Index {
	return &Index{path: path}
}

func (idx *Index) ensureLoaded() {
	idx.once.Do(func() {
		idx.byCVE = make(map[string][]secscore.ExploitEvidence)

		data, err := os.ReadFile(idx.path)
		if err != nil {
			idx.loadErr = err
			common.Warn("exploitdb: failed to read index at %s: %v", idx.path, err)
			return
		}

		var raw []rawEntry
		if err := jsonutil.Unmarshal(data, &raw); err != nil {
			idx.loadErr = err
			common.Warn("exploitdb: failed to decode index at %s: %v", idx.path, err)
			return
		}

		for _, r := range raw {
			if r.CVEID == nil || strings.TrimSpace(*r.CVEID) == "" {
				continue
			}
			key := strings.ToUpper(strings.TrimSpace(*r.CVEID))
			idx.byCVE[key] = append(idx.byCVE[key], secscore.ExploitEvidence{
				Source:        "exploitdb",
				URL:           r.URL,
				PublishedDate: r.PublishedDate,
			})
		}
	})
}

// Lookup returns every exploit evidence entry matching cveID, case
// insensitively. Returns an empty (non-nil) slice, never an error: a read
// failure is logged once at load time and degrades to an empty index.
func (idx *Index) Lookup(cveID string) []secscore.ExploitEvidence {
	idx.ensureLoaded()
	key := strings.ToUpper(strings.TrimSpace(cveID))
	evidences := idx.byCVE[key]
	if evidences == nil {
		return []secscore.ExploitEvidence{}
	}
	out := make([]secscore.ExploitEvidence, len(evidences))
	copy(out, evidences)
	return out
}

// LoadError returns the error, if any, encountered while lazily loading the
// bundled index. Nil both before the first Lookup and after a successful
// load.
func (idx *Index) LoadError() error {
	return idx.loadErr
}
