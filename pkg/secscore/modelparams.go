package secscore

import (
	"fmt"
	"os"

	"github.com/secscore-io/secscore/pkg/jsonutil"
)

// ParamTable maps a category tag to its Asymmetric Laplace parameters.
type ParamTable map[string]ModelParams

// LoadParamTable reads the AL parameter table JSON at path: an object keyed
// by category, each value {mu, lambda, kappa}, with "default"
// mandatory. Returns an error if the file is missing, unparsable, or lacks
// a "default" entry; callers should fall back to BundledModelParams.
func LoadParamTable(path string) (ParamTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("secscore: reading AL param table: %w", err)
	}

	var table ParamTable
	if err := jsonutil.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("secscore: decoding AL param table: %w", err)
	}
	if _, ok := table["default"]; !ok {
		return nil, fmt.Errorf("secscore: AL param table at %s is missing the mandatory %q key", path, "default")
	}
	return table, nil
}

// ParamsFor resolves category to its AL parameters, falling back to the
// table's "default" entry when category is unrecognized, and to the
// package-wide DefaultModelParams if the table itself has no default
// (should not happen for a table returned by LoadParamTable).
func (t ParamTable) ParamsFor(category string) ModelParams {
	if p, ok := t[category]; ok {
		return p
	}
	if p, ok := t["default"]; ok {
		return p
	}
	return DefaultModelParams
}

// BundledParamTable wraps BundledModelParams as a ParamTable, used when no
// AL_PARAMS_PATH file is configured or loadable.
func BundledParamTable() ParamTable {
	table := make(ParamTable, len(BundledModelParams))
	for k, v := range BundledModelParams {
		table[k] = v
	}
	return table
}
