package evaluation

import (
	"sort"
	"strings"

	"github.com/omicsrank/biomark/pkg/errors"
)

// modelParamPrefix marks grid keys addressed to the model stage of a
// preprocessing pipeline. It is stripped again before hyperparameters are
// applied to the bare estimator or reported.
const modelParamPrefix = "model__"

// ParamSpace maps a hyperparameter name to its candidate values.
type ParamSpace map[string][]interface{}

// ParamGrid is a list of parameter spaces searched independently, so
// mutually exclusive hyperparameter combinations (e.g. solver-specific
// penalties) never cross-product with each other.
type ParamGrid []ParamSpace

// Combinations enumerates every hyperparameter assignment of the grid in a
// deterministic order: spaces in list order, parameter names sorted, values
// in declaration order.
func (g ParamGrid) Combinations() []map[string]interface{} {
	var out []map[string]interface{}
	for _, space := range g {
		names := make([]string, 0, len(space))
		for name := range space {
			names = append(names, name)
		}
		sort.Strings(names)

		combos := []map[string]interface{}{{}}
		for _, name := range names {
			values := space[name]
			next := make([]map[string]interface{}, 0, len(combos)*len(values))
			for _, combo := range combos {
				for _, v := range values {
					extended := make(map[string]interface{}, len(combo)+1)
					for k, cv := range combo {
						extended[k] = cv
					}
					extended[name] = v
					next = append(next, extended)
				}
			}
			combos = next
		}
		out = append(out, combos...)
	}
	return out
}

// LookupGrid resolves the hyperparameter grid for a model by
// case-insensitive name match. A missing grid is fatal for the whole batch:
// a model without a grid cannot be tuned and would make the comparison
// against tuned candidates meaningless.
func LookupGrid(grids map[string]ParamGrid, modelName string) (ParamGrid, error) {
	if g, ok := grids[modelName]; ok {
		return g, nil
	}
	for name, g := range grids {
		if strings.EqualFold(name, modelName) {
			return g, nil
		}
	}
	return nil, errors.NewMissingGridError(modelName)
}

// StripModelPrefix removes the model__ pipeline prefix from every parameter
// name, leaving unprefixed names untouched.
func StripModelPrefix(params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[strings.TrimPrefix(k, modelParamPrefix)] = v
	}
	return out
}

// DefaultParamGrids returns the stock hyperparameter grids for the bundled
// classifiers, keyed by canonical model name.
func DefaultParamGrids() map[string]ParamGrid {
	return map[string]ParamGrid{
		"logistic regression": {
			{
				"penalty":  {"l2"},
				"c":        {0.01, 0.1, 1.0, 10.0, 100.0},
				"tol":      {1e-3, 1e-4},
				"max_iter": {1000, 3000, 5000},
			},
		},
		"gaussian nb": {
			{
				"var_smoothing": {1e-9, 1e-8, 1e-7, 1e-6},
			},
		},
	}
}
