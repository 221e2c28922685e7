package ranking

import (
	"github.com/omicsrank/biomark/pkg/errors"
)

// Aggregation algorithm names accepted by Config.Aggregation.
const (
	AggRRF           = "rrf"
	AggRankProduct   = "rank_product"
	AggWeightedBorda = "weighted_borda"
	AggSum           = "sum"
)

// DefaultRRFK is the reciprocal-rank-fusion smoothing constant used when no
// override is supplied. 60 is the value from the original RRF paper and
// keeps top ranks from dominating the fused score.
const DefaultRRFK = 60

// Config holds the aggregation parameters for one ranking run. All fields
// are resolved before the Aggregator sees them; the process entry point is
// responsible for folding environment overrides into unset fields (explicit
// values always win).
type Config struct {
	// NumTopFeatures is the length of the returned top-feature list.
	// Must be positive.
	NumTopFeatures int

	// FeatureType labels the feature column of the persisted ranking table
	// (e.g. "genes", "proteins").
	FeatureType string

	// Aggregation selects the fusion algorithm. Empty means AggRRF.
	Aggregation string

	// Weights are per-method (and per-sub-method) weights used by the
	// weighted Borda fusion and by nested score reduction. Keys are matched
	// case-insensitively; invalid values fall back to 1.0.
	Weights map[string]float64

	// RRFK is the RRF smoothing constant. Zero means DefaultRRFK.
	RRFK int

	// SubdirLabel, when non-empty, persists each ranking table under a
	// sanitized subdirectory of the class-pair directory instead of the
	// canonical path, which stays untouched.
	SubdirLabel string

	// OutDir is the root artifact directory.
	OutDir string
}

// Overrides carries process-wide fallback values for aggregation settings,
// typically sourced from the environment at program start. A nil map or
// empty string means "no override available".
type Overrides struct {
	Aggregation string
	Weights     map[string]float64
	RRFK        int
}

// WithOverrides returns a copy of c with unset fields filled from o.
// Fields already set on c are never touched.
func (c Config) WithOverrides(o Overrides) Config {
	if c.Aggregation == "" {
		c.Aggregation = o.Aggregation
	}
	if c.Weights == nil {
		c.Weights = o.Weights
	}
	if c.RRFK == 0 {
		c.RRFK = o.RRFK
	}
	return c
}

// normalize applies defaults and validates the configuration.
func (c Config) normalize() (Config, error) {
	if c.NumTopFeatures <= 0 {
		return c, errors.NewValidationError("num_top_features", "must be positive", c.NumTopFeatures)
	}
	if c.Aggregation == "" {
		c.Aggregation = AggRRF
	}
	if c.RRFK == 0 {
		c.RRFK = DefaultRRFK
	}
	if c.FeatureType == "" {
		c.FeatureType = "features"
	}
	return c, nil
}
