package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/omicsrank/biomark/core/model"
	"github.com/omicsrank/biomark/pkg/errors"
)

// Imputation strategies.
const (
	StrategyMedian = "median"
	StrategyMean   = "mean"
)

// SimpleImputer replaces NaN entries with a per-feature statistic learned
// during Fit. Omics matrices routinely carry missing measurements, and the
// fill statistic is exactly the kind of shared state that leaks across
// cross-validation folds when fitted on the full training set, so the imputer
// participates in per-fold refits via Clone.
type SimpleImputer struct {
	state *model.StateManager

	// Strategy is "median" or "mean".
	Strategy string

	// Statistics holds the learned per-feature fill values.
	Statistics []float64

	// NFeatures is the number of features seen during Fit.
	NFeatures int
}

// NewSimpleImputer creates a SimpleImputer with the given strategy.
func NewSimpleImputer(strategy string) *SimpleImputer {
	return &SimpleImputer{
		state:    model.NewStateManager(),
		Strategy: strategy,
	}
}

// NewMedianImputer creates a SimpleImputer with the median strategy, the
// default for numerical omics features.
func NewMedianImputer() *SimpleImputer {
	return NewSimpleImputer(StrategyMedian)
}

// Fit learns the per-feature fill statistic from the non-missing values.
func (im *SimpleImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}
	if im.Strategy != StrategyMedian && im.Strategy != StrategyMean {
		return errors.NewValidationError("strategy", "must be 'median' or 'mean'", im.Strategy)
	}

	im.NFeatures = c
	im.Statistics = make([]float64, c)

	for j := 0; j < c; j++ {
		observed := make([]float64, 0, r)
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			if !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			// A feature with no observed values imputes to zero.
			im.Statistics[j] = 0
			continue
		}
		switch im.Strategy {
		case StrategyMean:
			sum := 0.0
			for _, v := range observed {
				sum += v
			}
			im.Statistics[j] = sum / float64(len(observed))
		default:
			sort.Float64s(observed)
			mid := len(observed) / 2
			if len(observed)%2 == 1 {
				im.Statistics[j] = observed[mid]
			} else {
				im.Statistics[j] = (observed[mid-1] + observed[mid]) / 2
			}
		}
	}

	im.state.SetDimensions(r, c)
	im.state.SetFitted()
	return nil
}

// Transform replaces NaN entries with the learned statistics.
func (im *SimpleImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !im.state.IsFitted() {
		return nil, errors.NewNotFittedError("SimpleImputer", "Transform")
	}

	r, c := X.Dims()
	if c != im.NFeatures {
		return nil, errors.NewDimensionError("SimpleImputer.Transform", im.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = im.Statistics[j]
			}
			result.Set(i, j, v)
		}
	}
	return result, nil
}

// FitTransform fits the imputer and transforms X in one call.
func (im *SimpleImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := im.Fit(X); err != nil {
		return nil, err
	}
	return im.Transform(X)
}

// Clone returns an unfitted copy with the same strategy.
func (im *SimpleImputer) Clone() model.Transformer {
	return NewSimpleImputer(im.Strategy)
}

// IsFitted reports whether Fit has been called.
func (im *SimpleImputer) IsFitted() bool {
	return im.state.IsFitted()
}

// String returns the imputer's string representation.
func (im *SimpleImputer) String() string {
	return fmt.Sprintf("SimpleImputer(strategy=%s)", im.Strategy)
}
