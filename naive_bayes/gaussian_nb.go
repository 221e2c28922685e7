// Package naive_bayes provides Gaussian naive Bayes classification.
package naive_bayes

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/omicsrank/biomark/core/model"
	"github.com/omicsrank/biomark/pkg/errors"
)

// GaussianNB is a Gaussian naive Bayes classifier. Each feature is modeled
// as an independent normal distribution per class; variances are smoothed by
// varSmoothing times the largest feature variance so constant features never
// produce a zero-variance likelihood.
type GaussianNB struct {
	state *model.StateManager

	varSmoothing float64

	classes   []int
	nFeatures int
	// theta[c][j] and sigma[c][j] are the mean and smoothed variance of
	// feature j under class c.
	theta [][]float64
	sigma [][]float64
	// logPrior[c] is the log class prior estimated from label frequencies.
	logPrior []float64
}

// GaussianNBOption configures a GaussianNB.
type GaussianNBOption func(*GaussianNB)

// WithVarSmoothing sets the variance smoothing portion.
func WithVarSmoothing(v float64) GaussianNBOption {
	return func(nb *GaussianNB) { nb.varSmoothing = v }
}

// NewGaussianNB creates a classifier with the sklearn default smoothing of
// 1e-9.
func NewGaussianNB(opts ...GaussianNBOption) *GaussianNB {
	nb := &GaussianNB{
		state:        model.NewStateManager(),
		varSmoothing: 1e-9,
	}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// Fit estimates per-class feature means, variances and class priors.
func (nb *GaussianNB) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return errors.NewDimensionError("gaussian_nb.fit", 1, yCols, 1)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("gaussian_nb.fit", nSamples, yRows, 0)
	}
	if nSamples == 0 {
		return errors.ErrEmptyData
	}

	groups := make(map[int][]int)
	for i := 0; i < nSamples; i++ {
		label := int(y.At(i, 0))
		groups[label] = append(groups[label], i)
	}
	nb.classes = make([]int, 0, len(groups))
	for label := range groups {
		nb.classes = append(nb.classes, label)
	}
	sort.Ints(nb.classes)
	nb.nFeatures = nFeatures

	// Global per-feature variance drives the smoothing floor.
	maxVar := 0.0
	for j := 0; j < nFeatures; j++ {
		mean := 0.0
		for i := 0; i < nSamples; i++ {
			mean += X.At(i, j)
		}
		mean /= float64(nSamples)
		variance := 0.0
		for i := 0; i < nSamples; i++ {
			d := X.At(i, j) - mean
			variance += d * d
		}
		variance /= float64(nSamples)
		if variance > maxVar {
			maxVar = variance
		}
	}
	epsilon := nb.varSmoothing * maxVar
	if epsilon == 0 {
		epsilon = nb.varSmoothing
	}

	nb.theta = make([][]float64, len(nb.classes))
	nb.sigma = make([][]float64, len(nb.classes))
	nb.logPrior = make([]float64, len(nb.classes))
	for c, label := range nb.classes {
		rows := groups[label]
		nb.theta[c] = make([]float64, nFeatures)
		nb.sigma[c] = make([]float64, nFeatures)
		nb.logPrior[c] = math.Log(float64(len(rows)) / float64(nSamples))
		for j := 0; j < nFeatures; j++ {
			mean := 0.0
			for _, i := range rows {
				mean += X.At(i, j)
			}
			mean /= float64(len(rows))
			variance := 0.0
			for _, i := range rows {
				d := X.At(i, j) - mean
				variance += d * d
			}
			variance /= float64(len(rows))
			nb.theta[c][j] = mean
			nb.sigma[c][j] = variance + epsilon
		}
	}

	nb.state.SetDimensions(nSamples, nFeatures)
	nb.state.SetFitted()
	return nil
}

// Predict returns a column vector of predicted class labels.
func (nb *GaussianNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !nb.state.IsFitted() {
		return nil, errors.NewNotFittedError("GaussianNB", "Predict")
	}
	logLik, err := nb.jointLogLikelihood(X)
	if err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	pred := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best, bestScore := 0, math.Inf(-1)
		for c := range nb.classes {
			if s := logLik.At(i, c); s > bestScore {
				best, bestScore = c, s
			}
		}
		pred.Set(i, 0, float64(nb.classes[best]))
	}
	return pred, nil
}

// PredictProba returns normalized class membership probabilities, columns
// ordered like Classes().
func (nb *GaussianNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !nb.state.IsFitted() {
		return nil, errors.NewNotFittedError("GaussianNB", "PredictProba")
	}
	logLik, err := nb.jointLogLikelihood(X)
	if err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, len(nb.classes), nil)
	for i := 0; i < nSamples; i++ {
		maxLog := math.Inf(-1)
		for c := range nb.classes {
			if s := logLik.At(i, c); s > maxLog {
				maxLog = s
			}
		}
		sum := 0.0
		for c := range nb.classes {
			p := math.Exp(logLik.At(i, c) - maxLog)
			probas.Set(i, c, p)
			sum += p
		}
		for c := range nb.classes {
			probas.Set(i, c, probas.At(i, c)/sum)
		}
	}
	return probas, nil
}

// jointLogLikelihood computes log P(class) + sum_j log N(x_j; theta, sigma).
func (nb *GaussianNB) jointLogLikelihood(X mat.Matrix) (*mat.Dense, error) {
	nSamples, nFeatures := X.Dims()
	if nFeatures != nb.nFeatures {
		return nil, errors.NewDimensionError("gaussian_nb.predict", nb.nFeatures, nFeatures, 1)
	}
	out := mat.NewDense(nSamples, len(nb.classes), nil)
	for i := 0; i < nSamples; i++ {
		for c := range nb.classes {
			ll := nb.logPrior[c]
			for j := 0; j < nFeatures; j++ {
				d := X.At(i, j) - nb.theta[c][j]
				ll -= 0.5 * (math.Log(2*math.Pi*nb.sigma[c][j]) + d*d/nb.sigma[c][j])
			}
			out.Set(i, c, ll)
		}
	}
	return out, nil
}

// Classes returns the sorted class labels seen during Fit.
func (nb *GaussianNB) Classes() []int {
	return nb.classes
}

// SetParams applies hyperparameters by name.
func (nb *GaussianNB) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "var_smoothing":
			f, ok := value.(float64)
			if !ok || f < 0 {
				return errors.NewValidationError("var_smoothing", "must be a non-negative number", value)
			}
			nb.varSmoothing = f
		default:
			return errors.NewValidationError(key, "unknown hyperparameter", value)
		}
	}
	return nil
}

// Clone returns an unfitted copy with identical hyperparameters.
func (nb *GaussianNB) Clone() model.Classifier {
	return NewGaussianNB(WithVarSmoothing(nb.varSmoothing))
}
