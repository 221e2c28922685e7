// Package linear_model provides linear classifiers for the evaluation
// engine.
package linear_model

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/omicsrank/biomark/core/model"
	"github.com/omicsrank/biomark/pkg/errors"
)

// LogisticRegression is a logistic regression classifier trained by
// full-batch gradient descent with an adaptive step size. Binary problems
// train one weight vector; multi-class problems train one-vs-rest.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	penalty      string  // "l2" or "none"
	c            float64 // inverse regularization strength
	fitIntercept bool
	maxIter      int
	tol          float64
	seed         int64

	// Learned parameters
	coef      [][]float64 // one row per trained classifier
	intercept []float64
	classes   []int
	nFeatures int

	rng *rand.Rand
}

// LogisticRegressionOption configures a LogisticRegression.
type LogisticRegressionOption func(*LogisticRegression)

// WithPenalty sets the regularization type ("l2" or "none").
func WithPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.penalty = penalty }
}

// WithC sets the inverse regularization strength.
func WithC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.c = c }
}

// WithMaxIter sets the gradient descent iteration cap.
func WithMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.maxIter = maxIter }
}

// WithTol sets the convergence tolerance on the gradient norm.
func WithTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// WithSeed fixes the weight initialization seed.
func WithSeed(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.seed = seed }
}

// NewLogisticRegression creates a classifier with sklearn-compatible
// defaults: l2 penalty, C=1.0, 1000 iterations, tolerance 1e-4.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		c:            1.0,
		fitIntercept: true,
		maxIter:      1000,
		tol:          1e-4,
		seed:         32,
	}
	for _, opt := range opts {
		opt(lr)
	}
	lr.rng = rand.New(rand.NewSource(lr.seed))
	return lr
}

// Fit trains the model on X with label column vector y.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return errors.NewDimensionError("logistic_regression.fit", 1, yCols, 1)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("logistic_regression.fit", nSamples, yRows, 0)
	}
	if nSamples == 0 {
		return errors.ErrEmptyData
	}

	lr.classes = uniqueLabels(y)
	lr.nFeatures = nFeatures
	nTrained := 1
	if len(lr.classes) > 2 {
		nTrained = len(lr.classes)
	}
	lr.coef = make([][]float64, nTrained)
	lr.intercept = make([]float64, nTrained)
	for i := range lr.coef {
		lr.coef[i] = make([]float64, nFeatures)
		for j := range lr.coef[i] {
			lr.coef[i][j] = lr.rng.NormFloat64() * 0.01
		}
	}

	if len(lr.classes) == 2 {
		lr.descend(X, binaryTargets(y, lr.classes[1]), 0)
	} else {
		for idx, class := range lr.classes {
			lr.descend(X, binaryTargets(y, class), idx)
		}
	}

	lr.state.SetDimensions(nSamples, nFeatures)
	lr.state.SetFitted()
	return nil
}

// descend runs gradient descent for one binary target vector, updating the
// weight row at idx.
func (lr *LogisticRegression) descend(X mat.Matrix, target []float64, idx int) {
	nSamples, nFeatures := X.Dims()
	weights := lr.coef[idx]
	intercept := &lr.intercept[idx]

	for iter := 0; iter < lr.maxIter; iter++ {
		gradW := make([]float64, nFeatures)
		gradB := 0.0
		for i := 0; i < nSamples; i++ {
			z := *intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			diff := sigmoid(z) - target[i]
			gradB += diff
			for j := 0; j < nFeatures; j++ {
				gradW[j] += diff * X.At(i, j)
			}
		}
		for j := range gradW {
			gradW[j] /= float64(nSamples)
		}
		gradB /= float64(nSamples)

		if lr.penalty == "l2" {
			lambda := 1.0 / lr.c
			for j := range weights {
				gradW[j] += lambda * weights[j] / float64(nSamples)
			}
		}

		step := 1.0 / (1.0 + 0.1*float64(iter))
		for j := range weights {
			weights[j] -= step * gradW[j]
		}
		if lr.fitIntercept {
			*intercept -= step * gradB
		}

		maxGrad := math.Abs(gradB)
		for _, g := range gradW {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			break
		}
	}
}

// Predict returns a column vector of predicted class labels.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "Predict")
	}
	scores, err := lr.rawScores(X)
	if err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	pred := mat.NewDense(nSamples, 1, nil)
	if len(lr.classes) == 2 {
		for i := 0; i < nSamples; i++ {
			if sigmoid(scores.At(i, 0)) >= 0.5 {
				pred.Set(i, 0, float64(lr.classes[1]))
			} else {
				pred.Set(i, 0, float64(lr.classes[0]))
			}
		}
		return pred, nil
	}
	for i := 0; i < nSamples; i++ {
		best, bestScore := 0, math.Inf(-1)
		for c := range lr.classes {
			if s := scores.At(i, c); s > bestScore {
				best, bestScore = c, s
			}
		}
		pred.Set(i, 0, float64(lr.classes[best]))
	}
	return pred, nil
}

// PredictProba returns class membership probabilities, columns ordered like
// Classes(). Binary problems use the sigmoid, multi-class uses a softmax
// over the one-vs-rest scores.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	scores, err := lr.rawScores(X)
	if err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, len(lr.classes), nil)
	if len(lr.classes) == 2 {
		for i := 0; i < nSamples; i++ {
			p := sigmoid(scores.At(i, 0))
			probas.Set(i, 0, 1.0-p)
			probas.Set(i, 1, p)
		}
		return probas, nil
	}
	for i := 0; i < nSamples; i++ {
		maxScore := math.Inf(-1)
		for c := range lr.classes {
			if s := scores.At(i, c); s > maxScore {
				maxScore = s
			}
		}
		sum := 0.0
		exps := make([]float64, len(lr.classes))
		for c := range lr.classes {
			exps[c] = math.Exp(scores.At(i, c) - maxScore)
			sum += exps[c]
		}
		for c := range lr.classes {
			probas.Set(i, c, exps[c]/sum)
		}
	}
	return probas, nil
}

// DecisionFunction returns the raw margin of the positive class for binary
// problems, or the per-class score matrix for multi-class.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "DecisionFunction")
	}
	return lr.rawScores(X)
}

// rawScores computes the linear scores: an (n x 1) matrix for binary
// problems, (n x nClasses) for one-vs-rest.
func (lr *LogisticRegression) rawScores(X mat.Matrix) (*mat.Dense, error) {
	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures {
		return nil, errors.NewDimensionError("logistic_regression.predict", lr.nFeatures, nFeatures, 1)
	}
	out := mat.NewDense(nSamples, len(lr.coef), nil)
	for i := 0; i < nSamples; i++ {
		for c := range lr.coef {
			z := lr.intercept[c]
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * lr.coef[c][j]
			}
			out.Set(i, c, z)
		}
	}
	return out, nil
}

// Classes returns the sorted class labels seen during Fit.
func (lr *LogisticRegression) Classes() []int {
	return lr.classes
}

// SetParams applies hyperparameters by name. Numeric values are accepted as
// int or float64 so grid values survive JSON round-trips.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "penalty":
			s, ok := value.(string)
			if !ok || (s != "l2" && s != "none") {
				return errors.NewValidationError("penalty", "must be 'l2' or 'none'", value)
			}
			lr.penalty = s
		case "c", "C":
			f, err := toFloat(key, value)
			if err != nil {
				return err
			}
			if f <= 0 {
				return errors.NewValidationError("c", "must be positive", value)
			}
			lr.c = f
		case "max_iter":
			n, err := toInt(key, value)
			if err != nil {
				return err
			}
			lr.maxIter = n
		case "tol":
			f, err := toFloat(key, value)
			if err != nil {
				return err
			}
			lr.tol = f
		case "fit_intercept":
			b, ok := value.(bool)
			if !ok {
				return errors.NewValidationError("fit_intercept", "must be a bool", value)
			}
			lr.fitIntercept = b
		default:
			return errors.NewValidationError(key, "unknown hyperparameter", value)
		}
	}
	return nil
}

// Clone returns an unfitted copy with identical hyperparameters.
func (lr *LogisticRegression) Clone() model.Classifier {
	clone := NewLogisticRegression(
		WithPenalty(lr.penalty),
		WithC(lr.c),
		WithMaxIter(lr.maxIter),
		WithTol(lr.tol),
		WithSeed(lr.seed),
	)
	clone.fitIntercept = lr.fitIntercept
	return clone
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// binaryTargets maps labels to 1.0 where the label equals positive, else 0.
func binaryTargets(y mat.Matrix, positive int) []float64 {
	rows, _ := y.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		if int(y.At(i, 0)) == positive {
			out[i] = 1.0
		}
	}
	return out
}

// uniqueLabels extracts the sorted distinct labels of a column vector.
func uniqueLabels(y mat.Matrix) []int {
	rows, _ := y.Dims()
	seen := make(map[int]bool)
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = true
	}
	labels := make([]int, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Ints(labels)
	return labels
}

// toFloat coerces a grid value to float64.
func toFloat(param string, v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, errors.NewValidationError(param, "must be numeric", v)
	}
}

// toInt coerces a grid value to int.
func toInt(param string, v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, errors.NewValidationError(param, "must be an integer", v)
		}
		return int(n), nil
	default:
		return 0, errors.NewValidationError(param, "must be an integer", v)
	}
}
