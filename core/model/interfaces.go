package model

import "gonum.org/v1/gonum/mat"

// Fitter is implemented by every trainable estimator.
type Fitter interface {
	// Fit learns the estimator parameters from training data. y is a column
	// vector of encoded class labels.
	Fit(X, y mat.Matrix) error
}

// Predictor produces hard label predictions.
type Predictor interface {
	// Predict returns a column vector of predicted labels.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Classifier is the contract the evaluation engine trains and scores.
//
// Clone must return an unfitted deep copy carrying the same hyperparameters;
// grid search clones the prototype for every parameter combination so no
// candidate shares mutable state with another. SetParams applies a named
// hyperparameter assignment discovered by the search; unknown names are an
// error so typos in grids fail loudly.
type Classifier interface {
	Fitter
	Predictor

	// Classes returns the sorted class labels seen during Fit.
	Classes() []int

	// SetParams applies hyperparameters by name.
	SetParams(params map[string]interface{}) error

	// Clone returns an unfitted copy with identical hyperparameters.
	Clone() Classifier
}

// ProbabilityEstimator is implemented by classifiers that can emit class
// membership probabilities. The ROC-AUC computation prefers this over hard
// labels.
type ProbabilityEstimator interface {
	// PredictProba returns an (nSamples x nClasses) probability matrix with
	// columns ordered like Classes().
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// DecisionScorer is implemented by classifiers exposing a continuous decision
// score (margin). Used as the ROC-AUC fallback when probabilities are
// unavailable.
type DecisionScorer interface {
	// DecisionFunction returns a column vector of decision scores for the
	// positive class.
	DecisionFunction(X mat.Matrix) (mat.Matrix, error)
}

// Transformer is the preprocessing contract. Clone must return an unfitted
// copy so cross-validation can refit the preprocessing inside every fold,
// keeping fold statistics (imputation medians, scaling factors) from leaking
// across the split.
type Transformer interface {
	// Fit learns the transformation parameters.
	Fit(X mat.Matrix) error

	// Transform applies the learned transformation.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform fits the transformer and transforms X in one call.
	FitTransform(X mat.Matrix) (mat.Matrix, error)

	// Clone returns an unfitted copy with identical configuration.
	Clone() Transformer
}
