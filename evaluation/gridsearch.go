package evaluation

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/omicsrank/biomark/core/model"
	"github.com/omicsrank/biomark/core/parallel"
	"github.com/omicsrank/biomark/metrics"
	"github.com/omicsrank/biomark/pkg/errors"
	"github.com/omicsrank/biomark/pkg/log"
)

// GridSearchCV exhaustively evaluates a hyperparameter grid under stratified
// cross-validation. When a preprocessing pipeline is supplied, an unfitted
// clone of it is refit inside every fold, so imputation and scaling
// statistics never leak from validation rows into training.
type GridSearchCV struct {
	// Estimator is the unfitted classifier prototype. Every candidate is
	// trained on a fresh clone.
	Estimator model.Classifier

	// Preprocess, when non-nil, is the unfitted preprocessing prototype
	// cloned and refit per fold.
	Preprocess model.Transformer

	// Grid holds the hyperparameter spaces to search. Keys may carry the
	// model__ pipeline prefix; it is stripped before application.
	Grid ParamGrid

	// CV drives fold generation.
	CV StratifiedKFold

	// Scoring is the metric to maximize, e.g. "f1".
	Scoring string

	log log.Logger
}

// CandidateResult is the cross-validated outcome of one hyperparameter
// assignment.
type CandidateResult struct {
	// Params is the assignment with pipeline prefixes stripped.
	Params map[string]interface{}

	// FoldScores holds the validation score of each fold; NaN marks a fold
	// whose training failed.
	FoldScores []float64

	// Mean and Std summarize the valid fold scores. Mean is NaN when every
	// fold failed.
	Mean float64
	Std  float64
}

// SearchResult is the outcome of a full grid search.
type SearchResult struct {
	// BestParams is the highest-scoring assignment, prefix-stripped.
	// Ties keep the earlier candidate, so grid declaration order is a
	// deterministic tie-break.
	BestParams map[string]interface{}

	// BestScore is the mean validation score of BestParams.
	BestScore float64

	// Candidates holds every assignment's result in enumeration order.
	Candidates []CandidateResult
}

// Fit searches the grid on (X, y) and returns the cross-validated results.
// Candidates are evaluated concurrently; a candidate whose training fails on
// a fold scores NaN for that fold instead of aborting the search.
func (g *GridSearchCV) Fit(X mat.Matrix, y *mat.VecDense) (*SearchResult, error) {
	if g.log == nil {
		g.log = log.GetLoggerWithName("evaluation")
	}
	combos := g.Grid.Combinations()
	if len(combos) == 0 {
		return nil, errors.NewValueError("grid_search", "empty hyperparameter grid")
	}
	folds, err := g.CV.Split(y)
	if err != nil {
		return nil, err
	}

	candidates := make([]CandidateResult, len(combos))
	errs := parallel.Map(len(combos), func(i int) error {
		candidates[i] = g.evaluateCandidate(combos[i], X, y, folds)
		return nil
	})
	if err := parallel.FirstError(errs); err != nil {
		return nil, err
	}

	result := &SearchResult{Candidates: candidates, BestScore: math.Inf(-1)}
	for _, c := range candidates {
		if math.IsNaN(c.Mean) {
			continue
		}
		if c.Mean > result.BestScore {
			result.BestScore = c.Mean
			result.BestParams = c.Params
		}
	}
	if result.BestParams == nil {
		return nil, errors.NewValueError("grid_search", "every hyperparameter candidate failed")
	}
	return result, nil
}

// evaluateCandidate trains and scores one assignment across every fold.
func (g *GridSearchCV) evaluateCandidate(params map[string]interface{}, X mat.Matrix, y *mat.VecDense, folds []Fold) CandidateResult {
	stripped := StripModelPrefix(params)
	foldScores := make([]float64, len(folds))
	var valid []float64
	for f, fold := range folds {
		score, err := g.scoreFold(stripped, X, y, fold)
		if err != nil {
			g.log.Warn("hyperparameter candidate failed on fold",
				log.FoldKey, f, "error", err)
			foldScores[f] = math.NaN()
			continue
		}
		foldScores[f] = score
		valid = append(valid, score)
	}

	result := CandidateResult{Params: stripped, FoldScores: foldScores}
	if len(valid) == 0 {
		result.Mean, result.Std = math.NaN(), math.NaN()
		return result
	}
	result.Mean, result.Std = metrics.MeanStd(valid)
	return result
}

// scoreFold trains a fresh clone on the fold's training rows, with the
// preprocessing refit on those rows only, and scores the validation rows.
func (g *GridSearchCV) scoreFold(params map[string]interface{}, X mat.Matrix, y *mat.VecDense, fold Fold) (float64, error) {
	XTrain := takeRows(X, fold.Train)
	yTrain := takeElems(y, fold.Train)
	XVal := takeRows(X, fold.Test)
	yVal := takeElems(y, fold.Test)

	var trainFeat, valFeat mat.Matrix = XTrain, XVal
	if g.Preprocess != nil {
		prep := g.Preprocess.Clone()
		transformed, err := prep.FitTransform(XTrain)
		if err != nil {
			return 0, errors.Wrap(err, "fitting fold preprocessing")
		}
		trainFeat = transformed
		if valFeat, err = prep.Transform(XVal); err != nil {
			return 0, errors.Wrap(err, "transforming fold validation rows")
		}
	}

	clf := g.Estimator.Clone()
	if err := clf.SetParams(params); err != nil {
		return 0, err
	}
	if err := clf.Fit(trainFeat, yTrain); err != nil {
		return 0, err
	}
	return scoreFitted(clf, valFeat, yVal, g.Scoring)
}
