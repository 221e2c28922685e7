package evaluation

import (
	"gonum.org/v1/gonum/mat"

	"github.com/omicsrank/biomark/core/model"
	"github.com/omicsrank/biomark/metrics"
	"github.com/omicsrank/biomark/pkg/errors"
)

// Supported scoring metric names.
const (
	ScoringF1        = "f1"
	ScoringAccuracy  = "accuracy"
	ScoringPrecision = "precision"
	ScoringRecall    = "recall"
	ScoringROCAUC    = "roc_auc"
)

// scoreFitted evaluates a fitted classifier on (X, y) under one metric.
func scoreFitted(clf model.Classifier, X mat.Matrix, y *mat.VecDense, scoring string) (float64, error) {
	if scoring == ScoringROCAUC {
		return rocAUC(clf, X, y)
	}
	pred, err := predictVec(clf, X)
	if err != nil {
		return 0, err
	}
	switch scoring {
	case ScoringF1:
		return metrics.F1(y, pred)
	case ScoringAccuracy:
		return metrics.Accuracy(y, pred)
	case ScoringPrecision:
		return metrics.Precision(y, pred)
	case ScoringRecall:
		return metrics.Recall(y, pred)
	default:
		return 0, errors.NewValueError("score", "unknown scoring metric "+scoring)
	}
}

// rocAUC computes ROC-AUC for a fitted classifier, preferring the richest
// available prediction output: class probabilities, then decision scores,
// then hard labels.
func rocAUC(clf model.Classifier, X mat.Matrix, y *mat.VecDense) (float64, error) {
	classes := clf.Classes()
	if len(classes) < 2 {
		// Degenerate training data; score as chance level like metrics.AUC
		// does for a single-class ground truth.
		return 0.5, nil
	}

	if pe, ok := clf.(model.ProbabilityEstimator); ok {
		proba, err := pe.PredictProba(X)
		if err == nil {
			if len(classes) == 2 {
				pos := colVec(proba, 1)
				return metrics.AUC(binarize(y, classes[1]), pos)
			}
			return metrics.ROCAUCOVR(y, proba, classes)
		}
	}

	if ds, ok := clf.(model.DecisionScorer); ok && len(classes) == 2 {
		scores, err := ds.DecisionFunction(X)
		if err == nil {
			vec, err := vecFromColumn(scores)
			if err != nil {
				return 0, err
			}
			return metrics.AUC(binarize(y, classes[1]), vec)
		}
	}

	pred, err := predictVec(clf, X)
	if err != nil {
		return 0, err
	}
	if len(classes) == 2 {
		return metrics.AUC(binarize(y, classes[1]), binarize(pred, classes[1]))
	}
	// Multi-class hard labels: one-hot the predictions and score one-vs-rest.
	oneHot := mat.NewDense(pred.Len(), len(classes), nil)
	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	for i := 0; i < pred.Len(); i++ {
		if j, ok := index[int(pred.AtVec(i))]; ok {
			oneHot.Set(i, j, 1)
		}
	}
	return metrics.ROCAUCOVR(y, oneHot, classes)
}

// predictVec runs Predict and reshapes the result into a vector.
func predictVec(clf model.Classifier, X mat.Matrix) (*mat.VecDense, error) {
	pred, err := clf.Predict(X)
	if err != nil {
		return nil, err
	}
	return vecFromColumn(pred)
}

func vecFromColumn(m mat.Matrix) (*mat.VecDense, error) {
	rows, cols := m.Dims()
	if cols != 1 {
		return nil, errors.NewDimensionError("column_vector", 1, cols, 1)
	}
	out := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		out.SetVec(i, m.At(i, 0))
	}
	return out, nil
}

// colVec extracts column j of m as a vector.
func colVec(m mat.Matrix, j int) *mat.VecDense {
	rows, _ := m.Dims()
	out := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		out.SetVec(i, m.At(i, j))
	}
	return out
}

// binarize maps a label vector to 1 where the label equals positive, else 0.
func binarize(y *mat.VecDense, positive int) *mat.VecDense {
	out := mat.NewVecDense(y.Len(), nil)
	for i := 0; i < y.Len(); i++ {
		if int(y.AtVec(i)) == positive {
			out.SetVec(i, 1)
		}
	}
	return out
}
