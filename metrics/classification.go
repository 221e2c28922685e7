// Package metrics implements the classification metrics consumed by the
// model-evaluation engine: accuracy, precision, recall, F1 and ROC-AUC.
//
// Binary precision/recall/F1 treat label 1 as the positive class, matching
// the encoded labels produced by evaluation.TrainTestSplit. Ill-defined
// conditions (no predicted positives, a single class in y_true) do not fail:
// they emit an UndefinedMetricWarning and return the conventional fallback
// value, so one degenerate fold cannot abort a cross-validation batch.
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/omicsrank/biomark/pkg/errors"
)

func validatePair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// Accuracy computes the fraction of exactly matching labels.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validatePair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// binaryCounts tallies the confusion counts for positive label 1.
func binaryCounts(yTrue, yPred *mat.VecDense, n int) (tp, fp, fn int) {
	for i := 0; i < n; i++ {
		predPos := yPred.AtVec(i) == 1
		truePos := yTrue.AtVec(i) == 1
		switch {
		case predPos && truePos:
			tp++
		case predPos && !truePos:
			fp++
		case !predPos && truePos:
			fn++
		}
	}
	return tp, fp, fn
}

// Precision computes tp / (tp + fp) for positive label 1. When no positives
// are predicted the result is 0 and an UndefinedMetricWarning is emitted.
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validatePair("Precision", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	tp, fp, _ := binaryCounts(yTrue, yPred, n)
	if tp+fp == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted positive samples", 0))
		return 0, nil
	}
	return float64(tp) / float64(tp+fp), nil
}

// Recall computes tp / (tp + fn) for positive label 1. When y_true has no
// positives the result is 0 and an UndefinedMetricWarning is emitted.
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validatePair("Recall", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	tp, _, fn := binaryCounts(yTrue, yPred, n)
	if tp+fn == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no true positive samples", 0))
		return 0, nil
	}
	return float64(tp) / float64(tp+fn), nil
}

// F1 computes the harmonic mean of precision and recall for positive label 1.
func F1(yTrue, yPred *mat.VecDense) (float64, error) {
	p, err := Precision(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	r, err := Recall(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if p+r == 0 {
		return 0, nil
	}
	return 2 * p * r / (p + r), nil
}

// AUC computes the binary ROC-AUC from continuous scores using the
// Mann-Whitney U statistic with average ranks for ties.
//
// y_true must contain only labels 0 and 1. When only one class is present
// the AUC is undefined; 0.5 is returned with an UndefinedMetricWarning.
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := validatePair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}

	nPos, nNeg := 0, 0
	for i := 0; i < n; i++ {
		switch yTrue.AtVec(i) {
		case 1:
			nPos++
		case 0:
			nNeg++
		default:
			return 0, errors.NewValueError("AUC", "y_true must contain only binary labels 0 and 1")
		}
	}
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "only one class present in y_true", 0.5))
		return 0.5, nil
	}

	// Average ranks over the scores, ties share the mean rank.
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) < yScore.AtVec(idx[b])
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && yScore.AtVec(idx[j]) == yScore.AtVec(idx[i]) {
			j++
		}
		// Ranks are 1-based; tied scores get the block mean.
		avg := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}

	rankSum := 0.0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			rankSum += ranks[i]
		}
	}

	u := rankSum - float64(nPos)*float64(nPos+1)/2.0
	return u / (float64(nPos) * float64(nNeg)), nil
}

// AUCMatrix is a convenience wrapper accepting single-column matrices.
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	tVec, err := columnVector("AUC", yTrue)
	if err != nil {
		return 0, err
	}
	sVec, err := columnVector("AUC", yScore)
	if err != nil {
		return 0, err
	}
	return AUC(tVec, sVec)
}

// ROCAUCOVR computes the macro-averaged one-vs-rest ROC-AUC for multi-class
// problems. proba is an (nSamples x nClasses) probability matrix whose
// columns follow the order of classes. Classes absent from y_true are skipped;
// if every class is degenerate the result is 0.5 with a warning.
func ROCAUCOVR(yTrue *mat.VecDense, proba mat.Matrix, classes []int) (float64, error) {
	if yTrue == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError("ROCAUCOVR", "empty vector")
	}
	rows, cols := proba.Dims()
	if rows != yTrue.Len() {
		return 0, errors.NewDimensionError("ROCAUCOVR", yTrue.Len(), rows, 0)
	}
	if cols != len(classes) {
		return 0, errors.NewDimensionError("ROCAUCOVR", len(classes), cols, 1)
	}

	sum := 0.0
	counted := 0
	for c, class := range classes {
		binTrue := mat.NewVecDense(rows, nil)
		score := mat.NewVecDense(rows, nil)
		pos := 0
		for i := 0; i < rows; i++ {
			if int(yTrue.AtVec(i)) == class {
				binTrue.SetVec(i, 1)
				pos++
			}
			score.SetVec(i, proba.At(i, c))
		}
		if pos == 0 || pos == rows {
			continue
		}
		auc, err := AUC(binTrue, score)
		if err != nil {
			return 0, err
		}
		sum += auc
		counted++
	}

	if counted == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc_ovr", "no class with both positive and negative samples", 0.5))
		return 0.5, nil
	}
	return sum / float64(counted), nil
}

// columnVector converts a single-column matrix into a VecDense.
func columnVector(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	rows, cols := m.Dims()
	if cols != 1 {
		return nil, errors.NewDimensionError(op, 1, cols, 1)
	}
	if rows == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	v := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}

// MeanStd returns the mean and population standard deviation of values,
// the convention used for fold-score summaries.
func MeanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		d := v - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(len(values)))
	return mean, std
}
