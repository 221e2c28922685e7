// Package evaluation implements leakage-safe model training and selection:
// stratified splitting, grid search with per-fold preprocessing refits, test
// set evaluation with a ROC-AUC fallback chain, and best-model selection
// with a minimum usable score floor.
package evaluation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/omicsrank/biomark/pkg/errors"
)

// Fold holds the row indices of one cross-validation split.
type Fold struct {
	Train []int
	Test  []int
}

// StratifiedKFold produces k folds whose test sets preserve the class
// proportions of y. Shuffling within each class is driven by Seed so splits
// are reproducible.
type StratifiedKFold struct {
	NFolds int
	Seed   int64
}

// Split returns the folds for label vector y. Every class must have at
// least NFolds samples, otherwise some test fold would miss the class
// entirely.
func (s StratifiedKFold) Split(y *mat.VecDense) ([]Fold, error) {
	if s.NFolds < 2 {
		return nil, errors.NewValidationError("n_folds", "must be at least 2", s.NFolds)
	}
	groups := groupByClass(y)
	for label, idx := range groups {
		if len(idx) < s.NFolds {
			return nil, errors.NewValueError("stratified_kfold",
				fmt.Sprintf("class %d has %d samples, fewer than %d folds", label, len(idx), s.NFolds))
		}
	}

	rng := rand.New(rand.NewSource(s.Seed))
	testSets := make([][]int, s.NFolds)
	for _, label := range sortedLabels(groups) {
		idx := append([]int(nil), groups[label]...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for i, row := range idx {
			f := i % s.NFolds
			testSets[f] = append(testSets[f], row)
		}
	}

	folds := make([]Fold, s.NFolds)
	for f := range folds {
		sort.Ints(testSets[f])
		inTest := make(map[int]bool, len(testSets[f]))
		for _, row := range testSets[f] {
			inTest[row] = true
		}
		train := make([]int, 0, y.Len()-len(testSets[f]))
		for row := 0; row < y.Len(); row++ {
			if !inTest[row] {
				train = append(train, row)
			}
		}
		folds[f] = Fold{Train: train, Test: testSets[f]}
	}
	return folds, nil
}

// TrainTestSplit splits X and y into stratified train and test partitions.
// testFraction is the share of each class reserved for testing; every class
// keeps at least one sample on each side.
func TrainTestSplit(X mat.Matrix, y *mat.VecDense, testFraction float64, seed int64) (XTrain, XTest *mat.Dense, yTrain, yTest *mat.VecDense, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, nil, nil,
			errors.NewValidationError("test_fraction", "must be in (0, 1)", testFraction)
	}
	rows, _ := X.Dims()
	if rows != y.Len() {
		return nil, nil, nil, nil,
			errors.NewDimensionError("train_test_split", y.Len(), rows, 0)
	}

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	groups := groupByClass(y)
	for _, label := range sortedLabels(groups) {
		idx := append([]int(nil), groups[label]...)
		if len(idx) < 2 {
			return nil, nil, nil, nil, errors.NewValueError("train_test_split",
				fmt.Sprintf("class %d has fewer than 2 samples", label))
		}
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(math.Round(testFraction * float64(len(idx))))
		if nTest < 1 {
			nTest = 1
		}
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		testIdx = append(testIdx, idx[:nTest]...)
		trainIdx = append(trainIdx, idx[nTest:]...)
	}
	sort.Ints(trainIdx)
	sort.Ints(testIdx)

	return takeRows(X, trainIdx), takeRows(X, testIdx),
		takeElems(y, trainIdx), takeElems(y, testIdx), nil
}

// StratifiedSubsample returns row indices for a class-proportional subsample
// of fraction*len(y) rows, keeping at least one row per class. fraction 1.0
// (or more) returns every row.
func StratifiedSubsample(y *mat.VecDense, fraction float64, seed int64) ([]int, error) {
	if fraction <= 0 {
		return nil, errors.NewValidationError("fraction", "must be positive", fraction)
	}
	if fraction >= 1 {
		all := make([]int, y.Len())
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	rng := rand.New(rand.NewSource(seed))
	var out []int
	groups := groupByClass(y)
	for _, label := range sortedLabels(groups) {
		idx := append([]int(nil), groups[label]...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		n := int(math.Round(fraction * float64(len(idx))))
		if n < 1 {
			n = 1
		}
		out = append(out, idx[:n]...)
	}
	sort.Ints(out)
	return out, nil
}

func groupByClass(y *mat.VecDense) map[int][]int {
	groups := make(map[int][]int)
	for i := 0; i < y.Len(); i++ {
		label := int(y.AtVec(i))
		groups[label] = append(groups[label], i)
	}
	return groups
}

func sortedLabels(groups map[int][]int) []int {
	labels := make([]int, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Ints(labels)
	return labels
}

// takeRows copies the selected rows of X into a new dense matrix.
func takeRows(X mat.Matrix, idx []int) *mat.Dense {
	_, cols := X.Dims()
	out := mat.NewDense(len(idx), cols, nil)
	for i, row := range idx {
		for j := 0; j < cols; j++ {
			out.Set(i, j, X.At(row, j))
		}
	}
	return out
}

// takeElems copies the selected elements of y into a new vector.
func takeElems(y *mat.VecDense, idx []int) *mat.VecDense {
	out := mat.NewVecDense(len(idx), nil)
	for i, row := range idx {
		out.SetVec(i, y.AtVec(row))
	}
	return out
}
