package evaluation

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// labeledVec builds a label vector with n0 zeros followed by n1 ones.
func labeledVec(n0, n1 int) *mat.VecDense {
	y := mat.NewVecDense(n0+n1, nil)
	for i := n0; i < n0+n1; i++ {
		y.SetVec(i, 1)
	}
	return y
}

func TestStratifiedKFoldPreservesClasses(t *testing.T) {
	y := labeledVec(10, 10)
	folds, err := StratifiedKFold{NFolds: 5, Seed: 42}.Split(y)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(folds) != 5 {
		t.Fatalf("expected 5 folds, got %d", len(folds))
	}
	seen := make(map[int]int)
	for f, fold := range folds {
		if len(fold.Test) != 4 {
			t.Errorf("fold %d test size = %d, want 4", f, len(fold.Test))
		}
		if len(fold.Train)+len(fold.Test) != 20 {
			t.Errorf("fold %d does not partition the data", f)
		}
		var ones int
		for _, i := range fold.Test {
			seen[i]++
			if y.AtVec(i) == 1 {
				ones++
			}
		}
		if ones != 2 {
			t.Errorf("fold %d test set has %d positive labels, want 2", f, ones)
		}
	}
	for i := 0; i < 20; i++ {
		if seen[i] != 1 {
			t.Errorf("row %d appears in %d test folds, want exactly 1", i, seen[i])
		}
	}
}

func TestStratifiedKFoldDeterministic(t *testing.T) {
	y := labeledVec(12, 8)
	a, err := StratifiedKFold{NFolds: 4, Seed: 7}.Split(y)
	if err != nil {
		t.Fatal(err)
	}
	b, err := StratifiedKFold{NFolds: 4, Seed: 7}.Split(y)
	if err != nil {
		t.Fatal(err)
	}
	for f := range a {
		if len(a[f].Test) != len(b[f].Test) {
			t.Fatalf("fold %d sizes differ", f)
		}
		for i := range a[f].Test {
			if a[f].Test[i] != b[f].Test[i] {
				t.Fatalf("fold %d not reproducible with same seed", f)
			}
		}
	}
}

func TestStratifiedKFoldTooFewSamples(t *testing.T) {
	y := labeledVec(10, 2)
	if _, err := (StratifiedKFold{NFolds: 5, Seed: 1}).Split(y); err == nil {
		t.Error("expected error when a class has fewer samples than folds")
	}
}

func TestTrainTestSplitStratified(t *testing.T) {
	X := mat.NewDense(20, 1, nil)
	for i := 0; i < 20; i++ {
		X.Set(i, 0, float64(i))
	}
	y := labeledVec(12, 8)

	XTrain, XTest, yTrain, yTest, err := TrainTestSplit(X, y, 0.25, 11)
	if err != nil {
		t.Fatalf("TrainTestSplit failed: %v", err)
	}
	trainRows, _ := XTrain.Dims()
	testRows, _ := XTest.Dims()
	if trainRows+testRows != 20 {
		t.Errorf("split does not partition: %d + %d", trainRows, testRows)
	}
	if testRows != 5 {
		t.Errorf("test rows = %d, want 5", testRows)
	}
	var testOnes int
	for i := 0; i < yTest.Len(); i++ {
		if yTest.AtVec(i) == 1 {
			testOnes++
		}
	}
	if testOnes != 2 {
		t.Errorf("test positives = %d, want 2", testOnes)
	}
	if yTrain.Len() != trainRows || yTest.Len() != testRows {
		t.Error("label vectors must match feature partitions")
	}
}

func TestTrainTestSplitRejectsBadFraction(t *testing.T) {
	X := mat.NewDense(4, 1, nil)
	y := labeledVec(2, 2)
	for _, frac := range []float64{0, 1, -0.5, 1.5} {
		if _, _, _, _, err := TrainTestSplit(X, y, frac, 1); err == nil {
			t.Errorf("fraction %v must be rejected", frac)
		}
	}
}

func TestStratifiedSubsample(t *testing.T) {
	y := labeledVec(10, 10)
	idx, err := StratifiedSubsample(y, 0.5, 3)
	if err != nil {
		t.Fatalf("StratifiedSubsample failed: %v", err)
	}
	if len(idx) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(idx))
	}
	var ones int
	for _, i := range idx {
		if y.AtVec(i) == 1 {
			ones++
		}
	}
	if ones != 5 {
		t.Errorf("subsample positives = %d, want 5", ones)
	}
}

func TestStratifiedSubsampleKeepsEveryClass(t *testing.T) {
	y := labeledVec(18, 2)
	idx, err := StratifiedSubsample(y, 0.1, 3)
	if err != nil {
		t.Fatalf("StratifiedSubsample failed: %v", err)
	}
	var ones int
	for _, i := range idx {
		if y.AtVec(i) == 1 {
			ones++
		}
	}
	if ones == 0 {
		t.Error("minority class must keep at least one row")
	}
}

func TestStratifiedSubsampleFullFraction(t *testing.T) {
	y := labeledVec(3, 3)
	idx, err := StratifiedSubsample(y, 1.0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(idx) != 6 {
		t.Errorf("fraction 1.0 must keep every row, got %d", len(idx))
	}
	if _, err := StratifiedSubsample(y, math.Inf(1), 1); err != nil {
		t.Errorf("fraction above 1 keeps every row, got error %v", err)
	}
}
