package linear_model

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// separableData builds two well-separated clusters labeled 0 and 1.
func separableData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(8, 2, []float64{
		0.0, 0.1,
		0.2, 0.0,
		-0.1, 0.2,
		0.1, -0.2,
		5.0, 5.1,
		5.2, 4.9,
		4.8, 5.0,
		5.1, 5.2,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	return X, y
}

func TestLogisticRegressionBinary(t *testing.T) {
	X, y := separableData()
	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := 0; i < 8; i++ {
		if pred.At(i, 0) != y.At(i, 0) {
			t.Errorf("sample %d: predicted %v, want %v", i, pred.At(i, 0), y.At(i, 0))
		}
	}

	classes := lr.Classes()
	if len(classes) != 2 || classes[0] != 0 || classes[1] != 1 {
		t.Errorf("Classes() = %v, want [0 1]", classes)
	}
}

func TestLogisticRegressionPredictProba(t *testing.T) {
	X, y := separableData()
	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	probas, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	rows, cols := probas.Dims()
	if rows != 8 || cols != 2 {
		t.Fatalf("proba shape = (%d, %d), want (8, 2)", rows, cols)
	}
	for i := 0; i < rows; i++ {
		sum := probas.At(i, 0) + probas.At(i, 1)
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("row %d probabilities sum to %v", i, sum)
		}
	}
	if probas.At(0, 0) < 0.5 {
		t.Errorf("class-0 sample should favor column 0, got %v", probas.At(0, 0))
	}
	if probas.At(4, 1) < 0.5 {
		t.Errorf("class-1 sample should favor column 1, got %v", probas.At(4, 1))
	}
}

func TestLogisticRegressionMulticlass(t *testing.T) {
	X := mat.NewDense(9, 2, []float64{
		0, 0, 0.2, 0.1, -0.1, 0.1,
		5, 5, 5.1, 4.9, 4.8, 5.2,
		-5, 5, -5.1, 4.8, -4.9, 5.1,
	})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2})

	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	pred, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := 0; i < 9; i++ {
		if pred.At(i, 0) != y.At(i, 0) {
			t.Errorf("sample %d: predicted %v, want %v", i, pred.At(i, 0), y.At(i, 0))
		}
	}
	probas, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	if _, cols := probas.Dims(); cols != 3 {
		t.Errorf("expected 3 probability columns, got %d", cols)
	}
}

func TestLogisticRegressionNotFitted(t *testing.T) {
	lr := NewLogisticRegression()
	X := mat.NewDense(1, 2, []float64{1, 2})
	if _, err := lr.Predict(X); err == nil {
		t.Error("Predict before Fit must fail")
	}
	if _, err := lr.PredictProba(X); err == nil {
		t.Error("PredictProba before Fit must fail")
	}
}

func TestLogisticRegressionSetParams(t *testing.T) {
	lr := NewLogisticRegression()
	err := lr.SetParams(map[string]interface{}{
		"c":        10.0,
		"max_iter": 500,
		"tol":      1e-3,
		"penalty":  "l2",
	})
	if err != nil {
		t.Fatalf("SetParams failed: %v", err)
	}
	if lr.c != 10.0 || lr.maxIter != 500 || lr.tol != 1e-3 {
		t.Errorf("hyperparameters not applied: c=%v max_iter=%v tol=%v", lr.c, lr.maxIter, lr.tol)
	}

	if err := lr.SetParams(map[string]interface{}{"solver": "lbfgs"}); err == nil {
		t.Error("unknown hyperparameter must fail")
	}
	if err := lr.SetParams(map[string]interface{}{"c": -1.0}); err == nil {
		t.Error("non-positive c must fail")
	}
	// Grid values arrive as float64 after JSON round-trips.
	if err := lr.SetParams(map[string]interface{}{"max_iter": 1000.0}); err != nil {
		t.Errorf("integral float max_iter should be accepted: %v", err)
	}
}

func TestLogisticRegressionCloneIsUnfitted(t *testing.T) {
	X, y := separableData()
	lr := NewLogisticRegression(WithC(0.5), WithMaxIter(200))
	if err := lr.SetParams(map[string]interface{}{"fit_intercept": false}); err != nil {
		t.Fatalf("SetParams failed: %v", err)
	}
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	clone := lr.Clone()
	if _, err := clone.Predict(X); err == nil {
		t.Error("clone must be unfitted")
	}
	lc, ok := clone.(*LogisticRegression)
	if !ok {
		t.Fatalf("Clone returned %T", clone)
	}
	if lc.c != 0.5 || lc.maxIter != 200 {
		t.Errorf("clone lost hyperparameters: c=%v max_iter=%v", lc.c, lc.maxIter)
	}
	if lc.fitIntercept {
		t.Error("clone lost fit_intercept=false")
	}
}

func TestLogisticRegressionDimensionMismatch(t *testing.T) {
	X, y := separableData()
	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	bad := mat.NewDense(2, 3, nil)
	if _, err := lr.Predict(bad); err == nil {
		t.Error("feature count mismatch must fail")
	}
}
