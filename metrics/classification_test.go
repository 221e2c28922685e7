package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestAUC(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect classifier",
			yTrue: []float64{0, 0, 0, 1, 1, 1},
			yPred: []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9},
			want:  1.0,
		},
		{
			name:  "Worst classifier",
			yTrue: []float64{0, 0, 0, 1, 1, 1},
			yPred: []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1},
			want:  0.0,
		},
		{
			name:  "Random classifier",
			yTrue: []float64{0, 1, 0, 1},
			yPred: []float64{0.5, 0.5, 0.5, 0.5},
			want:  0.5,
		},
		{
			name:  "Typical case",
			yTrue: []float64{0, 0, 1, 1},
			yPred: []float64{0.1, 0.4, 0.35, 0.8},
			want:  0.75,
		},
		{
			name:  "All positive labels",
			yTrue: []float64{1, 1, 1, 1},
			yPred: []float64{0.1, 0.4, 0.35, 0.8},
			want:  0.5, // Undefined case, returns 0.5
		},
		{
			name:  "All negative labels",
			yTrue: []float64{0, 0, 0, 0},
			yPred: []float64{0.1, 0.4, 0.35, 0.8},
			want:  0.5, // Undefined case, returns 0.5
		},
		{
			name:    "Non-binary labels",
			yTrue:   []float64{0, 0.5, 1},
			yPred:   []float64{0.1, 0.5, 0.9},
			wantErr: true,
		},
		{
			name:    "Dimension mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0.5},
			wantErr: true,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var yTrue, yPred *mat.VecDense
			if len(tt.yTrue) > 0 {
				yTrue = mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			}
			if len(tt.yPred) > 0 {
				yPred = mat.NewVecDense(len(tt.yPred), tt.yPred)
			}

			got, err := AUC(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("AUC() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("AUC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAUCMatrix(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{0, 0, 1, 1})
	yPred := mat.NewDense(4, 1, []float64{0.1, 0.4, 0.35, 0.8})

	got, err := AUCMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("AUCMatrix() error = %v", err)
	}
	if math.Abs(got-0.75) > 1e-6 {
		t.Errorf("AUCMatrix() = %v, want 0.75", got)
	}

	if _, err := AUCMatrix(mat.NewDense(2, 2, nil), yPred); err == nil {
		t.Error("AUCMatrix() should reject multi-column y_true")
	}
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect accuracy",
			yTrue: []float64{0, 1, 2, 1, 0},
			yPred: []float64{0, 1, 2, 1, 0},
			want:  1.0,
		},
		{
			name:  "80% accuracy",
			yTrue: []float64{0, 1, 2, 1, 0},
			yPred: []float64{0, 1, 1, 1, 0},
			want:  0.8,
		},
		{
			name:  "Zero accuracy",
			yTrue: []float64{0, 0, 0},
			yPred: []float64{1, 1, 1},
			want:  0.0,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var yTrue, yPred *mat.VecDense
			if len(tt.yTrue) > 0 {
				yTrue = mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			}
			if len(tt.yPred) > 0 {
				yPred = mat.NewVecDense(len(tt.yPred), tt.yPred)
			}

			got, err := Accuracy(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("Accuracy() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrecisionRecallF1(t *testing.T) {
	tests := []struct {
		name          string
		yTrue         []float64
		yPred         []float64
		wantPrecision float64
		wantRecall    float64
		wantF1        float64
	}{
		{
			name:          "Perfect prediction",
			yTrue:         []float64{0, 1, 0, 1},
			yPred:         []float64{0, 1, 0, 1},
			wantPrecision: 1.0,
			wantRecall:    1.0,
			wantF1:        1.0,
		},
		{
			name:          "Half the positives found",
			yTrue:         []float64{1, 1, 0, 0},
			yPred:         []float64{1, 0, 0, 0},
			wantPrecision: 1.0,
			wantRecall:    0.5,
			wantF1:        2.0 / 3.0,
		},
		{
			name:          "False positives only",
			yTrue:         []float64{0, 0, 0, 1},
			yPred:         []float64{1, 1, 0, 1},
			wantPrecision: 1.0 / 3.0,
			wantRecall:    1.0,
			wantF1:        0.5,
		},
		{
			name:          "No predicted positives",
			yTrue:         []float64{1, 0, 1, 0},
			yPred:         []float64{0, 0, 0, 0},
			wantPrecision: 0.0, // Undefined, falls back to 0
			wantRecall:    0.0,
			wantF1:        0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			yPred := mat.NewVecDense(len(tt.yPred), tt.yPred)

			p, err := Precision(yTrue, yPred)
			if err != nil {
				t.Fatalf("Precision() error = %v", err)
			}
			if math.Abs(p-tt.wantPrecision) > 1e-6 {
				t.Errorf("Precision() = %v, want %v", p, tt.wantPrecision)
			}

			r, err := Recall(yTrue, yPred)
			if err != nil {
				t.Fatalf("Recall() error = %v", err)
			}
			if math.Abs(r-tt.wantRecall) > 1e-6 {
				t.Errorf("Recall() = %v, want %v", r, tt.wantRecall)
			}

			f, err := F1(yTrue, yPred)
			if err != nil {
				t.Fatalf("F1() error = %v", err)
			}
			if math.Abs(f-tt.wantF1) > 1e-6 {
				t.Errorf("F1() = %v, want %v", f, tt.wantF1)
			}
		})
	}
}

func TestROCAUCOVR(t *testing.T) {
	// Three classes, confident and correct probabilities.
	yTrue := mat.NewVecDense(6, []float64{0, 0, 1, 1, 2, 2})
	proba := mat.NewDense(6, 3, []float64{
		0.8, 0.1, 0.1,
		0.7, 0.2, 0.1,
		0.1, 0.8, 0.1,
		0.2, 0.6, 0.2,
		0.1, 0.1, 0.8,
		0.1, 0.2, 0.7,
	})

	got, err := ROCAUCOVR(yTrue, proba, []int{0, 1, 2})
	if err != nil {
		t.Fatalf("ROCAUCOVR() error = %v", err)
	}
	if math.Abs(got-1.0) > 1e-6 {
		t.Errorf("ROCAUCOVR() = %v, want 1.0", got)
	}

	// Class count mismatch is a dimension error.
	if _, err := ROCAUCOVR(yTrue, proba, []int{0, 1}); err == nil {
		t.Error("ROCAUCOVR() should reject class/column mismatch")
	}
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(mean-5.0) > 1e-9 {
		t.Errorf("mean = %v, want 5.0", mean)
	}
	if math.Abs(std-2.0) > 1e-9 {
		t.Errorf("std = %v, want 2.0", std)
	}

	mean, std = MeanStd(nil)
	if mean != 0 || std != 0 {
		t.Errorf("MeanStd(nil) = (%v, %v), want (0, 0)", mean, std)
	}
}
