package evaluation

// MetricSummary aggregates one metric across cross-validation folds.
type MetricSummary struct {
	Mean float64   `json:"mean"`
	Std  float64   `json:"std"`
	All  []float64 `json:"all"`
}

// CrossValReport holds the per-metric cross-validation summaries computed
// with the winning hyperparameters.
type CrossValReport struct {
	Accuracy  MetricSummary `json:"accuracy"`
	Precision MetricSummary `json:"precision"`
	Recall    MetricSummary `json:"recall"`
	F1        MetricSummary `json:"f1"`
	ROCAUC    MetricSummary `json:"roc_auc"`
}

// SplitReport holds the evaluation metrics of one data split.
type SplitReport struct {
	F1        float64 `json:"f1"`
	Accuracy  float64 `json:"accuracy"`
	ROCAUC    float64 `json:"roc_auc"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// ModelReport is the full evaluation record of one classifier candidate.
// It is persisted under its model name in model_reports.json.
type ModelReport struct {
	Name       string                 `json:"-"`
	BestParams map[string]interface{} `json:"best_params,omitempty"`
	CrossVal   CrossValReport         `json:"cross_val_report"`
	Train      SplitReport            `json:"train_report"`
	Test       SplitReport            `json:"test_report"`

	// ArtifactErr records a failed CSV export. The evaluation itself
	// succeeded; callers decide whether a missing side artifact matters.
	ArtifactErr error `json:"-"`
}

// selectionScore is the value model selection compares: the mean
// cross-validated score under the metric named by scoring.
func (r ModelReport) selectionScore(scoring string) float64 {
	switch scoring {
	case ScoringAccuracy:
		return r.CrossVal.Accuracy.Mean
	case ScoringPrecision:
		return r.CrossVal.Precision.Mean
	case ScoringRecall:
		return r.CrossVal.Recall.Mean
	case ScoringROCAUC:
		return r.CrossVal.ROCAUC.Mean
	default:
		return r.CrossVal.F1.Mean
	}
}
