// Package log defines standard attribute keys for biomarker ranking and
// model evaluation operations. Using these keys keeps log output consistent
// across the ranking, store and evaluation packages and makes analysis runs
// filterable by class pair, method and model.

package log

// Analysis context.
// These attributes identify what slice of an analysis a record belongs to.
const (
	// ClassPairKey identifies the two diagnostic categories being
	// differentiated, e.g. "AD_Control".
	ClassPairKey = "analysis.class_pair"

	// MethodKey identifies the scoring method contributing importance
	// scores, e.g. "anova", "shap", "xgb_feature_importance".
	MethodKey = "analysis.method"

	// AggregationKey names the fusion algorithm used to combine ranks.
	// Values: "rrf", "rank_product", "weighted_borda", "sum".
	AggregationKey = "analysis.aggregation"

	// FeatureTypeKey labels the kind of feature being ranked,
	// e.g. "microRNA", "protein".
	FeatureTypeKey = "analysis.feature_type"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "rank", "aggregate", "merge".
	OperationKey = "ml.operation"
)

// Model and training context.
const (
	// ModelNameKey identifies the classifier candidate.
	// Examples: "logistic regression", "gaussian nb".
	ModelNameKey = "model.name"

	// FoldKey records the cross-validation fold index.
	FoldKey = "training.fold"

	// NFoldsKey records the total number of cross-validation folds.
	NFoldsKey = "training.n_folds"

	// ScoringKey names the metric used for hyperparameter selection.
	ScoringKey = "training.scoring"

	// BestParamsKey carries the JSON-encoded winning hyperparameters of a
	// grid search, for external capture by orchestrating processes.
	BestParamsKey = "training.best_params"
)

// Data shape.
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"
)

// Metrics.
const (
	// AccuracyKey records classification accuracy.
	AccuracyKey = "metrics.accuracy"

	// F1Key records the F1 score.
	F1Key = "metrics.f1"

	// DurationMsKey records the execution time of an operation in ms.
	DurationMsKey = "perf.duration_ms"
)
