package evaluation

import (
	"encoding/json"

	"gonum.org/v1/gonum/mat"

	"github.com/omicsrank/biomark/core/model"
	"github.com/omicsrank/biomark/metrics"
	"github.com/omicsrank/biomark/pkg/errors"
	"github.com/omicsrank/biomark/pkg/log"
	"github.com/omicsrank/biomark/preprocessing"
	"github.com/omicsrank/biomark/store"
)

// Candidate pairs a classifier prototype with the name it is reported and
// tuned under.
type Candidate struct {
	Name  string
	Model model.Classifier
}

// TrainerConfig configures a cross-validated training run.
type TrainerConfig struct {
	// ClassPair identifies the binary comparison being trained, used as the
	// top-level key of persisted reports.
	ClassPair string

	// NFolds is the cross-validation fold count. Zero means 10.
	NFolds int

	// TestFraction is the held-out test share. Zero means 0.2.
	TestFraction float64

	// Scoring is the metric maximized by the grid search and used for model
	// selection. Empty means "f1".
	Scoring string

	// FinetuneFraction is the share of training rows used for the
	// hyperparameter search. Zero or one means the full training set; the
	// subsample is stratified so small classes stay represented.
	FinetuneFraction float64

	// SkipFinetune disables the hyperparameter search entirely; every
	// candidate is trained with its prototype's parameters and no grid is
	// required.
	SkipFinetune bool

	// Seed drives every random split of the run.
	Seed int64

	// Grids overrides the hyperparameter grids. Nil means
	// DefaultParamGrids.
	Grids map[string]ParamGrid

	// Preprocess is the unfitted preprocessing prototype, cloned and refit
	// per fold and finally on the full training set. Nil means the default
	// median-impute-then-scale pipeline.
	Preprocess model.Transformer

	// OutDir, when non-empty, receives per-model CSV artifacts under
	// OutDir/models/.
	OutDir string
}

func (c TrainerConfig) withDefaults() TrainerConfig {
	if c.NFolds == 0 {
		c.NFolds = 10
	}
	if c.TestFraction == 0 {
		c.TestFraction = 0.2
	}
	if c.Scoring == "" {
		c.Scoring = ScoringF1
	}
	if c.FinetuneFraction <= 0 || c.FinetuneFraction > 1 {
		c.FinetuneFraction = 1.0
	}
	if c.Grids == nil {
		c.Grids = DefaultParamGrids()
	}
	if c.Preprocess == nil {
		c.Preprocess = preprocessing.NewDefaultPipeline()
	}
	return c
}

// Trainer runs the full train-tune-evaluate cycle for a set of classifier
// candidates on one class pair.
type Trainer struct {
	cfg   TrainerConfig
	store *store.ResultStore
	log   log.Logger
}

// NewTrainer returns a trainer persisting reports to st. st may be nil when
// persistence is not wanted.
func NewTrainer(cfg TrainerConfig, st *store.ResultStore) *Trainer {
	cfg = cfg.withDefaults()
	return &Trainer{
		cfg:   cfg,
		store: st,
		log: log.GetLoggerWithName("evaluation").With(
			log.ClassPairKey, cfg.ClassPair,
			log.ScoringKey, cfg.Scoring,
			log.NFoldsKey, cfg.NFolds,
		),
	}
}

// TrainAndEvaluate tunes, trains and evaluates every candidate in order and
// returns their reports. A missing hyperparameter grid aborts the whole
// batch before any model is trained, so a batch never silently mixes tuned
// and untuned candidates. CSV artifact failures are logged and never fail
// the run.
func (t *Trainer) TrainAndEvaluate(candidates []Candidate, X mat.Matrix, y *mat.VecDense) ([]ModelReport, error) {
	if len(candidates) == 0 {
		return nil, errors.NewValueError("train", "no classifier candidates")
	}
	grids := make([]ParamGrid, len(candidates))
	if !t.cfg.SkipFinetune {
		for i, cand := range candidates {
			grid, err := LookupGrid(t.cfg.Grids, cand.Name)
			if err != nil {
				return nil, err
			}
			grids[i] = grid
		}
	}

	XTrain, XTest, yTrain, yTest, err := TrainTestSplit(X, y, t.cfg.TestFraction, t.cfg.Seed)
	if err != nil {
		return nil, err
	}
	rows, cols := XTrain.Dims()
	t.log.Info("training set prepared",
		log.SamplesKey, rows, log.FeaturesKey, cols)

	reports := make([]ModelReport, 0, len(candidates))
	for i, cand := range candidates {
		report, err := t.trainOne(cand, grids[i], XTrain, XTest, yTrain, yTest)
		if err != nil {
			return nil, errors.Wrapf(err, "training model '%s'", cand.Name)
		}
		reports = append(reports, report)
	}
	if t.cfg.OutDir != "" {
		if err := t.writeClassificationSummary(reports, yTest.Len()); err != nil {
			t.log.Warn("failed to write classification summary", "error", err)
		}
	}
	return reports, nil
}

func (t *Trainer) trainOne(cand Candidate, grid ParamGrid, XTrain, XTest *mat.Dense, yTrain, yTest *mat.VecDense) (ModelReport, error) {
	logger := t.log.With(log.ModelNameKey, cand.Name)
	logger.Info("starting model training and evaluation")

	var bestParams map[string]interface{}
	if !t.cfg.SkipFinetune {
		// Subsample the training rows for the search when configured; the
		// final fit always sees the full training set.
		searchX, searchY := mat.Matrix(XTrain), yTrain
		if t.cfg.FinetuneFraction < 1.0 {
			idx, err := StratifiedSubsample(yTrain, t.cfg.FinetuneFraction, t.cfg.Seed)
			if err != nil {
				return ModelReport{}, err
			}
			searchX, searchY = takeRows(XTrain, idx), takeElems(yTrain, idx)
			logger.Info("subsampled training rows for hyperparameter search",
				log.SamplesKey, len(idx))
		}

		search := &GridSearchCV{
			Estimator:  cand.Model,
			Preprocess: t.cfg.Preprocess,
			Grid:       grid,
			CV:         StratifiedKFold{NFolds: t.cfg.NFolds, Seed: t.cfg.Seed},
			Scoring:    t.cfg.Scoring,
			log:        logger,
		}
		result, err := search.Fit(searchX, searchY)
		if err != nil {
			return ModelReport{}, err
		}
		bestParams = result.BestParams
		bestJSON, err := json.Marshal(bestParams)
		if err != nil {
			return ModelReport{}, errors.Wrap(err, "encoding best params")
		}
		logger.Info("best hyperparameters selected",
			log.BestParamsKey, string(bestJSON))
	}

	crossVal, err := t.crossValidate(cand.Model, bestParams, XTrain, yTrain)
	if err != nil {
		return ModelReport{}, err
	}

	// Final fit: preprocessing and model both refit on the full training
	// set, then evaluated on the untouched test rows.
	prep := t.cfg.Preprocess.Clone()
	trainFeat, err := prep.FitTransform(XTrain)
	if err != nil {
		return ModelReport{}, err
	}
	testFeat, err := prep.Transform(XTest)
	if err != nil {
		return ModelReport{}, err
	}
	clf := cand.Model.Clone()
	if err := clf.SetParams(bestParams); err != nil {
		return ModelReport{}, err
	}
	if err := clf.Fit(trainFeat, yTrain); err != nil {
		return ModelReport{}, err
	}

	trainReport, err := splitReport(clf, trainFeat, yTrain)
	if err != nil {
		return ModelReport{}, err
	}
	testReport, err := splitReport(clf, testFeat, yTest)
	if err != nil {
		return ModelReport{}, err
	}
	logger.Info("model evaluated",
		log.AccuracyKey, testReport.Accuracy,
		log.F1Key, testReport.F1)

	report := ModelReport{
		Name:       cand.Name,
		BestParams: bestParams,
		CrossVal:   crossVal,
		Train:      trainReport,
		Test:       testReport,
	}

	if t.store != nil {
		if err := t.store.SaveModelReport(t.cfg.ClassPair, cand.Name, report); err != nil {
			return ModelReport{}, err
		}
	}
	if t.cfg.OutDir != "" {
		if err := t.writeModelArtifacts(cand.Name, report, yTrain.Len(), yTest.Len()); err != nil {
			logger.Warn("failed to write model CSV artifacts", "error", err)
			report.ArtifactErr = err
		}
	}
	return report, nil
}

// crossValidate refits the preprocessing and the tuned model in every fold
// of the full training set and collects all reporting metrics.
func (t *Trainer) crossValidate(prototype model.Classifier, params map[string]interface{}, X *mat.Dense, y *mat.VecDense) (CrossValReport, error) {
	folds, err := StratifiedKFold{NFolds: t.cfg.NFolds, Seed: t.cfg.Seed}.Split(y)
	if err != nil {
		return CrossValReport{}, err
	}

	metricNames := []string{ScoringAccuracy, ScoringPrecision, ScoringRecall, ScoringF1, ScoringROCAUC}
	scores := make(map[string][]float64, len(metricNames))
	for _, fold := range folds {
		XTrain := takeRows(X, fold.Train)
		yTrain := takeElems(y, fold.Train)
		XVal := takeRows(X, fold.Test)
		yVal := takeElems(y, fold.Test)

		prep := t.cfg.Preprocess.Clone()
		trainFeat, err := prep.FitTransform(XTrain)
		if err != nil {
			return CrossValReport{}, err
		}
		valFeat, err := prep.Transform(XVal)
		if err != nil {
			return CrossValReport{}, err
		}
		clf := prototype.Clone()
		if err := clf.SetParams(params); err != nil {
			return CrossValReport{}, err
		}
		if err := clf.Fit(trainFeat, yTrain); err != nil {
			return CrossValReport{}, err
		}
		for _, name := range metricNames {
			s, err := scoreFitted(clf, valFeat, yVal, name)
			if err != nil {
				return CrossValReport{}, err
			}
			scores[name] = append(scores[name], s)
		}
	}

	summarize := func(name string) MetricSummary {
		mean, std := metrics.MeanStd(scores[name])
		return MetricSummary{Mean: mean, Std: std, All: scores[name]}
	}
	return CrossValReport{
		Accuracy:  summarize(ScoringAccuracy),
		Precision: summarize(ScoringPrecision),
		Recall:    summarize(ScoringRecall),
		F1:        summarize(ScoringF1),
		ROCAUC:    summarize(ScoringROCAUC),
	}, nil
}

// splitReport evaluates every reporting metric for a fitted classifier on
// one data split.
func splitReport(clf model.Classifier, X mat.Matrix, y *mat.VecDense) (SplitReport, error) {
	var report SplitReport
	var err error
	if report.Accuracy, err = scoreFitted(clf, X, y, ScoringAccuracy); err != nil {
		return report, err
	}
	if report.Precision, err = scoreFitted(clf, X, y, ScoringPrecision); err != nil {
		return report, err
	}
	if report.Recall, err = scoreFitted(clf, X, y, ScoringRecall); err != nil {
		return report, err
	}
	if report.F1, err = scoreFitted(clf, X, y, ScoringF1); err != nil {
		return report, err
	}
	if report.ROCAUC, err = scoreFitted(clf, X, y, ScoringROCAUC); err != nil {
		return report, err
	}
	return report, nil
}
