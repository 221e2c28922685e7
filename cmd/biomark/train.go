package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/omicsrank/biomark/core/model"
	"github.com/omicsrank/biomark/evaluation"
	"github.com/omicsrank/biomark/linear_model"
	"github.com/omicsrank/biomark/naive_bayes"
	"github.com/omicsrank/biomark/pkg/errors"
	"github.com/omicsrank/biomark/pkg/log"
	"github.com/omicsrank/biomark/store"
)

func newTrainCmd() *cobra.Command {
	var (
		dataPath         string
		labelsColumn     string
		classPair        string
		outDir           string
		models           []string
		scoring          string
		nFolds           int
		testFraction     float64
		finetuneFraction float64
		skipFinetune     bool
		seed             int64
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Tune, train and evaluate classifiers on a labeled dataset",
		Long: `Loads a delimited dataset, tunes every requested classifier by
cross-validated grid search with per-fold preprocessing refits, evaluates on
a held-out test split and merges the reports into model_reports.json. The
best candidate by cross-validated score is printed last.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			X, y, err := loadDataset(dataPath, labelsColumn)
			if err != nil {
				return err
			}
			rows, cols := X.Dims()
			log.GetLogger().Info("dataset loaded",
				log.SamplesKey, rows, log.FeaturesKey, cols)

			candidates := make([]evaluation.Candidate, 0, len(models))
			for _, name := range models {
				clf, err := newClassifier(name)
				if err != nil {
					return err
				}
				candidates = append(candidates, evaluation.Candidate{Name: name, Model: clf})
			}

			st := store.NewResultStore(outDir)
			trainer := evaluation.NewTrainer(evaluation.TrainerConfig{
				ClassPair:        classPair,
				NFolds:           nFolds,
				TestFraction:     testFraction,
				Scoring:          scoring,
				FinetuneFraction: finetuneFraction,
				SkipFinetune:     skipFinetune,
				Seed:             seed,
				OutDir:           outDir,
			}, st)

			reports, err := trainer.TrainAndEvaluate(candidates, X, y)
			if err != nil {
				return err
			}
			best, err := evaluation.SelectBestModel(reports, scoring)
			if err != nil {
				return err
			}
			if _, err := evaluation.FindCandidate(candidates, best.Name); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), best.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "labeled dataset (csv or tsv, required)")
	cmd.Flags().StringVar(&labelsColumn, "labels-column", "label", "name of the label column")
	cmd.Flags().StringVar(&classPair, "class-pair", "", "class pair key for persisted reports (required)")
	cmd.Flags().StringVarP(&outDir, "outdir", "o", "", "result store directory (required)")
	cmd.Flags().StringSliceVar(&models, "models",
		[]string{"logistic regression", "gaussian nb"}, "classifier candidates")
	cmd.Flags().StringVar(&scoring, "scoring", "f1", "tuning and selection metric")
	cmd.Flags().IntVar(&nFolds, "n-folds", 10, "cross-validation folds")
	cmd.Flags().Float64Var(&testFraction, "test-fraction", 0.2, "held-out test share")
	cmd.Flags().Float64Var(&finetuneFraction, "finetune-fraction", 1.0,
		"training share used for hyperparameter search")
	cmd.Flags().BoolVar(&skipFinetune, "skip-finetune", false,
		"train every model with its default parameters, no grid search")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed for every split")
	cobra.CheckErr(cmd.MarkFlagRequired("data"))
	cobra.CheckErr(cmd.MarkFlagRequired("class-pair"))
	cobra.CheckErr(cmd.MarkFlagRequired("outdir"))
	return cmd
}

// newClassifier maps a candidate name to a fresh estimator prototype.
func newClassifier(name string) (model.Classifier, error) {
	switch strings.ToLower(name) {
	case "logistic regression":
		return linear_model.NewLogisticRegression(), nil
	case "gaussian nb":
		return naive_bayes.NewGaussianNB(), nil
	default:
		return nil, errors.Newf("unknown classifier '%s'", name)
	}
}

// loadDataset reads a delimited table with a header row. The delimiter is
// sniffed from the header (semicolon, tab, then comma). Empty, "NA" and
// "NaN" cells become NaN so the imputation stage can fill them; labels are
// encoded to 0..k-1 in sorted order.
func loadDataset(path, labelsColumn string) (*mat.Dense, *mat.VecDense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening dataset %s", path)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	header, err := br.ReadString('\n')
	if err != nil && header == "" {
		return nil, nil, errors.Wrapf(err, "reading header of %s", path)
	}
	delim := sniffDelimiter(header)

	r := csv.NewReader(strings.NewReader(header))
	r.Comma = delim
	columns, err := r.Read()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parsing header of %s", path)
	}
	columns[0] = strings.TrimPrefix(columns[0], "\uFEFF")

	labelIdx := -1
	for i, c := range columns {
		if c == labelsColumn {
			labelIdx = i
			break
		}
	}
	if labelIdx < 0 {
		return nil, nil, errors.Newf("labels column '%s' not found in %s", labelsColumn, path)
	}

	body := csv.NewReader(br)
	body.Comma = delim
	records, err := body.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading rows of %s", path)
	}
	if len(records) == 0 {
		return nil, nil, errors.ErrEmptyData
	}

	nFeatures := len(columns) - 1
	X := mat.NewDense(len(records), nFeatures, nil)
	rawLabels := make([]string, len(records))
	for i, rec := range records {
		if len(rec) != len(columns) {
			return nil, nil, errors.Newf("row %d has %d fields, header has %d", i+1, len(rec), len(columns))
		}
		col := 0
		for j, cell := range rec {
			if j == labelIdx {
				rawLabels[i] = cell
				continue
			}
			X.Set(i, col, parseCell(cell))
			col++
		}
	}

	y, err := encodeLabels(rawLabels)
	if err != nil {
		return nil, nil, err
	}
	return X, y, nil
}

func sniffDelimiter(header string) rune {
	switch {
	case strings.ContainsRune(header, ';'):
		return ';'
	case strings.ContainsRune(header, '\t'):
		return '\t'
	default:
		return ','
	}
}

func parseCell(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "na") || strings.EqualFold(cell, "nan") {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// encodeLabels maps the distinct label strings, sorted, to 0..k-1.
func encodeLabels(raw []string) (*mat.VecDense, error) {
	distinct := make(map[string]bool)
	for _, l := range raw {
		distinct[l] = true
	}
	if len(distinct) < 2 {
		return nil, errors.Newf("dataset has %d distinct labels, need at least 2", len(distinct))
	}
	sorted := make([]string, 0, len(distinct))
	for l := range distinct {
		sorted = append(sorted, l)
	}
	sort.Strings(sorted)
	encoding := make(map[string]int, len(sorted))
	for i, l := range sorted {
		encoding[l] = i
	}

	y := mat.NewVecDense(len(raw), nil)
	for i, l := range raw {
		y.SetVec(i, float64(encoding[l]))
	}
	return y, nil
}
