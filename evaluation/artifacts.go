package evaluation

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/omicsrank/biomark/pkg/errors"
	"github.com/omicsrank/biomark/ranking"
)

// writeModelArtifacts saves the per-model CSV exports: a summary table over
// the cross-validation, train and test splits, and the per-fold
// cross-validation scores. Both are semicolon-delimited UTF-8 with a BOM.
func (t *Trainer) writeModelArtifacts(modelName string, report ModelReport, nTrain, nTest int) error {
	dir := filepath.Join(t.cfg.OutDir, "models", ranking.SanitizeLabel(modelName))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating model artifact directory %s", dir)
	}
	safe := ranking.SanitizeLabel(modelName)

	summary := [][]string{
		{"Split", "Accuracy", "Precision", "Recall", "F1-Score", "ROC-AUC", "Support"},
		summaryRow("Cross Val",
			report.CrossVal.Accuracy.Mean, report.CrossVal.Precision.Mean,
			report.CrossVal.Recall.Mean, report.CrossVal.F1.Mean,
			report.CrossVal.ROCAUC.Mean, nTrain/t.cfg.NFolds),
		summaryRow("Train Set",
			report.Train.Accuracy, report.Train.Precision,
			report.Train.Recall, report.Train.F1,
			report.Train.ROCAUC, nTrain),
		summaryRow("Test Set",
			report.Test.Accuracy, report.Test.Precision,
			report.Test.Recall, report.Test.F1,
			report.Test.ROCAUC, nTest),
	}
	if err := writeSemicolonCSV(filepath.Join(dir, safe+"_results.csv"), summary); err != nil {
		return err
	}

	folds := [][]string{
		{"Fold", "Accuracy", "Precision", "Recall", "F1-Score", "ROC-AUC"},
	}
	for i := range report.CrossVal.Accuracy.All {
		folds = append(folds, []string{
			strconv.Itoa(i + 1),
			formatScore(report.CrossVal.Accuracy.All[i]),
			formatScore(report.CrossVal.Precision.All[i]),
			formatScore(report.CrossVal.Recall.All[i]),
			formatScore(report.CrossVal.F1.All[i]),
			formatScore(report.CrossVal.ROCAUC.All[i]),
		})
	}
	return writeSemicolonCSV(filepath.Join(dir, safe+"_cv_folds.csv"), folds)
}

// writeClassificationSummary saves one test-set row per trained model under
// models/classification_summary.csv.
func (t *Trainer) writeClassificationSummary(reports []ModelReport, nTest int) error {
	dir := filepath.Join(t.cfg.OutDir, "models")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating model artifact directory %s", dir)
	}
	rows := [][]string{
		{"Model", "Accuracy", "Precision", "Recall", "F1-Score", "ROC-AUC", "Support"},
	}
	for _, r := range reports {
		rows = append(rows, summaryRow(r.Name,
			r.Test.Accuracy, r.Test.Precision, r.Test.Recall,
			r.Test.F1, r.Test.ROCAUC, nTest))
	}
	return writeSemicolonCSV(filepath.Join(dir, "classification_summary.csv"), rows)
}

func summaryRow(split string, accuracy, precision, recall, f1, rocAUC float64, support int) []string {
	return []string{
		split,
		fmt.Sprintf("%.2f", accuracy),
		fmt.Sprintf("%.2f", precision),
		fmt.Sprintf("%.2f", recall),
		fmt.Sprintf("%.2f", f1),
		fmt.Sprintf("%.2f", rocAUC),
		strconv.Itoa(support),
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeSemicolonCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()
	if _, err := f.WriteString("\uFEFF"); err != nil {
		return errors.Wrapf(err, "writing BOM to %s", path)
	}
	w := csv.NewWriter(f)
	w.Comma = ';'
	if err := w.WriteAll(rows); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}
