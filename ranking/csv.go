package ranking

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/omicsrank/biomark/pkg/errors"
)

// rankingTableFile is the file name of the per-pair ranking table.
const rankingTableFile = "ranked_features_df.csv"

// unsafeLabelChars matches every character outside the portable file name
// alphabet used for run labels.
var unsafeLabelChars = regexp.MustCompile(`[^A-Za-z0-9._=+\-]`)

// SanitizeLabel replaces every character outside [A-Za-z0-9._=+-] with an
// underscore, making an arbitrary run label safe as a directory name.
func SanitizeLabel(label string) string {
	return unsafeLabelChars.ReplaceAllString(label, "_")
}

// persistTable writes the ranking table for one class pair. Without a run
// label it goes to the canonical location
// outdir/feature_ranking/<class_pair>/ranked_features_df.csv. With a label
// it goes to <class_pair>/<sanitized label>/ instead, so labeled re-ranking
// runs never overwrite the canonical file.
func (a *Aggregator) persistTable(classPair string, table *rankTable) error {
	dir := filepath.Join(a.cfg.OutDir, "feature_ranking", classPair)
	if a.cfg.SubdirLabel != "" {
		dir = filepath.Join(dir, SanitizeLabel(a.cfg.SubdirLabel))
	}
	return writeRankingCSV(filepath.Join(dir, rankingTableFile), a.cfg.FeatureType, table)
}

// writeRankingCSV writes the table as semicolon-delimited UTF-8 with a BOM,
// columns: feature type, one rank column per method, and the overall score.
// Fusion scores are ordering state only and are never persisted.
func writeRankingCSV(path, featureType string, table *rankTable) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating ranking directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating ranking table %s", path)
	}
	defer f.Close()

	if _, err := f.WriteString("\uFEFF"); err != nil {
		return errors.Wrapf(err, "writing BOM to %s", path)
	}

	w := csv.NewWriter(f)
	w.Comma = ';'

	header := make([]string, 0, len(table.methods)+2)
	header = append(header, featureType)
	header = append(header, table.methods...)
	header = append(header, "overall score")
	if err := w.Write(header); err != nil {
		return errors.Wrapf(err, "writing header to %s", path)
	}

	row := make([]string, len(header))
	for _, feature := range table.features {
		row[0] = feature
		for i, r := range table.ranks[feature] {
			row[i+1] = strconv.Itoa(r)
		}
		row[len(row)-1] = strconv.Itoa(table.overall[feature])
		if err := w.Write(row); err != nil {
			return errors.Wrapf(err, "writing row to %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrapf(err, "flushing %s", path)
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}
