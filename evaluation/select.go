package evaluation

import (
	"strings"

	"github.com/omicsrank/biomark/pkg/errors"
	"github.com/omicsrank/biomark/pkg/log"
)

// minUsableScore is the floor below which no candidate is considered a real
// model: a best score this low means every candidate is at or near chance
// for the metric, and promoting one would only lend it false authority.
const minUsableScore = 0.1

// SelectBestModel picks the report with the highest mean cross-validated
// score under scoring. Candidates are compared in slice order with >=, so a
// later candidate that ties an earlier one wins; callers can therefore order
// candidates from least to most preferred. Returns NoUsableModelError when
// even the winner scores below the usable floor.
func SelectBestModel(reports []ModelReport, scoring string) (ModelReport, error) {
	if len(reports) == 0 {
		return ModelReport{}, errors.NewValueError("select_best_model", "no model reports")
	}

	bestScore := 0.0
	bestIdx := -1
	for i, r := range reports {
		if score := r.selectionScore(scoring); score >= bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		// Every score was negative or NaN.
		return ModelReport{}, errors.NewNoUsableModelError("", bestScore, minUsableScore)
	}
	best := reports[bestIdx]
	if bestScore < minUsableScore {
		return ModelReport{}, errors.NewNoUsableModelError(best.Name, bestScore, minUsableScore)
	}

	log.GetLoggerWithName("evaluation").Info("best model selected",
		log.ModelNameKey, best.Name,
		log.ScoringKey, scoring,
		"score", bestScore)
	return best, nil
}

// FindCandidate resolves a selected model name back to its candidate,
// falling back to a case-insensitive match. A miss is fatal: the selection
// result would otherwise silently detach from the trained models.
func FindCandidate(candidates []Candidate, name string) (Candidate, error) {
	for _, c := range candidates {
		if c.Name == name {
			return c, nil
		}
	}
	for _, c := range candidates {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Candidate{}, errors.NewValueError("select_best_model",
		"best model '"+name+"' not found among trained candidates")
}
