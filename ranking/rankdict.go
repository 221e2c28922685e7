package ranking

import (
	"sort"

	"github.com/omicsrank/biomark/pkg/log"
)

// RankDict converts one method's scores into ranks 1..N, where rank 1 is the
// highest score. Every feature gets a distinct rank; tied scores are ordered
// lexicographically by feature name so the assignment is deterministic.
// Nested scores are first reduced to a single score per feature by a weighted
// mean over the sub-methods (weights resolved case-insensitively; invalid
// weights count as 1.0). Malformed input yields an empty map and a log
// record, never an error: one bad method must not sink the whole aggregation
// batch.
func RankDict(scores Scores, weights map[string]float64) map[string]int {
	logger := log.GetLoggerWithName("ranking")

	var flat map[string]float64
	switch {
	case scores.Flat != nil:
		flat = scores.Flat
	case scores.Nested != nil:
		flat = reduceNested(scores.Nested, weights)
		if flat == nil {
			logger.Warn("nested scores reduced to nothing, skipping method")
			return map[string]int{}
		}
	default:
		logger.Error("malformed importance scores, skipping method")
		return map[string]int{}
	}

	type entry struct {
		feature string
		score   float64
	}
	entries := make([]entry, 0, len(flat))
	for f, s := range flat {
		entries = append(entries, entry{f, s})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].feature < entries[j].feature
	})

	ranks := make(map[string]int, len(entries))
	for i, e := range entries {
		ranks[e.feature] = i + 1
	}
	return ranks
}

// reduceNested collapses sub-method scores into one weighted mean per
// feature. Features absent from a sub-method, or reported with a non-finite
// score, contribute nothing for that sub-method. Returns nil when no feature
// accumulates positive weight.
func reduceNested(nested map[string]map[string]float64, weights map[string]float64) map[string]float64 {
	sums := make(map[string]float64)
	wsum := make(map[string]float64)
	for sub, features := range nested {
		w := resolveWeight(weights, sub)
		for f, s := range features {
			if !isFinite(s) {
				continue
			}
			sums[f] += w * s
			wsum[f] += w
		}
	}
	if len(sums) == 0 {
		return nil
	}
	reduced := make(map[string]float64, len(sums))
	for f, total := range sums {
		reduced[f] = total / wsum[f]
	}
	return reduced
}
