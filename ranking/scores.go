// Package ranking implements the rank-fusion engine: it converts per-method
// feature importance scores into ordinal rankings and fuses the rankings of
// many methods into one ordered feature list under a selectable aggregation
// algorithm (reciprocal rank fusion, rank product, weighted Borda, or the
// classic sum of ranks).
package ranking

import (
	"encoding/json"
	"math"
	"strings"
)

// Scores is a tagged variant of one method's raw importance scores.
//
// Exactly one of Flat or Nested is set: Flat maps feature name to score,
// Nested maps sub-method to feature to score for methods that report a
// per-sub-method breakdown (e.g. SHAP split by explainer). A zero Scores
// (neither set) represents malformed collaborator input; RankDict degrades
// it to an empty ranking rather than failing the batch.
type Scores struct {
	Flat   map[string]float64
	Nested map[string]map[string]float64
}

// FlatScores wraps a flat feature-to-score mapping.
func FlatScores(m map[string]float64) Scores {
	return Scores{Flat: m}
}

// NestedScores wraps a sub-method to feature-to-score mapping.
func NestedScores(m map[string]map[string]float64) Scores {
	return Scores{Nested: m}
}

// IsZero reports whether neither variant is set.
func (s Scores) IsZero() bool {
	return s.Flat == nil && s.Nested == nil
}

// MarshalJSON emits the active variant as a plain JSON object, so persisted
// documents look identical whether they were produced here or by an external
// collaborator.
func (s Scores) MarshalJSON() ([]byte, error) {
	switch {
	case s.Flat != nil:
		return json.Marshal(s.Flat)
	case s.Nested != nil:
		return json.Marshal(s.Nested)
	default:
		return []byte("{}"), nil
	}
}

// UnmarshalJSON classifies the raw object the same way ScoresFromAny does.
func (s *Scores) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = ScoresFromAny(v)
	return nil
}

// ScoresFromAny classifies a decoded JSON value into the Scores variant.
// The store persists importance maps as generic JSON; collaborators in other
// processes may write malformed entries, so classification is defensive:
// a mapping of numbers becomes Flat, a mapping of mappings of numbers becomes
// Nested (non-mapping values skipped), anything else yields the zero Scores.
func ScoresFromAny(v interface{}) Scores {
	m, ok := v.(map[string]interface{})
	if !ok {
		return Scores{}
	}

	allNumeric := len(m) > 0
	anyNested := false
	for _, val := range m {
		switch val.(type) {
		case float64:
		case map[string]interface{}:
			allNumeric = false
			anyNested = true
		default:
			allNumeric = false
		}
	}

	if allNumeric {
		flat := make(map[string]float64, len(m))
		for k, val := range m {
			flat[k] = val.(float64)
		}
		return FlatScores(flat)
	}

	if anyNested {
		nested := make(map[string]map[string]float64, len(m))
		for sub, val := range m {
			inner, ok := val.(map[string]interface{})
			if !ok {
				continue
			}
			features := make(map[string]float64, len(inner))
			for f, s := range inner {
				num, ok := s.(float64)
				if !ok || !isFinite(num) {
					continue
				}
				features[f] = num
			}
			nested[sub] = features
		}
		return NestedScores(nested)
	}

	return Scores{}
}

// resolveWeight looks up a sub-method or method weight case-insensitively.
// Non-finite or non-positive weights fall back to 1.0.
func resolveWeight(weights map[string]float64, name string) float64 {
	if weights == nil {
		return 1.0
	}
	w, ok := weights[strings.ToLower(name)]
	if !ok {
		// The caller may have passed mixed-case keys.
		for k, v := range weights {
			if strings.EqualFold(k, name) {
				w, ok = v, true
				break
			}
		}
	}
	if !ok || !isFinite(w) || w <= 0 {
		return 1.0
	}
	return w
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
