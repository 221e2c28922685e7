package ranking

import (
	"math"
	"sort"

	"github.com/omicsrank/biomark/pkg/errors"
	"github.com/omicsrank/biomark/pkg/log"
)

// MethodScores pairs a scoring method name with its raw importance scores.
type MethodScores struct {
	Method string
	Scores Scores
}

// PairScores carries all method scores collected for one class pair. The
// slice order of Methods fixes the column order of the persisted ranking
// table, and the order of PairScores values fixes which class pair is "first"
// for the aggregator's return value.
type PairScores struct {
	ClassPair string
	Methods   []MethodScores
}

// PairResult is the aggregation outcome for a single class pair.
type PairResult struct {
	ClassPair string

	// TopFeatures holds up to NumTopFeatures feature names in fused order.
	TopFeatures []string

	// ArtifactErr is non-nil when the ranking table could not be written.
	// Ranking itself succeeded; only persistence failed.
	ArtifactErr error
}

// Result is the outcome of a full aggregation run across class pairs.
type Result struct {
	// TopFeatures is the top list of the first class pair in input order,
	// preserved as the primary return value for pipeline callers.
	TopFeatures []string

	// Pairs holds per-pair outcomes in input order, skipping pairs whose
	// scores were entirely unusable.
	Pairs []PairResult
}

// ArtifactErrs collects the per-pair persistence failures, keyed by class
// pair. Empty when every table was written.
func (r *Result) ArtifactErrs() map[string]error {
	errs := make(map[string]error)
	for _, p := range r.Pairs {
		if p.ArtifactErr != nil {
			errs[p.ClassPair] = p.ArtifactErr
		}
	}
	return errs
}

// Aggregator fuses per-method feature rankings into a single ordered list
// per class pair and persists each pair's ranking table.
type Aggregator struct {
	cfg Config
	log log.Logger
}

// NewAggregator validates cfg, applies defaults (rrf aggregation, rrf_k 60)
// and returns a ready Aggregator.
func NewAggregator(cfg Config) (*Aggregator, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	return &Aggregator{
		cfg: cfg,
		log: log.GetLoggerWithName("ranking").With(
			log.AggregationKey, cfg.Aggregation,
			log.FeatureTypeKey, cfg.FeatureType,
		),
	}, nil
}

// Rank aggregates the method rankings of every class pair and returns the
// fused top-feature lists. Class pairs whose scores are entirely unusable are
// skipped with a log record; a persistence failure for one pair is recorded
// on its PairResult without stopping the remaining pairs.
func (a *Aggregator) Rank(input []PairScores) (*Result, error) {
	if len(input) == 0 {
		return nil, errors.NewValueError("rank", "no class pair scores to aggregate")
	}

	result := &Result{}
	for _, pair := range input {
		pr, ok := a.rankPair(pair)
		if !ok {
			continue
		}
		result.Pairs = append(result.Pairs, pr)
	}
	if len(result.Pairs) == 0 {
		return nil, errors.NewValueError("rank", "no class pair produced a usable ranking")
	}
	result.TopFeatures = result.Pairs[0].TopFeatures
	return result, nil
}

// rankTable is the in-memory form of one class pair's ranking table:
// features joined over every method's rank map, in first-method rank order
// until sorted by the fusion score.
type rankTable struct {
	methods  []string
	features []string
	// ranks[feature][i] is the feature's rank under methods[i].
	ranks map[string][]int
	// overall[feature] is the plain sum of ranks, always persisted.
	overall map[string]int
}

func (a *Aggregator) rankPair(pair PairScores) (PairResult, bool) {
	logger := a.log.With(log.ClassPairKey, pair.ClassPair)

	table, ok := a.buildTable(pair, logger)
	if !ok {
		return PairResult{}, false
	}

	a.sortByFusion(table, logger)

	top := table.features
	if len(top) > a.cfg.NumTopFeatures {
		top = top[:a.cfg.NumTopFeatures]
	}
	pr := PairResult{ClassPair: pair.ClassPair, TopFeatures: top}

	if err := a.persistTable(pair.ClassPair, table); err != nil {
		logger.Error("failed to persist ranking table",
			"error", err)
		pr.ArtifactErr = err
	}
	return pr, true
}

// buildTable converts each method's scores to ranks and inner-joins
// them: only features ranked by every usable method survive. Methods whose
// scores are malformed contribute nothing and are dropped from the join.
func (a *Aggregator) buildTable(pair PairScores, logger log.Logger) (*rankTable, bool) {
	type column struct {
		method string
		ranks  map[string]int
	}
	var cols []column
	for _, ms := range pair.Methods {
		ranks := RankDict(ms.Scores, a.cfg.Weights)
		if len(ranks) == 0 {
			logger.Warn("method produced no ranking, dropping from join",
				log.MethodKey, ms.Method)
			continue
		}
		cols = append(cols, column{ms.Method, ranks})
	}
	if len(cols) == 0 {
		logger.Warn("no usable method rankings, skipping class pair")
		return nil, false
	}

	// Row order before fusion follows the first method's ranking, matching
	// the order features enter the table.
	first := cols[0].ranks
	features := make([]string, 0, len(first))
	for f := range first {
		features = append(features, f)
	}
	sort.Slice(features, func(i, j int) bool {
		if first[features[i]] != first[features[j]] {
			return first[features[i]] < first[features[j]]
		}
		return features[i] < features[j]
	})

	table := &rankTable{
		ranks:   make(map[string][]int),
		overall: make(map[string]int),
	}
	for _, c := range cols {
		table.methods = append(table.methods, c.method)
	}
	for _, f := range features {
		row := make([]int, 0, len(cols))
		complete := true
		sum := 0
		for _, c := range cols {
			r, ok := c.ranks[f]
			if !ok {
				complete = false
				break
			}
			row = append(row, r)
			sum += r
		}
		if !complete {
			continue
		}
		table.features = append(table.features, f)
		table.ranks[f] = row
		table.overall[f] = sum
	}
	if len(table.features) == 0 {
		logger.Warn("inner join over method rankings is empty, skipping class pair")
		return nil, false
	}
	return table, true
}

// sortByFusion orders table.features by the configured fusion algorithm.
// Unknown algorithms and algorithm failures degrade to the plain sum of
// ranks with a log record.
func (a *Aggregator) sortByFusion(table *rankTable, logger log.Logger) {
	scores, ascending, err := a.fusionScores(table)
	if err != nil {
		logger.Warn("fusion algorithm failed, falling back to sum of ranks",
			"error", err)
		scores, ascending = a.sumScores(table), true
	}
	sort.SliceStable(table.features, func(i, j int) bool {
		si, sj := scores[table.features[i]], scores[table.features[j]]
		if ascending {
			return si < sj
		}
		return si > sj
	})
}

func (a *Aggregator) fusionScores(table *rankTable) (map[string]float64, bool, error) {
	switch a.cfg.Aggregation {
	case AggRRF:
		return a.rrfScores(table)
	case AggRankProduct:
		return a.rankProductScores(table), true, nil
	case AggWeightedBorda:
		return a.bordaScores(table), true, nil
	case AggSum:
		return a.sumScores(table), true, nil
	default:
		return nil, false, errors.NewValueError("aggregate",
			"unknown aggregation algorithm "+a.cfg.Aggregation)
	}
}

// rrfScores computes reciprocal rank fusion: sum over methods of
// 1/(k + rank). Higher is better.
func (a *Aggregator) rrfScores(table *rankTable) (map[string]float64, bool, error) {
	k := float64(a.cfg.RRFK)
	scores := make(map[string]float64, len(table.features))
	for _, f := range table.features {
		total := 0.0
		for _, r := range table.ranks[f] {
			denom := k + float64(r)
			if denom == 0 {
				return nil, false, errors.NewValueError("aggregate",
					"rrf denominator is zero")
			}
			total += 1.0 / denom
		}
		scores[f] = total
	}
	return scores, false, nil
}

// rankProductScores computes the geometric mean of ranks via
// exp(mean(log(rank))). Lower is better. Ranks are always >= 1 so the
// logarithm is defined.
func (a *Aggregator) rankProductScores(table *rankTable) map[string]float64 {
	scores := make(map[string]float64, len(table.features))
	for _, f := range table.features {
		logSum := 0.0
		for _, r := range table.ranks[f] {
			logSum += math.Log(float64(r))
		}
		scores[f] = math.Exp(logSum / float64(len(table.ranks[f])))
	}
	return scores
}

// bordaScores computes a weighted Borda count: sum over methods of the
// method weight times the rank. Lower is better. Missing or invalid weights
// count as 1.0, so an all-default weighting reduces to the plain sum.
func (a *Aggregator) bordaScores(table *rankTable) map[string]float64 {
	scores := make(map[string]float64, len(table.features))
	for _, f := range table.features {
		total := 0.0
		for i, r := range table.ranks[f] {
			total += resolveWeight(a.cfg.Weights, table.methods[i]) * float64(r)
		}
		scores[f] = total
	}
	return scores
}

func (a *Aggregator) sumScores(table *rankTable) map[string]float64 {
	scores := make(map[string]float64, len(table.features))
	for _, f := range table.features {
		scores[f] = float64(table.overall[f])
	}
	return scores
}
