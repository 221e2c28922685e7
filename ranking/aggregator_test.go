package ranking

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/omicsrank/biomark/pkg/log"
)

// twoMethodPair reproduces ranks f1:1 f2:3 f3:2 under method m1 and
// f1:2 f2:1 f3:3 under m2, so the overall scores are f1:3, f2:4, f3:5.
func twoMethodPair(classPair string) PairScores {
	return PairScores{
		ClassPair: classPair,
		Methods: []MethodScores{
			{Method: "m1", Scores: FlatScores(map[string]float64{
				"f1": 0.9, "f3": 0.5, "f2": 0.1,
			})},
			{Method: "m2", Scores: FlatScores(map[string]float64{
				"f2": 0.9, "f1": 0.5, "f3": 0.1,
			})},
		},
	}
}

func newTestAggregator(t *testing.T, cfg Config) *Aggregator {
	t.Helper()
	if cfg.OutDir == "" {
		cfg.OutDir = t.TempDir()
	}
	if cfg.NumTopFeatures == 0 {
		cfg.NumTopFeatures = 10
	}
	if cfg.FeatureType == "" {
		cfg.FeatureType = "genes"
	}
	agg, err := NewAggregator(cfg)
	if err != nil {
		t.Fatalf("NewAggregator failed: %v", err)
	}
	return agg
}

func TestAggregatorSumOrder(t *testing.T) {
	agg := newTestAggregator(t, Config{Aggregation: AggSum})
	result, err := agg.Rank([]PairScores{twoMethodPair("A_B")})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	want := []string{"f1", "f2", "f3"}
	if len(result.TopFeatures) != len(want) {
		t.Fatalf("expected %d features, got %v", len(want), result.TopFeatures)
	}
	for i, f := range want {
		if result.TopFeatures[i] != f {
			t.Errorf("position %d = %s, want %s", i, result.TopFeatures[i], f)
		}
	}
}

func TestAggregatorRRFLargeKMatchesSumOrder(t *testing.T) {
	sum := newTestAggregator(t, Config{Aggregation: AggSum})
	rrf := newTestAggregator(t, Config{Aggregation: AggRRF, RRFK: 1_000_000})

	input := []PairScores{twoMethodPair("A_B")}
	sumResult, err := sum.Rank(input)
	if err != nil {
		t.Fatalf("sum Rank failed: %v", err)
	}
	rrfResult, err := rrf.Rank(input)
	if err != nil {
		t.Fatalf("rrf Rank failed: %v", err)
	}
	for i := range sumResult.TopFeatures {
		if rrfResult.TopFeatures[i] != sumResult.TopFeatures[i] {
			t.Errorf("position %d: rrf %s, sum %s",
				i, rrfResult.TopFeatures[i], sumResult.TopFeatures[i])
		}
	}
}

func TestAggregatorWeightedBordaDefaultWeightsMatchesSum(t *testing.T) {
	sum := newTestAggregator(t, Config{Aggregation: AggSum})
	borda := newTestAggregator(t, Config{
		Aggregation: AggWeightedBorda,
		Weights:     map[string]float64{"m1": 1.0, "m2": 1.0},
	})

	input := []PairScores{twoMethodPair("A_B")}
	sumResult, err := sum.Rank(input)
	if err != nil {
		t.Fatalf("sum Rank failed: %v", err)
	}
	bordaResult, err := borda.Rank(input)
	if err != nil {
		t.Fatalf("borda Rank failed: %v", err)
	}
	for i := range sumResult.TopFeatures {
		if bordaResult.TopFeatures[i] != sumResult.TopFeatures[i] {
			t.Errorf("position %d: borda %s, sum %s",
				i, bordaResult.TopFeatures[i], sumResult.TopFeatures[i])
		}
	}
}

func TestAggregatorWeightedBordaRespectsWeights(t *testing.T) {
	// Heavy weight on m2 promotes f2 (m2 rank 1) above f1 (m2 rank 2).
	agg := newTestAggregator(t, Config{
		Aggregation: AggWeightedBorda,
		Weights:     map[string]float64{"m2": 10.0},
	})
	result, err := agg.Rank([]PairScores{twoMethodPair("A_B")})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if result.TopFeatures[0] != "f2" {
		t.Errorf("expected f2 first under heavy m2 weight, got %v", result.TopFeatures)
	}
}

func TestAggregatorRankProduct(t *testing.T) {
	agg := newTestAggregator(t, Config{Aggregation: AggRankProduct})
	result, err := agg.Rank([]PairScores{twoMethodPair("A_B")})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	// Geometric means: f1 sqrt(2)≈1.41, f2 sqrt(3)≈1.73, f3 sqrt(6)≈2.45.
	want := []string{"f1", "f2", "f3"}
	for i, f := range want {
		if result.TopFeatures[i] != f {
			t.Errorf("position %d = %s, want %s", i, result.TopFeatures[i], f)
		}
	}
}

func TestAggregatorUnknownAlgorithmFallsBackToSum(t *testing.T) {
	agg := newTestAggregator(t, Config{Aggregation: "quantum_fusion"})
	result, err := agg.Rank([]PairScores{twoMethodPair("A_B")})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	want := []string{"f1", "f2", "f3"}
	for i, f := range want {
		if result.TopFeatures[i] != f {
			t.Errorf("position %d = %s, want %s", i, result.TopFeatures[i], f)
		}
	}
}

func TestAggregatorInnerJoinDropsPartialFeatures(t *testing.T) {
	pair := PairScores{
		ClassPair: "A_B",
		Methods: []MethodScores{
			{Method: "m1", Scores: FlatScores(map[string]float64{
				"f1": 0.9, "f2": 0.5, "only_m1": 0.7,
			})},
			{Method: "m2", Scores: FlatScores(map[string]float64{
				"f1": 0.3, "f2": 0.8,
			})},
		},
	}
	agg := newTestAggregator(t, Config{Aggregation: AggSum})
	result, err := agg.Rank([]PairScores{pair})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	for _, f := range result.TopFeatures {
		if f == "only_m1" {
			t.Error("feature missing from one method must not survive the join")
		}
	}
	if len(result.TopFeatures) != 2 {
		t.Errorf("expected 2 joined features, got %v", result.TopFeatures)
	}
}

func TestAggregatorMalformedMethodDropped(t *testing.T) {
	pair := PairScores{
		ClassPair: "A_B",
		Methods: []MethodScores{
			{Method: "broken", Scores: Scores{}},
			{Method: "m1", Scores: FlatScores(map[string]float64{
				"f1": 0.9, "f2": 0.5,
			})},
		},
	}
	agg := newTestAggregator(t, Config{Aggregation: AggSum})
	result, err := agg.Rank([]PairScores{pair})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(result.TopFeatures) != 2 {
		t.Errorf("expected ranking from the surviving method, got %v", result.TopFeatures)
	}
}

func TestAggregatorEmptyInput(t *testing.T) {
	agg := newTestAggregator(t, Config{})
	if _, err := agg.Rank(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestAggregatorFirstPairWins(t *testing.T) {
	second := PairScores{
		ClassPair: "C_D",
		Methods: []MethodScores{
			{Method: "m1", Scores: FlatScores(map[string]float64{
				"g1": 0.9, "g2": 0.1,
			})},
		},
	}
	agg := newTestAggregator(t, Config{Aggregation: AggSum})
	result, err := agg.Rank([]PairScores{twoMethodPair("A_B"), second})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if result.TopFeatures[0] != "f1" {
		t.Errorf("TopFeatures must come from the first class pair, got %v", result.TopFeatures)
	}
	if len(result.Pairs) != 2 {
		t.Fatalf("expected 2 pair results, got %d", len(result.Pairs))
	}
	if result.Pairs[1].TopFeatures[0] != "g1" {
		t.Errorf("second pair top = %v, want g1 first", result.Pairs[1].TopFeatures)
	}
}

func TestAggregatorTruncatesToNumTopFeatures(t *testing.T) {
	agg := newTestAggregator(t, Config{Aggregation: AggSum, NumTopFeatures: 2})
	result, err := agg.Rank([]PairScores{twoMethodPair("A_B")})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(result.TopFeatures) != 2 {
		t.Errorf("expected 2 top features, got %v", result.TopFeatures)
	}
}

func TestAggregatorRejectsNonPositiveTopN(t *testing.T) {
	if _, err := NewAggregator(Config{NumTopFeatures: 0}); err == nil {
		t.Error("expected validation error for num_top_features = 0")
	}
}

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"model=xgbclassifier!!", "model=xgbclassifier__"},
		{"plain-label_1.0", "plain-label_1.0"},
		{"a b/c", "a_b_c"},
		{"x+y=z", "x+y=z"},
	}
	for _, tt := range tests {
		if got := SanitizeLabel(tt.in); got != tt.want {
			t.Errorf("SanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRankingTableCSVContent(t *testing.T) {
	dir := t.TempDir()
	agg := newTestAggregator(t, Config{Aggregation: AggSum, OutDir: dir})
	if _, err := agg.Rank([]PairScores{twoMethodPair("A_B")}); err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	path := filepath.Join(dir, "feature_ranking", "A_B", "ranked_features_df.csv")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading ranking table: %v", err)
	}
	want := "\uFEFF" +
		"genes;m1;m2;overall score\n" +
		"f1;1;2;3\n" +
		"f2;3;1;4\n" +
		"f3;2;3;5\n"
	if string(data) != want {
		t.Errorf("ranking table mismatch:\ngot:\n%q\nwant:\n%q", string(data), want)
	}
}

func TestRankingTableIdempotent(t *testing.T) {
	dir := t.TempDir()
	agg := newTestAggregator(t, Config{Aggregation: AggRRF, OutDir: dir})
	input := []PairScores{twoMethodPair("A_B")}

	if _, err := agg.Rank(input); err != nil {
		t.Fatalf("first Rank failed: %v", err)
	}
	path := filepath.Join(dir, "feature_ranking", "A_B", "ranked_features_df.csv")
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading first table: %v", err)
	}

	if _, err := agg.Rank(input); err != nil {
		t.Fatalf("second Rank failed: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading second table: %v", err)
	}
	if string(first) != string(second) {
		t.Error("re-running aggregation must produce a byte-identical table")
	}
}

func TestRankingTableSubdirLabel(t *testing.T) {
	dir := t.TempDir()
	agg := newTestAggregator(t, Config{
		Aggregation: AggSum,
		OutDir:      dir,
		SubdirLabel: "model=xgbclassifier!!",
	})
	if _, err := agg.Rank([]PairScores{twoMethodPair("A_B")}); err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	labelled := filepath.Join(dir, "feature_ranking", "A_B",
		"model=xgbclassifier__", "ranked_features_df.csv")
	if _, err := os.Stat(labelled); err != nil {
		t.Errorf("labelled table missing: %v", err)
	}
	canonical := filepath.Join(dir, "feature_ranking", "A_B", "ranked_features_df.csv")
	if _, err := os.Stat(canonical); err == nil {
		t.Error("labelled run must not write the canonical table")
	}
}

func TestAggregatorLogsFusionFallback(t *testing.T) {
	provider, _ := log.NewTestLoggerProvider(log.LevelDebug)
	log.SetProvider(provider)
	t.Cleanup(log.ResetProvider)

	agg := newTestAggregator(t, Config{Aggregation: "quantum_fusion"})
	if _, err := agg.Rank([]PairScores{twoMethodPair("A_B")}); err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if !provider.Logger().ContainsMessage("falling back to sum of ranks") {
		t.Error("fusion fallback must be logged")
	}
}

func TestRankDictLogsMalformedScores(t *testing.T) {
	provider, _ := log.NewTestLoggerProvider(log.LevelDebug)
	log.SetProvider(provider)
	t.Cleanup(log.ResetProvider)

	RankDict(Scores{}, nil)
	if !provider.Logger().ContainsMessage("malformed importance scores") {
		t.Error("malformed scores must be logged")
	}
}

func TestConfigWithOverrides(t *testing.T) {
	base := Config{Aggregation: AggSum}
	o := Overrides{
		Aggregation: AggRRF,
		Weights:     map[string]float64{"m1": 2.0},
		RRFK:        30,
	}
	got := base.WithOverrides(o)
	if got.Aggregation != AggSum {
		t.Errorf("explicit aggregation must win, got %s", got.Aggregation)
	}
	if got.RRFK != 30 || got.Weights["m1"] != 2.0 {
		t.Errorf("unset fields must be filled from overrides, got %+v", got)
	}
}
