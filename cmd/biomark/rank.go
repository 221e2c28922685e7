package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/omicsrank/biomark/pkg/errors"
	"github.com/omicsrank/biomark/pkg/log"
	"github.com/omicsrank/biomark/ranking"
	"github.com/omicsrank/biomark/store"
)

// envPrefix namespaces the process-wide aggregation overrides, e.g.
// BIOMARK_RANK_AGGREGATION, BIOMARK_RANK_WEIGHTS, BIOMARK_RANK_RRF_K.
const envPrefix = "BIOMARK_RANK_"

func newRankCmd() *cobra.Command {
	var (
		outDir      string
		classPair   string
		topN        int
		featureType string
		aggregation string
		weightsJSON string
		rrfK        int
		label       string
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Recompute fused feature rankings from stored importances",
		Long: `Reads feature_importances.json from the result store, fuses every
method's ranking per class pair under the selected aggregation algorithm and
writes ranked_features_df.csv per class pair. Aggregation settings not given
as flags fall back to BIOMARK_RANK_* environment overrides.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ranking.Config{
				NumTopFeatures: topN,
				FeatureType:    featureType,
				Aggregation:    aggregation,
				RRFK:           rrfK,
				SubdirLabel:    label,
				OutDir:         outDir,
			}
			if weightsJSON != "" {
				var weights map[string]float64
				if err := json.Unmarshal([]byte(weightsJSON), &weights); err != nil {
					return errors.Wrap(err, "parsing --weights")
				}
				cfg.Weights = weights
			}
			overrides, err := loadEnvOverrides()
			if err != nil {
				return err
			}
			cfg = cfg.WithOverrides(overrides)

			st := store.NewResultStore(outDir)
			pairs, err := st.LoadPairScores()
			if err != nil {
				return err
			}
			if classPair != "" {
				pairs = filterPair(pairs, classPair)
				if len(pairs) == 0 {
					return errors.Newf("class pair '%s' not found in %s",
						classPair, store.FeatureImportancesFile)
				}
			}

			agg, err := ranking.NewAggregator(cfg)
			if err != nil {
				return err
			}
			result, err := agg.Rank(pairs)
			if err != nil {
				return err
			}
			for pair, artifactErr := range result.ArtifactErrs() {
				log.GetLogger().Error("ranking table not persisted",
					log.ClassPairKey, pair, "error", artifactErr)
			}

			// Print the table paths for consumption by orchestrators.
			for _, pr := range result.Pairs {
				path := filepath.Join(outDir, "feature_ranking", pr.ClassPair, "ranked_features_df.csv")
				if label != "" {
					path = filepath.Join(outDir, "feature_ranking", pr.ClassPair,
						ranking.SanitizeLabel(label), "ranked_features_df.csv")
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "outdir", "o", "", "result store directory (required)")
	cmd.Flags().StringVar(&classPair, "class-pair", "", "recompute only this class pair")
	cmd.Flags().IntVar(&topN, "top", 100, "number of top features to return")
	cmd.Flags().StringVar(&featureType, "feature-type", "microRNA", "feature column label")
	cmd.Flags().StringVar(&aggregation, "aggregation", "", "fusion algorithm: rrf, rank_product, weighted_borda, sum")
	cmd.Flags().StringVar(&weightsJSON, "weights", "", "per-method weights as a JSON object")
	cmd.Flags().IntVar(&rrfK, "rrf-k", 0, "reciprocal rank fusion constant")
	cmd.Flags().StringVar(&label, "label", "", "write the table under this sanitized subdirectory instead of the canonical path")
	cobra.CheckErr(cmd.MarkFlagRequired("outdir"))
	return cmd
}

// loadEnvOverrides resolves the process-wide aggregation overrides once, at
// entry. Explicit flags always win; these only fill gaps.
func loadEnvOverrides() (ranking.Overrides, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return ranking.Overrides{}, errors.Wrap(err, "loading environment overrides")
	}

	o := ranking.Overrides{
		Aggregation: k.String("aggregation"),
		RRFK:        k.Int("rrf_k"),
	}
	if raw := k.String("weights"); raw != "" {
		var weights map[string]float64
		if err := json.Unmarshal([]byte(raw), &weights); err != nil {
			// A malformed override must not sink the run; the weighted
			// algorithms fall back to 1.0 per method.
			log.GetLogger().Warn("ignoring malformed weights override", "error", err)
		} else {
			o.Weights = weights
		}
	}
	return o, nil
}

func filterPair(pairs []ranking.PairScores, classPair string) []ranking.PairScores {
	for _, p := range pairs {
		if p.ClassPair == classPair {
			return []ranking.PairScores{p}
		}
	}
	return nil
}
