package main

import (
	"github.com/spf13/cobra"

	"github.com/omicsrank/biomark/pkg/log"
)

func newRootCmd() *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "biomark",
		Short: "Biomarker discovery: rank fusion and model evaluation",
		Long: `biomark aggregates per-method feature importance scores into fused
feature rankings and runs leakage-safe cross-validated model evaluation
over shared JSON result stores.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetupLogger(logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level: debug, info, warn, error")

	cmd.AddCommand(newRankCmd())
	cmd.AddCommand(newTrainCmd())
	return cmd
}
