package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citydatalab/airhealth/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analysis pipeline",
	Long:  "Loads the configured inputs, cleans and joins them, computes correlations, renders all charts and maps, and exports the final dataset.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		result, err := pipeline.Run(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run complete",
			zap.Int("joined_rows", result.JoinedRows),
			zap.Int("correlations", len(result.Correlations)),
			zap.Int("artifacts", len(result.Artifacts)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
