package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citydatalab/airhealth/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the joined dataset",
	Long:  "Builds the joined dataset and writes final_dataset.csv and/or final_dataset.xlsx to the output directory.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		metrics, _, err := pipelineDataset()
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return eris.Wrapf(err, "export: create output dir %s", cfg.Output.Dir)
		}

		if cfg.Output.CSV {
			path := filepath.Join(cfg.Output.Dir, "final_dataset.csv")
			if err := export.WriteCSV(metrics, path); err != nil {
				return err
			}
			zap.L().Info("dataset exported", zap.String("path", path))
		}
		if cfg.Output.XLSX {
			path := filepath.Join(cfg.Output.Dir, "final_dataset.xlsx")
			if err := export.WriteXLSX(metrics, path); err != nil {
				return err
			}
			zap.L().Info("dataset exported", zap.String("path", path))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
