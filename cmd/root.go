package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citydatalab/airhealth/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "airhealth",
	Short: "NYC air quality and asthma hospitalization analysis",
	Long:  "Joins NYC neighborhood air-quality surveys with hospital inpatient discharges, computes pollutant/hospitalization correlations, and renders choropleth maps.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
