package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/citydatalab/airhealth/internal/analyze"
	"github.com/citydatalab/airhealth/internal/model"
)

var correlateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Compute pollutant/hospitalization correlations",
	Long:  "Builds the joined dataset and prints the correlation matrix without rendering or exporting anything.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		metrics, _, err := pipelineDataset()
		if err != nil {
			return err
		}

		method, _ := cmd.Flags().GetString("method")
		var results []analyze.Result
		switch method {
		case "pearson":
			results = analyze.Matrix(metrics, analyze.Pearson)
		case "spearman":
			results = analyze.Matrix(metrics, analyze.Spearman)
		case "both":
			results = append(
				analyze.Matrix(metrics, analyze.Pearson),
				analyze.Matrix(metrics, analyze.Spearman)...,
			)
		default:
			return eris.Errorf("correlate: unknown method %q (pearson, spearman, both)", method)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		formatCorrelations(os.Stdout, results)

		if summaries, _ := cmd.Flags().GetBool("summary"); summaries {
			fmt.Fprintln(os.Stdout)
			formatSummaries(os.Stdout, metrics)
		}
		return nil
	},
}

func init() {
	correlateCmd.Flags().String("method", "both", "correlation method (pearson, spearman, both)")
	correlateCmd.Flags().Bool("json", false, "emit results as JSON")
	correlateCmd.Flags().Bool("summary", false, "also print per-column descriptive statistics")
	rootCmd.AddCommand(correlateCmd)
}

// formatCorrelations writes a tabular correlation matrix to w.
func formatCorrelations(out io.Writer, results []analyze.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "X\tY\tMETHOD\tCOEFFICIENT\tN")
	_, _ = fmt.Fprintln(w, "-\t-\t------\t-----------\t-")

	for _, r := range results {
		coef := "undefined"
		if r.Defined {
			coef = fmt.Sprintf("%.4f", r.Coefficient)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", r.X, r.Y, r.Method, coef, r.N)
	}
	_ = w.Flush()
}

// formatSummaries writes descriptive statistics for each dataset column.
func formatSummaries(out io.Writer, metrics []model.AggregatedMetric) {
	series := analyze.Series(metrics)
	columns := make([]string, 0, len(series))
	for name := range series {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COLUMN\tN\tMEAN\tSTDDEV\tMIN\tMAX")
	for _, name := range columns {
		s := analyze.Describe(name, series[name])
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\n",
			s.Name, s.N, s.Mean, s.StdDev, s.Min, s.Max)
	}
	_ = w.Flush()
}
