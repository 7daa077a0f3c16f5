// Package pipeline wires the stages together: load, clean, join,
// analyze, render, export. Each stage takes the previous stage's output
// as an explicit value; there are no feedback edges and no shared
// mutable state, so a run is deterministic for identical inputs.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/citydatalab/airhealth/internal/analyze"
	"github.com/citydatalab/airhealth/internal/clean"
	"github.com/citydatalab/airhealth/internal/config"
	"github.com/citydatalab/airhealth/internal/export"
	"github.com/citydatalab/airhealth/internal/join"
	"github.com/citydatalab/airhealth/internal/loader"
	"github.com/citydatalab/airhealth/internal/model"
	"github.com/citydatalab/airhealth/internal/store"
)

// Result summarizes one completed run.
type Result struct {
	AirRows         int              `json:"air_rows"`
	DischargeRows   int              `json:"discharge_rows"`
	AirKept         int              `json:"air_kept"`
	DischargeKept   int              `json:"discharge_kept"`
	JoinedRows      int              `json:"joined_rows"`
	Correlations    []analyze.Result `json:"correlations"`
	Artifacts       []string         `json:"artifacts"`
	DatasetCSV      string           `json:"dataset_csv,omitempty"`
	DatasetXLSX     string           `json:"dataset_xlsx,omitempty"`
	StoredRunID     string           `json:"stored_run_id,omitempty"`
	DurationSeconds float64          `json:"duration_seconds"`
}

// Counts tracks row counts through the load and clean stages.
type Counts struct {
	AirRows       int
	DischargeRows int
	AirKept       int
	DischargeKept int
}

// Dataset runs the load, clean, aggregate, and join stages and returns
// the joined table. Any missing input file or schema mismatch aborts
// here; downstream key mismatches are tolerated and flagged.
func Dataset(cfg *config.Config) ([]model.AggregatedMetric, Counts, error) {
	var counts Counts

	policy, err := policyFromConfig(cfg.Clean)
	if err != nil {
		return nil, counts, err
	}
	joinType, err := join.ParseType(cfg.Join.Type)
	if err != nil {
		return nil, counts, err
	}
	pollutantAgg, err := parseAgg(cfg.Join.PollutantAgg)
	if err != nil {
		return nil, counts, err
	}
	dischargeAgg, err := parseAgg(cfg.Join.DischargeAgg)
	if err != nil {
		return nil, counts, err
	}

	// Stage 1: load.
	airRecords, err := loader.LoadAirQualityCSV(cfg.Inputs.AirQuality)
	if err != nil {
		return nil, counts, err
	}
	dischargeRecords, err := loadDischarges(cfg.Inputs)
	if err != nil {
		return nil, counts, err
	}

	// Stage 2: clean.
	airObs, airStats := clean.NormalizeAirQuality(airRecords, policy)
	dischargeObs, dischargeStats := clean.NormalizeDischarges(dischargeRecords, policy)

	// Stage 3: aggregate and join.
	pollutants := join.AggregatePollutants(airObs, pollutantAgg)
	discharges := join.AggregateDischarges(dischargeObs, dischargeAgg)
	metrics := join.Join(pollutants, discharges, joinType, model.LevelUHF42)
	if len(metrics) == 0 {
		return nil, counts, eris.New("pipeline: join produced no rows; nothing to analyze")
	}

	counts = Counts{
		AirRows:       len(airRecords),
		DischargeRows: len(dischargeRecords),
		AirKept:       airStats.KeptRows,
		DischargeKept: dischargeStats.KeptRows,
	}
	return metrics, counts, nil
}

// Run executes the full pipeline under cfg.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	started := time.Now()
	log := zap.L().With(zap.String("component", "pipeline"))

	metrics, counts, err := Dataset(cfg)
	if err != nil {
		return nil, err
	}

	result := &Result{
		AirRows:       counts.AirRows,
		DischargeRows: counts.DischargeRows,
		AirKept:       counts.AirKept,
		DischargeKept: counts.DischargeKept,
		JoinedRows:    len(metrics),
	}

	// Stage 4: analyze.
	result.Correlations = append(
		analyze.Matrix(metrics, analyze.Pearson),
		analyze.Matrix(metrics, analyze.Spearman)...,
	)
	for _, c := range result.Correlations {
		if c.Defined {
			log.Info("correlation computed",
				zap.String("x", c.X), zap.String("y", c.Y),
				zap.String("method", string(c.Method)),
				zap.Float64("coefficient", c.Coefficient),
				zap.Int("n", c.N),
			)
		} else {
			log.Warn("correlation undefined",
				zap.String("x", c.X), zap.String("y", c.Y),
				zap.String("method", string(c.Method)),
				zap.Int("n", c.N),
			)
		}
	}

	// Stage 5: render.
	artifacts, err := RenderAll(metrics, cfg)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts

	// Stage 6: export.
	if cfg.Output.CSV {
		path := filepath.Join(cfg.Output.Dir, "final_dataset.csv")
		if err := export.WriteCSV(metrics, path); err != nil {
			return nil, err
		}
		result.DatasetCSV = path
	}
	if cfg.Output.XLSX {
		path := filepath.Join(cfg.Output.Dir, "final_dataset.xlsx")
		if err := export.WriteXLSX(metrics, path); err != nil {
			return nil, err
		}
		result.DatasetXLSX = path
	}

	result.DurationSeconds = time.Since(started).Seconds()

	// Stage 7: record the run, when a store is configured.
	if cfg.Store.Path != "" {
		id, err := persistRun(ctx, cfg, started, metrics, result)
		if err != nil {
			return nil, err
		}
		result.StoredRunID = id
	}

	log.Info("pipeline complete",
		zap.Int("joined_rows", result.JoinedRows),
		zap.Int("artifacts", len(result.Artifacts)),
		zap.Float64("seconds", result.DurationSeconds),
	)
	return result, nil
}

func loadDischarges(inputs config.Inputs) ([]model.DischargeRecord, error) {
	if inputs.DischargesXLSX != "" {
		return loader.LoadDischargeXLSX(inputs.DischargesXLSX)
	}
	if inputs.Discharges != "" {
		return loader.LoadDischargeCSV(inputs.Discharges)
	}
	return nil, eris.New("pipeline: no discharge input configured")
}

func policyFromConfig(c config.Clean) (clean.Policy, error) {
	policy := clean.Policy{
		Diagnosis: c.Diagnosis,
		Level:     model.GeoLevel(c.Level),
	}
	for _, p := range c.Pollutants {
		policy.Pollutants = append(policy.Pollutants, model.Pollutant(p))
	}
	if err := policy.Validate(); err != nil {
		return clean.Policy{}, err
	}
	return policy, nil
}

func parseAgg(s string) (join.AggFunc, error) {
	switch join.AggFunc(s) {
	case join.AggMean, join.AggSum:
		return join.AggFunc(s), nil
	default:
		return "", eris.Errorf("pipeline: unknown aggregation %q", s)
	}
}

func persistRun(ctx context.Context, cfg *config.Config, started time.Time, metrics []model.AggregatedMetric, result *Result) (string, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return "", err
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		return "", err
	}
	id, err := st.SaveRun(ctx, started, time.Now(), cfg, result)
	if err != nil {
		return "", err
	}
	if err := st.SaveMetrics(ctx, id, metrics); err != nil {
		return "", err
	}
	return id, nil
}
