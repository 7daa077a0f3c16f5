package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Inputs Inputs `yaml:"inputs" mapstructure:"inputs"`
	Clean  Clean  `yaml:"clean" mapstructure:"clean"`
	Join   Join   `yaml:"join" mapstructure:"join"`
	Render Render `yaml:"render" mapstructure:"render"`
	Output Output `yaml:"output" mapstructure:"output"`
	Store  Store  `yaml:"store" mapstructure:"store"`
	Log    Log    `yaml:"log" mapstructure:"log"`
}

// Inputs fixes the input file paths for a run. AirQuality and one of
// Discharges/DischargesXLSX are required; boundary files are required
// only for map rendering.
type Inputs struct {
	AirQuality     string `yaml:"air_quality" mapstructure:"air_quality"`
	Discharges     string `yaml:"discharges" mapstructure:"discharges"`
	DischargesXLSX string `yaml:"discharges_xlsx" mapstructure:"discharges_xlsx"`
	BoroughGeoJSON string `yaml:"borough_geojson" mapstructure:"borough_geojson"`
	ZCTAGeoJSON    string `yaml:"zcta_geojson" mapstructure:"zcta_geojson"`
	BoroughKeyProp string `yaml:"borough_key_property" mapstructure:"borough_key_property"`
	ZCTAKeyProp    string `yaml:"zcta_key_property" mapstructure:"zcta_key_property"`
}

// Clean fixes the normalization policy.
type Clean struct {
	Pollutants []string `yaml:"pollutants" mapstructure:"pollutants"`
	Diagnosis  string   `yaml:"diagnosis" mapstructure:"diagnosis"`
	Level      string   `yaml:"level" mapstructure:"level"`
}

// Join fixes the aggregation functions and join type for a run.
type Join struct {
	Type         string `yaml:"type" mapstructure:"type"`
	PollutantAgg string `yaml:"pollutant_agg" mapstructure:"pollutant_agg"`
	DischargeAgg string `yaml:"discharge_agg" mapstructure:"discharge_agg"`
}

// Render configures map and chart output.
type Render struct {
	Width     int    `yaml:"width" mapstructure:"width"`
	Height    int    `yaml:"height" mapstructure:"height"`
	Quantiles int    `yaml:"quantiles" mapstructure:"quantiles"`
	Ramp      string `yaml:"ramp" mapstructure:"ramp"`
}

// Output configures the artifact directory and dataset exports.
type Output struct {
	Dir  string `yaml:"dir" mapstructure:"dir"`
	CSV  bool   `yaml:"csv" mapstructure:"csv"`
	XLSX bool   `yaml:"xlsx" mapstructure:"xlsx"`
}

// Store configures the optional run-history database.
type Store struct {
	Path string `yaml:"path" mapstructure:"path"` // empty disables the store
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml and the environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AIRHEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("inputs.air_quality", "resources/air_quality.csv")
	v.SetDefault("inputs.discharges", "resources/sparcs_discharges.csv")
	v.SetDefault("inputs.borough_geojson", "resources/boroughs.geojson")
	v.SetDefault("inputs.zcta_geojson", "resources/nyc-zip-code-tabulation-areas-polygons.geojson")
	v.SetDefault("inputs.borough_key_property", "name")
	v.SetDefault("inputs.zcta_key_property", "postalCode")
	v.SetDefault("clean.pollutants", []string{"NO2", "O3"})
	v.SetDefault("clean.diagnosis", "asthma")
	v.SetDefault("clean.level", "uhf42")
	v.SetDefault("join.type", "inner")
	v.SetDefault("join.pollutant_agg", "mean")
	v.SetDefault("join.discharge_agg", "sum")
	v.SetDefault("render.width", 1000)
	v.SetDefault("render.height", 1000)
	v.SetDefault("render.quantiles", 3)
	v.SetDefault("render.ramp", "plasma")
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.csv", true)
	v.SetDefault("output.xlsx", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg Log) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
