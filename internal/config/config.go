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
	Workspace WorkspaceConfig `yaml:"workspace" mapstructure:"workspace"`
	Scenarios ScenarioConfig  `yaml:"scenarios" mapstructure:"scenarios"`
	Fields    FieldConfig     `yaml:"fields" mapstructure:"fields"`
	Raster    RasterConfig    `yaml:"raster" mapstructure:"raster"`
	RunLog    RunLogConfig    `yaml:"runlog" mapstructure:"runlog"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// WorkspaceConfig configures the analysis workspace defaults.
type WorkspaceConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	Overwrite bool   `yaml:"overwrite" mapstructure:"overwrite"`
}

// ScenarioConfig holds the standard-scenario table: storm-surge reference
// elevations (feet above MSL) and the sea-level-rise steps (whole feet).
type ScenarioConfig struct {
	Surges   map[string]float64 `yaml:"surges" mapstructure:"surges"`
	SLRSteps []int              `yaml:"slr_steps" mapstructure:"slr_steps"`
}

// FieldConfig names the attribute fields written onto output flood layers.
type FieldConfig struct {
	Elevation     string `yaml:"elevation" mapstructure:"elevation"`
	Surge         string `yaml:"surge" mapstructure:"surge"`
	SLR           string `yaml:"slr" mapstructure:"slr"`
	TotalArea     string `yaml:"total_area" mapstructure:"total_area"`
	BuildingCount string `yaml:"building_count" mapstructure:"building_count"`
	WetlandArea   string `yaml:"wetland_area" mapstructure:"wetland_area"`
	WetlandCount  string `yaml:"wetland_count" mapstructure:"wetland_count"`
	BuildingID    string `yaml:"building_id" mapstructure:"building_id"`
}

// RasterConfig bounds raster ingestion.
type RasterConfig struct {
	// MaxBytes caps the sample buffer one DEM may allocate. Exceeding it
	// surfaces a resource-exhaustion error instead of an OOM kill.
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes"`
}

// RunLogConfig configures the sqlite run log.
type RunLogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TIDEGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. The surge table is the standard set for the study area;
	// override per deployment in config.yaml.
	v.SetDefault("workspace.dir", ".")
	v.SetDefault("workspace.overwrite", false)
	v.SetDefault("scenarios.surges", map[string]float64{
		"MHHW":  4.0,
		"10yr":  8.0,
		"50yr":  9.6,
		"100yr": 10.5,
	})
	v.SetDefault("scenarios.slr_steps", []int{0, 1, 2, 3, 4, 5, 6})
	v.SetDefault("fields.elevation", "flood_elev")
	v.SetDefault("fields.surge", "surge")
	v.SetDefault("fields.slr", "slr")
	v.SetDefault("fields.total_area", "totalarea")
	v.SetDefault("fields.building_count", "N_bldgs")
	v.SetDefault("fields.wetland_area", "area_wtlds")
	v.SetDefault("fields.wetland_count", "N_wtlds")
	v.SetDefault("fields.building_id", "STRUCT_ID")
	v.SetDefault("raster.max_bytes", int64(4)<<30)
	v.SetDefault("runlog.path", "tidegate_runs.db")
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
	cfg.Scenarios.Surges = canonicalSurges(cfg.Scenarios.Surges)

	return &cfg, nil
}

// surgeNames are the canonical spellings of the standard surge categories.
var surgeNames = []string{"MHHW", "10yr", "50yr", "100yr"}

// canonicalSurges restores canonical surge-name spelling. viper treats map
// keys case-insensitively and hands them back lowercased, so a configured
// surge table would otherwise come out as "mhhw" and never match the
// standard names. Unknown keys pass through untouched.
func canonicalSurges(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		name := k
		for _, c := range surgeNames {
			if strings.EqualFold(k, c) {
				name = c
				break
			}
		}
		out[name] = v
	}
	return out
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
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
