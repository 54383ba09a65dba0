// Package config loads the TOML configuration file and supplies defaults
// for everything not set.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/yegors/glideplan/internal/thermals"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
	Storage StorageConfig `toml:"storage"`
	Glider  GliderConfig  `toml:"glider"`
	Planner PlannerConfig `toml:"planner"`
	Area    AreaConfig    `toml:"area"`
	Weather WeatherConfig `toml:"weather"`
	WeGlide WeGlideConfig `toml:"weglide"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// StorageConfig configures the sqlite database.
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path"`
}

// GliderConfig carries the sink polar coefficients and the degradation
// factor applied to them.
type GliderConfig struct {
	PolarA      float64 `toml:"polar_a"`
	PolarB      float64 `toml:"polar_b"`
	PolarC      float64 `toml:"polar_c"`
	Degradation float64 `toml:"degradation"`
}

// PlannerConfig carries the route-search tunables.
type PlannerConfig struct {
	MacCreadyMS   float64 `toml:"maccready_ms"`
	StepLengthM   float64 `toml:"step_length_m"`
	BucketWidthM  float64 `toml:"bucket_width_m"`
	ArrivalFloorM float64 `toml:"arrival_floor_m"`
	MaxLegM       float64 `toml:"max_leg_m"`
}

// AreaConfig bounds the operating area and the candidate grid.
type AreaConfig struct {
	BBox               thermals.BBox `toml:"bbox"`
	GridResM           float64       `toml:"grid_res_m"`
	CorridorHalfWidthM float64       `toml:"corridor_half_width_m"`
	MinThermalScore    float64       `toml:"min_thermal_score"`
	MaxCandidates      int           `toml:"max_candidates"`
	CandidateSepM      float64       `toml:"candidate_sep_m"`
}

// WeatherConfig selects and configures the environment source. Provider
// "constant" uses the fixed wind fields below; "meteomatics" samples the
// live grid. Credentials come from METEO_USER / METEO_PASS in the
// environment, never from this file.
type WeatherConfig struct {
	Provider           string  `toml:"provider"`
	BaseURL            string  `toml:"base_url"`
	RequestTimeoutSecs int     `toml:"request_timeout_seconds"`
	WindSpeedMS        float64 `toml:"wind_speed_ms"`
	WindDirFromDeg     float64 `toml:"wind_dir_from_deg"`
	VerticalMS         float64 `toml:"vertical_ms"`
}

// WeGlideConfig configures the thermal replay source and the prior built
// from it.
type WeGlideConfig struct {
	BaseURL            string  `toml:"base_url"`
	Token              string  `toml:"token"`
	RequestTimeoutSecs int     `toml:"request_timeout_seconds"`
	PriorBandwidthKm   float64 `toml:"prior_bandwidth_km"`
	PriorMinSamples    int     `toml:"prior_min_samples"`
}

// Default returns the configuration used when a field is absent from the
// file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeoutSecs:  15,
			WriteTimeoutSecs: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			SQLitePath: "glideplan.db",
		},
		Glider: GliderConfig{
			PolarA:      0.3,
			PolarB:      0.005,
			PolarC:      0.0012,
			Degradation: 1.0,
		},
		Planner: PlannerConfig{
			MacCreadyMS:   0.0,
			StepLengthM:   1000.0,
			BucketWidthM:  50.0,
			ArrivalFloorM: 900.0,
			MaxLegM:       0.0,
		},
		Area: AreaConfig{
			BBox:               thermals.BBox{MinLat: 45.9, MinLon: 10.9, MaxLat: 46.1, MaxLon: 11.3},
			GridResM:           1000.0,
			CorridorHalfWidthM: 15000.0,
			MinThermalScore:    0.55,
			MaxCandidates:      250,
			CandidateSepM:      1500.0,
		},
		Weather: WeatherConfig{
			Provider:           "constant",
			RequestTimeoutSecs: 30,
		},
		WeGlide: WeGlideConfig{
			RequestTimeoutSecs: 30,
			PriorBandwidthKm:   2.0,
			PriorMinSamples:    50,
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file is
// not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on values the planner would otherwise choke on.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Glider.Degradation <= 0 {
		return fmt.Errorf("glider degradation factor must be > 0, got %f", c.Glider.Degradation)
	}
	if c.Planner.StepLengthM <= 0 {
		return fmt.Errorf("planner step length must be > 0, got %f", c.Planner.StepLengthM)
	}
	if c.Planner.BucketWidthM <= 0 {
		return fmt.Errorf("planner bucket width must be > 0, got %f", c.Planner.BucketWidthM)
	}
	if c.Planner.MacCreadyMS < 0 {
		return fmt.Errorf("planner MacCready setting must be >= 0, got %f", c.Planner.MacCreadyMS)
	}
	if err := c.Area.BBox.Validate(); err != nil {
		return fmt.Errorf("invalid area bbox: %w", err)
	}
	if c.Area.GridResM <= 0 {
		return fmt.Errorf("grid resolution must be > 0, got %f", c.Area.GridResM)
	}
	switch c.Weather.Provider {
	case "constant", "meteomatics":
	default:
		return fmt.Errorf("unknown weather provider: %q", c.Weather.Provider)
	}
	return nil
}
