package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"agrilend/native/liquidation"
	"agrilend/native/seasonal"
)

// Duration wraps time.Duration to support YAML unmarshalling.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses human readable duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be string")
	}
	raw := value.Value
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// Config captures runtime configuration for riskd.
type Config struct {
	ListenAddress     string            `yaml:"listen"`
	DatabasePath      string            `yaml:"database"`
	LiquidationParams string            `yaml:"liquidation_params"`
	Log               LogConfig         `yaml:"log"`
	Oracle            OracleConfig      `yaml:"oracle"`
	Rates             RatesConfig       `yaml:"rates"`
	Commodities       []CommodityConfig `yaml:"commodities"`
}

// LogConfig tunes the optional rotated log file.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// OracleConfig bounds which oracle readings the engines act on.
type OracleConfig struct {
	MaxAge        Duration `yaml:"max_age"`
	MinConfidence uint64   `yaml:"min_confidence"`
}

// RatesConfig parameterises the kinked utilisation curve.
type RatesConfig struct {
	BaseRate float64 `yaml:"base_rate"`
	Slope1   float64 `yaml:"slope1"`
	Slope2   float64 `yaml:"slope2"`
	Kink     float64 `yaml:"kink"`
}

// CommodityConfig registers one tracked sub-commodity.
type CommodityConfig struct {
	ID                 uint32 `yaml:"id"`
	Symbol             string `yaml:"symbol"`
	Type               string `yaml:"type"`
	Hemisphere         string `yaml:"hemisphere"`
	HarvestStartMonth  int    `yaml:"harvest_start_month"`
	HarvestEndMonth    int    `yaml:"harvest_end_month"`
	PeakDemandMonth    int    `yaml:"peak_demand_month"`
	StorageDecayBps    uint64 `yaml:"storage_decay_bps_per_day"`
	WeatherSensitivity uint64 `yaml:"weather_sensitivity"`
}

// Load reads configuration from the supplied path.
func Load(path string) (Config, error) {
	cfg := Config{}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()
	dec := yaml.NewDecoder(file)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLiquidation resolves the liquidation parameters, reading the TOML
// override file when one is configured and falling back to the shipped
// defaults otherwise.
func (c Config) LoadLiquidation() (liquidation.Config, error) {
	params := liquidation.DefaultConfig()
	path := strings.TrimSpace(c.LiquidationParams)
	if path == "" {
		return params, nil
	}
	if _, err := toml.DecodeFile(path, &params); err != nil {
		return params, fmt.Errorf("decode liquidation params: %w", err)
	}
	if err := params.Validate(); err != nil {
		return params, fmt.Errorf("liquidation params: %w", err)
	}
	return params, nil
}

// Seasonal converts a commodity entry into the engine's configuration form.
func (c CommodityConfig) Seasonal() (seasonal.SubCommodityConfig, error) {
	commodityType, err := parseCommodityType(c.Type)
	if err != nil {
		return seasonal.SubCommodityConfig{}, err
	}
	hemisphere, err := parseHemisphere(c.Hemisphere)
	if err != nil {
		return seasonal.SubCommodityConfig{}, err
	}
	cfg := seasonal.SubCommodityConfig{
		SubCommodityID:        c.ID,
		Type:                  commodityType,
		Hemisphere:            hemisphere,
		HarvestStartMonth:     c.HarvestStartMonth,
		HarvestEndMonth:       c.HarvestEndMonth,
		PeakDemandMonth:       c.PeakDemandMonth,
		StorageDecayBpsPerDay: c.StorageDecayBps,
		WeatherSensitivity:    c.WeatherSensitivity,
	}
	if err := cfg.Validate(); err != nil {
		return seasonal.SubCommodityConfig{}, err
	}
	return cfg, nil
}

func parseCommodityType(raw string) (seasonal.CommodityType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "precious-metal":
		return seasonal.PreciousMetal, nil
	case "base-metal":
		return seasonal.BaseMetal, nil
	case "energy":
		return seasonal.Energy, nil
	case "agricultural":
		return seasonal.Agricultural, nil
	case "carbon-credit":
		return seasonal.CarbonCredit, nil
	default:
		return 0, fmt.Errorf("unknown commodity type %q", raw)
	}
}

func parseHemisphere(raw string) (seasonal.Hemisphere, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "northern":
		return seasonal.Northern, nil
	case "southern":
		return seasonal.Southern, nil
	case "global":
		return seasonal.Global, nil
	default:
		return 0, fmt.Errorf("unknown hemisphere %q", raw)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":7085"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "/var/data/riskd.sqlite"
	}
	if cfg.Oracle.MaxAge.Duration == 0 {
		cfg.Oracle.MaxAge.Duration = 5 * time.Minute
	}
	if cfg.Oracle.MinConfidence == 0 {
		cfg.Oracle.MinConfidence = 80
	}
	if cfg.Rates == (RatesConfig{}) {
		cfg.Rates = RatesConfig{BaseRate: 0.02, Slope1: 0.15, Slope2: 0.6, Kink: 0.8}
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 64
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 7
	}
}

func validate(cfg Config) error {
	if len(cfg.Commodities) == 0 {
		return fmt.Errorf("at least one commodity must be configured")
	}
	seen := make(map[uint32]struct{}, len(cfg.Commodities))
	for _, commodity := range cfg.Commodities {
		if commodity.ID == 0 {
			return fmt.Errorf("commodity id must be set")
		}
		if _, dup := seen[commodity.ID]; dup {
			return fmt.Errorf("duplicate commodity id %d", commodity.ID)
		}
		seen[commodity.ID] = struct{}{}
		if strings.TrimSpace(commodity.Symbol) == "" {
			return fmt.Errorf("commodity %d: symbol must be set", commodity.ID)
		}
		if _, err := commodity.Seasonal(); err != nil {
			return fmt.Errorf("commodity %d: %w", commodity.ID, err)
		}
	}
	if cfg.Oracle.MinConfidence > 100 {
		return fmt.Errorf("oracle min_confidence must be at most 100")
	}
	if cfg.Rates.Kink <= 0 || cfg.Rates.Kink >= 1 {
		return fmt.Errorf("rates kink must be inside (0, 1)")
	}
	return nil
}
