package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const validYAML = `
listen: ":7085"
database: "/tmp/riskd.sqlite"
oracle:
  max_age: "2m"
  min_confidence: 90
commodities:
  - id: 101
    symbol: "US-CORN"
    type: "agricultural"
    hemisphere: "northern"
    harvest_start_month: 9
    harvest_end_month: 11
    peak_demand_month: 7
    weather_sensitivity: 80
  - id: 301
    symbol: "GOLD"
    type: "precious-metal"
    hemisphere: "global"
    harvest_start_month: 1
    harvest_end_month: 1
    peak_demand_month: 1
`

func TestLoadValidConfig(t *testing.T) {
	path := writeFile(t, "riskd.yaml", validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Oracle.MaxAge.Duration != 2*time.Minute {
		t.Fatalf("max age = %v, want 2m", cfg.Oracle.MaxAge.Duration)
	}
	if cfg.Oracle.MinConfidence != 90 {
		t.Fatalf("min confidence = %d, want 90", cfg.Oracle.MinConfidence)
	}
	if len(cfg.Commodities) != 2 {
		t.Fatalf("commodities = %d, want 2", len(cfg.Commodities))
	}
	// Defaults fill the fields the file omits.
	if cfg.Rates.Kink != 0.8 {
		t.Fatalf("default kink = %v, want 0.8", cfg.Rates.Kink)
	}
	if cfg.Log.MaxSizeMB != 64 {
		t.Fatalf("default log size = %d, want 64", cfg.Log.MaxSizeMB)
	}
}

func TestLoadRejectsEmptyCommodities(t *testing.T) {
	path := writeFile(t, "riskd.yaml", "listen: \":7085\"\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing commodities")
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	body := `
commodities:
  - id: 101
    symbol: "A"
    type: "agricultural"
    hemisphere: "northern"
    harvest_start_month: 9
    harvest_end_month: 11
    peak_demand_month: 7
  - id: 101
    symbol: "B"
    type: "agricultural"
    hemisphere: "northern"
    harvest_start_month: 9
    harvest_end_month: 11
    peak_demand_month: 7
`
	path := writeFile(t, "riskd.yaml", body)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for duplicate commodity ids")
	}
}

func TestLoadRejectsBadMonths(t *testing.T) {
	body := `
commodities:
  - id: 101
    symbol: "A"
    type: "agricultural"
    hemisphere: "northern"
    harvest_start_month: 13
    harvest_end_month: 11
    peak_demand_month: 7
`
	path := writeFile(t, "riskd.yaml", body)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for out-of-range month")
	}
}

func TestCommoditySeasonalConversion(t *testing.T) {
	entry := CommodityConfig{
		ID:                 104,
		Symbol:             "BR-SOY",
		Type:               "agricultural",
		Hemisphere:         "southern",
		HarvestStartMonth:  1,
		HarvestEndMonth:    5,
		PeakDemandMonth:    12,
		WeatherSensitivity: 70,
	}
	cfg, err := entry.Seasonal()
	if err != nil {
		t.Fatalf("seasonal: %v", err)
	}
	if cfg.SubCommodityID != 104 || cfg.WeatherSensitivity != 70 {
		t.Fatalf("unexpected conversion: %+v", cfg)
	}
	entry.Hemisphere = "equatorial"
	if _, err := entry.Seasonal(); err == nil {
		t.Fatalf("expected error for unknown hemisphere")
	}
}

func TestLoadLiquidationOverrides(t *testing.T) {
	body := `
LiquidationThresholdBps = 7500
LiquidationBonusBps = 800
WarningCooldownSeconds = 1800
MarginCallGraceSeconds = 900

[[tiers]]
TriggerHealthFactorBps = 9500
GracePeriodSeconds = 43200
CloseFactorBps = 3000

[[tiers]]
TriggerHealthFactorBps = 8800
GracePeriodSeconds = 7200
CloseFactorBps = 10000
`
	path := writeFile(t, "liquidation.toml", body)
	cfg := Config{LiquidationParams: path}
	params, err := cfg.LoadLiquidation()
	if err != nil {
		t.Fatalf("load liquidation: %v", err)
	}
	if params.LiquidationThresholdBps != 7500 {
		t.Fatalf("threshold = %d, want 7500", params.LiquidationThresholdBps)
	}
	if len(params.Tiers) != 2 || params.Tiers[1].CloseFactorBps != 10_000 {
		t.Fatalf("tiers not decoded: %+v", params.Tiers)
	}
}

func TestLoadLiquidationDefaults(t *testing.T) {
	params, err := Config{}.LoadLiquidation()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if len(params.Tiers) != 3 {
		t.Fatalf("default tiers = %d, want 3", len(params.Tiers))
	}
}
