package seasonal

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHemisphere is returned for hemisphere values outside the
	// declared enum.
	ErrInvalidHemisphere = errors.New("seasonal engine: invalid hemisphere")
	// ErrInvalidCommodityType is returned for commodity types outside the
	// declared enum.
	ErrInvalidCommodityType = errors.New("seasonal engine: invalid commodity type")
	// ErrInvalidSensitivity is returned when a weather sensitivity exceeds
	// the 0-100 scale.
	ErrInvalidSensitivity = errors.New("seasonal engine: weather sensitivity above 100")
)

// CommodityType partitions the sub-commodity id namespace.
type CommodityType uint8

const (
	PreciousMetal CommodityType = iota
	BaseMetal
	Energy
	Agricultural
	CarbonCredit
)

// Valid reports whether the value names a declared commodity type.
func (t CommodityType) Valid() bool {
	switch t {
	case PreciousMetal, BaseMetal, Energy, Agricultural, CarbonCredit:
		return true
	}
	return false
}

func (t CommodityType) String() string {
	switch t {
	case PreciousMetal:
		return "precious-metal"
	case BaseMetal:
		return "base-metal"
	case Energy:
		return "energy"
	case Agricultural:
		return "agricultural"
	case CarbonCredit:
		return "carbon-credit"
	}
	return "unknown"
}

// Hemisphere drives the six-month calendar shift applied to generic profiles.
type Hemisphere uint8

const (
	Northern Hemisphere = iota
	Southern
	// Global marks commodities with no hemisphere adjustment at all.
	Global
)

// Valid reports whether the value names a declared hemisphere.
func (h Hemisphere) Valid() bool {
	switch h {
	case Northern, Southern, Global:
		return true
	}
	return false
}

func (h Hemisphere) String() string {
	switch h {
	case Northern:
		return "northern"
	case Southern:
		return "southern"
	case Global:
		return "global"
	}
	return "unknown"
}

// SubCommodityConfig is the seasonal identity of one tradable sub-commodity.
// The configuration is immutable once its reserve is initialised; changing it
// later would retroactively rewrite historical rate decisions.
type SubCommodityConfig struct {
	SubCommodityID uint32
	Type           CommodityType
	Hemisphere     Hemisphere
	// HarvestStartMonth and HarvestEndMonth bound the harvest window in
	// calendar months 1-12. An end before the start wraps across the year
	// boundary.
	HarvestStartMonth int
	HarvestEndMonth   int
	PeakDemandMonth   int
	// StorageDecayBpsPerDay models the carrying decay of stored inventory.
	StorageDecayBpsPerDay uint64
	// WeatherSensitivity scales weather-event impact from 0 to 100.
	WeatherSensitivity uint64
}

// Validate enforces the input contract on all configuration fields.
func (c SubCommodityConfig) Validate() error {
	if !c.Type.Valid() {
		return ErrInvalidCommodityType
	}
	if !c.Hemisphere.Valid() {
		return ErrInvalidHemisphere
	}
	for _, month := range []int{c.HarvestStartMonth, c.HarvestEndMonth, c.PeakDemandMonth} {
		if month < 1 || month > 12 {
			return fmt.Errorf("seasonal engine: config month %d: %w", month, errInvalidMonth)
		}
	}
	if c.WeatherSensitivity > 100 {
		return ErrInvalidSensitivity
	}
	return nil
}
