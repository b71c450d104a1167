// Package seasonal produces the month-by-month rate multiplier for a
// sub-commodity by blending its calendar profile with harvest, planting,
// peak-demand and weather adjustments. All outputs are 1e27 fixed point so
// the surrounding rate strategy can compose them without precision loss.
package seasonal

import (
	"math/big"

	"agrilend/native/calendar"
	"agrilend/native/cropcal"
)

var errInvalidMonth = calendar.ErrInvalidMonth

const (
	// defaultMultiplierBps backfills unset profile slots; a zero entry is a
	// "not set" sentinel, never a literal 0% rate.
	defaultMultiplierBps = 10_000
	harvestDiscountBps   = 7_500
	plantingPremiumBps   = 11_500
	peakDemandPremiumBps = 12_000
	// maxMultiplierBps caps the blended multiplier at 200%. The cap is
	// re-checked after every premium layer.
	maxMultiplierBps = 20_000
)

// Multiplier computes the seasonal rate multiplier for the sub-commodity in
// the given calendar month, returned in 1e27 fixed point where 1e27 is 100%.
//
// Harvest and planting adjustments are mutually exclusive: a month flagged as
// both resolves to the harvest discount. The peak-demand premium stacks on
// top of either branch and the 200% cap applies after each layer.
func Multiplier(cfg SubCommodityConfig, profile cropcal.SeasonalProfile, currentMonth int) (*big.Int, error) {
	if currentMonth < 1 || currentMonth > 12 {
		return nil, errInvalidMonth
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	effective, err := effectiveMonth(cfg.Hemisphere, profile.Scope, currentMonth)
	if err != nil {
		return nil, err
	}

	base := profile.MonthlyMultipliers[effective-1]
	if base == 0 {
		base = defaultMultiplierBps
	}

	value := new(big.Int).SetUint64(base)
	if profile.HarvestMonths[effective-1] {
		value = scaleBps(value, harvestDiscountBps)
	} else if profile.PlantingMonths[effective-1] {
		value = scaleBps(value, plantingPremiumBps)
		value = capBps(value)
	}
	if effective == cfg.PeakDemandMonth {
		value = scaleBps(value, peakDemandPremiumBps)
		value = capBps(value)
	}

	return RayFromBps(value), nil
}

// MultiplierBps is Multiplier with the result truncated back to basis points,
// for callers that stay in bps space (the weather overlay does).
func MultiplierBps(cfg SubCommodityConfig, profile cropcal.SeasonalProfile, currentMonth int) (uint64, error) {
	r, err := Multiplier(cfg, profile, currentMonth)
	if err != nil {
		return 0, err
	}
	return BpsFromRay(r).Uint64(), nil
}

// InHarvestSeason reports whether the hemisphere-adjusted month falls inside
// the sub-commodity's configured harvest window. The window wraps across the
// year boundary when the end month precedes the start month.
func InHarvestSeason(cfg SubCommodityConfig, currentMonth int) (bool, error) {
	if currentMonth < 1 || currentMonth > 12 {
		return false, errInvalidMonth
	}
	if err := cfg.Validate(); err != nil {
		return false, err
	}
	effective := currentMonth
	if cfg.Hemisphere == Southern {
		shifted, err := calendar.OppositeMonth(currentMonth)
		if err != nil {
			return false, err
		}
		effective = shifted
	}
	return calendar.MonthInRange(effective, cfg.HarvestStartMonth, cfg.HarvestEndMonth)
}

// effectiveMonth resolves which profile slot the evaluation reads. Generic
// profiles are hemisphere-relative templates, so southern sub-commodities
// shift by six months. Regional profiles already encode local seasons in
// absolute calendar months and must not be shifted a second time.
func effectiveMonth(h Hemisphere, scope cropcal.ProfileScope, month int) (int, error) {
	switch h {
	case Northern, Global:
		return month, nil
	case Southern:
		if scope == cropcal.ScopeRegional {
			return month, nil
		}
		return calendar.OppositeMonth(month)
	}
	return 0, ErrInvalidHemisphere
}

func capBps(value *big.Int) *big.Int {
	if value.Cmp(big.NewInt(maxMultiplierBps)) > 0 {
		return big.NewInt(maxMultiplierBps)
	}
	return value
}
