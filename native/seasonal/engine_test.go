package seasonal

import (
	"math/big"
	"testing"

	"agrilend/native/calendar"
	"agrilend/native/cropcal"
)

func agriConfig(h Hemisphere) SubCommodityConfig {
	return SubCommodityConfig{
		SubCommodityID:     cropcal.USCorn,
		Type:               Agricultural,
		Hemisphere:         h,
		HarvestStartMonth:  9,
		HarvestEndMonth:    11,
		PeakDemandMonth:    10,
		WeatherSensitivity: 70,
	}
}

func rayFromBpsU(bps uint64) *big.Int {
	return RayFromBps(new(big.Int).SetUint64(bps))
}

func TestMultiplierUSCornOctober(t *testing.T) {
	profile, err := cropcal.Profile(cropcal.USCorn)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	got, err := Multiplier(agriConfig(Northern), profile, 10)
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	// October base 7500, harvest discount to 5625, peak-demand premium to
	// 6750 bps.
	if want := rayFromBpsU(6750); got.Cmp(want) != 0 {
		t.Fatalf("october corn multiplier: got %s want %s", got, want)
	}
}

func TestMultiplierHarvestWinsOverPlanting(t *testing.T) {
	profile := cropcal.SeasonalProfile{}
	profile.MonthlyMultipliers[5] = 10000
	profile.HarvestMonths[5] = true
	profile.PlantingMonths[5] = true

	cfg := agriConfig(Northern)
	cfg.PeakDemandMonth = 1

	got, err := Multiplier(cfg, profile, 6)
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	// Both flags set must resolve to the harvest discount, never the
	// planting premium.
	if want := rayFromBpsU(7500); got.Cmp(want) != 0 {
		t.Fatalf("conflicting flags: got %s want %s", got, want)
	}
}

func TestMultiplierZeroSlotDefaultsToPar(t *testing.T) {
	profile := cropcal.SeasonalProfile{}
	cfg := agriConfig(Northern)
	cfg.PeakDemandMonth = 12

	got, err := Multiplier(cfg, profile, 3)
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	if want := rayFromBpsU(10000); got.Cmp(want) != 0 {
		t.Fatalf("unset slot: got %s want %s", got, want)
	}
}

func TestMultiplierPlantingCapStacksWithPeak(t *testing.T) {
	profile := cropcal.SeasonalProfile{}
	profile.MonthlyMultipliers[3] = 19000
	profile.PlantingMonths[3] = true

	cfg := agriConfig(Northern)
	cfg.PeakDemandMonth = 4

	got, err := Multiplier(cfg, profile, 4)
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	// 19000 * 1.15 = 21850 caps at 20000; the peak premium would push to
	// 24000 and must be capped again.
	if want := rayFromBpsU(20000); got.Cmp(want) != 0 {
		t.Fatalf("stacked cap: got %s want %s", got, want)
	}
}

func TestMultiplierAlwaysWithinCap(t *testing.T) {
	bases := []uint64{0, 1, 7500, 10000, 15000, 19999, 20000}
	for _, base := range bases {
		for month := 1; month <= 12; month++ {
			for _, flags := range []struct{ harvest, planting, peak bool }{
				{false, false, false},
				{true, false, true},
				{false, true, true},
				{true, true, true},
			} {
				profile := cropcal.SeasonalProfile{}
				profile.MonthlyMultipliers[month-1] = base
				profile.HarvestMonths[month-1] = flags.harvest
				profile.PlantingMonths[month-1] = flags.planting

				cfg := agriConfig(Northern)
				if flags.peak {
					cfg.PeakDemandMonth = month
				} else {
					cfg.PeakDemandMonth = month%12 + 1
				}

				got, err := Multiplier(cfg, profile, month)
				if err != nil {
					t.Fatalf("multiplier base=%d month=%d: %v", base, month, err)
				}
				bps := BpsFromRay(got)
				if bps.Sign() < 0 || bps.Cmp(big.NewInt(20000)) > 0 {
					t.Fatalf("multiplier out of [0,20000]: base=%d month=%d got %s", base, month, bps)
				}
			}
		}
	}
}

func TestMultiplierSouthernGenericEquivalence(t *testing.T) {
	profile, err := cropcal.Profile(cropcal.GenericGrain)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	for month := 1; month <= 12; month++ {
		opposite, err := calendar.OppositeMonth(month)
		if err != nil {
			t.Fatalf("opposite month: %v", err)
		}
		south := agriConfig(Southern)
		north := agriConfig(Northern)

		southGot, err := Multiplier(south, profile, month)
		if err != nil {
			t.Fatalf("southern multiplier month %d: %v", month, err)
		}
		northGot, err := Multiplier(north, profile, opposite)
		if err != nil {
			t.Fatalf("northern multiplier month %d: %v", opposite, err)
		}
		if southGot.Cmp(northGot) != 0 {
			t.Fatalf("hemisphere equivalence broken at month %d: %s vs %s", month, southGot, northGot)
		}
	}
}

func TestMultiplierBrazilSoybeanNoDoubleInversion(t *testing.T) {
	profile, err := cropcal.Profile(cropcal.BrazilSoybean)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	cfg := SubCommodityConfig{
		SubCommodityID:    cropcal.BrazilSoybean,
		Type:              Agricultural,
		Hemisphere:        Southern,
		HarvestStartMonth: 1,
		HarvestEndMonth:   5,
		PeakDemandMonth:   9,
	}
	got, err := Multiplier(cfg, profile, 1)
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	// The regional table already encodes the southern cycle: January is a
	// harvest month at base 8400, so the discount applies directly. A
	// (wrong) second inversion would land in July at 10400 with no
	// discount.
	if want := rayFromBpsU(6300); got.Cmp(want) != 0 {
		t.Fatalf("brazil soybean january: got %s want %s", got, want)
	}
}

func TestMultiplierInputContract(t *testing.T) {
	profile := cropcal.SeasonalProfile{}
	if _, err := Multiplier(agriConfig(Northern), profile, 0); err != calendar.ErrInvalidMonth {
		t.Fatalf("expected invalid month error, got %v", err)
	}
	if _, err := Multiplier(agriConfig(Northern), profile, 13); err != calendar.ErrInvalidMonth {
		t.Fatalf("expected invalid month error, got %v", err)
	}
	bad := agriConfig(Hemisphere(9))
	if _, err := Multiplier(bad, profile, 6); err != ErrInvalidHemisphere {
		t.Fatalf("expected invalid hemisphere error, got %v", err)
	}
}

func TestInHarvestSeason(t *testing.T) {
	cfg := agriConfig(Northern)
	for month, want := range map[int]bool{8: false, 9: true, 10: true, 11: true, 12: false} {
		got, err := InHarvestSeason(cfg, month)
		if err != nil {
			t.Fatalf("harvest season month %d: %v", month, err)
		}
		if got != want {
			t.Fatalf("harvest season month %d: got %v want %v", month, got, want)
		}
	}

	// Wrap-around window: November through February.
	wrap := cfg
	wrap.HarvestStartMonth = 11
	wrap.HarvestEndMonth = 2
	for month, want := range map[int]bool{10: false, 11: true, 1: true, 2: true, 3: false} {
		got, err := InHarvestSeason(wrap, month)
		if err != nil {
			t.Fatalf("wrap harvest month %d: %v", month, err)
		}
		if got != want {
			t.Fatalf("wrap harvest month %d: got %v want %v", month, got, want)
		}
	}

	// Southern config with the same window shifts the check by six months.
	south := cfg
	south.Hemisphere = Southern
	got, err := InHarvestSeason(south, 4) // effective October
	if err != nil {
		t.Fatalf("southern harvest: %v", err)
	}
	if !got {
		t.Fatal("southern april should map into the september-november window")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := agriConfig(Northern)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	bad := cfg
	bad.PeakDemandMonth = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("expected month validation failure")
	}
	bad = cfg
	bad.WeatherSensitivity = 101
	if err := bad.Validate(); err != ErrInvalidSensitivity {
		t.Fatalf("expected sensitivity error, got %v", err)
	}
	bad = cfg
	bad.Type = CommodityType(42)
	if err := bad.Validate(); err != ErrInvalidCommodityType {
		t.Fatalf("expected commodity type error, got %v", err)
	}
}
