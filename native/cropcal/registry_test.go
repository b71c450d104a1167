package cropcal

import "testing"

func TestProfileUnknown(t *testing.T) {
	if _, err := Profile(9999); err != ErrUnknownCommodity {
		t.Fatalf("expected unknown commodity error, got %v", err)
	}
}

func TestProfileReturnsCopy(t *testing.T) {
	profile, err := Profile(USCorn)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	profile.MonthlyMultipliers[0] = 1

	again, err := Profile(USCorn)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if again.MonthlyMultipliers[0] == 1 {
		t.Fatal("catalogue table mutated through returned profile")
	}
}

func TestCatalogueDataInvariants(t *testing.T) {
	for _, id := range IDs() {
		profile, err := Profile(id)
		if err != nil {
			t.Fatalf("profile %d: %v", id, err)
		}
		if profile.Name == "" {
			t.Fatalf("profile %d has no name", id)
		}
		var sum, set, harvestSum, harvestCount, otherSum, otherCount uint64
		for i := 0; i < 12; i++ {
			m := profile.MonthlyMultipliers[i]
			if m > 20000 {
				t.Fatalf("profile %s month %d multiplier %d above 200%% cap", profile.Name, i+1, m)
			}
			if profile.HarvestMonths[i] && profile.PlantingMonths[i] {
				t.Fatalf("profile %s month %d flagged as both harvest and planting", profile.Name, i+1)
			}
			if m != 0 {
				sum += m
				set++
			}
			if profile.HarvestMonths[i] {
				harvestSum += m
				harvestCount++
			} else if m != 0 {
				otherSum += m
				otherCount++
			}
		}
		if set != 0 && set != 12 {
			t.Fatalf("profile %s has a partially populated multiplier table", profile.Name)
		}
		// Harvest months must sit below the rest of the year on average.
		if harvestCount > 0 && otherCount > 0 {
			if harvestSum/harvestCount >= otherSum/otherCount {
				t.Fatalf("profile %s harvest multipliers not below off-season average", profile.Name)
			}
		}
	}
}

func TestUSCornCalendar(t *testing.T) {
	profile, err := Profile(USCorn)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !profile.HarvestMonths[8] || !profile.HarvestMonths[9] || !profile.HarvestMonths[10] {
		t.Fatal("us corn harvest window should span september through november")
	}
	if !profile.PlantingMonths[3] || !profile.PlantingMonths[4] {
		t.Fatal("us corn planting window should span april and may")
	}
	if profile.MonthlyMultipliers[9] != 7500 {
		t.Fatalf("us corn october trough: got %d want 7500", profile.MonthlyMultipliers[9])
	}
}

func TestBrazilSoybeanIsRegionAbsolute(t *testing.T) {
	profile, err := Profile(BrazilSoybean)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Scope != ScopeRegional {
		t.Fatal("brazil soybean must be authored region-absolute")
	}
	for _, m := range []int{1, 2, 3, 4, 5} {
		if !profile.HarvestMonths[m-1] {
			t.Fatalf("brazil soybean month %d should be a harvest month", m)
		}
	}
}
