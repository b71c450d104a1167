package cropcal

// months flips the flags for the listed calendar months (1-12) in a fresh
// 12-slot array.
func months(list ...int) [12]bool {
	var flags [12]bool
	for _, m := range list {
		flags[m-1] = true
	}
	return flags
}

// The catalogue is hand-curated from public crop calendars. Harvest months
// carry the lowest multipliers and planting months the highest; the engine
// layers its discounts and premiums on top of these tables rather than
// deriving them by formula.
var catalogue = map[uint32]SeasonalProfile{
	USCorn: {
		Name:  "us-corn",
		Scope: ScopeRegional,
		MonthlyMultipliers: [12]uint64{
			10500, 10500, 10800, 11500, 11800, 11000,
			10500, 9500, 8500, 7500, 8000, 9800,
		},
		PlantingMonths: months(4, 5),
		HarvestMonths:  months(9, 10, 11),
	},
	USSoybean: {
		Name:  "us-soybean",
		Scope: ScopeRegional,
		MonthlyMultipliers: [12]uint64{
			10400, 10400, 10600, 11000, 11600, 11400,
			10800, 9800, 8600, 7800, 8200, 9600,
		},
		PlantingMonths: months(5, 6),
		HarvestMonths:  months(9, 10, 11),
	},
	USWinterWheat: {
		Name:  "us-winter-wheat",
		Scope: ScopeRegional,
		MonthlyMultipliers: [12]uint64{
			10200, 10400, 10800, 11200, 11000, 8400,
			7900, 8800, 11300, 11500, 10600, 10200,
		},
		PlantingMonths: months(9, 10),
		HarvestMonths:  months(6, 7),
	},
	// The Brazilian tables are authored in absolute calendar months, so the
	// southern growing cycle is already baked in.
	BrazilSoybean: {
		Name:  "brazil-soybean",
		Scope: ScopeRegional,
		MonthlyMultipliers: [12]uint64{
			8400, 7700, 7600, 8000, 8600, 9800,
			10400, 10600, 11200, 11600, 11400, 10200,
		},
		PlantingMonths: months(9, 10, 11, 12),
		HarvestMonths:  months(1, 2, 3, 4, 5),
	},
	BrazilCoffee: {
		Name:  "brazil-coffee",
		Scope: ScopeRegional,
		MonthlyMultipliers: [12]uint64{
			10600, 10800, 10900, 9800, 8400, 7900,
			7700, 8200, 8800, 10400, 11400, 11200,
		},
		PlantingMonths: months(11, 12),
		HarvestMonths:  months(5, 6, 7, 8, 9),
	},
	Sugarcane: {
		Name:  "sugarcane",
		Scope: ScopeRegional,
		MonthlyMultipliers: [12]uint64{
			10800, 11000, 10600, 9400, 8800, 8500,
			8400, 8500, 8800, 9200, 9600, 10400,
		},
		PlantingMonths: months(1, 2),
		HarvestMonths:  months(4, 5, 6, 7, 8, 9, 10, 11),
	},
	USCotton: {
		Name:  "us-cotton",
		Scope: ScopeRegional,
		MonthlyMultipliers: [12]uint64{
			10300, 10400, 10700, 11200, 11400, 11000,
			10600, 10000, 8800, 8100, 8400, 9800,
		},
		PlantingMonths: months(4, 5, 6),
		HarvestMonths:  months(9, 10, 11),
	},
	// Hemisphere-relative template for grains without a dedicated regional
	// table. Months are written for the northern cycle; the engine shifts
	// the lookup by six for southern sub-commodities.
	GenericGrain: {
		Name:  "generic-grain",
		Scope: ScopeGeneric,
		MonthlyMultipliers: [12]uint64{
			10200, 10300, 10700, 11300, 11500, 10900,
			10300, 9200, 8300, 7900, 8600, 9800,
		},
		PlantingMonths: months(4, 5),
		HarvestMonths:  months(8, 9, 10),
	},
	// Energy demand curves have no harvest or planting structure; only the
	// monthly demand multipliers matter.
	NaturalGas: {
		Name:  "natural-gas",
		Scope: ScopeRegional,
		MonthlyMultipliers: [12]uint64{
			12400, 12000, 10800, 9200, 8900, 9600,
			10400, 10600, 9400, 9800, 11200, 12500,
		},
	},
	HeatingOil: {
		Name:  "heating-oil",
		Scope: ScopeRegional,
		MonthlyMultipliers: [12]uint64{
			12200, 11800, 10600, 9400, 9000, 9000,
			9200, 9400, 9800, 10800, 11600, 12300,
		},
	},
	// Precious metals carry no seasonal structure at all; the zero slots
	// fall back to the 100% sentinel at evaluation time.
	Gold: {
		Name:  "gold",
		Scope: ScopeRegional,
	},
}
