// Package cropcal holds the static per-commodity seasonal reference tables.
// Profiles are configuration data curated per crop and region, not live state;
// there is no mutation API.
package cropcal

import (
	"errors"
	"sort"
)

// ErrUnknownCommodity is returned when no profile exists for the requested id.
var ErrUnknownCommodity = errors.New("cropcal: unknown commodity id")

// ProfileScope distinguishes how a profile's month indexes are to be read.
type ProfileScope uint8

const (
	// ScopeGeneric marks a hemisphere-relative template authored for the
	// northern growing cycle. Evaluation for southern-hemisphere commodities
	// shifts the lookup month by six.
	ScopeGeneric ProfileScope = iota
	// ScopeRegional marks a profile whose months are absolute calendar
	// months for its region. The hemisphere shift must never be applied a
	// second time; the authored table already reflects local seasons.
	ScopeRegional
)

// String renders the scope for logs and diagnostics.
func (s ProfileScope) String() string {
	switch s {
	case ScopeGeneric:
		return "generic"
	case ScopeRegional:
		return "regional"
	}
	return "unknown"
}

// SeasonalProfile is one commodity's canonical calendar template. Month
// arrays are indexed 0 for January through 11 for December. A multiplier of
// zero is an unset sentinel, not a literal 0% rate.
type SeasonalProfile struct {
	Name               string
	Scope              ProfileScope
	MonthlyMultipliers [12]uint64
	HarvestMonths      [12]bool
	PlantingMonths     [12]bool
}

// Supported sub-commodity identifiers. Codes are unique within the
// agricultural namespace except for the energy and metal entries which carry
// their own blocks.
const (
	USCorn        uint32 = 101
	USSoybean     uint32 = 102
	USWinterWheat uint32 = 103
	BrazilSoybean uint32 = 104
	BrazilCoffee  uint32 = 105
	Sugarcane     uint32 = 106
	USCotton      uint32 = 107
	GenericGrain  uint32 = 199
	NaturalGas    uint32 = 201
	HeatingOil    uint32 = 202
	Gold          uint32 = 301
)

// Profile returns a copy of the seasonal profile registered for the given
// sub-commodity id.
func Profile(id uint32) (SeasonalProfile, error) {
	profile, ok := catalogue[id]
	if !ok {
		return SeasonalProfile{}, ErrUnknownCommodity
	}
	return profile, nil
}

// IDs lists every registered sub-commodity id in ascending order.
func IDs() []uint32 {
	ids := make([]uint32, 0, len(catalogue))
	for id := range catalogue {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
